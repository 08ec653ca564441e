// Package bookmyplayer extracts structured records from bookmyplayer.com
// profile pages. Pages come in three shapes (venue/academy, coach, player);
// the extractor runs every shape's field mapping and keeps the best-scoring
// result, falling back to URL patterns when no fields match.
package bookmyplayer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/bhargavak04/Book-My-Player-Scrape/internal/scrape"
)

// Profile types stamped into the extracted record.
const (
	TypeVenue  = "venue"
	TypeCoach  = "coach"
	TypePlayer = "player"
)

var (
	instagramPattern = regexp.MustCompile(`<a href="(https://www\.instagram\.com/[^"]+)"`)
	emailPattern     = regexp.MustCompile(`([a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`)
	phonePattern     = regexp.MustCompile(`(\+?[0-9\s\-\(\)]{10,})`)
	dobPattern       = regexp.MustCompile(`(?i)(?:Date Of Birth|DOB|Born)[:\s]*(\d{4}-\d{2}-\d{2})`)
	locationPattern  = regexp.MustCompile(`(?i)<i class="fa-solid fa-location-dot"></i>\s*([^<\n]+)`)
	digitsOnly       = regexp.MustCompile(`[^0-9]`)
)

// genericEmailPrefixes are mailbox names that belong to the site itself, not
// the listed person.
var genericEmailPrefixes = []string{"care@", "info@", "support@", "contact@", "admin@"}

// Extractor implements scrape.Extractor for bookmyplayer pages.
type Extractor struct {
	clock scrape.Clock
}

// New builds an Extractor. The clock stamps scraped_at on every record.
func New(clock scrape.Clock) *Extractor {
	return &Extractor{clock: clock}
}

// Extract interprets payload as either a coach JSON document or profile
// HTML and returns the structured record. It fails when the payload is
// empty or no profile shape can be determined.
func (e *Extractor) Extract(payload []byte, url string) (map[string]string, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil, errors.New("empty payload")
	}

	if trimmed[0] == '{' {
		return e.coachFromJSON(trimmed, url)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	html := string(payload)

	candidates := []map[string]string{
		e.extractVenue(doc, html, url),
		e.extractCoach(doc, html, url),
		e.extractPlayer(doc, html, url),
	}

	best := candidates[0]
	bestScore := score(best)
	for _, c := range candidates[1:] {
		if s := score(c); s > bestScore {
			best, bestScore = c, s
		}
	}
	if bestScore > 0 {
		return best, nil
	}

	// No field mapping matched; the URL path is the last hint.
	fallback := fallbackType(url)
	if fallback == "" {
		return nil, errors.New("could not determine content type")
	}
	for _, c := range candidates {
		if c["type"] == fallback {
			return c, nil
		}
	}
	return e.newRecord(fallback, url), nil
}

func (e *Extractor) newRecord(profileType, url string) map[string]string {
	return map[string]string{
		"type":       profileType,
		"url":        url,
		"scraped_at": e.clock.Now().Format(time.RFC3339),
	}
}

func (e *Extractor) extractVenue(doc *goquery.Document, html, url string) map[string]string {
	record := e.newRecord(TypeVenue, url)

	idFields := map[string]string{
		"academy_phone":       "phone",
		"academy_address":     "address",
		"listing_title":       "name",
		"loc_id_details":      "location_id",
		"sport_details":       "sport",
		"object_type_details": "object_type",
		"academy_phone2":      "phone2",
	}
	applyIDFields(doc, idFields, record)

	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok && desc != "" {
		record["description"] = desc
	}
	if m := instagramPattern.FindStringSubmatch(html); m != nil {
		record["instagram_url"] = m[1]
	}
	return record
}

func (e *Extractor) extractCoach(doc *goquery.Document, html, url string) map[string]string {
	record := e.newRecord(TypeCoach, url)

	idFields := map[string]string{
		"coachName":     "name",
		"coachPhone":    "phone",
		"coachAddress":  "address",
		"sport_details": "sport",
	}
	applyIDFields(doc, idFields, record)

	if record["name"] == "" {
		title := firstText(doc, "h1", "title")
		if strings.Contains(strings.ToLower(title), "coach") {
			record["name"] = title
		}
	}

	applyTextPatterns(html, record)

	if m := dobPattern.FindStringSubmatch(html); m != nil {
		record["date_of_birth"] = m[1]
	}
	return record
}

func (e *Extractor) extractPlayer(doc *goquery.Document, html, url string) map[string]string {
	record := e.newRecord(TypePlayer, url)

	idFields := map[string]string{
		"playerAddress":     "address",
		"playerPhone":       "phone",
		"playerName":        "name",
		"loc_id_details":    "location_id",
		"object_id_details": "object_id",
	}
	applyIDFields(doc, idFields, record)

	if record["name"] == "" {
		if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); len(h1) > 3 {
			record["name"] = h1
		} else if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
			// Titles read "Name - Basketball Player in Noida".
			record["name"] = strings.TrimSpace(strings.SplitN(title, " - ", 2)[0])
		}
	}

	applyTextPatterns(html, record)
	return record
}

// coachFromJSON handles the coach endpoint's JSON responses, which wrap the
// profile under a "d" key.
func (e *Extractor) coachFromJSON(payload []byte, url string) (map[string]string, error) {
	var envelope struct {
		D map[string]any `json:"d"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("parse coach json: %w", err)
	}
	if envelope.D == nil {
		return nil, errors.New(`coach json has no "d" key`)
	}

	record := e.newRecord(TypeCoach, url)
	mapping := map[string]string{
		"name": "name", "phone": "phone", "email": "email",
		"address": "address", "city": "city", "state": "state",
		"sport": "sport", "experience": "experience",
		"education": "education", "achievement": "achievement",
		"skill": "skills", "heighlight": "highlight", "fee": "fee",
		"package": "package", "gender": "gender", "location": "location",
		"certificate": "certificate", "about": "about",
		"postcode": "postcode", "lat": "latitude", "lng": "longitude",
	}
	for jsonKey, key := range mapping {
		raw, ok := envelope.D[jsonKey]
		if !ok || raw == nil {
			continue
		}
		value := strings.TrimSpace(fmt.Sprintf("%v", raw))
		if value == "" {
			continue
		}
		if key == "phone" {
			value = formatPhone(value)
		}
		record[key] = value
	}

	if record["location"] == "" {
		record["location"] = joinLocation(record["city"], record["state"])
	}
	if record["location"] == "" {
		delete(record, "location")
	}
	return record, nil
}

func applyIDFields(doc *goquery.Document, idFields map[string]string, record map[string]string) {
	for id, key := range idFields {
		sel := doc.Find("#" + id).First()
		if sel.Length() == 0 {
			continue
		}
		value, ok := sel.Attr("value")
		if !ok || value == "" {
			value = strings.TrimSpace(sel.Text())
		}
		if value == "" {
			continue
		}
		if strings.HasPrefix(key, "phone") {
			value = formatPhone(value)
		}
		record[key] = value
	}
}

// applyTextPatterns fills location, email, and phone from the free-form
// contact block shared by coach and player pages.
func applyTextPatterns(html string, record map[string]string) {
	if record["location"] == "" {
		if m := locationPattern.FindStringSubmatch(html); m != nil {
			loc := strings.TrimSpace(m[1])
			if len(loc) > 3 && len(loc) < 200 && loc != "-" {
				record["location"] = loc
			}
		}
	}
	if record["email"] == "" {
		for _, m := range emailPattern.FindAllString(html, -1) {
			if isGenericEmail(m) || len(m) >= 100 {
				continue
			}
			record["email"] = m
			break
		}
	}
	if record["phone"] == "" {
		if m := phonePattern.FindStringSubmatch(html); m != nil {
			candidate := strings.TrimSpace(m[1])
			if len(digitsOnly.ReplaceAllString(candidate, "")) >= 10 {
				record["phone"] = formatPhone(candidate)
			}
		}
	}
}

func firstText(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if text := strings.TrimSpace(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func isGenericEmail(email string) bool {
	lower := strings.ToLower(email)
	for _, prefix := range genericEmailPrefixes {
		if strings.Contains(lower, prefix) {
			return true
		}
	}
	return false
}

func joinLocation(city, state string) string {
	switch {
	case city != "" && state != "":
		if strings.Contains(strings.ToLower(city), strings.ToLower(state)) {
			return city
		}
		return city + ", " + state
	case city != "":
		return city
	default:
		return state
	}
}

// score rates how well a shape's field mapping matched. Key contact fields
// weigh most; a zero score means the shape did not match at all.
func score(record map[string]string) int {
	total := 0
	for _, key := range []string{"name", "phone", "address", "email"} {
		if record[key] != "" {
			total += 5
		}
	}
	for _, key := range []string{"sport", "location", "experience", "education"} {
		if record[key] != "" {
			total += 3
		}
	}
	if record["description"] != "" {
		total += 2
	}
	return total
}

// fallbackType guesses the profile shape from URL conventions when field
// extraction found nothing.
func fallbackType(url string) string {
	lower := strings.ToLower(url)
	venueHints := []string{
		"/gym/", "/academy", "academy", "/school", "school",
		"/club", "club", "/fc", "fc", "/acad", "acad", "-aid-", "/aid-",
	}
	for _, hint := range venueHints {
		if strings.Contains(lower, hint) {
			return TypeVenue
		}
	}
	if strings.Contains(lower, "coach") || strings.Contains(lower, "-chid-") {
		return TypeCoach
	}
	if strings.Contains(lower, "player") || strings.Contains(lower, "-pid-") {
		return TypePlayer
	}
	return ""
}

// formatPhone normalizes Indian phone numbers to their 10 significant
// digits, keeping the raw value when it cannot be normalized.
func formatPhone(raw string) string {
	digits := digitsOnly.ReplaceAllString(raw, "")
	switch {
	case len(digits) == 10:
		return digits
	case len(digits) > 10:
		return digits[len(digits)-10:]
	default:
		return raw
	}
}
