package bookmyplayer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

func newTestExtractor() *Extractor {
	return New(fixedClock{at: time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)})
}

const venueHTML = `<html>
<head>
<title>Champions Cricket Academy in Pune</title>
<meta name="description" content="Cricket academy in Pune with certified coaches">
</head>
<body>
<input id="listing_title" value="Champions Cricket Academy">
<input id="academy_phone" value="+91 98765-43210">
<input id="academy_address" value="12 MG Road, Pune">
<input id="sport_details" value="Cricket">
<a href="https://www.instagram.com/champions_academy">Follow us</a>
</body>
</html>`

func TestExtract_Venue(t *testing.T) {
	t.Parallel()
	record, err := newTestExtractor().Extract([]byte(venueHTML), "https://bookmyplayer.com/champions-aid-42")
	require.NoError(t, err)

	assert.Equal(t, TypeVenue, record["type"])
	assert.Equal(t, "Champions Cricket Academy", record["name"])
	assert.Equal(t, "9876543210", record["phone"])
	assert.Equal(t, "12 MG Road, Pune", record["address"])
	assert.Equal(t, "Cricket", record["sport"])
	assert.Equal(t, "Cricket academy in Pune with certified coaches", record["description"])
	assert.Equal(t, "https://www.instagram.com/champions_academy", record["instagram_url"])
	assert.Equal(t, "2025-05-20T10:00:00Z", record["scraped_at"])
	assert.Equal(t, "https://bookmyplayer.com/champions-aid-42", record["url"])
}

const coachHTML = `<html>
<head><title>Coach Rahul Verma</title></head>
<body>
<input id="coachName" value="Rahul Verma">
<input id="coachPhone" value="98765 43210">
<input id="coachAddress" value="Sector 18, Noida">
<p><i class="fa-solid fa-location-dot"></i> Noida, Uttar Pradesh</p>
<p>Date Of Birth: 1985-04-12</p>
<p>Reach out at rahul.verma@gmail.com</p>
</body>
</html>`

func TestExtract_Coach(t *testing.T) {
	t.Parallel()
	record, err := newTestExtractor().Extract([]byte(coachHTML), "https://bookmyplayer.com/rahul-chid-9")
	require.NoError(t, err)

	assert.Equal(t, TypeCoach, record["type"])
	assert.Equal(t, "Rahul Verma", record["name"])
	assert.Equal(t, "9876543210", record["phone"])
	assert.Equal(t, "Sector 18, Noida", record["address"])
	assert.Equal(t, "Noida, Uttar Pradesh", record["location"])
	assert.Equal(t, "1985-04-12", record["date_of_birth"])
	assert.Equal(t, "rahul.verma@gmail.com", record["email"])
}

const playerHTML = `<html>
<head><title>Arjun Singh - Basketball Player in Delhi</title></head>
<body>
<input id="playerName" value="Arjun Singh">
<input id="playerPhone" value="+919812345678">
<input id="playerAddress" value="Dwarka, Delhi">
<input id="object_id_details" value="PID123">
</body>
</html>`

func TestExtract_Player(t *testing.T) {
	t.Parallel()
	record, err := newTestExtractor().Extract([]byte(playerHTML), "https://bookmyplayer.com/arjun-pid-123")
	require.NoError(t, err)

	assert.Equal(t, TypePlayer, record["type"])
	assert.Equal(t, "Arjun Singh", record["name"])
	assert.Equal(t, "9812345678", record["phone"])
	assert.Equal(t, "Dwarka, Delhi", record["address"])
	assert.Equal(t, "PID123", record["object_id"])
}

func TestExtract_PlayerNameFromTitle(t *testing.T) {
	t.Parallel()
	html := `<html>
<head><title>Arjun Singh - Basketball Player in Delhi</title></head>
<body>
<input id="playerPhone" value="9812345678">
<input id="playerAddress" value="Dwarka, Delhi">
</body>
</html>`
	record, err := newTestExtractor().Extract([]byte(html), "https://bookmyplayer.com/arjun-pid-123")
	require.NoError(t, err)

	assert.Equal(t, TypePlayer, record["type"])
	assert.Equal(t, "Arjun Singh", record["name"])
}

func TestExtract_CoachJSON(t *testing.T) {
	t.Parallel()
	payload := `{"d":{
		"name": "Suresh Kumar",
		"phone": "+91 98765 43210",
		"city": "Pune",
		"state": "Maharashtra",
		"sport": "Tennis",
		"experience": "12 years",
		"heighlight": "State champion 2015",
		"fee": 500
	}}`

	record, err := newTestExtractor().Extract([]byte(payload), "https://bookmyplayer.com/api/coach/77")
	require.NoError(t, err)

	assert.Equal(t, TypeCoach, record["type"])
	assert.Equal(t, "Suresh Kumar", record["name"])
	assert.Equal(t, "9876543210", record["phone"])
	assert.Equal(t, "Pune, Maharashtra", record["location"])
	assert.Equal(t, "Tennis", record["sport"])
	assert.Equal(t, "12 years", record["experience"])
	// The upstream field is misspelled; the record key is not.
	assert.Equal(t, "State champion 2015", record["highlight"])
	assert.Equal(t, "500", record["fee"])
}

func TestExtract_CoachJSONErrors(t *testing.T) {
	t.Parallel()
	extractor := newTestExtractor()

	_, err := extractor.Extract([]byte(`{"result": "ok"}`), "https://bookmyplayer.com/api/coach/1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"d"`)

	_, err = extractor.Extract([]byte(`{broken`), "https://bookmyplayer.com/api/coach/1")
	require.Error(t, err)
}

func TestExtract_EmptyPayload(t *testing.T) {
	t.Parallel()
	extractor := newTestExtractor()

	_, err := extractor.Extract(nil, "https://bookmyplayer.com/x")
	require.Error(t, err)
	_, err = extractor.Extract([]byte("   \n\t"), "https://bookmyplayer.com/x")
	require.Error(t, err)
}

func TestExtract_FallbackFromURL(t *testing.T) {
	t.Parallel()
	blank := []byte("<html><body><div>nothing here</div></body></html>")

	tests := []struct {
		name string
		url  string
		want string
	}{
		{"academy url", "https://bookmyplayer.com/champions-academy", TypeVenue},
		{"coach id url", "https://bookmyplayer.com/rahul-chid-9", TypeCoach},
		{"player id url", "https://bookmyplayer.com/arjun-pid-123", TypePlayer},
	}

	extractor := newTestExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := extractor.Extract(blank, tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, record["type"])
			assert.Equal(t, tt.url, record["url"])
		})
	}
}

func TestExtract_UndeterminedType(t *testing.T) {
	t.Parallel()
	blank := []byte("<html><body><div>nothing here</div></body></html>")

	_, err := newTestExtractor().Extract(blank, "https://example.org/item/123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "content type")
}

func TestFormatPhone(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{"9876543210", "9876543210"},
		{"+91 98765 43210", "9876543210"},
		{"(+91) 98765-43210", "9876543210"},
		{"12345", "12345"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatPhone(tt.in), "input %q", tt.in)
	}
}

func TestJoinLocation(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Pune, Maharashtra", joinLocation("Pune", "Maharashtra"))
	assert.Equal(t, "Pune", joinLocation("Pune", ""))
	assert.Equal(t, "Maharashtra", joinLocation("", "Maharashtra"))
	assert.Equal(t, "", joinLocation("", ""))
	// City already naming the state is not doubled.
	assert.Equal(t, "Mumbai, Maharashtra region", joinLocation("Mumbai, Maharashtra region", "Maharashtra"))
}

func TestIsGenericEmail(t *testing.T) {
	t.Parallel()
	assert.True(t, isGenericEmail("care@bookmyplayer.com"))
	assert.True(t, isGenericEmail("Info@Example.com"))
	assert.False(t, isGenericEmail("rahul.verma@gmail.com"))
}
