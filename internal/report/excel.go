// Package report exports scrape outcomes to an Excel workbook with one
// sheet per profile type, mirroring the layout operators already consume.
package report

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/bhargavak04/Book-My-Player-Scrape/internal/scrape"
)

const errorsSheet = "Errors"

// sheetForType maps record types to workbook sheet names. Anything else
// lands on the Errors sheet.
var sheetForType = map[string]string{
	"venue":  "Venues",
	"coach":  "Coaches",
	"player": "Players",
}

// Exporter writes the workbook to a fixed path, replacing it on each call.
type Exporter struct {
	path string
}

// NewExporter creates an Exporter targeting path.
func NewExporter(path string) *Exporter {
	return &Exporter{path: path}
}

// Export writes all outcomes. Successful records are grouped by their
// "type" field; failures and skips go to the Errors sheet.
func (e *Exporter) Export(outcomes []scrape.Outcome) error {
	f := excelize.NewFile()
	defer f.Close()

	grouped := make(map[string][]scrape.Outcome)
	var failures []scrape.Outcome
	for _, outcome := range outcomes {
		if outcome.Status != scrape.StatusSuccess {
			failures = append(failures, outcome)
			continue
		}
		sheet, ok := sheetForType[outcome.Record["type"]]
		if !ok {
			failures = append(failures, outcome)
			continue
		}
		grouped[sheet] = append(grouped[sheet], outcome)
	}

	first := true
	for _, sheet := range []string{"Venues", "Coaches", "Players"} {
		rows := grouped[sheet]
		if len(rows) == 0 {
			continue
		}
		if err := addRecordSheet(f, sheet, rows, first); err != nil {
			return err
		}
		first = false
	}
	if len(failures) > 0 {
		if err := addErrorSheet(f, failures, first); err != nil {
			return err
		}
		first = false
	}
	if first {
		// Nothing written; keep the default sheet so the file stays valid.
		f.SetSheetName("Sheet1", "Results")
	}

	if err := f.SaveAs(e.path); err != nil {
		return fmt.Errorf("save workbook %s: %w", e.path, err)
	}
	return nil
}

func addRecordSheet(f *excelize.File, sheet string, outcomes []scrape.Outcome, reuseDefault bool) error {
	if err := ensureSheet(f, sheet, reuseDefault); err != nil {
		return err
	}

	headers := recordHeaders(outcomes)
	if err := writeRow(f, sheet, 1, headers); err != nil {
		return err
	}
	for i, outcome := range outcomes {
		cells := make([]string, 0, len(headers))
		cells = append(cells, strconv.Itoa(outcome.Index))
		for _, key := range headers[1:] {
			cells = append(cells, outcome.Record[key])
		}
		if err := writeRow(f, sheet, i+2, cells); err != nil {
			return err
		}
	}
	return nil
}

func addErrorSheet(f *excelize.File, outcomes []scrape.Outcome, reuseDefault bool) error {
	if err := ensureSheet(f, errorsSheet, reuseDefault); err != nil {
		return err
	}
	headers := []string{"index", "url", "status", "reason", "retryable"}
	if err := writeRow(f, errorsSheet, 1, headers); err != nil {
		return err
	}
	for i, outcome := range outcomes {
		cells := []string{
			strconv.Itoa(outcome.Index),
			outcome.URL,
			string(outcome.Status),
			outcome.Reason,
			strconv.FormatBool(outcome.Retryable),
		}
		if err := writeRow(f, errorsSheet, i+2, cells); err != nil {
			return err
		}
	}
	return nil
}

func ensureSheet(f *excelize.File, sheet string, reuseDefault bool) error {
	if reuseDefault {
		f.SetSheetName("Sheet1", sheet)
		return nil
	}
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	return nil
}

// recordHeaders is the sorted union of record keys, with index first and
// the identity fields ahead of the rest.
func recordHeaders(outcomes []scrape.Outcome) []string {
	seen := make(map[string]struct{})
	for _, outcome := range outcomes {
		for key := range outcome.Record {
			seen[key] = struct{}{}
		}
	}
	leading := []string{"type", "url", "name"}
	headers := []string{"index"}
	for _, key := range leading {
		if _, ok := seen[key]; ok {
			headers = append(headers, key)
			delete(seen, key)
		}
	}
	rest := make([]string, 0, len(seen))
	for key := range seen {
		rest = append(rest, key)
	}
	sort.Strings(rest)
	return append(headers, rest...)
}

func writeRow(f *excelize.File, sheet string, rowNum int, cells []string) error {
	for i, value := range cells {
		cell, err := excelize.CoordinatesToCellName(i+1, rowNum)
		if err != nil {
			return fmt.Errorf("cell coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("set cell %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}
