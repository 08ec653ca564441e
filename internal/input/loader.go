// Package input reads the tabular URL list that seeds a scrape run.
package input

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/bhargavak04/Book-My-Player-Scrape/internal/scrape"
)

// Loader reads spreadsheet (xlsx/xls) or delimited (csv/tsv) files and
// yields rows in file order. Re-reading the same unmodified file always
// produces the same sequence.
type Loader struct{}

// NewLoader creates a Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads the file at path and returns its rows. The header must contain
// a column whose name equals urlColumn exactly (case-sensitive). Rows with
// an empty URL are kept so that indices stay contiguous; the driver records
// them as failures. A missing file, unreadable content, or absent column
// returns a *scrape.InputError.
func (l *Loader) Load(path, urlColumn string) ([]scrape.Row, error) {
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		records, err = readExcel(path)
	default:
		records, err = readDelimited(path)
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, &scrape.InputError{Path: path, Reason: "file has no header row"}
	}

	header := records[0]
	urlCol := -1
	for i, name := range header {
		if name == urlColumn {
			urlCol = i
			break
		}
	}
	if urlCol < 0 {
		return nil, &scrape.InputError{
			Path:   path,
			Reason: fmt.Sprintf("column %q not found in header %v", urlColumn, header),
		}
	}

	rows := make([]scrape.Row, 0, len(records)-1)
	for i, cells := range records[1:] {
		row := scrape.Row{Index: i}
		if urlCol < len(cells) {
			row.URL = strings.TrimSpace(cells[urlCol])
		}
		for j, name := range header {
			if j == urlCol || j >= len(cells) {
				continue
			}
			if value := strings.TrimSpace(cells[j]); value != "" {
				if row.Extra == nil {
					row.Extra = make(map[string]string)
				}
				row.Extra[name] = value
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func readExcel(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &scrape.InputError{Path: path, Reason: "open spreadsheet", Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &scrape.InputError{Path: path, Reason: "spreadsheet has no sheets"}
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &scrape.InputError{Path: path, Reason: "read sheet rows", Err: err}
	}
	return records, nil
}

func readDelimited(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &scrape.InputError{Path: path, Reason: "open file", Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		r.Comma = '\t'
	}
	// Input rows may have ragged trailing columns.
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, &scrape.InputError{Path: path, Reason: "parse delimited file", Err: err}
	}
	return records, nil
}
