package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
)

// Dataset is a table of string cells. Every row has one cell per header.
type Dataset struct {
	Headers []string
	Rows    [][]string
}

// Add appends a row, padding or truncating values to the header count.
func (d *Dataset) Add(values ...string) {
	row := make([]string, len(d.Headers))
	copy(row, values)
	d.Rows = append(d.Rows, row)
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVExporter writes datasets as RFC 4180 CSV.
type CSVExporter struct {
	// BOM prefixes the output with a UTF-8 byte order mark so spreadsheet
	// tools pick the right encoding for names with accents.
	BOM bool
}

// NewCSVExporter builds a CSV exporter without a byte order mark.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// ContentType is the MIME type of rendered output.
func (e *CSVExporter) ContentType() string {
	return "text/csv; charset=utf-8"
}

// Render encodes the dataset. Cells that a spreadsheet would read as a
// formula are prefixed with a single quote.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, errors.New("csv requires at least one header")
	}
	var buf bytes.Buffer
	if e.BOM {
		buf.Write(utf8BOM)
	}
	w := csv.NewWriter(&buf)
	if err := w.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	record := make([]string, len(data.Headers))
	for n, row := range data.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row) {
				record[i] = neutralise(row[i])
			}
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row %d: %w", n+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func neutralise(cell string) string {
	if cell == "" {
		return cell
	}
	switch cell[0] {
	case '=', '+', '-', '@', '\t', '\r':
		if cell[0] == '-' && isNumber(cell) {
			return cell
		}
		return "'" + cell
	}
	return cell
}

func isNumber(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	dot := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '.' && !dot:
			dot = true
		default:
			return false
		}
	}
	return true
}
