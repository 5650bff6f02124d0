package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const (
	pageWidthPortrait  = 190.0
	pageWidthLandscape = 277.0
)

// Field is one labelled block of a printed document.
type Field struct {
	Label string
	Value string
}

// Document is a single record laid out for printing: a heading, labelled
// sections and an optional table.
type Document struct {
	Title    string
	Subtitle string
	Fields   []Field
	Table    *Dataset
}

// PDFExporter renders datasets and documents into PDF.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// ContentType is the MIME type of rendered output.
func (e *PDFExporter) ContentType() string {
	return "application/pdf"
}

// Render creates a PDF document with an optional title and table body. Wide
// tables switch to landscape.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	orientation, width := "P", pageWidthPortrait
	if len(data.Headers) > 5 {
		orientation, width = "L", pageWidthLandscape
	}
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	writeTable(pdf, tr, data, width)
	return output(pdf)
}

// RenderDocument lays out a single record for printing.
func (e *PDFExporter) RenderDocument(doc Document) ([]byte, error) {
	if strings.TrimSpace(doc.Title) == "" {
		return nil, fmt.Errorf("pdf document requires a title")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 16)
	pdf.MultiCell(0, 8, tr(doc.Title), "", "L", false)
	if doc.Subtitle != "" {
		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(90, 90, 90)
		pdf.MultiCell(0, 6, tr(doc.Subtitle), "", "L", false)
		pdf.SetTextColor(0, 0, 0)
	}
	pdf.Ln(4)

	for _, field := range doc.Fields {
		if strings.TrimSpace(field.Value) == "" {
			continue
		}
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(0, 7, tr(field.Label), "B", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 5, tr(field.Value), "", "L", false)
		pdf.Ln(3)
	}

	if doc.Table != nil && len(doc.Table.Headers) > 0 && len(doc.Table.Rows) > 0 {
		writeTable(pdf, tr, *doc.Table, 180)
	}

	return output(pdf)
}

func writeTable(pdf *gofpdf.Fpdf, tr func(string) string, data Dataset, width float64) {
	colWidth := width / float64(len(data.Headers))

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, tr(header), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	const lineHeight = 5.0
	for _, row := range data.Rows {
		// size the row to its tallest wrapped cell
		lines := 1
		for i := range data.Headers {
			if n := len(pdf.SplitLines([]byte(tr(cell(row, i))), colWidth-2)); n > lines {
				lines = n
			}
		}
		height := float64(lines) * lineHeight
		_, pageHeight := pdf.GetPageSize()
		_, _, _, bottom := pdf.GetMargins()
		if pdf.GetY()+height > pageHeight-bottom {
			pdf.AddPage()
		}

		x, y := pdf.GetXY()
		for i := range data.Headers {
			cellX := x + float64(i)*colWidth
			pdf.Rect(cellX, y, colWidth, height, "D")
			pdf.SetXY(cellX+1, y)
			pdf.MultiCell(colWidth-2, lineHeight, tr(cell(row, i)), "", "L", false)
		}
		pdf.SetXY(x, y+height)
	}
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
