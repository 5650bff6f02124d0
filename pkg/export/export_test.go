package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRendersInHeaderOrder(t *testing.T) {
	data := Dataset{Headers: []string{"date", "topic"}}
	data.Add("2024-03-01", "Cells, tissues")
	data.Add("2024-03-02")

	out, err := NewCSVExporter().Render(data)
	require.NoError(t, err)
	assert.Equal(t, "date,topic\n2024-03-01,\"Cells, tissues\"\n2024-03-02,\n", string(out))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	data := Dataset{Headers: []string{"date", "topic"}}
	data.Add("2024-03-01", strings.Repeat("long topic ", 20))

	out, err := NewPDFExporter().Render(data, "Lesson plans")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestPDFExporterRenderDocument(t *testing.T) {
	table := &Dataset{Headers: []string{"Stage", "Duration"}}
	table.Add("Starter", "10 min")

	out, err := NewPDFExporter().RenderDocument(Document{
		Title:    "Photosynthesis",
		Subtitle: "10B · 2024-03-01 09:00",
		Fields: []Field{
			{Label: "Objectives", Value: "Describe the light reaction"},
			{Label: "Notes", Value: ""},
		},
		Table: table,
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	_, err = NewPDFExporter().RenderDocument(Document{})
	assert.Error(t, err)
}

func TestCSVExporterNeutralisesFormulas(t *testing.T) {
	data := Dataset{Headers: []string{"topic", "duration"}}
	data.Add("=HYPERLINK(\"x\")", "-5")
	data.Add("@home", "-ish")

	out, err := (&CSVExporter{BOM: true}).Render(data)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, utf8BOM))
	assert.Equal(t, "topic,duration\n\"'=HYPERLINK(\"\"x\"\")\",-5\n'@home,'-ish\n", string(out[len(utf8BOM):]))
}
