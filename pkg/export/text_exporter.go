package export

import (
	"fmt"
	"strings"
)

// TextExporter renders a dataset as a plain-text message suitable for
// sharing through chat applications.
type TextExporter struct{}

// NewTextExporter constructs a text exporter.
func NewTextExporter() *TextExporter {
	return &TextExporter{}
}

// Render writes the title, the summary lines and then one block per row.
// The first header names each block; the remaining headers become
// "label: value" lines inside it.
func (e *TextExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("text export requires at least one header")
	}

	var b strings.Builder
	if data.Title != "" {
		b.WriteString(strings.ToUpper(data.Title))
		b.WriteString("\n\n")
	}
	for _, line := range data.Summary {
		fmt.Fprintf(&b, "%s: %s\n", line.Label, line.Value)
	}

	for i, row := range data.Rows {
		b.WriteString("\n")
		fmt.Fprintf(&b, "%d. %s\n", i+1, row[data.Headers[0]])
		for _, header := range data.Headers[1:] {
			fmt.Fprintf(&b, "   %s: %s\n", header, row[header])
		}
	}

	return []byte(b.String()), nil
}
