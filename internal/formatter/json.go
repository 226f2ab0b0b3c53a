package formatter

import (
	"io"

	json "github.com/goccy/go-json"
)

// JSONFormatter writes any result as indented JSON
type JSONFormatter struct {
	writer io.Writer
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{writer: w}
}

// Format encodes v followed by a newline
func (f *JSONFormatter) Format(v any) error {
	enc := json.NewEncoder(f.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
