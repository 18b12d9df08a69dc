package formatters

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/millrace/flume/pkg/types"
)

// TextFormatter formats log records as human-readable text
type TextFormatter struct {
	Options FormatOptions
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{
		Options: DefaultFormatOptions(),
	}
}

// Format renders a record as one bracketed text line:
//
//	[2006-01-02T15:04:05Z] [INFO] [name] message key=value (file.go:42)
//
// Fields are sorted by key so output is stable. The returned slice is
// freshly allocated and never aliases rec.
func (f *TextFormatter) Format(rec types.Record) ([]byte, error) {
	var result strings.Builder

	if f.Options.IncludeTime {
		result.WriteString("[")
		result.WriteString(f.Options.formatTimestamp(rec.Time))
		result.WriteString("] ")
	}

	if f.Options.IncludeLevel {
		result.WriteString("[")
		result.WriteString(f.Options.formatLevel(rec.Level))
		result.WriteString("] ")
	}

	if rec.Logger != "" {
		result.WriteString("[")
		result.WriteString(rec.Logger)
		result.WriteString("] ")
	}

	result.Write(rec.Msg)

	if len(rec.Fields) > 0 {
		keys := make([]string, 0, len(rec.Fields))
		for k := range rec.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			result.WriteString(" ")
			result.WriteString(k)
			result.WriteString("=")
			fmt.Fprintf(&result, "%v", rec.Fields[k])
		}
	}

	if f.Options.IncludeSource && !rec.Source.Empty() {
		fmt.Fprintf(&result, " (%s:%d)", filepath.Base(rec.Source.File), rec.Source.Line)
	}

	result.WriteString("\n")

	return []byte(result.String()), nil
}
