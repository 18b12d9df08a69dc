package formatters

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/millrace/flume/pkg/types"
)

// JSONFormatter formats log records as line-delimited JSON
type JSONFormatter struct {
	Options       FormatOptions
	ExcludeFields []string // Optional: field keys to drop from output
}

// NewJSONFormatter creates a new JSON formatter. JSON output uses
// lowercase level names by convention.
func NewJSONFormatter() *JSONFormatter {
	opts := DefaultFormatOptions()
	opts.LevelFormat = LevelFormatNameLower
	return &JSONFormatter{
		Options: opts,
	}
}

// Format renders a record as one JSON object per line. Field values
// that cannot marshal are replaced with their fmt representation
// rather than failing the whole record.
func (f *JSONFormatter) Format(rec types.Record) ([]byte, error) {
	entry := make(map[string]interface{})

	if f.Options.IncludeTime {
		entry["timestamp"] = f.Options.formatTimestamp(rec.Time)
	}

	if f.Options.IncludeLevel {
		entry["level"] = f.Options.formatLevel(rec.Level)
	}

	if rec.Logger != "" {
		entry["logger"] = rec.Logger
	}

	entry["message"] = string(rec.Msg)

	if len(rec.Fields) > 0 {
		fields := make(map[string]interface{}, len(rec.Fields))
		for k, v := range rec.Fields {
			if !f.shouldExcludeField(k) {
				fields[k] = v
			}
		}
		if len(fields) > 0 {
			entry["fields"] = fields
		}
	}

	if f.Options.IncludeSource && !rec.Source.Empty() {
		entry["source"] = fmt.Sprintf("%s:%d", filepath.Base(rec.Source.File), rec.Source.Line)
	}

	if f.Options.IncludeHost {
		entry["host"] = getHostname()
		entry["pid"] = getPID()
	}

	data, err := f.marshal(entry)
	if err != nil {
		// Some field value broke the whole object. Flatten every
		// field to a string and try once more.
		if fields, ok := entry["fields"].(map[string]interface{}); ok {
			safe := make(map[string]interface{}, len(fields))
			for k, v := range fields {
				safe[k] = fmt.Sprintf("%v", v)
			}
			entry["fields"] = safe
		}
		data, err = f.marshal(entry)
		if err != nil {
			return nil, err
		}
	}

	// Line-delimited JSON
	data = append(data, '\n')

	return data, nil
}

// shouldExcludeField checks if a field should be dropped from output
func (f *JSONFormatter) shouldExcludeField(field string) bool {
	for _, excluded := range f.ExcludeFields {
		if field == excluded {
			return true
		}
	}
	return false
}

// WithExcludeFields sets fields to exclude from JSON output
func (f *JSONFormatter) WithExcludeFields(fields ...string) *JSONFormatter {
	f.ExcludeFields = fields
	return f
}

func (f *JSONFormatter) marshal(entry map[string]interface{}) ([]byte, error) {
	if f.Options.IndentJSON {
		return json.MarshalIndent(entry, "", "  ")
	}
	return json.Marshal(entry)
}
