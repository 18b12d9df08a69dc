package formatters

import (
	"strings"
	"time"

	"github.com/millrace/flume/pkg/types"
)

// FormatOptions controls the output format
type FormatOptions struct {
	TimestampFormat string
	IncludeLevel    bool
	IncludeTime     bool
	IncludeSource   bool // Whether to include the captured call site
	IncludeHost     bool // Whether to include hostname and pid
	LevelFormat     LevelFormat
	IndentJSON      bool
	TimeZone        *time.Location
}

// LevelFormat defines level format options
type LevelFormat int

const (
	// LevelFormatName formats levels as their names (DEBUG, INFO, etc)
	LevelFormatName LevelFormat = iota
	// LevelFormatNameLower formats levels as lowercase names
	LevelFormatNameLower
	// LevelFormatSymbol formats levels as single-character symbols
	LevelFormatSymbol
)

// DefaultFormatOptions returns default formatting options
func DefaultFormatOptions() FormatOptions {
	return FormatOptions{
		TimestampFormat: time.RFC3339,
		IncludeLevel:    true,
		IncludeTime:     true,
		IncludeSource:   true,
		LevelFormat:     LevelFormatName,
		IndentJSON:      false,
		TimeZone:        time.UTC,
	}
}

// formatLevel renders a level per the configured LevelFormat.
func (o FormatOptions) formatLevel(level int) string {
	name := types.LevelName(level)
	switch o.LevelFormat {
	case LevelFormatNameLower:
		return strings.ToLower(name)
	case LevelFormatSymbol:
		return name[:1]
	default:
		return name
	}
}

// formatTimestamp renders a timestamp per the configured format and zone.
func (o FormatOptions) formatTimestamp(t time.Time) string {
	zone := o.TimeZone
	if zone == nil {
		zone = time.UTC
	}
	format := o.TimestampFormat
	if format == "" {
		format = time.RFC3339
	}
	return t.In(zone).Format(format)
}
