package formatters

import (
	"strings"
	"testing"
	"time"

	"github.com/millrace/flume/pkg/types"
)

func TestTextFormatter_Format(t *testing.T) {
	ts := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		rec     types.Record
		options FormatOptions
		check   func(t *testing.T, result string)
	}{
		{
			name: "basic message",
			rec: types.Record{
				Logger: "app",
				Level:  types.LevelInfo,
				Time:   ts,
				Msg:    []byte("test message"),
			},
			options: DefaultFormatOptions(),
			check: func(t *testing.T, result string) {
				want := "[2023-01-01T12:00:00Z] [INFO] [app] test message\n"
				if result != want {
					t.Errorf("got %q, want %q", result, want)
				}
			},
		},
		{
			name: "fields sorted by key",
			rec: types.Record{
				Level: types.LevelDebug,
				Time:  ts,
				Msg:   []byte("login"),
				Fields: map[string]interface{}{
					"user_id": 123,
					"action":  "login",
				},
			},
			options: DefaultFormatOptions(),
			check: func(t *testing.T, result string) {
				if !strings.Contains(result, "login action=login user_id=123") {
					t.Errorf("expected sorted key=value fields, got %s", result)
				}
			},
		},
		{
			name: "source location",
			rec: types.Record{
				Level:  types.LevelWarn,
				Time:   ts,
				Msg:    []byte("slow query"),
				Source: types.Source{File: "/srv/app/db/query.go", Line: 87},
			},
			options: DefaultFormatOptions(),
			check: func(t *testing.T, result string) {
				if !strings.Contains(result, "(query.go:87)") {
					t.Errorf("expected trimmed source location, got %s", result)
				}
			},
		},
		{
			name: "without timestamp",
			rec: types.Record{
				Level: types.LevelInfo,
				Time:  ts,
				Msg:   []byte("no timestamp"),
			},
			options: FormatOptions{
				IncludeTime:  false,
				IncludeLevel: true,
				TimeZone:     time.UTC,
			},
			check: func(t *testing.T, result string) {
				if strings.Contains(result, "2023") {
					t.Errorf("timestamp should not be included, got %s", result)
				}
				if !strings.HasPrefix(result, "[INFO]") {
					t.Errorf("expected to start with [INFO], got %s", result)
				}
			},
		},
		{
			name: "without level",
			rec: types.Record{
				Level: types.LevelInfo,
				Time:  ts,
				Msg:   []byte("no level"),
			},
			options: FormatOptions{
				IncludeTime:     true,
				IncludeLevel:    false,
				TimeZone:        time.UTC,
				TimestampFormat: time.RFC3339,
			},
			check: func(t *testing.T, result string) {
				if strings.Contains(result, "[INFO]") {
					t.Errorf("level should not be included, got %s", result)
				}
			},
		},
		{
			name: "source suppressed",
			rec: types.Record{
				Level:  types.LevelError,
				Time:   ts,
				Msg:    []byte("boom"),
				Source: types.Source{File: "handler.go", Line: 3},
			},
			options: FormatOptions{
				IncludeLevel:  true,
				IncludeSource: false,
				TimeZone:      time.UTC,
			},
			check: func(t *testing.T, result string) {
				if strings.Contains(result, "handler.go") {
					t.Errorf("source should not be included, got %s", result)
				}
			},
		},
		{
			name: "lowercase level format",
			rec: types.Record{
				Level: types.LevelError,
				Time:  ts,
				Msg:   []byte("x"),
			},
			options: FormatOptions{
				IncludeLevel: true,
				LevelFormat:  LevelFormatNameLower,
				TimeZone:     time.UTC,
			},
			check: func(t *testing.T, result string) {
				if !strings.Contains(result, "[error]") {
					t.Errorf("expected lowercase level, got %s", result)
				}
			},
		},
		{
			name: "symbol level format",
			rec: types.Record{
				Level: types.LevelDebug,
				Time:  ts,
				Msg:   []byte("x"),
			},
			options: FormatOptions{
				IncludeLevel: true,
				LevelFormat:  LevelFormatSymbol,
				TimeZone:     time.UTC,
			},
			check: func(t *testing.T, result string) {
				if !strings.Contains(result, "[D]") {
					t.Errorf("expected single-letter level, got %s", result)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &TextFormatter{Options: tt.options}
			data, err := f.Format(tt.rec)
			if err != nil {
				t.Fatalf("Format() error = %v", err)
			}
			result := string(data)
			if !strings.HasSuffix(result, "\n") {
				t.Errorf("expected trailing newline, got %q", result)
			}
			tt.check(t, result)
		})
	}
}

func TestTextFormatterTimezone(t *testing.T) {
	ts := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)

	f := NewTextFormatter()
	f.Options.TimeZone = time.FixedZone("EST", -5*3600)

	data, err := f.Format(types.Record{Level: types.LevelInfo, Time: ts, Msg: []byte("tz")})
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.Contains(string(data), "2023-06-01T07:00:00-05:00") {
		t.Errorf("expected timestamp in EST, got %s", data)
	}
}

func TestTextFormatterDoesNotAliasRecord(t *testing.T) {
	msg := []byte("original")
	f := NewTextFormatter()

	data, err := f.Format(types.Record{Level: types.LevelInfo, Time: time.Now(), Msg: msg})
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	copy(msg, []byte("mutated!"))
	if !strings.Contains(string(data), "original") {
		t.Errorf("formatted output aliased the record message: %s", data)
	}
}
