package formatters

import (
	"strings"
	"testing"
	"time"

	"github.com/wayneeseguin/scriptlog/pkg/types"
)

func testRecord() *types.Record {
	return &types.Record{
		Timestamp: time.Date(2023, 1, 1, 12, 0, 0, 123000000, time.UTC),
		Level:     types.LevelInfo,
		Message:   "test message",
	}
}

func TestTextFormatter_Format(t *testing.T) {
	utc := DefaultFormatOptions()
	utc.TimeZone = time.UTC

	tests := []struct {
		name    string
		mutate  func(rec *types.Record)
		options func(o *FormatOptions)
		want    string
	}{
		{
			name: "basic message",
			want: "[2023-01-01 12:00:00.123][INFO] test message",
		},
		{
			name:   "correlation id",
			mutate: func(rec *types.Record) { rec.CorrelationID = "abc-123" },
			want:   "[2023-01-01 12:00:00.123][INFO][CID:abc-123] test message",
		},
		{
			name:    "no log info",
			mutate:  func(rec *types.Record) { rec.CorrelationID = "abc-123" },
			options: func(o *FormatOptions) { o.NoLogInfo = true },
			want:    "test message",
		},
		{
			name: "properties and fields sorted",
			mutate: func(rec *types.Record) {
				rec.Properties = map[string]interface{}{"user": "bob", "request": 7}
				rec.Fields = map[string]interface{}{"pid": 42}
			},
			want: "[2023-01-01 12:00:00.123][INFO] test message request=7 user=bob pid=42",
		},
		{
			name: "properties suppressed",
			mutate: func(rec *types.Record) {
				rec.Properties = map[string]interface{}{"user": "bob"}
			},
			options: func(o *FormatOptions) { o.IncludeProperties = false },
			want:    "[2023-01-01 12:00:00.123][INFO] test message",
		},
		{
			name:    "custom timestamp and lower level",
			mutate:  func(rec *types.Record) { rec.Level = types.LevelWarning },
			options: func(o *FormatOptions) { o.TimestampFormat = "15:04"; o.LevelFormat = LevelFormatNameLower },
			want:    "[12:00][warning] test message",
		},
		{
			name:   "trailing newline trimmed",
			mutate: func(rec *types.Record) { rec.Message = "line\n" },
			want:   "[2023-01-01 12:00:00.123][INFO] line",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testRecord()
			if tt.mutate != nil {
				tt.mutate(rec)
			}
			opts := utc
			if tt.options != nil {
				tt.options(&opts)
			}

			f := &TextFormatter{Options: opts}
			got, err := f.Format(rec)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got  %q\nwant %q", got, tt.want)
			}
		})
	}
}

func TestFormatLevel(t *testing.T) {
	if got := FormatLevel(types.LevelCritical, LevelFormatSymbol); got != "C" {
		t.Errorf("symbol: got %s", got)
	}
	if got := FormatLevel(types.LevelSuccess, LevelFormatNameUpper); got != "SUCCESS" {
		t.Errorf("upper: got %s", got)
	}
}

func TestNew(t *testing.T) {
	if f, err := New("json", DefaultFormatOptions()); err != nil {
		t.Fatal(err)
	} else if _, ok := f.(*JSONFormatter); !ok {
		t.Errorf("expected JSON formatter, got %T", f)
	}
	if f, err := New("", DefaultFormatOptions()); err != nil {
		t.Fatal(err)
	} else if _, ok := f.(*TextFormatter); !ok {
		t.Errorf("expected text formatter, got %T", f)
	}
	if _, err := New("xml", DefaultFormatOptions()); err == nil || !strings.Contains(err.Error(), "xml") {
		t.Errorf("expected unknown format error, got %v", err)
	}
}
