package formatters

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wayneeseguin/scriptlog/pkg/types"
)

// TextFormatter formats log records as human-readable text:
//
//	[2024-01-15 14:30:52.123][INFO] message
//	[2024-01-15 14:30:52.123][INFO][CID:abc] message key=value
type TextFormatter struct {
	Options FormatOptions
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{
		Options: DefaultFormatOptions(),
	}
}

// Format formats a log record as text
func (f *TextFormatter) Format(rec *types.Record) (string, error) {
	message := strings.TrimRight(rec.Message, "\r\n")
	if f.Options.NoLogInfo {
		return message, nil
	}

	var result strings.Builder

	result.WriteString("[")
	result.WriteString(f.formatTimestamp(rec))
	result.WriteString("][")
	result.WriteString(FormatLevel(rec.Level, f.Options.LevelFormat))
	result.WriteString("]")

	if rec.CorrelationID != "" {
		result.WriteString("[CID:")
		result.WriteString(rec.CorrelationID)
		result.WriteString("]")
	}

	result.WriteString(" ")
	result.WriteString(message)

	if f.Options.IncludeProperties {
		writePairs(&result, rec.Properties)
		writePairs(&result, rec.Fields)
	}

	return result.String(), nil
}

// formatTimestamp formats a timestamp according to the formatter options
func (f *TextFormatter) formatTimestamp(rec *types.Record) string {
	layout := f.Options.TimestampFormat
	if layout == "" {
		layout = DefaultTimestampFormat
	}
	return rec.Timestamp.In(f.Options.location()).Format(layout)
}

// writePairs appends " key=value" for every entry, in key order.
func writePairs(b *strings.Builder, pairs map[string]interface{}) {
	if len(pairs) == 0 {
		return
	}

	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		b.WriteString(" ")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(fmt.Sprintf("%v", pairs[k]))
	}
}

// FormatLevel renders a level according to the requested format.
func FormatLevel(level types.Level, format LevelFormat) string {
	levelStr := level.String()

	switch format {
	case LevelFormatNameLower:
		levelStr = strings.ToLower(levelStr)
	case LevelFormatSymbol:
		levelStr = levelStr[:1]
	case LevelFormatNameUpper:
		// Already uppercase
	}

	return levelStr
}
