package formatters

import (
	"time"
)

// DefaultTimestampFormat is used by the text formatter when none is configured.
const DefaultTimestampFormat = "2006-01-02 15:04:05.000"

// FormatOptions controls the output format
type FormatOptions struct {
	TimestampFormat string
	TimeZone        *time.Location
	LevelFormat     LevelFormat

	// NoLogInfo drops timestamp, level and correlation id; the line is the bare message.
	NoLogInfo bool

	// IncludeProperties appends scoped properties and enrichment fields to text lines.
	IncludeProperties bool
}

// LevelFormat defines level format options
type LevelFormat int

const (
	// LevelFormatNameUpper formats levels as uppercase names (the default)
	LevelFormatNameUpper LevelFormat = iota
	// LevelFormatNameLower formats levels as lowercase names
	LevelFormatNameLower
	// LevelFormatSymbol formats levels as single-character symbols
	LevelFormatSymbol
)

// DefaultFormatOptions returns default formatting options
func DefaultFormatOptions() FormatOptions {
	return FormatOptions{
		TimestampFormat:   DefaultTimestampFormat,
		TimeZone:          time.Local,
		LevelFormat:       LevelFormatNameUpper,
		IncludeProperties: true,
	}
}

func (o FormatOptions) location() *time.Location {
	if o.TimeZone == nil {
		return time.Local
	}
	return o.TimeZone
}
