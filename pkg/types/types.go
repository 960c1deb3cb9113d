package types

import (
	"time"
)

// Record is a single log event as it travels through the pipeline.
// A Record is built once per logging call and is not modified after it
// has been handed to a Formatter.
type Record struct {
	Timestamp     time.Time
	Level         Level
	Message       string
	CorrelationID string

	// Properties holds the scoped properties active when the record was created.
	Properties map[string]interface{}

	// Fields holds enrichment output (machine, process, thread, ...).
	Fields map[string]interface{}
}

// NewRecord creates a record stamped with the current time.
func NewRecord(level Level, message string) *Record {
	return &Record{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
	}
}

// SetField adds an enrichment field, allocating the map on first use.
func (r *Record) SetField(key string, value interface{}) {
	if r.Fields == nil {
		r.Fields = make(map[string]interface{})
	}
	r.Fields[key] = value
}

//go:generate mockgen -destination=../../mocks/formatter.go -package=mocks github.com/wayneeseguin/scriptlog/pkg/types Formatter

// Formatter turns a record into the line written to destinations.
// The returned line carries no trailing newline.
type Formatter interface {
	Format(rec *Record) (string, error)
}

// FormatterFunc adapts a function to the Formatter interface.
type FormatterFunc func(rec *Record) (string, error)

// Format calls f(rec).
func (f FormatterFunc) Format(rec *Record) (string, error) {
	return f(rec)
}
