package formatters

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/wayneeseguin/scriptlog/pkg/types"
)

// Reserved JSON keys. Properties and fields never overwrite these.
const (
	KeyTimestamp     = "timestamp"
	KeyLevel         = "level"
	KeyMessage       = "message"
	KeyCorrelationID = "correlationId"
)

// JSONFormatter formats log records as one JSON object per line
type JSONFormatter struct {
	Options       FormatOptions
	ExcludeFields []string // Optional: fields to exclude
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{
		Options: DefaultFormatOptions(),
	}
}

// Format formats a log record as JSON
func (f *JSONFormatter) Format(rec *types.Record) (string, error) {
	entry := make(map[string]interface{}, 4+len(rec.Properties)+len(rec.Fields))

	for k, v := range rec.Properties {
		if !f.shouldExcludeField(k) {
			entry[k] = v
		}
	}
	for k, v := range rec.Fields {
		if !f.shouldExcludeField(k) {
			entry[k] = v
		}
	}

	// Reserved keys are written last so nothing above can shadow them
	entry[KeyTimestamp] = rec.Timestamp.In(f.Options.location()).Format(time.RFC3339Nano)
	entry[KeyLevel] = rec.Level.String()
	entry[KeyMessage] = rec.Message
	if rec.CorrelationID != "" {
		entry[KeyCorrelationID] = rec.CorrelationID
	} else {
		delete(entry, KeyCorrelationID)
	}

	data, err := f.safeMarshal(entry)
	if err != nil {
		return "", errors.Wrap(err, "marshal log record")
	}
	return string(data), nil
}

// shouldExcludeField checks if a field should be excluded from output
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

// safeMarshal marshals data to JSON, falling back to a string rendering of
// values encoding/json cannot handle (channels, funcs, cycles).
func (f *JSONFormatter) safeMarshal(data map[string]interface{}) ([]byte, error) {
	result, err := json.Marshal(data)
	if err == nil {
		return result, nil
	}

	safe := make(map[string]interface{}, len(data))
	for k, v := range data {
		if _, err := json.Marshal(v); err != nil {
			safe[k] = "[unserializable: " + err.Error() + "]"
			continue
		}
		safe[k] = v
	}
	return json.Marshal(safe)
}

// ParseJSON decodes a line produced by JSONFormatter back into a record.
// Keys other than the reserved ones are returned as Properties.
func ParseJSON(line string) (*types.Record, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return nil, errors.Wrap(err, "decode log line")
	}

	rec := &types.Record{}

	ts, _ := raw[KeyTimestamp].(string)
	parsed, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, errors.Wrapf(err, "parse timestamp %q", ts)
	}
	rec.Timestamp = parsed

	levelName, _ := raw[KeyLevel].(string)
	if rec.Level, err = types.ParseLevel(levelName); err != nil {
		return nil, err
	}

	rec.Message, _ = raw[KeyMessage].(string)
	rec.CorrelationID, _ = raw[KeyCorrelationID].(string)

	for k, v := range raw {
		switch k {
		case KeyTimestamp, KeyLevel, KeyMessage, KeyCorrelationID:
			continue
		}
		if rec.Properties == nil {
			rec.Properties = make(map[string]interface{})
		}
		rec.Properties[k] = v
	}

	return rec, nil
}
