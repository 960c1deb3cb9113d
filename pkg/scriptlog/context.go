package scriptlog

import (
	"context"
)

type contextKey int

const (
	propertiesKey contextKey = iota
	correlationKey
)

// WithProperty returns a context carrying key=value for LogContext calls.
// The parent's properties are copied, never modified.
func WithProperty(ctx context.Context, key string, value interface{}) context.Context {
	parent := PropertiesFromContext(ctx)
	props := make(map[string]interface{}, len(parent)+1)
	for k, v := range parent {
		props[k] = v
	}
	props[key] = value
	return context.WithValue(ctx, propertiesKey, props)
}

// PropertiesFromContext returns the properties attached with WithProperty.
// The map must not be modified.
func PropertiesFromContext(ctx context.Context) map[string]interface{} {
	if ctx == nil {
		return nil
	}
	props, _ := ctx.Value(propertiesKey).(map[string]interface{})
	return props
}

// WithCorrelationID returns a context whose LogContext records carry id
// instead of the logger's correlation id.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey, id)
}

// CorrelationIDFromContext returns the id set with WithCorrelationID.
func CorrelationIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(correlationKey).(string)
	return id, ok
}
