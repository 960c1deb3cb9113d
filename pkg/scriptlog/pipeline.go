package scriptlog

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/wayneeseguin/scriptlog/internal/buffer"
	"github.com/wayneeseguin/scriptlog/pkg/backends"
	"github.com/wayneeseguin/scriptlog/pkg/types"
)

// Log writes msg at level to every destination that accepts it.
// Failures are reported to the error handler, never returned.
func (l *Logger) Log(level types.Level, msg string) {
	l.log(context.Background(), level, msg)
}

// Logf formats according to a format specifier and logs the result.
func (l *Logger) Logf(level types.Level, format string, args ...interface{}) {
	l.log(context.Background(), level, fmt.Sprintf(format, args...))
}

// LogContext logs msg with the properties and correlation id carried by ctx.
// Scoped properties pushed on the logger win over context properties.
func (l *Logger) LogContext(ctx context.Context, level types.Level, msg string) {
	l.log(ctx, level, msg)
}

// Critical logs at CRITICAL level
func (l *Logger) Critical(msg string) { l.log(context.Background(), types.LevelCritical, msg) }

// Error logs at ERROR level
func (l *Logger) Error(msg string) { l.log(context.Background(), types.LevelError, msg) }

// Warning logs at WARNING level
func (l *Logger) Warning(msg string) { l.log(context.Background(), types.LevelWarning, msg) }

// Success logs at SUCCESS level
func (l *Logger) Success(msg string) { l.log(context.Background(), types.LevelSuccess, msg) }

// Info logs at INFO level
func (l *Logger) Info(msg string) { l.log(context.Background(), types.LevelInfo, msg) }

// Debug logs at DEBUG level
func (l *Logger) Debug(msg string) { l.log(context.Background(), types.LevelDebug, msg) }

// Criticalf logs a formatted message at CRITICAL level
func (l *Logger) Criticalf(format string, args ...interface{}) {
	l.Logf(types.LevelCritical, format, args...)
}

// Errorf logs a formatted message at ERROR level
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Logf(types.LevelError, format, args...)
}

// Warningf logs a formatted message at WARNING level
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Logf(types.LevelWarning, format, args...)
}

// Successf logs a formatted message at SUCCESS level
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Logf(types.LevelSuccess, format, args...)
}

// Infof logs a formatted message at INFO level
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Logf(types.LevelInfo, format, args...)
}

// Debugf logs a formatted message at DEBUG level
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.Logf(types.LevelDebug, format, args...)
}

// log runs one record through sampler, level gate, filters, enrichment and
// formatting, then fans the line out to the destinations in order.
func (l *Logger) log(ctx context.Context, level types.Level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		l.metrics.TrackMessageDropped()
		return
	}
	if !level.Valid() {
		l.metrics.TrackMessageDropped()
		l.reportError(types.KindConfiguration, "log", "", "record dropped",
			errors.Wrapf(types.ErrInvalidLevel, "%d", int(level)))
		return
	}

	if !l.sampler.ShouldLog() {
		l.metrics.TrackSampledOut()
		return
	}
	if !level.Enabled(l.level) {
		l.metrics.TrackGated()
		return
	}

	rec := l.newRecord(ctx, level, msg)
	keep, err := l.filter(rec)
	if err != nil {
		l.metrics.TrackMessageDropped()
		l.reportError(types.KindDestination, "filter", "", "record dropped", err)
		return
	}
	if !keep {
		l.metrics.TrackFiltered()
		return
	}
	if err := l.enrich(rec); err != nil {
		l.metrics.TrackMessageDropped()
		l.reportError(types.KindDestination, "enrich", "", "record dropped", err)
		return
	}

	line, err := l.format(rec)
	if err != nil {
		l.metrics.TrackMessageDropped()
		l.reportError(types.KindDestination, "format", "", "record dropped", err)
		return
	}
	l.metrics.TrackMessageLogged(level)

	for _, h := range l.handlers {
		if !backends.Accepts(h, level) {
			continue
		}
		l.dispatch(h, line, level)
	}
}

func (l *Logger) newRecord(ctx context.Context, level types.Level, msg string) *types.Record {
	rec := &types.Record{
		Timestamp:     l.clock(),
		Level:         level,
		Message:       msg,
		CorrelationID: l.correlationID,
	}

	ctxProps := PropertiesFromContext(ctx)
	scoped := l.scope.Snapshot()
	switch {
	case len(ctxProps) == 0:
		rec.Properties = scoped
	default:
		props := make(map[string]interface{}, len(ctxProps)+len(scoped))
		for k, v := range ctxProps {
			props[k] = v
		}
		for k, v := range scoped {
			props[k] = v
		}
		rec.Properties = props
	}

	if id, ok := CorrelationIDFromContext(ctx); ok {
		rec.CorrelationID = id
	}
	return rec
}

func (l *Logger) filter(rec *types.Record) (keep bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			keep, err = false, errors.Errorf("filter panic: %v", r)
		}
	}()
	return l.filters.ShouldLog(rec), nil
}

func (l *Logger) enrich(rec *types.Record) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("enricher panic: %v", r)
		}
	}()
	l.enrichers.Enrich(rec)
	return nil
}

func (l *Logger) format(rec *types.Record) (line string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("formatter panic: %v", r)
		}
	}()
	return l.formatter.Format(rec)
}

// dispatch emits to one destination. Errors and panics are reported and
// never reach the other destinations.
func (l *Logger) dispatch(h backends.Handler, line string, level types.Level) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			l.reportError(types.KindDestination, "emit", h.Name(), "destination panicked", errors.Errorf("panic: %v", r))
		}
	}()

	if err := h.Emit(line, level); err != nil {
		kind := types.KindDestination
		switch {
		case errors.Is(err, buffer.ErrBufferOverflow):
			kind = types.KindBuffer
			l.metrics.TrackBufferOverflow()
		case l.isFileDestination(h):
			kind = types.ClassifyIOError(err)
		}
		l.reportError(kind, "emit", h.Name(), "write failed", err)
		return
	}
	l.metrics.TrackWrite(int64(len(line)+1), time.Since(start))
}

func (l *Logger) isFileDestination(h backends.Handler) bool {
	if l.file != nil && h == backends.Handler(l.file) {
		return true
	}
	return l.buffered != nil && h == backends.Handler(l.buffered)
}
