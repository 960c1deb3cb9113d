package scriptlog

import (
	"sync"

	"github.com/wayneeseguin/scriptlog/pkg/types"
)

var (
	defaultMu     sync.RWMutex
	defaultLogger *Logger
)

// InitDefault builds the process-wide logger used by the package-level
// functions, closing any previous one. Nothing is created implicitly.
func InitDefault(cfg *Config, opts ...Option) (*Logger, error) {
	l, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}

	defaultMu.Lock()
	prev := defaultLogger
	defaultLogger = l
	defaultMu.Unlock()

	if prev != nil {
		_ = prev.Close()
	}
	return l, nil
}

// Default returns the process-wide logger, or nil before InitDefault.
func Default() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// ShutdownDefault closes the process-wide logger. Package-level calls are
// no-ops afterwards.
func ShutdownDefault() error {
	defaultMu.Lock()
	l := defaultLogger
	defaultLogger = nil
	defaultMu.Unlock()

	if l == nil {
		return nil
	}
	return l.Close()
}

// Log logs through the default logger if one is initialised.
func Log(level types.Level, msg string) {
	if l := Default(); l != nil {
		l.Log(level, msg)
	}
}

// Logf logs a formatted message through the default logger.
func Logf(level types.Level, format string, args ...interface{}) {
	if l := Default(); l != nil {
		l.Logf(level, format, args...)
	}
}

// Critical logs at CRITICAL level through the default logger.
func Critical(msg string) { Log(types.LevelCritical, msg) }

// Error logs at ERROR level through the default logger.
func Error(msg string) { Log(types.LevelError, msg) }

// Warning logs at WARNING level through the default logger.
func Warning(msg string) { Log(types.LevelWarning, msg) }

// Success logs at SUCCESS level through the default logger.
func Success(msg string) { Log(types.LevelSuccess, msg) }

// Info logs at INFO level through the default logger.
func Info(msg string) { Log(types.LevelInfo, msg) }

// Debug logs at DEBUG level through the default logger.
func Debug(msg string) { Log(types.LevelDebug, msg) }

// Push attaches a scoped property on the default logger. Without one the
// returned handle does nothing.
func Push(key string, value interface{}) *ScopeHandle {
	if l := Default(); l != nil {
		return l.Push(key, value)
	}
	return nil
}
