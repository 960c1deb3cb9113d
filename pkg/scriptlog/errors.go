package scriptlog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/wayneeseguin/scriptlog/internal/buffer"
	"github.com/wayneeseguin/scriptlog/pkg/features"
	"github.com/wayneeseguin/scriptlog/pkg/types"
)

var (
	// ErrInvalidLogName is returned for empty or reserved log names and names
	// containing path separators or characters that are invalid in file names.
	ErrInvalidLogName = errors.New("invalid log name")

	// ErrLoggerClosed is returned by operations on a closed Logger.
	ErrLoggerClosed = errors.New("logger is closed")

	// ErrInvalidConfig is wrapped by every configuration validation failure.
	ErrInvalidConfig = errors.New("invalid configuration")

	// Re-exported so callers only need this package for errors.Is checks.
	ErrInvalidRotationSpec = features.ErrInvalidRotationSpec
	ErrInsufficientSpace   = types.ErrInsufficientSpace
	ErrBufferOverflow      = buffer.ErrBufferOverflow
)

// LogError represents an error that occurred during logging operations
type LogError struct {
	Kind        types.ErrorKind // What class of failure this is
	Operation   string          // The operation that failed
	Destination string          // The destination where the error occurred
	Message     string          // Human readable error message
	Err         error           // The underlying error
	Timestamp   time.Time       // When the error occurred
}

// Error implements the error interface
func (e LogError) Error() string {
	var b strings.Builder
	b.WriteString(e.Operation)
	if e.Destination != "" {
		b.WriteString(" [")
		b.WriteString(e.Destination)
		b.WriteString("]")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error
func (e LogError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first LogError in err's chain, or zero.
func KindOf(err error) types.ErrorKind {
	var le LogError
	if errors.As(err, &le) {
		return le.Kind
	}
	return 0
}

func configError(op string, err error) error {
	return LogError{
		Kind:      types.KindConfiguration,
		Operation: op,
		Message:   ErrInvalidConfig.Error(),
		Err:       err,
		Timestamp: time.Now(),
	}
}

// ErrorHandler defines a function type for handling logger errors.
// Handlers run synchronously on the logging goroutine and must not log
// through the logger that reported the error.
type ErrorHandler func(err LogError)

// SilentErrorHandler discards all errors (used in tests)
var SilentErrorHandler ErrorHandler = func(LogError) {}

// StderrErrorHandler writes one line per error to stderr
var StderrErrorHandler ErrorHandler = func(err LogError) {
	fmt.Fprintf(os.Stderr, "scriptlog: %s %s\n", err.Kind, err.Error())
}

// isTestMode detects if we're running under go test
func isTestMode() bool {
	for _, arg := range os.Args {
		if strings.HasPrefix(arg, "-test.") {
			return true
		}
	}
	if exe, err := os.Executable(); err == nil {
		if strings.HasSuffix(filepath.Base(exe), ".test") {
			return true
		}
	}
	return false
}

// defaultErrorHandler returns the appropriate error handler based on environment
func defaultErrorHandler() ErrorHandler {
	if isTestMode() {
		return SilentErrorHandler
	}
	return StderrErrorHandler
}
