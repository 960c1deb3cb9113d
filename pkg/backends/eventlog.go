package backends

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/wayneeseguin/scriptlog/pkg/types"
)

// ErrEventLogUnavailable is returned when no OS event log can be reached.
var ErrEventLogUnavailable = errors.New("os event log unavailable")

// DefaultEventLogLevel is the minimum level sent to the OS event log unless
// configured otherwise.
const DefaultEventLogLevel = types.LevelError

// eventSink is the platform specific connection to the OS event log.
type eventSink interface {
	write(level types.Level, msg string) error
	close() error
}

// EventLogHandler forwards records to the operating system's event log:
// the local syslog socket on Unix, the Application event log on Windows.
type EventLogHandler struct {
	base

	mu     sync.Mutex
	source string
	sink   eventSink
}

// NewEventLogHandler connects to the OS event log. An empty source uses the
// executable name.
func NewEventLogHandler(source string, level types.Level) (*EventLogHandler, error) {
	if source == "" {
		source = filepath.Base(os.Args[0])
	}
	sink, err := openEventSink(source)
	if err != nil {
		return nil, errors.Wrap(err, "open event log")
	}
	return newEventLogHandler(source, level, sink), nil
}

func newEventLogHandler(source string, level types.Level, sink eventSink) *EventLogHandler {
	if !level.Valid() {
		level = DefaultEventLogLevel
	}
	h := &EventLogHandler{source: source, sink: sink}
	h.base.init("eventlog:"+source, "eventlog", level)
	return h
}

// Source returns the event source (syslog tag) name.
func (h *EventLogHandler) Source() string {
	return h.source
}

// Emit implements Handler.
func (h *EventLogHandler) Emit(line string, level types.Level) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sink == nil {
		return ErrEventLogUnavailable
	}
	err := h.sink.write(level, line)
	h.track(len(line), err)
	return err
}

// Close implements Handler.
func (h *EventLogHandler) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sink == nil {
		return nil
	}
	err := h.sink.close()
	h.sink = nil
	return err
}
