//go:build windows

package backends

import (
	"github.com/pkg/errors"
	"github.com/wayneeseguin/scriptlog/pkg/types"
	"golang.org/x/sys/windows/svc/eventlog"
)

// Event ids written to the Application log.
const (
	eventIDInfo    = 1000
	eventIDWarning = 2000
	eventIDError   = 3000
)

type windowsSink struct {
	log *eventlog.Log
}

func openEventSink(source string) (eventSink, error) {
	l, err := eventlog.Open(source)
	if err != nil {
		// The source has to be registered once before it can be opened.
		if regErr := eventlog.InstallAsEventCreate(source, eventlog.Error|eventlog.Warning|eventlog.Info); regErr != nil {
			return nil, errors.Wrapf(err, "open event source %s (register: %v)", source, regErr)
		}
		if l, err = eventlog.Open(source); err != nil {
			return nil, errors.Wrapf(err, "open event source %s", source)
		}
	}
	return &windowsSink{log: l}, nil
}

func (s *windowsSink) write(level types.Level, msg string) error {
	switch level {
	case types.LevelCritical, types.LevelError:
		return s.log.Error(eventIDError, msg)
	case types.LevelWarning:
		return s.log.Warning(eventIDWarning, msg)
	default:
		return s.log.Info(eventIDInfo, msg)
	}
}

func (s *windowsSink) close() error {
	return s.log.Close()
}
