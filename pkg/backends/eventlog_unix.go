//go:build unix

package backends

import (
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/wayneeseguin/scriptlog/pkg/types"
)

// Syslog facility user, RFC 3164.
const facilityUser = 1 << 3

var syslogSockets = []string{"/dev/log", "/var/run/syslog", "/var/run/log"}

// syslogSink writes RFC 3164 style "<PRI>tag[pid]: msg" datagrams to a
// local syslog socket.
type syslogSink struct {
	address string
	network string
	tag     string
	conn    net.Conn
}

func openEventSink(source string) (eventSink, error) {
	for _, path := range syslogSockets {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if s, err := dialSyslog(path, source); err == nil {
			return s, nil
		}
	}
	return nil, errors.Wrap(ErrEventLogUnavailable, "no local syslog socket found")
}

// NewSyslogHandler connects to the syslog socket at address.
func NewSyslogHandler(address, tag string, level types.Level) (*EventLogHandler, error) {
	s, err := dialSyslog(address, tag)
	if err != nil {
		return nil, err
	}
	return newEventLogHandler(tag, level, s), nil
}

func dialSyslog(address, tag string) (*syslogSink, error) {
	var lastErr error
	for _, network := range []string{"unixgram", "unix"} {
		conn, err := net.Dial(network, address)
		if err == nil {
			return &syslogSink{address: address, network: network, tag: tag, conn: conn}, nil
		}
		lastErr = err
	}
	return nil, errors.Wrapf(lastErr, "dial syslog %s", address)
}

// syslogSeverity maps levels onto RFC 5424 severities.
func syslogSeverity(level types.Level) int {
	switch level {
	case types.LevelCritical:
		return 2
	case types.LevelError:
		return 3
	case types.LevelWarning:
		return 4
	case types.LevelSuccess:
		return 5
	case types.LevelInfo:
		return 6
	default:
		return 7
	}
}

func (s *syslogSink) format(level types.Level, msg string) string {
	pri := facilityUser | syslogSeverity(level)
	return fmt.Sprintf("<%d>%s[%d]: %s\n", pri, s.tag, os.Getpid(), strings.TrimSpace(msg))
}

func (s *syslogSink) write(level types.Level, msg string) error {
	payload := s.format(level, msg)
	if s.conn != nil {
		if _, err := s.conn.Write([]byte(payload)); err == nil {
			return nil
		}
		_ = s.conn.Close()
		s.conn = nil
	}

	// The daemon may have restarted; reconnect once.
	conn, err := net.Dial(s.network, s.address)
	if err != nil {
		return errors.Wrapf(err, "reconnect syslog %s", s.address)
	}
	s.conn = conn
	_, err = conn.Write([]byte(payload))
	return err
}

func (s *syslogSink) close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
