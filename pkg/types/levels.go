package types

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Level is the severity of a record. Lower values have higher priority.
type Level int

// Severity levels, highest priority first.
const (
	LevelCritical Level = iota + 1
	LevelError
	LevelWarning
	LevelSuccess
	LevelInfo
	LevelDebug
)

// ErrInvalidLevel is returned by ParseLevel for unknown names.
var ErrInvalidLevel = errors.New("invalid log level")

var levelNames = map[Level]string{
	LevelCritical: "CRITICAL",
	LevelError:    "ERROR",
	LevelWarning:  "WARNING",
	LevelSuccess:  "SUCCESS",
	LevelInfo:     "INFO",
	LevelDebug:    "DEBUG",
}

// String returns the upper-case level name.
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "LEVEL(" + strconv.Itoa(int(l)) + ")"
}

// Valid reports whether l is one of the defined levels.
func (l Level) Valid() bool {
	return l >= LevelCritical && l <= LevelDebug
}

// Enabled reports whether a record at level l passes a gate configured at min.
func (l Level) Enabled(min Level) bool {
	return l <= min
}

// Levels returns every level in priority order.
func Levels() []Level {
	return []Level{LevelCritical, LevelError, LevelWarning, LevelSuccess, LevelInfo, LevelDebug}
}

// ParseLevel converts a level name or number into a Level.
// Names are matched case-insensitively; WARN is accepted for WARNING.
func ParseLevel(s string) (Level, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	switch name {
	case "CRITICAL", "FATAL":
		return LevelCritical, nil
	case "ERROR":
		return LevelError, nil
	case "WARNING", "WARN":
		return LevelWarning, nil
	case "SUCCESS":
		return LevelSuccess, nil
	case "INFO":
		return LevelInfo, nil
	case "DEBUG", "VERBOSE":
		return LevelDebug, nil
	}

	if n, err := strconv.Atoi(name); err == nil {
		if l := Level(n); l.Valid() {
			return l, nil
		}
	}

	return 0, errors.Wrapf(ErrInvalidLevel, "%q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
