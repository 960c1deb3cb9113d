package formatters

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/wayneeseguin/scriptlog/pkg/types"
)

// Format names accepted by New.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ErrUnknownFormat is returned by New for unsupported format names.
var ErrUnknownFormat = errors.New("unknown log format")

// New creates the formatter registered under name ("text" or "json").
func New(name string, opts FormatOptions) (types.Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", FormatText:
		return &TextFormatter{Options: opts}, nil
	case FormatJSON, "structured":
		return &JSONFormatter{Options: opts}, nil
	default:
		return nil, errors.Wrapf(ErrUnknownFormat, "%q", name)
	}
}
