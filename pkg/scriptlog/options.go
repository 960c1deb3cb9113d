package scriptlog

import (
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/wayneeseguin/scriptlog/pkg/backends"
	"github.com/wayneeseguin/scriptlog/pkg/features"
	"github.com/wayneeseguin/scriptlog/pkg/types"
)

// Option customises a Logger beyond what Config expresses.
type Option func(*options) error

type options struct {
	fs            afero.Fs
	formatter     types.Formatter
	handlers      []backends.Handler
	filters       []features.Filter
	enrichers     []features.Enricher
	errorHandler  ErrorHandler
	clock         func() time.Time
	consoleWriter io.Writer
	marker        func(reason string) string
}

// WithFs sets the filesystem used by the file destination.
func WithFs(fs afero.Fs) Option {
	return func(o *options) error {
		if fs == nil {
			return errors.New("filesystem cannot be nil")
		}
		o.fs = fs
		return nil
	}
}

// WithFormatter replaces the formatter selected by Config.Format.
func WithFormatter(f types.Formatter) Option {
	return func(o *options) error {
		if f == nil {
			return errors.New("formatter cannot be nil")
		}
		o.formatter = f
		return nil
	}
}

// WithHandler registers an extra destination after the configured ones.
func WithHandler(h backends.Handler) Option {
	return func(o *options) error {
		if h == nil {
			return errors.New("handler cannot be nil")
		}
		o.handlers = append(o.handlers, h)
		return nil
	}
}

// WithFilter appends a filter to the chain.
func WithFilter(f features.Filter) Option {
	return func(o *options) error {
		if f == nil {
			return features.ErrNilFilter
		}
		o.filters = append(o.filters, f)
		return nil
	}
}

// WithEnricher appends an enricher after the configured ones.
func WithEnricher(e features.Enricher) Option {
	return func(o *options) error {
		if e == nil {
			return errors.New("enricher cannot be nil")
		}
		o.enrichers = append(o.enrichers, e)
		return nil
	}
}

// WithErrorHandler sets the handler for errors raised while logging.
func WithErrorHandler(h ErrorHandler) Option {
	return func(o *options) error {
		o.errorHandler = h
		return nil
	}
}

// WithClock sets the time source used to stamp records.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		o.clock = now
		return nil
	}
}

// WithConsoleWriter sends console output to w instead of stdout.
func WithConsoleWriter(w io.Writer) Option {
	return func(o *options) error {
		o.consoleWriter = w
		return nil
	}
}

// WithMarker sets how the file destination renders the line written at the
// top of a fresh log file.
func WithMarker(marker func(reason string) string) Option {
	return func(o *options) error {
		o.marker = marker
		return nil
	}
}
