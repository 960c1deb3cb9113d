package scriptlog

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/wayneeseguin/scriptlog/internal/metrics"
	"github.com/wayneeseguin/scriptlog/pkg/backends"
	"github.com/wayneeseguin/scriptlog/pkg/features"
	"github.com/wayneeseguin/scriptlog/pkg/formatters"
	"github.com/wayneeseguin/scriptlog/pkg/types"
)

// Logger formats records and writes them to an ordered set of destinations.
// Every call runs synchronously on the caller's goroutine; a mutex keeps
// concurrent callers from interleaving inside the pipeline.
type Logger struct {
	mu sync.Mutex

	cfg           Config
	level         types.Level
	formatter     types.Formatter
	handlers      []backends.Handler
	file          *backends.FileHandler
	buffered      *bufferedHandler
	console       *backends.ConsoleHandler
	filters       *features.FilterChain
	enrichers     *features.EnrichmentChain
	sampler       *features.Sampler
	scope         *PropertyStack
	correlationID string
	clock         func() time.Time
	closed        bool

	metrics *metrics.Collector

	// errMu guards error reporting separately so destinations can report
	// while the pipeline lock is held.
	errMu        sync.Mutex
	errorHandler ErrorHandler
	lastError    *LogError
}

// New validates cfg and builds the configured destinations: the log file
// (unless disabled), then the console, then the OS event log, then any
// handlers passed with WithHandler. A nil cfg uses DefaultConfig.
//
// Example:
//
//	logger, err := scriptlog.New(&scriptlog.Config{
//		LogName:  "backup",
//		LogPath:  "/var/log/scripts",
//		LogLevel: "INFO",
//		Rotation: "10M",
//		Compress: true,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer logger.Close()
func New(cfg *Config, opts ...Option) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := *cfg
	if err := c.Validate(); err != nil {
		return nil, err
	}

	o := &options{
		fs:           afero.NewOsFs(),
		errorHandler: defaultErrorHandler(),
		clock:        time.Now,
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, configError("option", err)
		}
	}

	l := &Logger{
		cfg:          c,
		level:        c.level(),
		filters:      features.NewFilterChain(o.filters...),
		enrichers:    &features.EnrichmentChain{},
		sampler:      features.NewSampler(c.SampleRate),
		scope:        NewPropertyStack(),
		clock:        o.clock,
		metrics:      metrics.NewCollector(),
		errorHandler: o.errorHandler,
	}
	if l.errorHandler == nil {
		l.errorHandler = SilentErrorHandler
	}

	switch c.CorrelationID {
	case "":
	case CorrelationAuto:
		l.correlationID = uuid.NewString()
	default:
		l.correlationID = c.CorrelationID
	}

	l.formatter = o.formatter
	if l.formatter == nil {
		fopts := formatters.DefaultFormatOptions()
		if c.TimestampFormat != "" {
			fopts.TimestampFormat = c.TimestampFormat
		}
		fopts.NoLogInfo = c.NoLogInfo
		f, err := formatters.New(c.Format, fopts)
		if err != nil {
			return nil, configError("formatter", err)
		}
		l.formatter = f
	}

	for _, name := range c.Enrichers {
		e, err := features.NewEnricher(name, c.EnvironmentVariables)
		if err != nil {
			return nil, configError("enricher", err)
		}
		l.enrichers.Add(e)
	}
	for _, e := range o.enrichers {
		l.enrichers.Add(e)
	}

	if err := l.buildHandlers(o); err != nil {
		_ = l.closeHandlers()
		return nil, err
	}
	return l, nil
}

func (l *Logger) buildHandlers(o *options) error {
	c := &l.cfg

	if !c.DisableFile && c.LogPath != "" {
		dir, err := homedir.Expand(c.LogPath)
		if err != nil {
			return configError("log_path", err)
		}
		rotation, err := features.ParseRotationSpec(c.Rotation)
		if err != nil {
			return configError("rotation", err)
		}
		file, err := backends.NewFileHandler(backends.FileOptions{
			Fs:           o.fs,
			Dir:          dir,
			Name:         c.LogName,
			MinLevel:     types.LevelDebug,
			Rotation:     rotation,
			MaxCount:     c.LogCountMax,
			Compress:     c.Compress,
			RetryCount:   c.RetryCount,
			RetryDelay:   c.RetryDelay,
			MinFreeSpace: c.MinFreeSpace,
			Marker:       o.marker,
		})
		if err != nil {
			return LogError{
				Kind:        types.ClassifyIOError(err),
				Operation:   "open",
				Destination: dir,
				Message:     "create file destination",
				Err:         err,
				Timestamp:   time.Now(),
			}
		}
		file.SetErrorHandler(func(source, dest, msg string, err error) {
			l.reportError(types.KindRotation, source, dest, msg, err)
		})
		file.SetMetricsHandler(l.trackFileEvent)
		l.file = file

		if c.Buffer.Enabled {
			l.buffered = newBufferedHandler(file, c.Buffer.Size, c.Buffer.FlushInterval, c.Buffer.Capacity)
			l.handlers = append(l.handlers, l.buffered)
		} else {
			l.handlers = append(l.handlers, file)
		}
	}

	if c.Console.Enabled {
		level := optionalLevel(c.Console.Level, types.LevelDebug)
		l.console = backends.NewConsoleHandler(o.consoleWriter, level, backends.ParseColorMode(c.Console.Color))
		l.handlers = append(l.handlers, l.console)
	}

	if c.EventLog.Enabled {
		level := optionalLevel(c.EventLog.Level, backends.DefaultEventLogLevel)
		h, err := backends.NewEventLogHandler(c.EventLog.Source, level)
		if err != nil {
			// Reported and skipped; the other destinations still work.
			l.reportError(types.KindDestination, "open", "eventlog", "event log unavailable", err)
		} else {
			l.handlers = append(l.handlers, h)
		}
	}

	l.handlers = append(l.handlers, o.handlers...)
	return nil
}

func (l *Logger) trackFileEvent(event string) {
	switch event {
	case "rotation":
		l.metrics.TrackRotation()
	case "compression":
		l.metrics.TrackCompression()
	}
}

// Config returns a copy of the configuration the logger was built with.
func (l *Logger) Config() Config {
	l.mu.Lock()
	defer l.mu.Unlock()
	c := l.cfg
	c.LogLevel = l.level.String()
	c.SampleRate = l.sampler.Rate()
	return c
}

// FilePath returns the active log file path, or "" without a file
// destination.
func (l *Logger) FilePath() string {
	if l.file == nil {
		return ""
	}
	return l.file.Path()
}

// Archiver returns the file destination's archiver, or nil without a file
// destination.
func (l *Logger) Archiver() *features.Archiver {
	if l.file == nil {
		return nil
	}
	return l.file.Archiver()
}

// AddHandler appends a destination.
func (l *Logger) AddHandler(h backends.Handler) error {
	if h == nil {
		return errors.New("handler cannot be nil")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrLoggerClosed
	}
	l.handlers = append(l.handlers, h)
	return nil
}

// Handlers returns the registered destinations in dispatch order.
func (l *Logger) Handlers() []backends.Handler {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]backends.Handler, len(l.handlers))
	copy(out, l.handlers)
	return out
}

// AddFilter appends a filter; records must pass every filter.
func (l *Logger) AddFilter(f features.Filter) error {
	return l.filters.Add(f)
}

// ClearFilters removes every filter.
func (l *Logger) ClearFilters() {
	l.filters.Clear()
}

// AddEnricher appends an enricher.
func (l *Logger) AddEnricher(e features.Enricher) error {
	if e == nil {
		return errors.New("enricher cannot be nil")
	}
	l.enrichers.Add(e)
	return nil
}

// SetLevel changes the logger-wide minimum level.
func (l *Logger) SetLevel(level types.Level) error {
	if !level.Valid() {
		return errors.Wrapf(types.ErrInvalidLevel, "%d", int(level))
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
	return nil
}

// Level returns the logger-wide minimum level.
func (l *Logger) Level() types.Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// SetConsoleLevel changes the console destination's minimum level. It is a
// no-op without a console destination.
func (l *Logger) SetConsoleLevel(level types.Level) {
	if l.console != nil {
		l.console.SetMinLevel(level)
	}
}

// SetSampleRate keeps one record in every rate.
func (l *Logger) SetSampleRate(rate int) {
	l.sampler.SetRate(rate)
}

// SetCorrelationID sets the id stamped on every following record. An empty
// id removes it.
func (l *Logger) SetCorrelationID(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.correlationID = id
}

// NewCorrelationID generates, sets and returns a random id.
func (l *Logger) NewCorrelationID() string {
	id := uuid.NewString()
	l.SetCorrelationID(id)
	return id
}

// CorrelationID returns the current correlation id.
func (l *Logger) CorrelationID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.correlationID
}

// Push attaches key=value to every record until the handle is released.
//
//	defer logger.Push("host", host).Release()
func (l *Logger) Push(key string, value interface{}) *ScopeHandle {
	return l.scope.Push(key, value)
}

// Properties returns the scoped property stack.
func (l *Logger) Properties() *PropertyStack {
	return l.scope
}

// SetErrorHandler sets the handler for errors raised while logging. Nil
// discards errors.
func (l *Logger) SetErrorHandler(h ErrorHandler) {
	if h == nil {
		h = SilentErrorHandler
	}
	l.errMu.Lock()
	defer l.errMu.Unlock()
	l.errorHandler = h
}

// LastError returns the most recent error reported, or nil.
func (l *Logger) LastError() *LogError {
	l.errMu.Lock()
	defer l.errMu.Unlock()
	if l.lastError == nil {
		return nil
	}
	e := *l.lastError
	return &e
}

func (l *Logger) reportError(kind types.ErrorKind, op, dest, msg string, err error) {
	le := LogError{
		Kind:        kind,
		Operation:   op,
		Destination: dest,
		Message:     msg,
		Err:         err,
		Timestamp:   time.Now(),
	}

	l.errMu.Lock()
	l.lastError = &le
	handler := l.errorHandler
	l.errMu.Unlock()

	l.metrics.TrackError(kind.String(), dest)
	if handler != nil {
		handler(le)
	}
}

// Metrics returns a snapshot of the logger's counters.
func (l *Logger) Metrics() metrics.Metrics {
	l.mu.Lock()
	defer l.mu.Unlock()
	depth, capacity := 0, 0
	if l.buffered != nil {
		stats := l.buffered.buf.Stats()
		depth, capacity = stats.BufferedEntries, stats.Capacity
	}
	return l.metrics.Snapshot(depth, capacity, len(l.handlers))
}

// SamplingMetrics returns the sampler's counters.
func (l *Logger) SamplingMetrics() features.SamplingMetrics {
	return l.sampler.Metrics()
}

// Rotate rotates the log file now, regardless of the rotation policy.
// Buffered lines are flushed into the current file first.
func (l *Logger) Rotate() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrLoggerClosed
	}
	if l.file == nil {
		return errors.New("no file destination configured")
	}
	if l.buffered != nil {
		if err := l.buffered.Flush(); err != nil {
			l.reportError(types.KindBuffer, "flush", l.file.Name(), "flush before rotation", err)
			return err
		}
	}
	if _, err := l.file.Rotate(); err != nil {
		l.reportError(types.KindRotation, "rotate", l.file.Name(), "forced rotation failed", err)
		return LogError{
			Kind:        types.KindRotation,
			Operation:   "rotate",
			Destination: l.file.Name(),
			Err:         err,
			Timestamp:   time.Now(),
		}
	}
	return nil
}

// Flush writes any buffered lines.
func (l *Logger) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.buffered == nil {
		return nil
	}
	if err := l.buffered.Flush(); err != nil {
		l.reportError(types.KindBuffer, "flush", l.buffered.Name(), "flush failed", err)
		return err
	}
	return nil
}

// Close flushes buffered lines and closes every destination. Later calls
// are ignored and counted as dropped.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.closeHandlers()
}

func (l *Logger) closeHandlers() error {
	var result *multierror.Error
	for _, h := range l.handlers {
		if err := h.Close(); err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "close %s", h.Name()))
		}
	}
	return result.ErrorOrNil()
}

// IsClosed reports whether Close has been called.
func (l *Logger) IsClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}
