package backends

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/wayneeseguin/scriptlog/internal/diskspace"
	"github.com/wayneeseguin/scriptlog/pkg/features"
	"github.com/wayneeseguin/scriptlog/pkg/types"
)

// Defaults for FileOptions.
const (
	DefaultRetryCount = 3
	DefaultRetryDelay = 100 * time.Millisecond
	DefaultMaxCount   = 5
)

// Marker reasons passed to FileOptions.Marker.
const (
	MarkerStarted = "started"
	MarkerRotated = "rotated"
)

// ErrLockBusy is returned when another writer holds the file lock.
var ErrLockBusy = errors.New("log file lock is held by another writer")

// FileOptions configures a FileHandler.
type FileOptions struct {
	Fs           afero.Fs
	Dir          string
	Name         string // base name without ".log"
	MinLevel     types.Level
	Rotation     features.RotationSpec
	MaxCount     int
	Compress     bool
	RetryCount   int
	RetryDelay   time.Duration
	MinFreeSpace uint64

	// Marker renders the line written at the top of a fresh active file.
	// Nil writes a plain marker; set NoMarker to write none.
	Marker   func(reason string) string
	NoMarker bool
}

// FileHandler appends lines to {Dir}/{Name}.log. The file is opened and
// closed around every write so rotations by other processes are picked up.
// Rotation is checked before each write under a sidecar lock file.
type FileHandler struct {
	base

	mu       sync.Mutex
	fs       afero.Fs
	path     string
	lock     *flock.Flock
	rotation features.RotationSpec
	archiver *features.Archiver
	opts     FileOptions
	closed   bool
	now      func() time.Time

	errorHandler   func(source, dest, msg string, err error)
	metricsHandler func(string)
}

// NewFileHandler creates the log directory if needed and returns a handler.
// The active file itself is created on first write.
func NewFileHandler(opts FileOptions) (*FileHandler, error) {
	if opts.Name == "" {
		return nil, errors.New("file handler needs a log name")
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if opts.RetryCount < 0 {
		opts.RetryCount = 0
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = 0
	}

	dir := filepath.Clean(opts.Dir)
	// #nosec G301 - log directories need to be accessible by other processes
	if err := opts.Fs.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "create log directory %s", dir)
	}

	h := &FileHandler{
		fs:       opts.Fs,
		path:     filepath.Join(dir, opts.Name+".log"),
		rotation: opts.Rotation,
		archiver: features.NewArchiver(opts.Fs, dir, opts.Name, opts.MaxCount, opts.Compress),
		opts:     opts,
		now:      time.Now,
	}
	h.base.init("file:"+h.path, "file", opts.MinLevel)

	// Cross-process locking only applies to the real filesystem.
	if _, ok := opts.Fs.(*afero.OsFs); ok {
		h.lock = flock.New(h.path + ".lock")
	}
	return h, nil
}

// SetErrorHandler sets the function called for problems that do not fail
// the write itself, such as a failed archive merge.
func (h *FileHandler) SetErrorHandler(handler func(source, dest, msg string, err error)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errorHandler = handler
}

// SetMetricsHandler sets the function called with "rotation" and
// "compression" events.
func (h *FileHandler) SetMetricsHandler(handler func(string)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.metricsHandler = handler
}

// Path returns the active log file path.
func (h *FileHandler) Path() string {
	return h.path
}

// Archiver exposes the archiver used for rotation.
func (h *FileHandler) Archiver() *features.Archiver {
	return h.archiver
}

// Emit implements Handler.
func (h *FileHandler) Emit(line string, _ types.Level) error {
	return h.write([]string{line})
}

// EmitBatch implements BatchHandler. Lines are appended in one write.
func (h *FileHandler) EmitBatch(lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	return h.write(lines)
}

func (h *FileHandler) write(lines []string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return errors.Wrap(os.ErrClosed, h.path)
	}

	if err := diskspace.Check(filepath.Dir(h.path), h.opts.MinFreeSpace); err != nil {
		h.track(0, err)
		return err
	}

	var payload strings.Builder
	for _, l := range lines {
		payload.WriteString(strings.TrimRight(l, "\r\n"))
		payload.WriteByte('\n')
	}
	data := payload.String()

	attempts := 0
	pending := data
	op := func() error {
		attempts++
		n, err := h.writeOnce(pending)
		pending = pending[n:]
		if err != nil && types.IsPermanentIOError(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(h.opts.RetryDelay), uint64(h.opts.RetryCount))
	if err := backoff.Retry(op, policy); err != nil {
		h.track(0, err)
		return errors.Wrapf(err, "write %s (%d attempts)", h.path, attempts)
	}
	h.track(len(data), nil)
	return nil
}

// writeOnce performs one locked rotate-check and append. It returns how
// many bytes of data reached the file so a retry appends only the rest.
func (h *FileHandler) writeOnce(data string) (int, error) {
	unlock, err := h.acquire()
	if err != nil {
		return 0, err
	}
	defer unlock()

	rotated := h.maybeRotate()

	_, statErr := h.fs.Stat(h.path)
	fresh := os.IsNotExist(statErr)

	f, err := h.fs.OpenFile(h.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644) // #nosec G302 - log files need to be readable
	if err != nil {
		return 0, err
	}

	prefix := ""
	if fresh && !h.opts.NoMarker {
		reason := MarkerStarted
		if rotated {
			reason = MarkerRotated
		}
		prefix = h.marker(reason) + "\n"
	}

	n, err := f.WriteString(prefix + data)
	written := n - len(prefix)
	if written < 0 {
		written = 0
	}
	if err != nil {
		_ = f.Close()
		return written, err
	}
	return written, f.Close()
}

func (h *FileHandler) acquire() (func(), error) {
	if h.lock == nil {
		return func() {}, nil
	}
	locked, err := h.lock.TryLock()
	if err != nil {
		return nil, errors.Wrap(err, "lock log file")
	}
	if !locked {
		return nil, ErrLockBusy
	}
	return func() { _ = h.lock.Unlock() }, nil
}

// maybeRotate runs the rotation policy against the active file. Rotation
// failures are reported but never block the write.
func (h *FileHandler) maybeRotate() bool {
	if !h.rotation.Enabled() {
		return false
	}
	info, err := h.fs.Stat(h.path)
	if err != nil {
		return false
	}
	meta := features.FileMeta{Size: info.Size(), ModTime: info.ModTime()}
	if !h.rotation.ShouldRotate(meta, h.now()) {
		return false
	}
	rotated, err := h.rotateLocked()
	if err != nil && h.errorHandler != nil {
		h.errorHandler("rotation", h.path, "rotation failed", err)
	}
	return rotated
}

func (h *FileHandler) rotateLocked() (bool, error) {
	rotated, err := h.archiver.Rotate()
	if rotated {
		h.emitMetric("rotation")
		if h.opts.Compress && err == nil {
			h.emitMetric("compression")
		}
	}
	return rotated, err
}

func (h *FileHandler) emitMetric(event string) {
	if h.metricsHandler != nil {
		h.metricsHandler(event)
	}
}

func (h *FileHandler) marker(reason string) string {
	if h.opts.Marker != nil {
		return h.opts.Marker(reason)
	}
	return fmt.Sprintf("--- log %s %s ---", reason, h.now().Format(time.RFC3339))
}

// Rotate forces a rotation regardless of policy. It reports false when there
// was no active file.
func (h *FileHandler) Rotate() (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	unlock, err := h.acquire()
	if err != nil {
		return false, err
	}
	defer unlock()

	return h.rotateLocked()
}

// Close implements Handler. The lock file is left in place for other writers.
func (h *FileHandler) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}
