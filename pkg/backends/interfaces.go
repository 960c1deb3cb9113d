package backends

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/wayneeseguin/scriptlog/pkg/types"
)

//go:generate mockgen -destination=../../mocks/handler.go -package=mocks github.com/wayneeseguin/scriptlog/pkg/backends Handler

// Handler is a log destination. Emit receives a formatted line without a
// trailing newline.
type Handler interface {
	// Name identifies the handler in diagnostics and metrics
	Name() string

	// MinLevel is the least severe level the handler accepts
	MinLevel() types.Level

	// Emit writes one formatted line
	Emit(line string, level types.Level) error

	// Close releases the handler's resources
	Close() error
}

// BatchHandler is a Handler that can write several lines in one operation.
type BatchHandler interface {
	Handler
	EmitBatch(lines []string) error
}

// LevelSetter is implemented by handlers whose minimum level can change at
// runtime.
type LevelSetter interface {
	SetMinLevel(level types.Level)
}

// Accepts reports whether h takes records at level.
func Accepts(h Handler, level types.Level) bool {
	return level.Enabled(h.MinLevel())
}

// HandlerStats represents statistics for a handler
type HandlerStats struct {
	Name         string
	Type         string
	WriteCount   uint64
	BytesWritten uint64
	ErrorCount   uint64
	LastWrite    time.Time
	LastError    time.Time
}

// StatsProvider is implemented by handlers that track statistics.
type StatsProvider interface {
	Stats() HandlerStats
}

// base carries the name, level and counters shared by the built-in handlers.
type base struct {
	name     string
	kind     string
	minLevel atomic.Int32

	mu        sync.Mutex
	writes    uint64
	bytes     uint64
	errors    uint64
	lastWrite time.Time
	lastError time.Time
}

func (b *base) init(name, kind string, level types.Level) {
	if !level.Valid() {
		level = types.LevelDebug
	}
	b.name = name
	b.kind = kind
	b.minLevel.Store(int32(level))
}

// Name implements Handler.
func (b *base) Name() string {
	return b.name
}

// MinLevel implements Handler.
func (b *base) MinLevel() types.Level {
	return types.Level(b.minLevel.Load())
}

// SetMinLevel implements LevelSetter. Invalid levels are ignored.
func (b *base) SetMinLevel(level types.Level) {
	if level.Valid() {
		b.minLevel.Store(int32(level))
	}
}

func (b *base) track(n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := time.Now()
	if err != nil {
		b.errors++
		b.lastError = now
		return
	}
	b.writes++
	b.bytes += uint64(n)
	b.lastWrite = now
}

// Stats implements StatsProvider.
func (b *base) Stats() HandlerStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return HandlerStats{
		Name:         b.name,
		Type:         b.kind,
		WriteCount:   b.writes,
		BytesWritten: b.bytes,
		ErrorCount:   b.errors,
		LastWrite:    b.lastWrite,
		LastError:    b.lastError,
	}
}
