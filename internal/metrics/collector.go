package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/wayneeseguin/scriptlog/pkg/types"
)

// Collector handles metrics collection for a logger.
type Collector struct {
	// Message counts by level
	messagesByLevel sync.Map // map[types.Level]*atomic.Uint64

	// Records that never reached a destination
	messagesDropped    uint64 // logger closed
	messagesSampledOut uint64 // decimated by the sampler
	messagesGated      uint64 // below the level minimum
	messagesFiltered   uint64 // rejected by a filter

	// File operations
	rotationCount    uint64
	compressionCount uint64
	bytesWritten     uint64
	bufferOverflows  uint64

	// Error metrics
	errorCount          uint64
	errorsByKind        sync.Map // map[string]*atomic.Uint64
	errorsByDestination sync.Map // map[string]*atomic.Uint64

	// Performance metrics
	writeCount     uint64
	totalWriteTime int64 // nanoseconds
	maxWriteTime   int64 // nanoseconds
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Metrics contains runtime metrics for the logger.
type Metrics struct {
	MessagesLogged     map[types.Level]uint64 `json:"messages_logged"`
	MessagesDropped    uint64                 `json:"messages_dropped"`
	MessagesSampledOut uint64                 `json:"messages_sampled_out"`
	MessagesGated      uint64                 `json:"messages_gated"`
	MessagesFiltered   uint64                 `json:"messages_filtered"`

	RotationCount    uint64 `json:"rotation_count"`
	CompressionCount uint64 `json:"compression_count"`
	BytesWritten     uint64 `json:"bytes_written"`
	BufferOverflows  uint64 `json:"buffer_overflows"`

	// Buffer state at snapshot time
	BufferDepth    int `json:"buffer_depth"`
	BufferCapacity int `json:"buffer_capacity"`

	ErrorCount          uint64            `json:"error_count"`
	ErrorsByKind        map[string]uint64 `json:"errors_by_kind"`
	ErrorsByDestination map[string]uint64 `json:"errors_by_destination"`

	AverageWriteTime time.Duration `json:"average_write_time"`
	MaxWriteTime     time.Duration `json:"max_write_time"`

	DestinationCount int `json:"destination_count"`
}

// Snapshot returns the current metrics. Buffer and destination figures are
// owned by the caller and passed in.
func (c *Collector) Snapshot(bufferDepth, bufferCapacity, destinations int) Metrics {
	m := Metrics{
		MessagesLogged:      make(map[types.Level]uint64),
		MessagesDropped:     atomic.LoadUint64(&c.messagesDropped),
		MessagesSampledOut:  atomic.LoadUint64(&c.messagesSampledOut),
		MessagesGated:       atomic.LoadUint64(&c.messagesGated),
		MessagesFiltered:    atomic.LoadUint64(&c.messagesFiltered),
		RotationCount:       atomic.LoadUint64(&c.rotationCount),
		CompressionCount:    atomic.LoadUint64(&c.compressionCount),
		BytesWritten:        atomic.LoadUint64(&c.bytesWritten),
		BufferOverflows:     atomic.LoadUint64(&c.bufferOverflows),
		BufferDepth:         bufferDepth,
		BufferCapacity:      bufferCapacity,
		ErrorCount:          atomic.LoadUint64(&c.errorCount),
		ErrorsByKind:        make(map[string]uint64),
		ErrorsByDestination: make(map[string]uint64),
		DestinationCount:    destinations,
	}

	c.messagesByLevel.Range(func(key, value interface{}) bool {
		if count := value.(*atomic.Uint64).Load(); count > 0 {
			m.MessagesLogged[key.(types.Level)] = count
		}
		return true
	})
	copyCounters(&c.errorsByKind, m.ErrorsByKind)
	copyCounters(&c.errorsByDestination, m.ErrorsByDestination)

	if writes := atomic.LoadUint64(&c.writeCount); writes > 0 {
		m.AverageWriteTime = time.Duration(atomic.LoadInt64(&c.totalWriteTime)) / time.Duration(writes)
	}
	m.MaxWriteTime = time.Duration(atomic.LoadInt64(&c.maxWriteTime))

	return m
}

func copyCounters(src *sync.Map, dst map[string]uint64) {
	src.Range(func(key, value interface{}) bool {
		if count := value.(*atomic.Uint64).Load(); count > 0 {
			dst[key.(string)] = count
		}
		return true
	})
}

func increment(m *sync.Map, key interface{}) {
	val, _ := m.LoadOrStore(key, &atomic.Uint64{})
	val.(*atomic.Uint64).Add(1)
}

// Reset zeroes every counter.
func (c *Collector) Reset() {
	reset := func(key, value interface{}) bool {
		value.(*atomic.Uint64).Store(0)
		return true
	}
	c.messagesByLevel.Range(reset)
	c.errorsByKind.Range(reset)
	c.errorsByDestination.Range(reset)

	for _, p := range []*uint64{
		&c.messagesDropped, &c.messagesSampledOut, &c.messagesGated, &c.messagesFiltered,
		&c.rotationCount, &c.compressionCount, &c.bytesWritten, &c.bufferOverflows,
		&c.errorCount, &c.writeCount,
	} {
		atomic.StoreUint64(p, 0)
	}
	atomic.StoreInt64(&c.totalWriteTime, 0)
	atomic.StoreInt64(&c.maxWriteTime, 0)
}

// TrackMessageLogged counts a record that reached the destinations.
func (c *Collector) TrackMessageLogged(level types.Level) {
	increment(&c.messagesByLevel, level)
}

// TrackMessageDropped counts a record discarded because the logger is closed.
func (c *Collector) TrackMessageDropped() {
	atomic.AddUint64(&c.messagesDropped, 1)
}

// TrackSampledOut counts a record removed by the sampler.
func (c *Collector) TrackSampledOut() {
	atomic.AddUint64(&c.messagesSampledOut, 1)
}

// TrackGated counts a record below the minimum level.
func (c *Collector) TrackGated() {
	atomic.AddUint64(&c.messagesGated, 1)
}

// TrackFiltered counts a record rejected by the filter chain.
func (c *Collector) TrackFiltered() {
	atomic.AddUint64(&c.messagesFiltered, 1)
}

// TrackRotation increments the rotation counter.
func (c *Collector) TrackRotation() {
	atomic.AddUint64(&c.rotationCount, 1)
}

// TrackCompression increments the archive update counter.
func (c *Collector) TrackCompression() {
	atomic.AddUint64(&c.compressionCount, 1)
}

// TrackBufferOverflow counts an overflow of the write buffer.
func (c *Collector) TrackBufferOverflow() {
	atomic.AddUint64(&c.bufferOverflows, 1)
}

// TrackWrite records write metrics.
func (c *Collector) TrackWrite(bytes int64, duration time.Duration) {
	atomic.AddUint64(&c.bytesWritten, uint64(bytes))
	atomic.AddUint64(&c.writeCount, 1)
	atomic.AddInt64(&c.totalWriteTime, int64(duration))

	for {
		oldMax := atomic.LoadInt64(&c.maxWriteTime)
		if int64(duration) <= oldMax {
			break
		}
		if atomic.CompareAndSwapInt64(&c.maxWriteTime, oldMax, int64(duration)) {
			break
		}
	}
}

// TrackError counts an error by kind and, when known, by destination.
func (c *Collector) TrackError(kind, destination string) {
	atomic.AddUint64(&c.errorCount, 1)
	increment(&c.errorsByKind, kind)
	if destination != "" {
		increment(&c.errorsByDestination, destination)
	}
}

// MessageCount returns the number of records logged at level.
func (c *Collector) MessageCount(level types.Level) uint64 {
	if val, ok := c.messagesByLevel.Load(level); ok {
		return val.(*atomic.Uint64).Load()
	}
	return 0
}

// ErrorCount returns the total error count.
func (c *Collector) ErrorCount() uint64 {
	return atomic.LoadUint64(&c.errorCount)
}
