package buffer

import (
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

var (
	// ErrClosed is returned when operations are attempted on a closed WriteBuffer
	ErrClosed = errors.New("write buffer is closed")
	// ErrBufferOverflow is returned when entries had to be dropped to stay within capacity
	ErrBufferOverflow = errors.New("write buffer overflow")
)

// BatchSink receives the pending lines when the buffer flushes.
type BatchSink interface {
	WriteBatch(lines []string) error
}

// BatchSinkFunc adapts a function to BatchSink.
type BatchSinkFunc func(lines []string) error

// WriteBatch calls f(lines).
func (f BatchSinkFunc) WriteBatch(lines []string) error {
	return f(lines)
}

// WriteBuffer queues formatted lines and hands them to a sink in batches.
// Flushes happen when maxCount lines are pending, when the oldest pending
// line is older than the flush interval (checked on Add), or explicitly.
// There is no background timer.
type WriteBuffer struct {
	mu            sync.Mutex
	sink          BatchSink
	pending       []string
	oldest        time.Time
	maxCount      int
	capacity      int
	flushInterval time.Duration
	dropped       uint64
	closed        bool
	now           func() time.Time
}

// NewWriteBuffer creates a buffer that flushes to sink. The hard capacity
// defaults to ten times maxCount.
func NewWriteBuffer(sink BatchSink, maxCount int, flushInterval time.Duration) *WriteBuffer {
	if maxCount < 1 {
		maxCount = 1
	}
	return &WriteBuffer{
		sink:          sink,
		pending:       make([]string, 0, maxCount),
		maxCount:      maxCount,
		capacity:      maxCount * 10,
		flushInterval: flushInterval,
		now:           time.Now,
	}
}

// SetCapacity changes the hard limit on pending lines. Values below
// maxCount are raised to maxCount.
func (b *WriteBuffer) SetCapacity(capacity int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if capacity < b.maxCount {
		capacity = b.maxCount
	}
	b.capacity = capacity
}

// Add queues a line and flushes when a trigger is reached. If the buffer is
// full (previous flushes failed) the oldest lines are dropped and the
// returned error wraps ErrBufferOverflow.
func (b *WriteBuffer) Add(line string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}

	var result error
	if over := len(b.pending) + 1 - b.capacity; over > 0 {
		b.pending = append(b.pending[:0], b.pending[over:]...)
		b.dropped += uint64(over)
		result = multierror.Append(result, errors.Wrapf(ErrBufferOverflow, "dropped %d oldest entries", over))
	}

	if len(b.pending) == 0 {
		b.oldest = b.now()
	}
	b.pending = append(b.pending, line)

	if b.shouldFlushLocked() {
		if err := b.flushLocked(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if merr, ok := result.(*multierror.Error); ok && len(merr.Errors) == 1 {
		return merr.Errors[0]
	}
	return result
}

func (b *WriteBuffer) shouldFlushLocked() bool {
	if len(b.pending) >= b.maxCount {
		return true
	}
	return b.flushInterval > 0 && b.now().Sub(b.oldest) >= b.flushInterval
}

// Flush hands every pending line to the sink. On failure the lines stay
// queued.
func (b *WriteBuffer) Flush() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flushLocked()
}

// flushLocked performs the actual flush (must be called with lock held).
func (b *WriteBuffer) flushLocked() error {
	if len(b.pending) == 0 {
		return nil
	}

	batch := make([]string, len(b.pending))
	copy(batch, b.pending)

	if err := b.sink.WriteBatch(batch); err != nil {
		return errors.Wrapf(err, "flush %d entries", len(batch))
	}

	b.pending = b.pending[:0]
	b.oldest = time.Time{}
	return nil
}

// Len returns the number of pending lines.
func (b *WriteBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Close flushes the remaining lines. Later Adds fail with ErrClosed.
func (b *WriteBuffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	return b.flushLocked()
}

// Stats returns current buffer statistics.
func (b *WriteBuffer) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()

	return Stats{
		BufferedEntries: len(b.pending),
		MaxEntries:      b.maxCount,
		Capacity:        b.capacity,
		Dropped:         b.dropped,
		FlushInterval:   b.flushInterval,
	}
}

// Stats contains statistics about the write buffer.
type Stats struct {
	BufferedEntries int           `json:"buffered_entries"`
	MaxEntries      int           `json:"max_entries"`
	Capacity        int           `json:"capacity"`
	Dropped         uint64        `json:"dropped"`
	FlushInterval   time.Duration `json:"flush_interval"`
}
