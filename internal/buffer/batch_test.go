package buffer

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// mockSink helps test error conditions
type mockSink struct {
	mu      sync.Mutex
	fail    bool
	batches [][]string
}

func (m *mockSink) WriteBatch(lines []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("sink unavailable")
	}
	m.batches = append(m.batches, lines)
	return nil
}

func (m *mockSink) written() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, b := range m.batches {
		out = append(out, b...)
	}
	return out
}

func TestWriteBuffer_FlushTriggers(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		maxCount    int
		interval    time.Duration
		adds        int
		step        time.Duration
		wantPending int
		wantBatches int
	}{
		{name: "below count", maxCount: 3, adds: 2, wantPending: 2},
		{name: "count reached", maxCount: 3, adds: 3, wantPending: 0, wantBatches: 1},
		{name: "count reached twice", maxCount: 2, adds: 5, wantPending: 1, wantBatches: 2},
		{name: "interval elapsed", maxCount: 100, interval: time.Second, adds: 4, step: 600 * time.Millisecond, wantPending: 1, wantBatches: 1},
		{name: "interval not elapsed", maxCount: 100, interval: time.Minute, adds: 3, step: time.Second, wantPending: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &mockSink{}
			b := NewWriteBuffer(sink, tt.maxCount, tt.interval)
			clock := base
			b.now = func() time.Time { return clock }

			for i := 0; i < tt.adds; i++ {
				if err := b.Add("line"); err != nil {
					t.Fatalf("Add: %v", err)
				}
				clock = clock.Add(tt.step)
			}

			if got := b.Len(); got != tt.wantPending {
				t.Errorf("pending = %d, want %d", got, tt.wantPending)
			}
			if got := len(sink.batches); got != tt.wantBatches {
				t.Errorf("batches = %d, want %d", got, tt.wantBatches)
			}
		})
	}
}

func TestWriteBuffer_FailedFlushKeepsEntries(t *testing.T) {
	sink := &mockSink{fail: true}
	b := NewWriteBuffer(sink, 10, 0)

	for _, l := range []string{"a", "b", "c"} {
		if err := b.Add(l); err != nil {
			t.Fatal(err)
		}
	}

	if err := b.Flush(); err == nil {
		t.Fatal("expected flush error")
	}
	if b.Len() != 3 {
		t.Fatalf("entries lost after failed flush: %d pending", b.Len())
	}

	sink.fail = false
	if err := b.Flush(); err != nil {
		t.Fatal(err)
	}
	got := sink.written()
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("written %v, want [a b c] in order", got)
	}
}

func TestWriteBuffer_Overflow(t *testing.T) {
	sink := &mockSink{fail: true}
	b := NewWriteBuffer(sink, 2, 0)
	b.SetCapacity(3)

	var overflow int
	for _, l := range []string{"1", "2", "3", "4", "5"} {
		if err := b.Add(l); errors.Is(err, ErrBufferOverflow) {
			overflow++
		}
	}

	if overflow != 2 {
		t.Errorf("overflow reported %d times, want 2", overflow)
	}
	if s := b.Stats(); s.Dropped != 2 || s.BufferedEntries != 3 {
		t.Errorf("unexpected stats %+v", s)
	}

	sink.fail = false
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	got := sink.written()
	if len(got) != 3 || got[0] != "3" || got[2] != "5" {
		t.Errorf("written %v, want oldest entries dropped", got)
	}
}

func TestWriteBuffer_Close(t *testing.T) {
	sink := &mockSink{}
	b := NewWriteBuffer(sink, 10, 0)
	_ = b.Add("x")

	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	if len(sink.written()) != 1 {
		t.Error("close should flush pending entries")
	}
	if err := b.Add("y"); !errors.Is(err, ErrClosed) {
		t.Errorf("Add after close: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}
