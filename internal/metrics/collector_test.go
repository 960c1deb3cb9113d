package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/wayneeseguin/scriptlog/pkg/types"
)

func TestCollector_Counters(t *testing.T) {
	c := NewCollector()

	c.TrackMessageLogged(types.LevelInfo)
	c.TrackMessageLogged(types.LevelInfo)
	c.TrackMessageLogged(types.LevelError)
	c.TrackMessageDropped()
	c.TrackSampledOut()
	c.TrackSampledOut()
	c.TrackGated()
	c.TrackFiltered()
	c.TrackRotation()
	c.TrackCompression()
	c.TrackBufferOverflow()
	c.TrackError("destination", "console")
	c.TrackError("rotation", "")

	m := c.Snapshot(3, 100, 2)

	checks := []struct {
		name string
		got  uint64
		want uint64
	}{
		{"info", m.MessagesLogged[types.LevelInfo], 2},
		{"error", m.MessagesLogged[types.LevelError], 1},
		{"dropped", m.MessagesDropped, 1},
		{"sampled out", m.MessagesSampledOut, 2},
		{"gated", m.MessagesGated, 1},
		{"filtered", m.MessagesFiltered, 1},
		{"rotations", m.RotationCount, 1},
		{"compressions", m.CompressionCount, 1},
		{"overflows", m.BufferOverflows, 1},
		{"errors", m.ErrorCount, 2},
		{"destination errors", m.ErrorsByDestination["console"], 1},
		{"rotation errors", m.ErrorsByKind["rotation"], 1},
	}
	for _, tt := range checks {
		if tt.got != tt.want {
			t.Errorf("%s = %d, want %d", tt.name, tt.got, tt.want)
		}
	}

	if m.BufferDepth != 3 || m.BufferCapacity != 100 || m.DestinationCount != 2 {
		t.Errorf("caller supplied figures not copied: %+v", m)
	}
	if _, ok := m.ErrorsByDestination[""]; ok {
		t.Error("errors without a destination should not be keyed")
	}
}

func TestCollector_WriteTimes(t *testing.T) {
	c := NewCollector()
	c.TrackWrite(100, 10*time.Millisecond)
	c.TrackWrite(50, 30*time.Millisecond)

	m := c.Snapshot(0, 0, 0)
	if m.BytesWritten != 150 {
		t.Errorf("bytes = %d", m.BytesWritten)
	}
	if m.AverageWriteTime != 20*time.Millisecond {
		t.Errorf("average = %v", m.AverageWriteTime)
	}
	if m.MaxWriteTime != 30*time.Millisecond {
		t.Errorf("max = %v", m.MaxWriteTime)
	}
}

func TestCollector_Reset(t *testing.T) {
	c := NewCollector()
	c.TrackMessageLogged(types.LevelDebug)
	c.TrackError("buffer", "file")
	c.TrackWrite(10, time.Millisecond)
	c.Reset()

	m := c.Snapshot(0, 0, 0)
	if len(m.MessagesLogged) != 0 || m.ErrorCount != 0 || m.BytesWritten != 0 || len(m.ErrorsByKind) != 0 {
		t.Errorf("metrics not reset: %+v", m)
	}
}

func TestCollector_Concurrent(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				c.TrackMessageLogged(types.LevelInfo)
				c.TrackWrite(1, time.Microsecond)
			}
		}()
	}
	wg.Wait()

	if got := c.MessageCount(types.LevelInfo); got != 8000 {
		t.Errorf("count = %d, want 8000", got)
	}
}
