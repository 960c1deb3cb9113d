package scriptlog

import (
	"sync"
)

// PropertyStack holds scoped properties attached to every record. Each key
// has its own stack of frames; the newest frame is the visible value.
type PropertyStack struct {
	mu     sync.Mutex
	frames map[string][]frame
	seq    uint64
}

type frame struct {
	id    uint64
	value interface{}
}

// ScopeHandle undoes one Push. Release is idempotent and may be called in
// any order relative to other handles.
type ScopeHandle struct {
	stack *PropertyStack
	key   string
	id    uint64
	once  sync.Once
}

// NewPropertyStack creates an empty stack.
func NewPropertyStack() *PropertyStack {
	return &PropertyStack{frames: make(map[string][]frame)}
}

// Push sets key to value until the returned handle is released.
//
//	defer stack.Push("step", "backup").Release()
func (s *PropertyStack) Push(key string, value interface{}) *ScopeHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.frames[key] = append(s.frames[key], frame{id: s.seq, value: value})
	return &ScopeHandle{stack: s, key: key, id: s.seq}
}

// Release removes the frame pushed for this handle. When it was the newest
// frame for its key, the previous value (or absence) becomes visible again.
func (h *ScopeHandle) Release() {
	if h == nil || h.stack == nil {
		return
	}
	h.once.Do(func() {
		h.stack.remove(h.key, h.id)
	})
}

func (s *PropertyStack) remove(key string, id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	frames := s.frames[key]
	for i := len(frames) - 1; i >= 0; i-- {
		if frames[i].id == id {
			frames = append(frames[:i], frames[i+1:]...)
			break
		}
	}
	if len(frames) == 0 {
		delete(s.frames, key)
		return
	}
	s.frames[key] = frames
}

// Get returns the visible value for key.
func (s *PropertyStack) Get(key string) (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	frames, ok := s.frames[key]
	if !ok {
		return nil, false
	}
	return frames[len(frames)-1].value, true
}

// Snapshot copies the visible values. It returns nil when no key is set.
func (s *PropertyStack) Snapshot() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(s.frames))
	for k, frames := range s.frames {
		out[k] = frames[len(frames)-1].value
	}
	return out
}

// Len returns the number of keys with a visible value.
func (s *PropertyStack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}
