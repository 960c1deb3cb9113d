package scriptlog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertyStack_RestoresPreviousValue(t *testing.T) {
	s := NewPropertyStack()

	outer := s.Push("step", "outer")
	inner := s.Push("step", "inner")

	v, ok := s.Get("step")
	require.True(t, ok)
	assert.Equal(t, "inner", v)

	inner.Release()
	v, _ = s.Get("step")
	assert.Equal(t, "outer", v)

	outer.Release()
	_, ok = s.Get("step")
	assert.False(t, ok)
	assert.Nil(t, s.Snapshot())
}

func TestPropertyStack_OutOfOrderRelease(t *testing.T) {
	s := NewPropertyStack()

	first := s.Push("k", 1)
	second := s.Push("k", 2)

	first.Release()
	v, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, 2, v)

	second.Release()
	_, ok = s.Get("k")
	assert.False(t, ok)
}

func TestPropertyStack_ReleaseIsIdempotent(t *testing.T) {
	s := NewPropertyStack()

	base := s.Push("k", "base")
	h := s.Push("k", "top")
	h.Release()
	h.Release()

	v, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, "base", v)
	base.Release()

	var nilHandle *ScopeHandle
	assert.NotPanics(t, nilHandle.Release)
}

func TestPropertyStack_RestoredThroughPanic(t *testing.T) {
	s := NewPropertyStack()

	func() {
		defer func() { _ = recover() }()
		defer s.Push("request", "r-1").Release()
		panic("script failed")
	}()

	_, ok := s.Get("request")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestPropertyStack_SnapshotIsCopy(t *testing.T) {
	s := NewPropertyStack()
	defer s.Push("a", 1).Release()
	defer s.Push("b", 2).Release()

	snap := s.Snapshot()
	assert.Equal(t, map[string]interface{}{"a": 1, "b": 2}, snap)

	snap["a"] = 100
	v, _ := s.Get("a")
	assert.Equal(t, 1, v)
}

func TestContextHelpers(t *testing.T) {
	parent := WithProperty(context.Background(), "a", 1)
	child := WithProperty(parent, "b", 2)

	assert.Equal(t, map[string]interface{}{"a": 1}, PropertiesFromContext(parent))
	assert.Equal(t, map[string]interface{}{"a": 1, "b": 2}, PropertiesFromContext(child))

	_, ok := CorrelationIDFromContext(child)
	assert.False(t, ok)

	id, ok := CorrelationIDFromContext(WithCorrelationID(child, "xyz"))
	assert.True(t, ok)
	assert.Equal(t, "xyz", id)
}
