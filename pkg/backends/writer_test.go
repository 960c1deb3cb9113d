package backends

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wayneeseguin/scriptlog/pkg/types"
)

type closeRecorder struct {
	bytes.Buffer
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

func TestWriterHandler(t *testing.T) {
	w := &closeRecorder{}
	h := NewWriterHandler("custom", w, types.LevelWarning)

	require.NoError(t, h.Emit("one", types.LevelError))
	require.NoError(t, h.EmitBatch([]string{"two", "three"}))
	require.NoError(t, h.EmitBatch(nil))
	assert.Equal(t, "one\ntwo\nthree\n", w.String())
	assert.Equal(t, "custom", h.Name())

	require.NoError(t, h.Close())
	assert.True(t, w.closed)
}

func TestFuncHandler(t *testing.T) {
	var got []types.Level
	h := NewFuncHandler("fn", types.LevelDebug, func(_ string, level types.Level) error {
		got = append(got, level)
		if level == types.LevelCritical {
			return errors.New("rejected")
		}
		return nil
	})

	assert.NoError(t, h.Emit("a", types.LevelInfo))
	assert.Error(t, h.Emit("b", types.LevelCritical))
	assert.Equal(t, []types.Level{types.LevelInfo, types.LevelCritical}, got)

	stats := h.Stats()
	assert.Equal(t, uint64(1), stats.WriteCount)
	assert.Equal(t, uint64(1), stats.ErrorCount)
}

func TestNullHandler(t *testing.T) {
	h := NewNullHandler()
	assert.NoError(t, h.Emit("gone", types.LevelDebug))
	assert.True(t, Accepts(h, types.LevelDebug))
	assert.NoError(t, h.Close())
}
