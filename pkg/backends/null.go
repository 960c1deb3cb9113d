package backends

import "github.com/wayneeseguin/scriptlog/pkg/types"

// NullHandler accepts every record and discards it.
type NullHandler struct {
	base
}

// NewNullHandler creates a handler that discards everything.
func NewNullHandler() *NullHandler {
	h := &NullHandler{}
	h.base.init("null", "null", types.LevelDebug)
	return h
}

// Emit implements Handler.
func (h *NullHandler) Emit(line string, _ types.Level) error {
	h.track(len(line), nil)
	return nil
}

// Close implements Handler.
func (h *NullHandler) Close() error {
	return nil
}
