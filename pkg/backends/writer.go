package backends

import (
	"io"
	"strings"
	"sync"

	"github.com/wayneeseguin/scriptlog/pkg/types"
)

// WriterHandler writes lines to an arbitrary io.Writer. If the writer is
// also an io.Closer it is closed with the handler.
type WriterHandler struct {
	base

	mu sync.Mutex
	w  io.Writer
}

// NewWriterHandler creates a custom sink over w.
func NewWriterHandler(name string, w io.Writer, level types.Level) *WriterHandler {
	h := &WriterHandler{w: w}
	h.base.init(name, "writer", level)
	return h
}

// Emit implements Handler.
func (h *WriterHandler) Emit(line string, _ types.Level) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	n, err := io.WriteString(h.w, line+"\n")
	h.track(n, err)
	return err
}

// EmitBatch implements BatchHandler.
func (h *WriterHandler) EmitBatch(lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	n, err := io.WriteString(h.w, strings.Join(lines, "\n")+"\n")
	h.track(n, err)
	return err
}

// Close implements Handler.
func (h *WriterHandler) Close() error {
	if c, ok := h.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// FuncHandler passes each line and level to a function.
type FuncHandler struct {
	base
	fn func(line string, level types.Level) error
}

// NewFuncHandler creates a custom sink around fn.
func NewFuncHandler(name string, level types.Level, fn func(line string, level types.Level) error) *FuncHandler {
	h := &FuncHandler{fn: fn}
	h.base.init(name, "func", level)
	return h
}

// Emit implements Handler.
func (h *FuncHandler) Emit(line string, level types.Level) error {
	err := h.fn(line, level)
	h.track(len(line), err)
	return err
}

// Close implements Handler.
func (h *FuncHandler) Close() error {
	return nil
}
