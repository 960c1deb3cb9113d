package scriptlog

import (
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/wayneeseguin/scriptlog/internal/buffer"
	"github.com/wayneeseguin/scriptlog/pkg/backends"
	"github.com/wayneeseguin/scriptlog/pkg/types"
)

// bufferedHandler queues lines for the file destination and writes them in
// batches through FileHandler.EmitBatch.
type bufferedHandler struct {
	file *backends.FileHandler
	buf  *buffer.WriteBuffer
}

func newBufferedHandler(file *backends.FileHandler, size int, interval time.Duration, capacity int) *bufferedHandler {
	buf := buffer.NewWriteBuffer(buffer.BatchSinkFunc(file.EmitBatch), size, interval)
	if capacity > 0 {
		buf.SetCapacity(capacity)
	}
	return &bufferedHandler{file: file, buf: buf}
}

func (h *bufferedHandler) Name() string {
	return h.file.Name()
}

func (h *bufferedHandler) MinLevel() types.Level {
	return h.file.MinLevel()
}

func (h *bufferedHandler) SetMinLevel(level types.Level) {
	h.file.SetMinLevel(level)
}

func (h *bufferedHandler) Emit(line string, _ types.Level) error {
	return h.buf.Add(line)
}

func (h *bufferedHandler) Flush() error {
	return h.buf.Flush()
}

func (h *bufferedHandler) Stats() backends.HandlerStats {
	return h.file.Stats()
}

func (h *bufferedHandler) Close() error {
	var result *multierror.Error
	if err := h.buf.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := h.file.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}
