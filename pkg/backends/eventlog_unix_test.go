//go:build unix

package backends

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	scriptlogtesting "github.com/wayneeseguin/scriptlog/internal/testing"
	"github.com/wayneeseguin/scriptlog/pkg/types"
)

func listenSyslog(t *testing.T) (string, net.PacketConn) {
	t.Helper()
	dir, err := os.MkdirTemp("", "sl")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	addr := filepath.Join(dir, "log.sock")
	conn, err := net.ListenPacket("unixgram", addr)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return addr, conn
}

func TestSyslogHandler_Framing(t *testing.T) {
	addr, conn := listenSyslog(t)

	h, err := NewSyslogHandler(addr, "backup", types.LevelWarning)
	require.NoError(t, err)
	defer h.Close()

	require.NoError(t, h.Emit("disk almost full  ", types.LevelWarning))

	buf := make([]byte, 1024)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, _, err := conn.ReadFrom(buf)
	require.NoError(t, err)

	want := fmt.Sprintf("<12>backup[%d]: disk almost full\n", os.Getpid())
	assert.Equal(t, want, string(buf[:n]))
	assert.Equal(t, "backup", h.Source())
}

func TestSyslogSeverity(t *testing.T) {
	tests := []struct {
		level types.Level
		want  int
	}{
		{types.LevelCritical, 2},
		{types.LevelError, 3},
		{types.LevelWarning, 4},
		{types.LevelSuccess, 5},
		{types.LevelInfo, 6},
		{types.LevelDebug, 7},
	}
	for _, tt := range tests {
		if got := syslogSeverity(tt.level); got != tt.want {
			t.Errorf("%s: got %d, want %d", tt.level, got, tt.want)
		}
	}
}

func TestEventLogHandler_DefaultLevelAndClose(t *testing.T) {
	addr, _ := listenSyslog(t)
	h, err := NewSyslogHandler(addr, "job", 0)
	require.NoError(t, err)

	assert.Equal(t, DefaultEventLogLevel, h.MinLevel())
	require.NoError(t, h.Close())
	assert.ErrorIs(t, h.Emit("x", types.LevelError), ErrEventLogUnavailable)
	assert.NoError(t, h.Close())
}

func TestEventLogHandler_LocalSyslog(t *testing.T) {
	scriptlogtesting.SkipIfUnit(t, "needs a local syslog daemon")

	h, err := NewEventLogHandler("scriptlog-test", types.LevelError)
	require.NoError(t, err)
	defer h.Close()
	assert.NoError(t, h.Emit("integration check", types.LevelError))
}
