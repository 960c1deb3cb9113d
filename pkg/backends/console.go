package backends

import (
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/wayneeseguin/scriptlog/pkg/types"
	"golang.org/x/term"
)

// ColorMode selects when the console handler colours its output.
type ColorMode int

const (
	// ColorAuto colours only when the writer is a terminal and NO_COLOR is unset
	ColorAuto ColorMode = iota
	// ColorAlways forces ANSI colours
	ColorAlways
	// ColorNever disables colours
	ColorNever
)

// ParseColorMode maps "auto", "always"/"true" and "never"/"false".
func ParseColorMode(s string) ColorMode {
	switch s {
	case "always", "true", "on", "yes":
		return ColorAlways
	case "never", "false", "off", "no":
		return ColorNever
	default:
		return ColorAuto
	}
}

// ConsoleHandler writes lines to a terminal or any io.Writer, one colour per
// level.
type ConsoleHandler struct {
	base

	mu     sync.Mutex
	w      io.Writer
	styles map[types.Level]lipgloss.Style
	color  bool
}

// NewConsoleHandler creates a console handler. A nil writer means stdout.
func NewConsoleHandler(w io.Writer, level types.Level, mode ColorMode) *ConsoleHandler {
	if w == nil {
		w = os.Stdout
	}

	h := &ConsoleHandler{w: w, color: useColor(w, mode)}
	h.base.init("console", "console", level)

	r := lipgloss.NewRenderer(w)
	if h.color {
		r.SetColorProfile(termenv.ANSI)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	plain := r.NewStyle().TabWidth(lipgloss.NoTabConversion)
	h.styles = map[types.Level]lipgloss.Style{
		types.LevelCritical: plain.Bold(true).Foreground(lipgloss.Color("9")),
		types.LevelError:    plain.Foreground(lipgloss.Color("9")),
		types.LevelWarning:  plain.Foreground(lipgloss.Color("11")),
		types.LevelSuccess:  plain.Foreground(lipgloss.Color("10")),
		types.LevelInfo:     plain,
		types.LevelDebug:    plain.Foreground(lipgloss.Color("8")),
	}
	return h
}

func useColor(w io.Writer, mode ColorMode) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Colored reports whether output carries ANSI colour codes.
func (h *ConsoleHandler) Colored() bool {
	return h.color
}

// Emit implements Handler.
func (h *ConsoleHandler) Emit(line string, level types.Level) error {
	if h.color {
		if style, ok := h.styles[level]; ok {
			line = style.Render(line)
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	n, err := io.WriteString(h.w, line+"\n")
	h.track(n, err)
	return err
}

// Close implements Handler. The underlying writer is not closed.
func (h *ConsoleHandler) Close() error {
	return nil
}
