// Package util holds terminal output helpers shared by the command line
// programs.
package util

import (
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// ANSI color codes
const (
	ColorReset   = "\033[0m"
	ColorRed     = "\033[31m"
	ColorGreen   = "\033[32m"
	ColorYellow  = "\033[33m"
	ColorBlue    = "\033[34m"
	ColorMagenta = "\033[35m"
	ColorCyan    = "\033[36m"
	ColorWhite   = "\033[37m"
	ColorBold    = "\033[1m"
	ColorDim     = "\033[2m"
)

// Terminal writes decorated messages to w. With color disabled every
// helper emits plain text.
type Terminal struct {
	mu    sync.Mutex
	w     io.Writer
	color bool
	quiet bool
}

// NewTerminal creates a Terminal on w.
func NewTerminal(w io.Writer, color bool) *Terminal {
	return &Terminal{w: w, color: color}
}

// SetQuiet makes Success and Info print as timestamped log lines instead of
// decorated messages.
func (t *Terminal) SetQuiet(quiet bool) {
	t.mu.Lock()
	t.quiet = quiet
	t.mu.Unlock()
}

// Writer returns the underlying writer.
func (t *Terminal) Writer() io.Writer { return t.w }

// Colorize wraps s in color when color output is enabled.
func (t *Terminal) Colorize(color, s string) string {
	if !t.color || color == "" {
		return s
	}
	return color + s + ColorReset
}

// Banner prints the component name and build information.
func (t *Terminal) Banner(componentName, version, gitCommit, buildDate string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.quiet {
		return
	}
	fmt.Fprintln(t.w, t.Colorize(ColorBold+ColorCyan, componentName))
	fmt.Fprintf(t.w, "%s %s | %s %s | %s | %s/%s\n",
		t.Colorize(ColorDim, "Version"), t.Colorize(ColorGreen, version),
		t.Colorize(ColorDim, "Build"), t.Colorize(ColorYellow, gitCommit),
		buildDate, runtime.GOOS, runtime.GOARCH)
	fmt.Fprintln(t.w)
}

// Success prints a success message.
func (t *Terminal) Success(message string) { t.line("INFO", ColorGreen, "✓", message) }

// Error prints an error message.
func (t *Terminal) Error(message string) { t.line("ERROR", ColorRed, "✗", message) }

// Info prints an informational message.
func (t *Terminal) Info(message string) { t.line("INFO", ColorCyan, "•", message) }

// Warning prints a warning.
func (t *Terminal) Warning(message string) { t.line("WARN", ColorYellow, "⚠", message) }

func (t *Terminal) line(level, color, icon, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.quiet {
		// Format: dim-timestamp colorized-level message
		timestamp := time.Now().Format(time.RFC3339)
		fmt.Fprintf(t.w, "%s %s %s\n", t.Colorize(ColorDim, timestamp), t.Colorize(color, "["+level+"]"), message)
		return
	}
	fmt.Fprintf(t.w, "  %s %s\n", t.Colorize(color, icon), message)
}

// ClearScreen clears the terminal screen when color output is enabled.
func (t *Terminal) ClearScreen() {
	if !t.color {
		return
	}
	t.mu.Lock()
	fmt.Fprint(t.w, "\033[H\033[2J")
	t.mu.Unlock()
}

// Bar renders percent (clamped to 0..100) as a block bar of width cells.
func Bar(percent, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	if width <= 0 {
		return ""
	}
	filled := (percent * width) / 100
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// StripAnsi removes ANSI escape codes from a string.
func StripAnsi(str string) string {
	var b strings.Builder
	inEscape := false
	for i := 0; i < len(str); i++ {
		if str[i] == '\033' && i+1 < len(str) && str[i+1] == '[' {
			inEscape = true
			i++
			continue
		}
		if inEscape {
			if str[i] == 'm' {
				inEscape = false
			}
			continue
		}
		b.WriteByte(str[i])
	}
	return b.String()
}

// VisibleWidth counts the runes of s that occupy a terminal cell.
func VisibleWidth(s string) int {
	return utf8.RuneCountInString(StripAnsi(s))
}

// PadRight pads s with spaces to width visible cells.
func PadRight(s string, width int) string {
	if n := VisibleWidth(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// Truncate shortens s to at most width runes, marking the cut with "…".
func Truncate(s string, width int) string {
	if width <= 0 || utf8.RuneCountInString(s) <= width {
		return s
	}
	r := []rune(s)
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}
