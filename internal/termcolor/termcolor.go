// Package termcolor wraps text in ANSI escapes for terminal output,
// skipping the wrap entirely when stdout isn't a TTY.
package termcolor

import (
	"os"

	"github.com/mattn/go-isatty"
)

type Color string

const (
	Red    Color = "31"
	Green  Color = "32"
	Yellow Color = "33"
	Blue   Color = "34"
	Cyan   Color = "36"
)

// IsTTY reports whether f is attached to a terminal.
func IsTTY(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Wrap colors s for display on f, passing it through unchanged when f
// isn't a terminal (so redirected output and log files stay plain text).
func Wrap(f *os.File, c Color, s string) string {
	if !IsTTY(f) {
		return s
	}
	return "\x1b[" + string(c) + "m" + s + "\x1b[0m"
}
