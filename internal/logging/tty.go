package logging

import (
	"io"
	"os"

	"golang.org/x/term"
)

// ForceColorEnv forces colored output even when the writer is not a
// terminal, e.g. when piping `mcphub ps` through less -R.
const ForceColorEnv = "MCPHUB_FORCE_COLOR"

// IsTerminal reports whether v is attached to a terminal. It accepts any
// stream with an Fd method, so it works for stdin as well as stdout.
func IsTerminal(v any) bool {
	if f, ok := v.(interface{ Fd() uintptr }); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// SupportsColor reports whether ANSI colors should be written to w.
// NO_COLOR and TERM=dumb disable color, MCPHUB_FORCE_COLOR enables it,
// otherwise w must be a terminal.
func SupportsColor(w io.Writer) bool {
	return supportsColor(IsTerminal(w))
}

func supportsColor(isTerminal bool) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	if v := os.Getenv(ForceColorEnv); v != "" && v != "0" {
		return true
	}
	return isTerminal
}
