// Package logging holds the diagnostic logger shared by the CLI.
package logging

import (
	"io"
	"os"

	clog "github.com/charmbracelet/log"
)

// L is the package-level logger. It writes to stderr and stays quiet below
// warn level unless debug output is enabled.
var L = New(os.Stderr, false)

// New returns a logger writing to w.
func New(w io.Writer, debug bool) *clog.Logger {
	l := clog.NewWithOptions(w, clog.Options{Prefix: "pwdeck"})
	SetDebug(l, debug)
	return l
}

// SetDebug switches l between debug and warn level.
func SetDebug(l *clog.Logger, debug bool) {
	if debug {
		l.SetLevel(clog.DebugLevel)
		l.SetReportCaller(true)
		return
	}
	l.SetLevel(clog.WarnLevel)
	l.SetReportCaller(false)
}
