// Package logging configures the process-wide structured logger and the
// diagnostic-prefix helpers: "[ERROR]", "[WARNING]" and the
// component-specific "[AUTOSAVE]" / "[DEVICE]" prefixes.
package logging

import (
	"os"

	"github.com/charmbracelet/log"
)

// Logger is the subset of *log.Logger this package hands out, so callers
// never reach for the global charmbracelet logger directly.
type Logger = *log.Logger

var root = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	TimeFormat:      "15:04:05",
})

// Init sets the base log level. verbose raises it to Debug.
func Init(verbose bool) {
	if verbose {
		root.SetLevel(log.DebugLevel)
	} else {
		root.SetLevel(log.InfoLevel)
	}
}

// Root returns the process-wide logger.
func Root() Logger { return root }

// Component returns a derived logger tagged with the given component name,
// e.g. Component("AUTOSAVE") logs lines prefixed "[AUTOSAVE]".
func Component(name string) Logger {
	l := root.With()
	l.SetPrefix("[" + name + "]")
	return l
}

// Warning logs at Warn level — the "[WARNING]" surface 
func Warning(l Logger, msg string, args ...any) {
	l.Warn(msg, args...)
}

// Error logs at Error level — the "[ERROR]" surface 
func Error(l Logger, msg string, args ...any) {
	l.Error(msg, args...)
}
