// Package log hands out prefixed charmbracelet/log loggers, one per
// component, matching the informal per-component prefix pattern the
// teacher uses (client2/arq.go's `mylog.WithPrefix("_ARQ_")`).
package log

import (
	"os"

	"github.com/charmbracelet/log"
)

// Logger re-exports charmbracelet/log's Logger so callers need only import
// this package.
type Logger = log.Logger

var root = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Level:           log.InfoLevel,
})

// SetLevel adjusts the root logger's level; new prefixed loggers inherit
// it going forward.
func SetLevel(level log.Level) {
	root.SetLevel(level)
}

// For returns a logger prefixed with the given component name, e.g.
// log.For("statefulwriter").
func For(component string) *log.Logger {
	return root.WithPrefix(component)
}
