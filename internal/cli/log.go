// Package cli implements the familytree command-line interface.
//
// Commands load a family tree document exactly once from a URL, a file, a
// MongoDB collection or a SQLite database, derive its generation layout,
// and then serve, render or browse it.
//
// # Commands
//
//   - serve: HTTP API over the loaded layout
//   - layout: print the layout as JSON
//   - render: generate SVG, DOT or layout JSON artifacts
//   - browse: interactive terminal view with ancestor highlighting
//   - import: copy a tree document into a writable source
//   - cache: manage the render cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging through
// charmbracelet/log.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, e.g. "Derived layout (12ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
