// Package logger builds charm loggers for the different parts of bardbook.
// Loggers write to stderr since stdout carries the IPC stream.
package logger

import (
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	outMu sync.RWMutex
	out   io.Writer = os.Stderr
)

// SetOutput redirects loggers created afterwards, and the package-level charm logger.
func SetOutput(w io.Writer) {
	outMu.Lock()
	out = w
	outMu.Unlock()
	log.SetOutput(w)
}

func output() io.Writer {
	outMu.RLock()
	defer outMu.RUnlock()
	return out
}

// New creates a new charm log with timestamps, for long-running components.
func New(prefix string) *log.Logger {
	return log.NewWithOptions(output(), log.Options{
		Prefix:          prefix,
		ReportCaller:    false,
		ReportTimestamp: true,
		Formatter:       log.TextFormatter,
		Level:           log.GetLevel(),
	})
}
