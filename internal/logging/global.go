// ABOUTME: Process-wide logger used where no logger is injected
// ABOUTME: Configure swaps it at startup from config values

package logging

import (
	"io"
	"os"
	"sync"
)

var (
	globalMu     sync.RWMutex
	globalLogger = New(Config{Level: LevelInfo, Format: FormatJSON, Output: os.Stderr})
)

// SetGlobal replaces the global logger.
func SetGlobal(l *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = l
}

// Global returns the global logger.
func Global() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// Configure builds a logger from config strings and installs it globally.
// A nil out writes to stderr.
func Configure(level, format string, out io.Writer) *Logger {
	if out == nil {
		out = os.Stderr
	}
	l := New(Config{
		Level:  ParseLevel(level),
		Format: ParseFormat(format),
		Output: out,
	})
	SetGlobal(l)
	return l
}
