// Package log wires zerolog for the whole process. Components get child
// loggers via WithComponent so every line carries its origin.
package log

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	once sync.Once
	base zerolog.Logger
)

// Configure initialises the global logger exactly once. Level falls back to
// the LOG_LEVEL environment variable, then to info.
func Configure(level string, out io.Writer) {
	once.Do(func() {
		lvl := zerolog.InfoLevel
		if level == "" {
			level = os.Getenv("LOG_LEVEL")
		}
		if parsed, err := zerolog.ParseLevel(level); err == nil && level != "" {
			lvl = parsed
		}
		zerolog.SetGlobalLevel(lvl)
		zerolog.TimeFieldFormat = time.RFC3339

		if out == nil {
			out = os.Stdout
		}
		base = zerolog.New(out).With().
			Timestamp().
			Str("service", "studygate").
			Logger()
	})
}

// Base returns the configured base logger.
func Base() zerolog.Logger {
	Configure("", nil)
	return base
}

// WithComponent returns a child logger annotated with a component name.
func WithComponent(component string) zerolog.Logger {
	return Base().With().Str("component", component).Logger()
}
