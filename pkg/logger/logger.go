// Package logger builds the engine's zerolog root logger. Output always
// goes to stdout; log shipping belongs to whatever supervises the
// process, not to the engine.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logger configuration
type Config struct {
	Level  string // trace, debug, info, warn, error; unknown values fall back to info
	Pretty bool   // human-readable console output, used in dev mode
}

// New creates the root logger. Components derive their own loggers from
// it via With().Str("component", ...), so the level set here bounds the
// whole process. A bad level string falls back to info rather than
// failing startup.
func New(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339

	var output io.Writer = os.Stdout
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		}
	}

	return zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Str("service", "credence").
		Logger()
}
