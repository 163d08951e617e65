package observability

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns the process logger writing to stdout.
// APP_ENV=dev (or development) uses a human-friendly console writer.
func NewLogger(env, level string) zerolog.Logger {
	return newLogger(os.Stdout, env, level)
}

func newLogger(w io.Writer, env, level string) zerolog.Logger {
	if env == "dev" || env == "development" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("service", "review-hero").Logger()
}
