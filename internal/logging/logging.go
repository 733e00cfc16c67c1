package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New logs JSON to stderr so stdout stays free for the host application.
func New(level string) zerolog.Logger {
	return NewWriter(os.Stderr, level)
}

// NewWriter parses level case-insensitively and falls back to info.
func NewWriter(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).With().Timestamp().Str("service", "device-calendar").Logger().Level(lvl)
}
