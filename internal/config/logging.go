package config

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	lanterr "github.com/mrz1836/lantern/pkg/errors"
)

// NewLogger constructs the process logger from the logging configuration.
// Unknown levels fall back to error; format "console" renders for humans,
// anything else emits JSON.
func NewLogger(cfg LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.ErrorLevel
	}

	var w io.Writer = os.Stderr
	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// SanitizeMode returns the error-sanitization mode matching the logging
// configuration: debug logging implies a development context where file
// paths stay readable; everything else masks strictly.
func (l LoggingConfig) SanitizeMode() lanterr.SanitizeMode {
	if level, err := zerolog.ParseLevel(l.Level); err == nil && level <= zerolog.DebugLevel {
		return lanterr.SanitizeDevelopment
	}
	return lanterr.SanitizeStrict
}
