// Package logger builds the *slog.Logger instances used across advisor.
package logger

import (
	"io"
	"log/slog"
	"os"
	"time"

	charmlog "github.com/charmbracelet/log"
)

type config struct {
	level   slog.Level
	pretty  bool
	json    bool
	source  bool
	writers []io.Writer
	redact  []string
}

// New creates a logger. By default it writes slog text records at Info to
// os.Stdout. WithPretty switches to the charmbracelet/log handler and
// WithJSON to slog's JSON handler; JSON wins when both are set. Credential
// attributes are masked whichever handler is chosen.
func New(opts ...Option) *slog.Logger {
	cfg := &config{
		level:   slog.LevelInfo,
		writers: []io.Writer{os.Stdout},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	var w io.Writer
	switch len(cfg.writers) {
	case 0:
		w = os.Stdout
	case 1:
		w = cfg.writers[0]
	default:
		w = io.MultiWriter(cfg.writers...)
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     cfg.level,
		AddSource: cfg.source,
	}

	var h slog.Handler
	switch {
	case cfg.json:
		h = slog.NewJSONHandler(w, handlerOpts)
	case cfg.pretty:
		h = charmlog.NewWithOptions(w, charmlog.Options{
			Level:           charmlog.Level(cfg.level),
			ReportTimestamp: true,
			TimeFormat:      time.Kitchen,
			ReportCaller:    cfg.source,
		})
	default:
		h = slog.NewTextHandler(w, handlerOpts)
	}

	return slog.New(newRedactHandler(h, cfg.redact))
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
