// Package logging provides structured logging setup for house-market.
package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// Options controls Setup.
type Options struct {
	// DevMode selects colorized human-readable output at debug level.
	// Otherwise JSON at info level.
	DevMode bool
	// Writer defaults to os.Stdout.
	Writer io.Writer
	// Forward, if non-nil, receives every record in addition to Writer.
	Forward slog.Handler
}

// Setup initializes the default slog logger and returns it.
func Setup(opts Options) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}

	var handler slog.Handler
	if opts.DevMode {
		handler = tint.NewHandler(w, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.DateTime,
		})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}

	if opts.Forward != nil {
		handler = Fanout(handler, opts.Forward)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
