package telemetry

import (
	"io"
	"log/slog"

	"github.com/pterm/pterm"
)

// InitSlog routes the default slog logger through pterm's logger, writing to w
func InitSlog(w io.Writer, debug bool) {
	level := pterm.LogLevelInfo
	if debug {
		level = pterm.LogLevelDebug
	}
	logger := pterm.DefaultLogger.
		WithLevel(level).
		WithWriter(w).
		WithTime(debug)
	slog.SetDefault(slog.New(pterm.NewSlogHandler(logger)))
}
