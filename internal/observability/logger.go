package observability

import (
	"io"
	"log/slog"
	"os"

	"github.com/couchcryptid/carwash-ops/internal/config"
)

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT. Output
// goes to stderr so CLI reports written to stdout stay clean.
func NewLogger(cfg *config.Config) *slog.Logger {
	return newLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	lvl, err := config.ParseLogLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
