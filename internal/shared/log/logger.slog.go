package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joshuarp/flakeid/internal/shared/config"
)

// NewLogger writes to stderr so that stdout stays reserved for command output.
func NewLogger(cfg config.ConfigProvider) *slog.Logger {
	return New(os.Stderr, cfg.GetString("logging.format"), cfg.GetString("logging.level"))
}

// New builds a JSON logger unless format is "text".
func New(w io.Writer, format, level string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if attr.Key == slog.TimeKey && len(groups) == 0 {
				return slog.String(slog.TimeKey, attr.Value.Time().UTC().Format(time.RFC3339))
			}
			return attr
		},
	}

	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
