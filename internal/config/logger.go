package config

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

const serviceName = "presenca"

// redactedKeys never reach the log output. Guest bearer tokens and raw
// captures are biometric credentials.
var redactedKeys = map[string]bool{
	"token":         true,
	"guest_token":   true,
	"authorization": true,
	"image":         true,
	"images":        true,
	"descriptor":    true,
}

// NewLogger builds the process logger. level overrides the environment
// default when it parses.
func NewLogger(env, level string) *slog.Logger {
	return newLogger(os.Stdout, env, level)
}

func newLogger(w io.Writer, env, level string) *slog.Logger {
	opts := &slog.HandlerOptions{
		AddSource:   env == "development",
		Level:       slog.LevelDebug,
		ReplaceAttr: redact,
	}
	if env == "production" {
		opts.Level = slog.LevelInfo
	}
	if level != "" {
		var l slog.Level
		if err := l.UnmarshalText([]byte(level)); err == nil {
			opts.Level = l
		}
	}

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler).With(
		slog.String("service", serviceName),
		slog.String("env", env),
	)
}

func redact(_ []string, a slog.Attr) slog.Attr {
	if redactedKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, "[redacted]")
	}
	return a
}
