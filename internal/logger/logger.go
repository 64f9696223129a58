package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

type Config struct {
	Encoding string `envconfig:"ENCODING" default:"console"`
	Level    string `envconfig:"LEVEL" default:"info"`
}

// New builds the process logger. Console output goes to stderr so it never
// mixes with the MCP stdio stream on stdout.
func New(app string, cfg *Config) (*slog.Logger, error) {
	return NewWithWriter(app, cfg, os.Stderr)
}

func NewWithWriter(app string, cfg *Config, w io.Writer) (*slog.Logger, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	encoding := cfg.Encoding
	if encoding == "" {
		encoding = "console"
	}

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch encoding {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "console":
		handler = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("invalid logger config: encoding %s is not supported", encoding)
	}

	return slog.New(handler).With("app", app), nil
}

// ParseLevel maps a config string to a slog level. Empty means info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid logger config: level %s is not supported", level)
}
