package config

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/clog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/masq"
	"github.com/urfave/cli/v3"
)

// Logger holds logger configuration
type Logger struct {
	Level string
	JSON  bool

	// Writer defaults to os.Stderr; stdout is kept for command output
	Writer io.Writer
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Flags returns CLI flags for logger configuration
func (c *Logger) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &c.Level,
			Sources:     cli.EnvVars("RESLIDE_LOG_LEVEL"),
		},
		&cli.BoolFlag{
			Name:        "log-json",
			Usage:       "Output logs in JSON format",
			Value:       false,
			Destination: &c.JSON,
			Sources:     cli.EnvVars("RESLIDE_LOG_JSON"),
		},
	}
}

// Configure configures and returns a logger. Fields tagged masq:"secret",
// such as package bytes and SVG payloads, are redacted.
func (c *Logger) Configure() (*slog.Logger, error) {
	level, ok := logLevels[strings.ToLower(c.Level)]
	if !ok {
		return nil, goerr.New("invalid log level", goerr.V("level", c.Level))
	}

	w := c.Writer
	if w == nil {
		w = os.Stderr
	}

	filter := masq.New(
		masq.WithTag("secret"),
		masq.WithFieldName("Token"),
	)

	var handler slog.Handler
	if c.JSON {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: filter,
		})
	} else {
		handler = clog.New(
			clog.WithWriter(w),
			clog.WithLevel(level),
			clog.WithColor(!color.NoColor),
			clog.WithReplaceAttr(filter),
		)
	}

	return slog.New(handler), nil
}
