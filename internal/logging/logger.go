// Package logging configures the global zerolog logger and the HTTP request
// logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup sets the global logger. An empty format picks console output for the
// local environment and JSON elsewhere.
func Setup(env, level, format string) error {
	return setup(os.Stderr, env, level, format)
}

func setup(w io.Writer, env, level, format string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return fmt.Errorf("invalid log level: %q", level)
	}
	if format == "" {
		format = "json"
		if env == "local" {
			format = "console"
		}
	}

	var out io.Writer
	switch format {
	case "console":
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	case "json":
		out = w
	default:
		return fmt.Errorf("invalid log format: %q", format)
	}

	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(out).With().Timestamp().Str("env", env).Logger()
	return nil
}

// RequestLogger logs one line per request after the handler chain ran.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		var e *zerolog.Event
		switch {
		case len(c.Errors) > 0:
			e = log.Error().Err(c.Errors.Last())
		case c.Writer.Status() >= 500:
			e = log.Error()
		default:
			e = log.Info()
		}

		e.
			Str("method", c.Request.Method).
			Str("host", c.Request.Host).
			Str("URI", c.Request.RequestURI).
			Int("status", c.Writer.Status()).
			Str("latency", latency.String()).
			Msg("incoming request")
	}
}
