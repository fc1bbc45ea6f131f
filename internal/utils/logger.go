package utils

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NewLogger creates a new configured logger.
// A non-empty level overrides the environment default.
func NewLogger(environment, level string) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if environment == "development" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if level != "" {
		if parsed, err := zerolog.ParseLevel(level); err == nil {
			zerolog.SetGlobalLevel(parsed)
		}
	}

	// Create a logger that prints a human-friendly format in development
	var logger zerolog.Logger
	if environment == "development" {
		logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		logger = log.Logger
	}

	return logger.With().Str("app", "eventwish-api").Logger()
}

// LoggerMiddleware returns a Gin middleware for logging HTTP requests
func LoggerMiddleware(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		if raw != "" {
			path = path + "?" + raw
		}

		statusCode := c.Writer.Status()
		errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String()

		log := logger.With().
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Str("ip", c.ClientIP()).
			Dur("latency", latency).
			Logger()

		switch {
		case statusCode >= 500:
			log.Error().Msg(errorMessage)
		case statusCode >= 400:
			log.Warn().Msg(errorMessage)
		default:
			log.Info().Msg("")
		}
	}
}
