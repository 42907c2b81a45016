package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the global logger instance
var log zerolog.Logger

// ContextKey for storing logger in context
type ctxKey struct{}

// Init initializes the global logger
func Init(env string, logLevel string) {
	// Set time format
	zerolog.TimeFieldFormat = time.RFC3339

	// Default output
	var output io.Writer = os.Stdout

	// Pretty console output for development
	if env == "development" || env == "dev" || env == "" {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
			NoColor:    false,
		}
	}

	// Parse log level
	var level zerolog.Level
	switch logLevel {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn", "warning":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	default:
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log = zerolog.New(output).
		With().
		Timestamp().
		Caller().
		Logger()
}

// Get returns the global logger
func Get() *zerolog.Logger {
	return &log
}

// WithContext returns a logger with context
func WithContext(ctx context.Context) *zerolog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zerolog.Logger); ok {
		return l
	}
	return &log
}

// NewContext creates a new context with the logger
func NewContext(ctx context.Context, l *zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// WithRequestID adds a request ID to the logger
func WithRequestID(requestID string) zerolog.Logger {
	return log.With().Str("request_id", requestID).Logger()
}

// --- Convenience Methods ---

// Debug logs a debug message
func Debug() *zerolog.Event {
	return log.Debug()
}

// Info logs an info message
func Info() *zerolog.Event {
	return log.Info()
}

// Warn logs a warning message
func Warn() *zerolog.Event {
	return log.Warn()
}

// Error logs an error message
func Error() *zerolog.Event {
	return log.Error()
}

// Fatal logs a fatal message and exits
func Fatal() *zerolog.Event {
	return log.Fatal()
}

// StageOutcome logs one submission pipeline stage result
func StageOutcome(productID, stage string, err error) {
	if err != nil {
		log.Warn().
			Str("product_id", productID).
			Str("stage", stage).
			Err(err).
			Msg("Submission stage failed")
		return
	}

	log.Info().
		Str("product_id", productID).
		Str("stage", stage).
		Msg("Submission stage succeeded")
}

// ServiceStart logs service startup
func ServiceStart(name, version, port string) {
	log.Info().
		Str("service", name).
		Str("version", version).
		Str("port", port).
		Msg("Service Started")
}

// ServiceStop logs service shutdown
func ServiceStop(name string) {
	log.Info().
		Str("service", name).
		Msg("Service Stopped")
}
