// Package logger provides the process-wide structured logger. It wraps a
// zap SugaredLogger behind a keyed-value API and injects OpenTelemetry
// trace and span IDs from the context when tracing is active.
package logger

import (
	"context"
	"os"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu              sync.RWMutex
	base            *zap.SugaredLogger
	detailedLogging bool
	tracingEnabled  bool
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level           string // DEBUG, INFO, WARN, ERROR
	Format          string // json or text
	DetailedLogging bool   // Enable debug-level logs and caller info
	TracingEnabled  bool   // Annotate log lines with trace/span IDs
}

// Init initializes the global logger from environment variables.
func Init() error {
	return InitWithConfig(LoadConfigFromEnv())
}

// LoadConfigFromEnv loads logging configuration from environment variables.
func LoadConfigFromEnv() LogConfig {
	return LogConfig{
		Level:           getEnvOrDefault("LOG_LEVEL", "INFO"),
		Format:          getEnvOrDefault("LOG_FORMAT", "json"),
		DetailedLogging: getEnvOrDefault("LOG_DETAILED", "false") == "true",
		TracingEnabled:  getEnvOrDefault("LOG_TRACING_ENABLED", "true") == "true",
	}
}

// InitWithConfig initializes the logger with specific configuration.
func InitWithConfig(config LogConfig) error {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	var enc zapcore.Encoder
	if config.Format == "text" {
		enc = zapcore.NewConsoleEncoder(encCfg)
	} else {
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(os.Stdout), parseLogLevel(config.Level))

	opts := []zap.Option{zap.AddCallerSkip(1)}
	if config.DetailedLogging {
		opts = append(opts, zap.AddCaller())
	}

	mu.Lock()
	base = zap.New(core, opts...).Sugar()
	detailedLogging = config.DetailedLogging
	tracingEnabled = config.TracingEnabled
	mu.Unlock()
	return nil
}

// Sync flushes any buffered log entries.
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	if base == nil {
		return nil
	}
	return base.Sync()
}

func parseLogLevel(level string) zapcore.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "WARN":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// logger returns the active SugaredLogger, falling back to a no-op logger
// so callers in tests don't need Init.
func logger() *zap.SugaredLogger {
	mu.RLock()
	l := base
	mu.RUnlock()
	if l != nil {
		return l
	}
	mu.Lock()
	defer mu.Unlock()
	if base == nil {
		base = zap.NewNop().Sugar()
	}
	return base
}

func withTrace(ctx context.Context, args []any) []any {
	mu.RLock()
	enabled := tracingEnabled
	mu.RUnlock()
	if !enabled {
		return args
	}
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return args
	}
	return append([]any{
		"trace_id", span.SpanContext().TraceID().String(),
		"span_id", span.SpanContext().SpanID().String(),
	}, args...)
}

// Debug logs a debug message. Debug output is gated on detailed logging.
func Debug(ctx context.Context, msg string, args ...any) {
	mu.RLock()
	detailed := detailedLogging
	mu.RUnlock()
	if !detailed {
		return
	}
	logger().Debugw(msg, withTrace(ctx, args)...)
}

// Info logs an info message.
func Info(ctx context.Context, msg string, args ...any) {
	logger().Infow(msg, withTrace(ctx, args)...)
}

// InfoSkip logs an info message attributing the call site further up the
// stack; used by middleware wrappers.
func InfoSkip(ctx context.Context, skip int, msg string, args ...any) {
	logger().WithOptions(zap.AddCallerSkip(skip)).Infow(msg, withTrace(ctx, args)...)
}

// Warn logs a warning message.
func Warn(ctx context.Context, msg string, args ...any) {
	logger().Warnw(msg, withTrace(ctx, args)...)
}

// Error logs an error message.
func Error(ctx context.Context, msg string, args ...any) {
	logger().Errorw(msg, withTrace(ctx, args)...)
}

// ErrorWithErr logs an error message with an error object, recording the
// error on the active span when tracing is enabled.
func ErrorWithErr(ctx context.Context, msg string, err error, args ...any) {
	recordSpanError(ctx, err)
	allArgs := append([]any{"error", err}, args...)
	logger().Errorw(msg, withTrace(ctx, allArgs)...)
}

// ErrorWithErrSkip is ErrorWithErr with extra caller skip for wrappers.
func ErrorWithErrSkip(ctx context.Context, skip int, msg string, err error, args ...any) {
	recordSpanError(ctx, err)
	allArgs := append([]any{"error", err}, args...)
	logger().WithOptions(zap.AddCallerSkip(skip)).Errorw(msg, withTrace(ctx, allArgs)...)
}

func recordSpanError(ctx context.Context, err error) {
	mu.RLock()
	enabled := tracingEnabled
	mu.RUnlock()
	if !enabled || err == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// IsDebugEnabled returns whether debug logging is enabled.
func IsDebugEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return detailedLogging
}
