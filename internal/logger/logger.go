// Package logger wraps a global zap sugared logger with a console encoder,
// level parsing and printf-style helpers used across the daemon.
package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	global *zap.SugaredLogger
	level  = zap.NewAtomicLevelAt(zap.InfoLevel)
)

func init() {
	SetLogger(New(level))
}

// New creates a sugared logger writing console-formatted lines to stdout.
// A nil level uses the shared atomic level controlled by SetLevel.
func New(enabler zapcore.LevelEnabler, options ...zap.Option) *zap.SugaredLogger {
	if enabler == nil {
		enabler = level
	}

	encoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:          "time",
		MessageKey:       "message",
		LevelKey:         "level",
		CallerKey:        "caller",
		StacktraceKey:    "stacktrace",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		ConsoleSeparator: " ",
	})

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), enabler)
	return zap.New(core, options...).Sugar()
}

// ParseLogLevel converts a level name to a zap level.
// Unknown names return InfoLevel and false.
func ParseLogLevel(s string) (zapcore.Level, bool) {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(s)))); err != nil {
		return zapcore.InfoLevel, false
	}
	return l, true
}

// SetLevel sets the minimum level of the shared logger.
func SetLevel(l zapcore.Level) {
	level.SetLevel(l)
}

// Level returns the current minimum level.
func Level() zapcore.Level {
	return level.Level()
}

// Logger returns the global logger.
func Logger() *zap.SugaredLogger {
	return global
}

// SetLogger replaces the global logger. Not safe for concurrent use with logging calls.
func SetLogger(l *zap.SugaredLogger) {
	global = l
}

// Sync flushes buffered log entries.
func Sync() {
	_ = global.Sync()
}

// Debugf logs at debug level.
func Debugf(format string, args ...any) { global.Debugf(format, args...) }

// Infof logs at info level.
func Infof(format string, args ...any) { global.Infof(format, args...) }

// Warnf logs at warn level.
func Warnf(format string, args ...any) { global.Warnf(format, args...) }

// Errorf logs at error level.
func Errorf(format string, args ...any) { global.Errorf(format, args...) }

// InfoKV logs a message with key-value pairs at info level.
func InfoKV(message string, kvs ...any) { global.Infow(message, kvs...) }
