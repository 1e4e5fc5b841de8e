// Package log provides the leveled logger used across thinkuc.
//
// Output goes to stderr: stdout is reserved for the run directory line the
// harness prints on success.
package log

import (
	"io"
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log level constants
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Logger is the subset of zap's SugaredLogger the harness uses.
type Logger interface {
	Debug(args ...any)
	Debugf(format string, args ...any)
	Info(args ...any)
	Infof(format string, args ...any)
	Warn(args ...any)
	Warnf(format string, args ...any)
	Error(args ...any)
	Errorf(format string, args ...any)
}

var (
	zapLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	mu   sync.RWMutex
	base = newZap(os.Stderr)

	// std backs Debugf, Infof and friends; SetOutput swaps it while they run.
	std atomic.Pointer[zap.SugaredLogger]
)

func init() {
	std.Store(base.WithOptions(zap.AddCallerSkip(1)).Sugar())
}

// Default returns the package-level logger behind Debugf, Infof and friends.
func Default() Logger { return std.Load() }

var encoderConfig = zapcore.EncoderConfig{
	TimeKey:        "ts",
	LevelKey:       "lvl",
	NameKey:        "name",
	CallerKey:      "caller",
	MessageKey:     "message",
	StacktraceKey:  "stacktrace",
	LineEnding:     zapcore.DefaultLineEnding,
	EncodeLevel:    zapcore.CapitalLevelEncoder,
	EncodeTime:     zapcore.RFC3339TimeEncoder,
	EncodeDuration: zapcore.StringDurationEncoder,
	EncodeCaller:   zapcore.ShortCallerEncoder,
	EncodeName:     zapcore.FullNameEncoder,
}

func newZap(w io.Writer) *zap.Logger {
	return zap.New(
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.Lock(zapcore.AddSync(w)),
			zapLevel,
		),
		zap.AddCaller(),
	)
}

// SetLevel sets the log level. Valid levels are "debug", "info", "warn"
// and "error"; anything else selects info.
func SetLevel(level string) {
	switch level {
	case LevelDebug:
		zapLevel.SetLevel(zapcore.DebugLevel)
	case LevelWarn:
		zapLevel.SetLevel(zapcore.WarnLevel)
	case LevelError:
		zapLevel.SetLevel(zapcore.ErrorLevel)
	default:
		zapLevel.SetLevel(zapcore.InfoLevel)
	}
}

// Enabled reports whether messages at level would be written.
func Enabled(level string) bool {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return false
	}
	return zapLevel.Enabled(l)
}

// SetOutput redirects every logger created afterwards, and Default, to w.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	base = newZap(w)
	std.Store(base.WithOptions(zap.AddCallerSkip(1)).Sugar())
}

// Named returns a child logger tagged with name.
func Named(name string) Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base.Named(name).Sugar()
}

// Sync flushes buffered entries.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = base.Sync()
}

// Debugf logs to DEBUG log. Arguments are handled in the manner of fmt.Printf.
func Debugf(format string, args ...any) {
	std.Load().Debugf(format, args...)
}

// Infof logs to INFO log. Arguments are handled in the manner of fmt.Printf.
func Infof(format string, args ...any) {
	std.Load().Infof(format, args...)
}

// Warnf logs to WARNING log. Arguments are handled in the manner of fmt.Printf.
func Warnf(format string, args ...any) {
	std.Load().Warnf(format, args...)
}

// Errorf logs to ERROR log. Arguments are handled in the manner of fmt.Printf.
func Errorf(format string, args ...any) {
	std.Load().Errorf(format, args...)
}
