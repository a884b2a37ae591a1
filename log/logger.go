package log

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"sync/atomic"
	"time"
)

// errorKey is attached when a call passes an odd number of context values.
const errorKey = "LOG_ERROR"

// A Logger writes leveled messages with alternating key/value context.
// Values stored under a sensitive key are replaced before they reach the
// handler, see Redacted.
type Logger interface {
	// New returns a child logger carrying the extra context on every record.
	New(ctx ...any) Logger
	// With is an alias of New.
	With(ctx ...any) Logger

	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	// Crit logs at crit level and terminates the process.
	Crit(msg string, ctx ...any)

	// Write emits a record at an arbitrary level.
	Write(level slog.Level, msg string, ctx ...any)
	// Enabled reports whether a record at level would be emitted.
	Enabled(ctx context.Context, level slog.Level) bool
	// Handler returns the slog handler records are routed to.
	Handler() slog.Handler
}

type logger struct {
	inner *slog.Logger
}

// NewLogger wraps a slog handler.
func NewLogger(h slog.Handler) Logger {
	return &logger{inner: slog.New(h)}
}

func (l *logger) New(ctx ...any) Logger  { return &logger{inner: l.inner.With(redactPairs(ctx)...)} }
func (l *logger) With(ctx ...any) Logger { return l.New(ctx...) }
func (l *logger) Handler() slog.Handler  { return l.inner.Handler() }

func (l *logger) Enabled(ctx context.Context, level slog.Level) bool {
	return l.inner.Enabled(ctx, level)
}

// Write resolves the caller three frames up, so every exported entry point
// must reach it with exactly one intermediate call.
func (l *logger) Write(level slog.Level, msg string, ctx ...any) {
	if !l.inner.Enabled(context.Background(), level) {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])

	if len(ctx)%2 != 0 {
		ctx = append(ctx, nil, errorKey, "Normalized odd number of arguments by adding nil")
	}
	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(redactPairs(ctx)...)
	l.inner.Handler().Handle(context.Background(), r)
}

func (l *logger) Trace(msg string, ctx ...any) { l.Write(LevelTrace, msg, ctx...) }
func (l *logger) Debug(msg string, ctx ...any) { l.Write(LevelDebug, msg, ctx...) }
func (l *logger) Info(msg string, ctx ...any)  { l.Write(LevelInfo, msg, ctx...) }
func (l *logger) Warn(msg string, ctx ...any)  { l.Write(LevelWarn, msg, ctx...) }
func (l *logger) Error(msg string, ctx ...any) { l.Write(LevelError, msg, ctx...) }

func (l *logger) Crit(msg string, ctx ...any) {
	l.Write(LevelCrit, msg, ctx...)
	os.Exit(1)
}

// rootHolder lets atomic.Pointer carry an interface value.
type rootHolder struct{ l Logger }

var root atomic.Pointer[rootHolder]

func init() {
	root.Store(&rootHolder{NewLogger(DiscardHandler())})
}

// SetDefault replaces the process-wide logger. When l wraps a slog logger it is
// also installed as the slog default, so third-party slog output is formatted
// the same way.
func SetDefault(l Logger) {
	root.Store(&rootHolder{l})
	if lg, ok := l.(*logger); ok {
		slog.SetDefault(lg.inner)
	}
}

// Root returns the process-wide logger.
func Root() Logger {
	return root.Load().l
}

// The package level helpers call Write directly to keep the same call depth
// as the logger methods.

func Trace(msg string, ctx ...any) { Root().Write(LevelTrace, msg, ctx...) }
func Debug(msg string, ctx ...any) { Root().Write(LevelDebug, msg, ctx...) }

// Info logs on the root logger.
//
//	log.Info("Vault unlocked", "accounts", 2)
func Info(msg string, ctx ...any)  { Root().Write(LevelInfo, msg, ctx...) }
func Warn(msg string, ctx ...any)  { Root().Write(LevelWarn, msg, ctx...) }
func Error(msg string, ctx ...any) { Root().Write(LevelError, msg, ctx...) }

// Crit logs on the root logger and exits with status 1.
func Crit(msg string, ctx ...any) {
	Root().Write(LevelCrit, msg, ctx...)
	os.Exit(1)
}

// New returns a child of the root logger. Each package keeps one, tagged with
// its module name:
//
//	log.New("module", "vault")
func New(ctx ...any) Logger {
	return Root().New(ctx...)
}
