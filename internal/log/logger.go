package log

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

// Logger wraps slog.Logger and stamps every record with a component name.
type Logger struct {
	*slog.Logger
	base      *slog.Logger
	component string
}

// ParseLevel maps debug, info, warn and error to slog levels. Anything else
// is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewText returns a text logger writing to w at level.
func NewText(w io.Writer, level slog.Level, component string) *Logger {
	return Wrap(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), component)
}

// Wrap attaches a component name to an existing slog logger.
func Wrap(l *slog.Logger, component string) *Logger {
	if l == nil {
		l = slog.Default()
	}
	return &Logger{Logger: l.With(FieldComponent, component), base: l, component: component}
}

// With adds attributes. They survive WithComponent.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), base: l.base.With(args...), component: l.component}
}

// WithComponent returns a child logger stamped with component instead of
// the parent's component.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.base.With(FieldComponent, component), base: l.base, component: component}
}

func (l *Logger) Component() string {
	return l.component
}

// Event logs msg with a field set at the given level.
func (l *Logger) Event(ctx context.Context, level slog.Level, msg string, fields LogFields) {
	l.Logger.Log(ctx, level, msg, fields.ToSlice()...)
}

// Failure logs err with its operation and error type.
func (l *Logger) Failure(ctx context.Context, msg string, err error, op, errType string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	l.Event(ctx, slog.LevelError, msg, fields.WithError(err).WithOperation(op).WithErrorType(errType))
}
