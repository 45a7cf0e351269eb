// Package logx is a small structured logging facade over log/slog with a
// field-chaining API.
package logx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Fields is a set of structured key/value pairs
type Fields map[string]any

// Level is a logging level
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

// slogTrace sits below slog.LevelDebug
const slogTrace = slog.Level(-8)

// Format selects the output encoding
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

var (
	mu       sync.RWMutex
	levelVar = new(slog.LevelVar)
	logger   = newLogger(os.Stderr, FormatText)
	exitFunc = os.Exit
)

func newLogger(w io.Writer, format Format) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: levelVar,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == slogTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	if format == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func init() {
	levelVar.Set(slog.LevelInfo)
}

// SetLevel sets the minimum level that is emitted
func SetLevel(level Level) {
	levelVar.Set(toSlog(level))
}

// GetLevel returns the current minimum level
func GetLevel() Level {
	return fromSlog(levelVar.Level())
}

// SetOutput replaces the writer and format of the global logger
func SetOutput(w io.Writer, format Format) {
	mu.Lock()
	defer mu.Unlock()
	logger = newLogger(w, format)
}

// ParseLevel converts a level name; unknown names map to info
func ParseLevel(name string) Level {
	switch name {
	case "trace":
		return LevelTrace
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func toSlog(level Level) slog.Level {
	switch level {
	case LevelTrace:
		return slogTrace
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func fromSlog(level slog.Level) Level {
	switch {
	case level <= slogTrace:
		return LevelTrace
	case level <= slog.LevelDebug:
		return LevelDebug
	case level <= slog.LevelInfo:
		return LevelInfo
	case level <= slog.LevelWarn:
		return LevelWarn
	default:
		return LevelError
	}
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Entry is a log line under construction
type Entry struct {
	fields Fields
	err    error
}

// WithField starts an entry with one field
func WithField(key string, value any) *Entry {
	return (&Entry{}).WithField(key, value)
}

// WithFields starts an entry with several fields
func WithFields(fields Fields) *Entry {
	return (&Entry{}).WithFields(fields)
}

// WithError starts an entry carrying an error
func WithError(err error) *Entry {
	return (&Entry{}).WithError(err)
}

// WithField returns a copy of the entry with an extra field
func (e *Entry) WithField(key string, value any) *Entry {
	return e.WithFields(Fields{key: value})
}

// WithFields returns a copy of the entry with extra fields
func (e *Entry) WithFields(fields Fields) *Entry {
	merged := make(Fields, len(e.fields)+len(fields))
	for k, v := range e.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Entry{fields: merged, err: e.err}
}

// WithError returns a copy of the entry carrying err
func (e *Entry) WithError(err error) *Entry {
	return &Entry{fields: e.fields, err: err}
}

func (e *Entry) log(level slog.Level, msg string) {
	l := current()
	ctx := context.Background()
	if !l.Enabled(ctx, level) {
		return
	}

	attrs := make([]slog.Attr, 0, len(e.fields)+1)
	for k, v := range e.fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	if e.err != nil {
		attrs = append(attrs, slog.String("error", e.err.Error()))
	}
	l.LogAttrs(ctx, level, msg, attrs...)
}

func (e *Entry) Trace(msg string)                  { e.log(slogTrace, msg) }
func (e *Entry) Debug(msg string)                  { e.log(slog.LevelDebug, msg) }
func (e *Entry) Info(msg string)                   { e.log(slog.LevelInfo, msg) }
func (e *Entry) Warn(msg string)                   { e.log(slog.LevelWarn, msg) }
func (e *Entry) Error(msg string)                  { e.log(slog.LevelError, msg) }
func (e *Entry) Tracef(format string, args ...any) { e.log(slogTrace, fmt.Sprintf(format, args...)) }
func (e *Entry) Debugf(format string, args ...any) { e.log(slog.LevelDebug, fmt.Sprintf(format, args...)) }
func (e *Entry) Infof(format string, args ...any)  { e.log(slog.LevelInfo, fmt.Sprintf(format, args...)) }
func (e *Entry) Warnf(format string, args ...any)  { e.log(slog.LevelWarn, fmt.Sprintf(format, args...)) }
func (e *Entry) Errorf(format string, args ...any) { e.log(slog.LevelError, fmt.Sprintf(format, args...)) }

// Fatal logs at error level and exits the process
func (e *Entry) Fatal(msg string) {
	e.log(slog.LevelError, msg)
	exitFunc(1)
}

var root = &Entry{}

func Trace(msg string)                  { root.Trace(msg) }
func Debug(msg string)                  { root.Debug(msg) }
func Info(msg string)                   { root.Info(msg) }
func Warn(msg string)                   { root.Warn(msg) }
func Error(msg string)                  { root.Error(msg) }
func Tracef(format string, args ...any) { root.Tracef(format, args...) }
func Debugf(format string, args ...any) { root.Debugf(format, args...) }
func Infof(format string, args ...any)  { root.Infof(format, args...) }
func Warnf(format string, args ...any)  { root.Warnf(format, args...) }
func Errorf(format string, args ...any) { root.Errorf(format, args...) }
func Fatal(msg string)                  { root.Fatal(msg) }

// Fatalf logs a formatted message and exits the process
func Fatalf(format string, args ...any) {
	root.Fatal(fmt.Sprintf(format, args...))
}
