// Package logging holds the logger contract shared by the formflow packages.
// Messages are printf-style; structured context is attached with WithFields
// when the concrete logger supports it.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goliatone/go-logger/glog"
)

// Logger is the logging contract consumed by the engine packages.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// FieldsLogger extends Logger with structured-field support.
type FieldsLogger interface {
	WithFields(map[string]any) Logger
}

// Options configures the default go-logger backed implementation.
type Options struct {
	Writer io.Writer
	Level  string
	JSON   bool
}

// New returns a Logger backed by go-logger.
func New(opts Options) Logger {
	out := opts.Writer
	if out == nil {
		out = os.Stderr
	}
	level := strings.TrimSpace(opts.Level)
	if level == "" {
		level = "info"
	}

	if opts.JSON {
		return FromGlog(glog.NewLogger(
			glog.WithWriter(out),
			glog.WithLoggerTypeJSON(),
			glog.WithLevel(level),
		))
	}
	return FromGlog(glog.NewLogger(
		glog.WithWriter(out),
		glog.WithLevel(level),
	))
}

// FromGlog adapts an existing go-logger instance.
func FromGlog(l glog.Logger) Logger {
	if l == nil {
		return Nop()
	}
	return glogLogger{logger: l}
}

type glogLogger struct {
	logger glog.Logger
}

func (l glogLogger) Debug(msg string, args ...any) { l.logger.Debug(format(msg, args)) }
func (l glogLogger) Info(msg string, args ...any)  { l.logger.Info(format(msg, args)) }
func (l glogLogger) Warn(msg string, args ...any)  { l.logger.Warn(format(msg, args)) }
func (l glogLogger) Error(msg string, args ...any) { l.logger.Error(format(msg, args)) }

// format applies printf args; glog would otherwise read them as key/value
// pairs.
func format(msg string, args []any) string {
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}

func (l glogLogger) WithContext(ctx context.Context) Logger {
	return glogLogger{logger: l.logger.WithContext(ctx)}
}

func (l glogLogger) WithFields(fields map[string]any) Logger {
	if fl, ok := l.logger.(glog.FieldsLogger); ok {
		return glogLogger{logger: fl.WithFields(fields)}
	}
	return l
}

// Nop returns a Logger that discards everything.
func Nop() Logger { return nopLogger{} }

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Normalize replaces a nil logger with Nop.
func Normalize(logger Logger) Logger {
	if logger == nil {
		return Nop()
	}
	return logger
}

// WithFields attaches fields when the logger supports them.
func WithFields(logger Logger, fields map[string]any) Logger {
	logger = Normalize(logger)
	if len(fields) == 0 {
		return logger
	}
	if fl, ok := logger.(FieldsLogger); ok {
		return fl.WithFields(fields)
	}
	return logger
}
