package logger

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Annotate attaches slog attributes to err. When the error is later logged
// through a logger set up by ConfigureLoggingWithOptions, the attributes
// appear on the record next to it. Args are slog key-value pairs.
//
// Returns nil if err is nil.
func Annotate(err error, args ...any) error {
	if err == nil {
		return nil
	}

	r := slog.NewRecord(time.Time{}, slog.LevelDebug, "", 0)
	r.Add(args...)

	attrs := make([]slog.Attr, 0, r.NumAttrs())

	r.Attrs(func(attr slog.Attr) bool {
		attrs = append(attrs, attr)

		return true
	})

	return &annotatedError{err: err, attrs: attrs}
}

// Attrs returns the attributes attached to err or anything it wraps.
func Attrs(err error) []slog.Attr {
	var ae *annotatedError
	if errors.As(err, &ae) {
		return ae.attrs
	}

	return nil
}

type annotatedError struct {
	err   error
	attrs []slog.Attr
}

func (a *annotatedError) Error() string {
	return a.err.Error()
}

func (a *annotatedError) Unwrap() error {
	return a.err
}

// annotationHandler lifts the attributes of annotated errors onto the record.
type annotationHandler struct {
	inner slog.Handler
}

var _ slog.Handler = (*annotationHandler)(nil)

func (h *annotationHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *annotationHandler) Handle(ctx context.Context, record slog.Record) error {
	var (
		attrs []slog.Attr
		extra []slog.Attr
	)

	record.Attrs(func(attr slog.Attr) bool {
		if err, ok := attr.Value.Any().(error); ok {
			if annotations := Attrs(err); len(annotations) > 0 {
				extra = append(extra, annotations...)
			}
		}

		attrs = append(attrs, attr)

		return true
	})

	if len(extra) == 0 {
		return h.inner.Handle(ctx, record)
	}

	r := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	r.AddAttrs(attrs...)
	r.AddAttrs(extra...)

	return h.inner.Handle(ctx, r)
}

func (h *annotationHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &annotationHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *annotationHandler) WithGroup(name string) slog.Handler {
	return &annotationHandler{inner: h.inner.WithGroup(name)}
}
