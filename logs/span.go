package logs

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
)

// Span identifies one run, a simulation or a device driver, across log records and errors.
type Span string

type spanKey struct{}

var SpanKey spanKey

func SpanOf(ctx context.Context) Span {
	if v, ok := ctx.Value(SpanKey).(Span); ok {
		return v
	}
	return ""
}

// WrapSpan annotates err with the span of ctx, if any.
func WrapSpan(ctx context.Context, err error) error {
	span := SpanOf(ctx)
	if span == "" || err == nil {
		return err
	}
	return errors.Join(err, fmt.Errorf("span: %s", span))
}

type NewSpan func(ctx context.Context, name string) (context.Context, Span)

func (Module) NewSpan(
	logger Logger,
) NewSpan {
	return func(ctx context.Context, name string) (context.Context, Span) {
		parent := SpanOf(ctx)
		span := Span(rand.Text())
		ctx = context.WithValue(ctx, SpanKey, span)

		args := []any{
			"name", name,
		}
		if parent != "" {
			args = append(args, "parent", parent)
		}
		logger.InfoContext(ctx, "new span", args...)

		return ctx, span
	}
}

// spanHandler adds the span of the context to every record.
type spanHandler struct {
	slog.Handler
}

func (s spanHandler) Handle(ctx context.Context, record slog.Record) error {
	if span := SpanOf(ctx); span != "" {
		record.Add("logs.span", string(span))
	}
	return s.Handler.Handle(ctx, record)
}

func (s spanHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return spanHandler{
		Handler: s.Handler.WithAttrs(attrs),
	}
}

func (s spanHandler) WithGroup(name string) slog.Handler {
	return spanHandler{
		Handler: s.Handler.WithGroup(name),
	}
}
