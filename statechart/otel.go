package statechart

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "statechart"

// TracingObserver turns engine notifications into OpenTelemetry spans,
// parented to the span carried by the context it was created with. Uses the
// global tracer provider (see package telemetry).
type TracingObserver struct {
	ctx    context.Context //nolint:containedctx // parent for spans emitted from engine callbacks
	tracer trace.Tracer
}

// NewTracingObserver creates a tracing observer.
func NewTracingObserver(ctx context.Context) *TracingObserver {
	if ctx == nil {
		ctx = context.Background()
	}

	return &TracingObserver{
		ctx:    ctx,
		tracer: otel.Tracer(tracerName),
	}
}

func (o *TracingObserver) emit(e *Engine, name string, attrs ...attribute.KeyValue) trace.Span {
	_, span := o.tracer.Start(o.ctx, name)
	span.SetAttributes(
		attribute.String("engine_id", e.ID().String()),
		attribute.String("chart", e.Chart().Name()),
		attribute.String("chart_fingerprint", strconv.FormatUint(e.Chart().Fingerprint(), 16)),
	)
	span.SetAttributes(attrs...)

	return span
}

func (o *TracingObserver) Transitioned(e *Engine, from, to StateID, ev EventID) {
	c := e.Chart()

	span := o.emit(e, "statechart.transition",
		attribute.String("from", c.StateName(from)),
		attribute.String("to", c.StateName(to)),
		attribute.String("event", c.EventName(ev)),
	)
	span.SetStatus(codes.Ok, "completed")
	span.End()
}

func (o *TracingObserver) Unhandled(e *Engine, ev Event) {
	c := e.Chart()

	span := o.emit(e, "statechart.unhandled",
		attribute.String("state", c.StateName(e.State())),
		attribute.String("event", c.EventName(ev.ID)),
	)
	span.End()
}

func (o *TracingObserver) Dropped(e *Engine, ev Event) {
	span := o.emit(e, "statechart.dropped",
		attribute.String("event", e.Chart().EventName(ev.ID)),
	)
	span.SetStatus(codes.Error, "event queue full")
	span.End()
}

func (o *TracingObserver) TimeoutInjected(e *Engine, state StateID) {
	span := o.emit(e, "statechart.timeout",
		attribute.String("state", e.Chart().StateName(state)),
	)
	span.End()
}

func (o *TracingObserver) Terminated(e *Engine, value int) {
	span := o.emit(e, "statechart.terminate",
		attribute.String("state", e.Chart().StateName(e.State())),
		attribute.Int("value", value),
	)
	span.End()
}
