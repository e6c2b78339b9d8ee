package recall

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// OTelObserver implements Observer using OpenTelemetry metrics, and adds
// span events to whatever span the caller's context carries.
//
// Example:
//
//	observer, _ := recall.NewOTelObserver(otel.Tracer("recall"), otel.Meter("recall"))
type OTelObserver struct {
	tracer trace.Tracer

	calls             metric.Int64Counter
	callErrors        metric.Int64Counter
	callDuration      metric.Float64Histogram
	cacheHits         metric.Int64Counter
	cacheMisses       metric.Int64Counter
	cacheCheckLatency metric.Float64Histogram
}

// NewOTelObserver creates an OpenTelemetry observer.
func NewOTelObserver(tracer trace.Tracer, meter metric.Meter) (*OTelObserver, error) {
	calls, err := meter.Int64Counter(
		"recall.calls",
		metric.WithDescription("Number of instrumented calls"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calls counter: %w", err)
	}

	callErrors, err := meter.Int64Counter(
		"recall.call.errors",
		metric.WithDescription("Number of instrumented calls that returned an error"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create call errors counter: %w", err)
	}

	callDuration, err := meter.Float64Histogram(
		"recall.call.duration",
		metric.WithDescription("Duration of instrumented calls in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create call duration histogram: %w", err)
	}

	cacheHits, err := meter.Int64Counter(
		"recall.cache.hits",
		metric.WithDescription("Number of expiring cache hits"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache hits counter: %w", err)
	}

	cacheMisses, err := meter.Int64Counter(
		"recall.cache.misses",
		metric.WithDescription("Number of expiring cache misses"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache misses counter: %w", err)
	}

	cacheCheckLatency, err := meter.Float64Histogram(
		"recall.cache.check_latency",
		metric.WithDescription("Latency of cache lookups in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache latency histogram: %w", err)
	}

	return &OTelObserver{
		tracer:            tracer,
		calls:             calls,
		callErrors:        callErrors,
		callDuration:      callDuration,
		cacheHits:         cacheHits,
		cacheMisses:       cacheMisses,
		cacheCheckLatency: cacheCheckLatency,
	}, nil
}

// Tracer returns the tracer the observer was built with, for callers that want
// to open a span around a wrapped call so events have somewhere to land.
func (o *OTelObserver) Tracer() trace.Tracer {
	return o.tracer
}

func (o *OTelObserver) OnCall(ctx context.Context, event *CallEvent) {
	attrs := metric.WithAttributes(
		attribute.String("identity", event.Identity),
		attribute.String("wrapper", event.Wrapper),
	)
	o.calls.Add(ctx, 1, attrs)
	o.callDuration.Record(ctx, event.Duration.Seconds(), attrs)
	if event.Error != nil {
		o.callErrors.Add(ctx, 1, attrs)
	}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		eventAttrs := []attribute.KeyValue{
			attribute.String("identity", event.Identity),
			attribute.String("wrapper", event.Wrapper),
		}
		if event.Error != nil {
			span.RecordError(event.Error)
		}
		span.AddEvent("recall.call", trace.WithAttributes(eventAttrs...))
	}
}

func (o *OTelObserver) OnCacheCheck(ctx context.Context, event *CacheCheckEvent) {
	if event.Error == nil {
		if event.Hit {
			o.cacheHits.Add(ctx, 1)
		} else {
			o.cacheMisses.Add(ctx, 1)
		}
		o.cacheCheckLatency.Record(ctx, event.Latency.Seconds())
	}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		span.AddEvent("recall.cache_check", trace.WithAttributes(
			attribute.String("key", event.Key),
			attribute.Bool("hit", event.Hit),
		))
	}
}

func (o *OTelObserver) OnFlush(ctx context.Context, event *FlushEvent) {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		span.AddEvent("recall.flush", trace.WithAttributes(
			attribute.String("mode", event.Mode.String()),
			attribute.Bool("success", event.Error == nil),
		))
	}
}
