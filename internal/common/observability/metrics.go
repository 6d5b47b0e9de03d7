// internal/common/observability/metrics.go
package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Observability records per-job counters and latencies through OpenTelemetry,
// exported on the same Prometheus registry as the promauto metrics. Each job
// also gets a span whose trace ID is attached to panic logs.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	jobCounter     otelmetric.Int64Counter
	jobDuration    otelmetric.Float64Histogram
}

// New registers the Prometheus exporter. On exporter failure it returns a
// recorder whose methods are no-ops together with the error.
func New(serviceName string, spanProcessors ...sdktrace.SpanProcessor) (*Observability, error) {
	opts := make([]sdktrace.TracerProviderOption, 0, len(spanProcessors))
	for _, sp := range spanProcessors {
		opts = append(opts, sdktrace.WithSpanProcessor(sp))
	}
	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	tracing := &Observability{tracerProvider: tp, tracer: tp.Tracer(serviceName)}

	exporter, err := prometheus.New()
	if err != nil {
		return tracing, err
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	jobCounter, err := meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)
	if err != nil {
		tracing.meterProvider = provider
		return tracing, err
	}

	jobDuration, err := meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		tracing.meterProvider, tracing.jobCounter = provider, jobCounter
		return tracing, err
	}

	tracing.meterProvider = provider
	tracing.jobCounter = jobCounter
	tracing.jobDuration = jobDuration
	return tracing, nil
}

// StartJob opens a span for one job. Without a tracer it returns the
// context's (no-op) span.
func (o *Observability) StartJob(ctx context.Context, taskType string, jobKey, processInstanceKey int64) (context.Context, trace.Span) {
	if o == nil || o.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return o.tracer.Start(ctx, taskType,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("task_type", taskType),
			attribute.Int64("job.key", jobKey),
			attribute.Int64("process_instance.key", processInstanceKey),
		),
	)
}

// RecordJob records one processed job with its task type and outcome.
func (o *Observability) RecordJob(ctx context.Context, taskType, status string, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	)
	if o.jobCounter != nil {
		o.jobCounter.Add(ctx, 1, attrs)
	}
	if o.jobDuration != nil {
		o.jobDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (o *Observability) Shutdown() {
	if o == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
}
