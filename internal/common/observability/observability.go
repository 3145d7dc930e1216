package observability

import (
	"context"
	"time"

	"agency-dashboard/internal/common/logger"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Observability owns the OpenTelemetry meter and tracer providers.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	opCounter      otelmetric.Int64Counter
	opDuration     otelmetric.Float64Histogram
	log            logger.Logger
}

// New registers the OTel Prometheus exporter on reg. A nil reg uses the default registerer.
func New(serviceName string, reg prometheus.Registerer, log logger.Logger) *Observability {
	tp := sdktrace.NewTracerProvider()
	o := &Observability{
		tracerProvider: tp,
		tracer:         tp.Tracer(serviceName),
		log:            log,
	}

	opts := []otelprom.Option{}
	if reg != nil {
		opts = append(opts, otelprom.WithRegisterer(reg))
	}
	exporter, err := otelprom.New(opts...)
	if err != nil {
		log.Warn("Failed to create Prometheus exporter", map[string]interface{}{"error": err})
		return o
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	otel.SetTracerProvider(tp)

	meter := provider.Meter(serviceName)

	o.meterProvider = provider
	o.opCounter, _ = meter.Int64Counter(
		"store.operations",
		otelmetric.WithDescription("Number of record store operations"),
	)
	o.opDuration, _ = meter.Float64Histogram(
		"store.operation.duration",
		otelmetric.WithDescription("Record store operation duration"),
		otelmetric.WithUnit("ms"),
	)
	return o
}

// StartSpan opens a span named after the collection operation.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if o == nil || o.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return o.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) RecordOperation(ctx context.Context, collection, op string, duration time.Duration, status string) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("collection", collection),
		attribute.String("operation", op),
		attribute.String("status", status),
	)
	if o.opCounter != nil {
		o.opCounter.Add(ctx, 1, attrs)
	}
	if o.opDuration != nil {
		o.opDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (o *Observability) Shutdown() {
	if o == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.meterProvider != nil {
		if err := o.meterProvider.Shutdown(ctx); err != nil {
			o.log.Warn("meter provider shutdown failed", map[string]interface{}{"error": err})
		}
	}
	if o.tracerProvider != nil {
		if err := o.tracerProvider.Shutdown(ctx); err != nil {
			o.log.Warn("tracer provider shutdown failed", map[string]interface{}{"error": err})
		}
	}
}
