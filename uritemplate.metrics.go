package uritemplate

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric instrument names
const (
	MeterName              = "github.com/itsatony/go-uritemplate"
	MetricParseCount       = "uritemplate.parse.count"
	MetricParseErrors      = "uritemplate.parse.errors"
	MetricParseLatency     = "uritemplate.parse.latency_ms"
	MetricExpandCount      = "uritemplate.expand.count"
	MetricExpandErrors     = "uritemplate.expand.errors"
	MetricExpandLatency    = "uritemplate.expand.latency_ms"
	MetricAttrSuccess      = "success"
	MetricAttrErrorKind    = "error_kind"
	metricUnitMilliseconds = "ms"
)

// MetricsRecorder records parse and expand operations.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordParse records one template parse (cache hits are not recorded).
	RecordParse(ctx context.Context, duration time.Duration, err error)

	// RecordExpand records one expansion.
	RecordExpand(ctx context.Context, duration time.Duration, err error)
}

// NoopMetrics discards all measurements.
type NoopMetrics struct{}

// RecordParse does nothing
func (NoopMetrics) RecordParse(context.Context, time.Duration, error) {}

// RecordExpand does nothing
func (NoopMetrics) RecordExpand(context.Context, time.Duration, error) {}

type otelMetrics struct {
	parseCount    metric.Int64Counter
	parseErrors   metric.Int64Counter
	parseLatency  metric.Float64Histogram
	expandCount   metric.Int64Counter
	expandErrors  metric.Int64Counter
	expandLatency metric.Float64Histogram
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter(MeterName)

	parseCount, err := meter.Int64Counter(MetricParseCount,
		metric.WithDescription("Number of template parses"),
	)
	if err != nil {
		return nil, err
	}

	parseErrors, err := meter.Int64Counter(MetricParseErrors,
		metric.WithDescription("Number of failed template parses"),
	)
	if err != nil {
		return nil, err
	}

	parseLatency, err := meter.Float64Histogram(MetricParseLatency,
		metric.WithDescription("Template parse latency in milliseconds"),
		metric.WithUnit(metricUnitMilliseconds),
	)
	if err != nil {
		return nil, err
	}

	expandCount, err := meter.Int64Counter(MetricExpandCount,
		metric.WithDescription("Number of template expansions"),
	)
	if err != nil {
		return nil, err
	}

	expandErrors, err := meter.Int64Counter(MetricExpandErrors,
		metric.WithDescription("Number of failed template expansions"),
	)
	if err != nil {
		return nil, err
	}

	expandLatency, err := meter.Float64Histogram(MetricExpandLatency,
		metric.WithDescription("Template expansion latency in milliseconds"),
		metric.WithUnit(metricUnitMilliseconds),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		parseCount:    parseCount,
		parseErrors:   parseErrors,
		parseLatency:  parseLatency,
		expandCount:   expandCount,
		expandErrors:  expandErrors,
		expandLatency: expandLatency,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder backed by the global OTel
// meter provider, or NoopMetrics if the instruments cannot be created.
// Configure the provider before calling this function:
//
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := newOtelMetrics()
	if err != nil {
		otel.Handle(err)
		return NoopMetrics{}
	}
	return m
}

func (m *otelMetrics) RecordParse(ctx context.Context, duration time.Duration, err error) {
	attrs := metric.WithAttributes(outcomeAttrs(err)...)
	m.parseCount.Add(ctx, 1, attrs)
	m.parseLatency.Record(ctx, milliseconds(duration), attrs)
	if err != nil {
		m.parseErrors.Add(ctx, 1, attrs)
	}
}

func (m *otelMetrics) RecordExpand(ctx context.Context, duration time.Duration, err error) {
	attrs := metric.WithAttributes(outcomeAttrs(err)...)
	m.expandCount.Add(ctx, 1, attrs)
	m.expandLatency.Record(ctx, milliseconds(duration), attrs)
	if err != nil {
		m.expandErrors.Add(ctx, 1, attrs)
	}
}

func outcomeAttrs(err error) []attribute.KeyValue {
	if err == nil {
		return []attribute.KeyValue{attribute.Bool(MetricAttrSuccess, true)}
	}
	return []attribute.KeyValue{
		attribute.Bool(MetricAttrSuccess, false),
		attribute.String(MetricAttrErrorKind, string(KindOf(err))),
	}
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
