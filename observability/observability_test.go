package observability

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func withRecorder(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		tp.Shutdown(context.Background())
	})
	return exporter
}

func TestDefaultTracerConfig(t *testing.T) {
	cfg := DefaultTracerConfig("test-service")

	if cfg.ServiceName != "test-service" {
		t.Errorf("expected ServiceName 'test-service', got %s", cfg.ServiceName)
	}
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("expected Endpoint 'localhost:4318', got %s", cfg.Endpoint)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("expected SampleRate 1.0, got %f", cfg.SampleRate)
	}
	if cfg.Enabled {
		t.Error("expected tracing to be off by default")
	}
}

func TestDefaultMeterConfig(t *testing.T) {
	cfg := DefaultMeterConfig("test-service")
	if cfg.Interval != 15*time.Second {
		t.Errorf("expected Interval 15s, got %v", cfg.Interval)
	}
}

func TestStartSpan_ClientKind(t *testing.T) {
	exporter := withRecorder(t)

	_, span := StartSpan(context.Background(), "resource.retrieve")
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name != "resource.retrieve" {
		t.Errorf("expected span name 'resource.retrieve', got %s", spans[0].Name)
	}
	if spans[0].SpanKind != trace.SpanKindClient {
		t.Errorf("expected client span, got %s", spans[0].SpanKind)
	}
}

func TestSetSpanAttribute(t *testing.T) {
	exporter := withRecorder(t)

	ctx, span := StartSpan(context.Background(), "attrs")
	SetSpanAttribute(ctx, AttrKind, "Widget")
	SetSpanAttribute(ctx, AttrStatus, 200)
	SetSpanAttribute(ctx, "int64-key", int64(100))
	SetSpanAttribute(ctx, "float-key", 3.14)
	SetSpanAttribute(ctx, "bool-key", true)
	SetSpanAttribute(ctx, "slice-key", []string{"a", "b"})
	SetSpanAttribute(ctx, "unsupported-key", struct{}{})
	span.End()

	attrs := exporter.GetSpans()[0].Attributes
	if len(attrs) != 6 {
		t.Errorf("expected 6 attributes, got %d", len(attrs))
	}
	found := false
	for _, a := range attrs {
		if string(a.Key) == AttrKind && a.Value.AsString() == "Widget" {
			found = true
		}
	}
	if !found {
		t.Error("expected kind attribute")
	}
}

func TestSetSpanError(t *testing.T) {
	exporter := withRecorder(t)

	ctx, span := StartSpan(context.Background(), "failing")
	SetSpanError(ctx, fmt.Errorf("server did not provide etag"))
	SetSpanError(ctx, nil)
	span.End()

	got := exporter.GetSpans()[0]
	if got.Status.Code != codes.Error {
		t.Errorf("expected error status, got %v", got.Status.Code)
	}
	if len(got.Events) != 1 {
		t.Errorf("expected one exception event, got %d", len(got.Events))
	}
}

func TestSpanHelpers_NoSpan(t *testing.T) {
	ctx := context.Background()
	SetSpanAttribute(ctx, "key", "value")
	SetSpanError(ctx, fmt.Errorf("no span"))
}

func TestMetrics_Record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	m, err := NewMetrics(mp.Meter(InstrumentationName))
	if err != nil {
		t.Fatalf("unexpected error creating metrics: %v", err)
	}

	ctx := context.Background()
	m.RecordCall(ctx, "retrieve", "Widget", "ok", 20*time.Millisecond)
	m.RecordCall(ctx, "update", "Widget", "error", 5*time.Millisecond)
	m.RecordError(ctx, "update", "PROTOCOL")

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}

	names := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			names[md.Name] = true
			if md.Name == MetricCalls {
				sum, ok := md.Data.(metricdata.Sum[int64])
				if !ok {
					t.Fatalf("expected int64 sum, got %T", md.Data)
				}
				if len(sum.DataPoints) != 2 {
					t.Errorf("expected 2 data points, got %d", len(sum.DataPoints))
				}
			}
		}
	}
	for _, n := range []string{MetricCalls, MetricCallDuration, MetricErrors} {
		if !names[n] {
			t.Errorf("expected metric %s", n)
		}
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordCall(context.Background(), "retrieve", "Widget", "ok", time.Millisecond)
	m.RecordError(context.Background(), "retrieve", "TRANSPORT")
}

func TestNewMetrics_Noop(t *testing.T) {
	m, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil || m == nil {
		t.Fatalf("expected metrics on noop meter, got %v", err)
	}
}

func TestSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{0.5, "TraceIDRatioBased{0.5}"},
	}
	for _, tc := range tests {
		if got := sampler(tc.rate).Description(); got != tc.want {
			t.Errorf("rate %v: expected %s, got %s", tc.rate, tc.want, got)
		}
	}
}

func TestInitTracerAndMeter(t *testing.T) {
	ctx := context.Background()
	prevTP, prevMP := otel.GetTracerProvider(), otel.GetMeterProvider()
	defer func() {
		otel.SetTracerProvider(prevTP)
		otel.SetMeterProvider(prevMP)
	}()

	tp, err := InitTracer(ctx, DefaultTracerConfig("test"))
	if err != nil {
		t.Fatalf("InitTracer: %v", err)
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	tp.Shutdown(shutdownCtx)

	cfg := DefaultMeterConfig("test")
	cfg.Interval = time.Hour
	mp, err := InitMeter(ctx, cfg)
	if err != nil {
		t.Fatalf("InitMeter: %v", err)
	}
	mp.Shutdown(shutdownCtx)
}
