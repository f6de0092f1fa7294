// Package observability wires OpenTelemetry tracing and metrics for
// resourcekit.
//
// The resource client opens one span per verb and records call counts,
// durations and error codes through Metrics. Without InitTracer/InitMeter
// the global otel providers are no-ops and nothing is exported.
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("resourcectl"))
//	defer tp.Shutdown(ctx)
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("resourcectl"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter(observability.InstrumentationName))
package observability
