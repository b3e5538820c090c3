package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/duinokary/supplychain-backend/internal/logger"
	"github.com/duinokary/supplychain-backend/internal/utils"
)

// SetupTracing installs the global tracer provider. The exporter is chosen by
// OTEL_TRACES_EXPORTER: "otlp", "stdout" or "none" (default). The returned
// shutdown flushes pending spans.
func SetupTracing(ctx context.Context, log *logger.Logger) (func(context.Context) error, error) {
	obsLog := log.With("component", "Tracing")

	kind := utils.GetEnv("OTEL_TRACES_EXPORTER", "none", obsLog)
	if kind == "none" {
		obsLog.Info("Tracing disabled")
		return func(context.Context) error { return nil }, nil
	}

	var (
		exporter sdktrace.SpanExporter
		err      error
	)
	switch kind {
	case "otlp":
		exporter, err = otlptracehttp.New(ctx)
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	default:
		return nil, fmt.Errorf("unknown traces exporter %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s exporter: %w", kind, err)
	}

	serviceName := utils.GetEnv("OTEL_SERVICE_NAME", "supplychain-backend", obsLog)
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	obsLog.Info("Tracing enabled", "exporter", kind, "service", serviceName)
	return tp.Shutdown, nil
}
