package telemetry

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope used by every console package.
const TracerName = "order-fulfillment-console"

// Tracer returns the console tracer from the global provider. Until InitTracer
// runs this is the no-op tracer.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// Endpoint resolves the OTLP traces endpoint from raw; accepts a full URL or host:port.
func Endpoint(raw string) (endpoint, path string, insecure bool) {
	if raw == "" {
		raw = "http://localhost:4318/v1/traces"
	}
	endpoint = "localhost:4318"
	path = "/v1/traces"
	insecure = true
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		if u, err := url.Parse(raw); err == nil {
			if u.Host != "" {
				endpoint = u.Host
			}
			if u.Path != "" {
				path = u.Path
			}
			insecure = u.Scheme == "http"
		}
	} else {
		endpoint = raw
	}
	return endpoint, path, insecure
}

// InitTracer installs a global OTLP/HTTP tracer provider and returns its shutdown func.
func InitTracer(ctx context.Context, serviceName, version string) (func(context.Context) error, error) {
	endpoint, path, insecure := Endpoint(os.Getenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"))

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithURLPath(path),
	}
	if insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptrace.New(ctx, otlptracehttp.NewClient(opts...))
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Printf("OpenTelemetry initialized for service: %s", serviceName)

	return tp.Shutdown, nil
}
