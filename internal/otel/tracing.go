// Package otel wires OpenTelemetry tracing for HTTP requests, pipeline stages and SQL.
package otel

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"booktalk/internal/applog"
)

// settings are the OTEL_* values in effect, as reported at startup.
type settings struct {
	protocol   string
	endpoint   string
	sampler    string
	samplerArg string
}

func readSettings() settings {
	s := settings{
		protocol:   getEnv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"),
		endpoint:   os.Getenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"),
		sampler:    getEnv("OTEL_TRACES_SAMPLER", "parentbased_traceidratio"),
		samplerArg: getEnv("OTEL_TRACES_SAMPLER_ARG", "1.0"),
	}
	if s.endpoint == "" {
		s.endpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}
	return s
}

// Init installs an OTLP-exporting tracer provider and returns its shutdown func.
// With OTEL_SDK_DISABLED=true, or when no exporter can be built, only propagation is
// configured and spans are dropped.
func Init(ctx context.Context) (func(context.Context) error, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	if disabled, _ := strconv.ParseBool(os.Getenv("OTEL_SDK_DISABLED")); disabled {
		applog.Info("tracing", "tracing_configured", map[string]any{"tracing_enabled": false})
		return noopShutdown, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String(getEnv("OTEL_SERVICE_NAME", "booktalk"))),
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithTelemetrySDK(),
		resource.WithHost(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	cfg := readSettings()
	exporter, err := newExporter(ctx, cfg.protocol)
	if err != nil {
		applog.Error("tracing", "tracing_init_failed", err, map[string]any{"otlp_protocol": cfg.protocol})
		return noopShutdown, nil
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(getSampler()),
	)
	otel.SetTracerProvider(tp)

	applog.Info("tracing", "tracing_configured", map[string]any{
		"tracing_enabled": true,
		"otlp_protocol":   cfg.protocol,
		"otlp_endpoint":   cfg.endpoint,
		"sampler":         cfg.sampler,
		"sampler_arg":     cfg.samplerArg,
	})
	return tp.Shutdown, nil
}

func newExporter(ctx context.Context, protocol string) (*otlptrace.Exporter, error) {
	switch protocol {
	case "grpc":
		return otlptracegrpc.New(ctx)
	case "http/protobuf":
		return otlptracehttp.New(ctx)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol: %s", protocol)
	}
}

var samplers = map[string]func(ratio float64) trace.Sampler{
	"always_on":                func(float64) trace.Sampler { return trace.AlwaysSample() },
	"always_off":               func(float64) trace.Sampler { return trace.NeverSample() },
	"traceidratio":             trace.TraceIDRatioBased,
	"parentbased_always_on":    func(float64) trace.Sampler { return trace.ParentBased(trace.AlwaysSample()) },
	"parentbased_always_off":   func(float64) trace.Sampler { return trace.ParentBased(trace.NeverSample()) },
	"parentbased_traceidratio": func(r float64) trace.Sampler { return trace.ParentBased(trace.TraceIDRatioBased(r)) },
}

// getSampler follows OTEL_TRACES_SAMPLER; unknown names sample everything under a parent.
func getSampler() trace.Sampler {
	build, ok := samplers[os.Getenv("OTEL_TRACES_SAMPLER")]
	if !ok {
		return trace.ParentBased(trace.AlwaysSample())
	}
	return build(parseRatio(os.Getenv("OTEL_TRACES_SAMPLER_ARG")))
}

// parseRatio reads a sampling ratio, falling back to 1.0 when unset or outside [0, 1].
func parseRatio(arg string) float64 {
	r, err := strconv.ParseFloat(arg, 64)
	if err != nil || r < 0 || r > 1 {
		return 1.0
	}
	return r
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func noopShutdown(context.Context) error { return nil }
