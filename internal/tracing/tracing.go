// Package tracing configures OpenTelemetry span export for the daemon.
//
// Spans are produced by the optimistic engine and the generation controller
// through the global tracer provider. Setup installs an OTLP/HTTP exporter
// when an endpoint is configured and leaves the no-op provider otherwise.
package tracing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"

	"cutify/internal/config"
	"cutify/internal/logging"
)

// Provider owns the SDK tracer provider, if any.
type Provider struct {
	tp      *sdktrace.TracerProvider
	enabled bool
}

// Setup builds a provider from cfg.Tracing and installs it globally.
func Setup(ctx context.Context, cfg config.Tracing, version string, logger *slog.Logger) (*Provider, error) {
	logger = logging.NewComponentLogger(logger, "tracing")
	if cfg.OTLPEndpoint == "" {
		logger.Debug("tracing disabled")
		return &Provider{}, nil
	}

	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}
	return install(cfg, version, exporter, logger)
}

func newExporter(ctx context.Context, cfg config.Tracing) (sdktrace.SpanExporter, error) {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.OTLPEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return otlptracehttp.New(ctx, opts...)
}

func install(cfg config.Tracing, version string, exporter sdktrace.SpanExporter, logger *slog.Logger) (*Provider, error) {
	if cfg.SampleRatio < 0 || cfg.SampleRatio > 1 {
		return nil, fmt.Errorf("sample ratio must be between 0 and 1, got %f", cfg.SampleRatio)
	}
	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.SampleRatio)),
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("tracing initialized",
		logging.String("service", cfg.ServiceName),
		logging.String("endpoint", cfg.OTLPEndpoint),
		logging.Any("sample_ratio", cfg.SampleRatio),
	)
	return &Provider{tp: tp, enabled: true}, nil
}

func sampler(ratio float64) sdktrace.Sampler {
	switch {
	case ratio >= 1:
		return sdktrace.AlwaysSample()
	case ratio <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
}

// Enabled reports whether spans are exported.
func (p *Provider) Enabled() bool {
	return p != nil && p.enabled
}

// Tracer returns a tracer from the installed provider, or the global one.
func (p *Provider) Tracer(name string) trace.Tracer {
	if p == nil || p.tp == nil {
		return otel.Tracer(name)
	}
	return p.tp.Tracer(name)
}

// Shutdown flushes pending spans.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}
	if err := p.tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown tracer provider: %w", err)
	}
	return nil
}
