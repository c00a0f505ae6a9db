package tracing

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"cutify/internal/config"
	"cutify/internal/logging"
)

func TestSetupWithoutEndpointIsDisabled(t *testing.T) {
	p, err := Setup(context.Background(), config.Tracing{ServiceName: "cutify"}, "test", logging.NewNop())
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if p.Enabled() {
		t.Fatal("expected tracing to be disabled")
	}
	if p.Tracer("cutify/test") == nil {
		t.Fatal("expected a tracer even when disabled")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestInstallExportsSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	cfg := config.Tracing{OTLPEndpoint: "collector:4318", ServiceName: "cutify", SampleRatio: 1}
	p, err := install(cfg, "test", exporter, logging.NewNop())
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	if !p.Enabled() {
		t.Fatal("expected tracing to be enabled")
	}

	_, span := p.Tracer("cutify/test").Start(context.Background(), "optimistic.reorder_scenes")
	span.End()
	if err := p.tp.ForceFlush(context.Background()); err != nil {
		t.Fatalf("ForceFlush: %v", err)
	}
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 exported span, got %d", len(spans))
	}
	if spans[0].Name != "optimistic.reorder_scenes" {
		t.Fatalf("unexpected span name %q", spans[0].Name)
	}
}

func TestInstallRejectsBadRatio(t *testing.T) {
	cfg := config.Tracing{ServiceName: "cutify", SampleRatio: 1.5}
	if _, err := install(cfg, "test", tracetest.NewInMemoryExporter(), logging.NewNop()); err == nil {
		t.Fatal("expected error for ratio above 1")
	}
}
