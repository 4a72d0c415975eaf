package tracing

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"firekey-hq/tally/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		config      *config.TracingConfig
		wantErr     bool
		wantEnabled bool
	}{
		{
			name:    "nil config",
			config:  nil,
			wantErr: true,
		},
		{
			name:   "disabled tracing",
			config: &config.TracingConfig{Enabled: false, ServiceName: "test-service"},
		},
		{
			name: "enabled with exporter",
			config: &config.TracingConfig{
				Enabled:     true,
				SampleRatio: 1,
				ServiceName: "test-service",
			},
			wantEnabled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracer, err := New(context.Background(), tt.config, WithExporter(tracetest.NewInMemoryExporter()))
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			defer tracer.Shutdown(context.Background())

			if tracer.Enabled() != tt.wantEnabled {
				t.Errorf("Enabled() = %v, want %v", tracer.Enabled(), tt.wantEnabled)
			}
			if tracer.Tracer() == nil {
				t.Error("Tracer() returned nil")
			}
		})
	}
}

func TestNew_OTLPExporterIsLazy(t *testing.T) {
	tracer, err := New(context.Background(), &config.TracingConfig{
		Enabled:     true,
		Endpoint:    "127.0.0.1:1",
		Insecure:    true,
		SampleRatio: 1,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if !tracer.Enabled() {
		t.Error("expected tracer to be enabled")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = tracer.Shutdown(ctx)
}

func TestTracer_Disabled(t *testing.T) {
	tracer, err := New(context.Background(), &config.TracingConfig{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, span := tracer.Tracer().Start(context.Background(), "firekey.call")
	defer span.End()

	if span.SpanContext().IsValid() {
		t.Error("expected no-op span when tracing is disabled")
	}
	if err := tracer.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestTracer_ExportsSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tracer, err := New(context.Background(), &config.TracingConfig{
		Enabled:     true,
		SampleRatio: 1,
		ServiceName: "firekey-test",
	}, WithExporter(exporter))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer tracer.Shutdown(context.Background())

	_, span := tracer.Tracer().Start(context.Background(), "firekey.call")
	span.End()

	if err := tracer.ForceFlush(context.Background()); err != nil {
		t.Fatalf("ForceFlush() error = %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name != "firekey.call" {
		t.Errorf("expected span %q, got %q", "firekey.call", spans[0].Name)
	}

	var service string
	for _, kv := range spans[0].Resource.Attributes() {
		if kv.Key == "service.name" {
			service = kv.Value.AsString()
		}
	}
	if service != "firekey-test" {
		t.Errorf("expected service.name %q, got %q", "firekey-test", service)
	}
}

func TestTracer_ZeroRatioSamplesNothing(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tracer, err := New(context.Background(), &config.TracingConfig{
		Enabled:     true,
		SampleRatio: 0,
	}, WithExporter(exporter))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer tracer.Shutdown(context.Background())

	_, span := tracer.Tracer().Start(context.Background(), "firekey.call")
	span.End()
	_ = tracer.ForceFlush(context.Background())

	if got := len(exporter.GetSpans()); got != 0 {
		t.Errorf("expected no spans, got %d", got)
	}
}

func TestNewSampler(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{1, "ParentBased{root:AlwaysOnSampler"},
		{2, "ParentBased{root:AlwaysOnSampler"},
		{0, "ParentBased{root:AlwaysOffSampler"},
		{-1, "ParentBased{root:AlwaysOffSampler"},
		{0.5, "ParentBased{root:TraceIDRatioBased{0.5}"},
	}

	for _, tt := range tests {
		desc := newSampler(tt.ratio).Description()
		if len(desc) < len(tt.want) || desc[:len(tt.want)] != tt.want {
			t.Errorf("newSampler(%v) = %q, want prefix %q", tt.ratio, desc, tt.want)
		}
	}
}

func TestAttributes(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	_, span := tp.Tracer("test").Start(context.Background(), "firekey.call")
	span.SetAttributes(CallAttributes("a.txt", "gpt-4o")...)
	SetUsageAttributes(span, 2, 300, decimal.RequireFromString("0.0125"))
	SetCacheAttributes(span, false, true)
	AttemptFailed(span, 1, true, errors.New("server error"))
	RecordError(span, errors.New("failed"))
	RecordError(span, nil)
	span.End()

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range spans[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	if attrs[AttrFile].AsString() != "a.txt" {
		t.Errorf("expected file a.txt, got %v", attrs[AttrFile])
	}
	if attrs[AttrTokens].AsInt64() != 300 {
		t.Errorf("expected 300 tokens, got %v", attrs[AttrTokens])
	}
	if attrs[AttrCost].AsString() != "0.012500" {
		t.Errorf("expected cost 0.012500, got %v", attrs[AttrCost])
	}
	if !attrs[AttrForce].AsBool() {
		t.Error("expected force attribute true")
	}
	if len(spans[0].Events()) < 1 || spans[0].Events()[0].Name != "attempt failed" {
		t.Errorf("expected attempt failed event, got %v", spans[0].Events())
	}
	if spans[0].Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", spans[0].Status().Code)
	}
}

func TestInject_WithGlobal(t *testing.T) {
	tracer, err := New(context.Background(), &config.TracingConfig{
		Enabled:     true,
		SampleRatio: 1,
	}, WithExporter(tracetest.NewInMemoryExporter()), WithGlobal())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer tracer.Shutdown(context.Background())

	ctx, span := tracer.Tracer().Start(context.Background(), "firekey.call")
	defer span.End()

	headers := http.Header{}
	Inject(ctx, headers)
	if headers.Get("traceparent") == "" {
		t.Fatal("expected traceparent header")
	}

	extracted := Extract(context.Background(), headers)
	if extracted == nil {
		t.Error("Extract() returned nil context")
	}
}
