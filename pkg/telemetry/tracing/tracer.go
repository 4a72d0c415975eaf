package tracing

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"firekey-hq/tally/pkg/config"
)

// InstrumentationName names the tracer handed to components.
const InstrumentationName = "firekey-hq/tally"

// Tracer owns the tracer provider for the process.
type Tracer struct {
	config   *config.TracingConfig
	provider trace.TracerProvider
	sdk      *sdktrace.TracerProvider
	enabled  bool
}

// Option configures a Tracer.
type Option func(*options)

type options struct {
	exporter sdktrace.SpanExporter
	global   bool
}

// WithExporter replaces the OTLP exporter, e.g. with an in-memory exporter
// in tests.
func WithExporter(exp sdktrace.SpanExporter) Option {
	return func(o *options) { o.exporter = exp }
}

// WithGlobal installs the provider and W3C propagators as otel globals.
func WithGlobal() Option {
	return func(o *options) { o.global = true }
}

// New creates a Tracer. When tracing is disabled a no-op provider is used.
//
// The tracer must be shut down when no longer needed:
//
//	defer tracer.Shutdown(context.Background())
func New(ctx context.Context, cfg *config.TracingConfig, opts ...Option) (*Tracer, error) {
	if cfg == nil {
		return nil, errors.New("tracing config is nil")
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	t := &Tracer{config: cfg, enabled: cfg.Enabled}

	if !cfg.Enabled {
		t.provider = noop.NewTracerProvider()
		return t, nil
	}

	exporter := o.exporter
	if exporter == nil {
		var err error
		exporter, err = createOTLPExporter(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create exporter: %w", err)
		}
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "firekey"
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(attribute.String("service.name", serviceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	t.sdk = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(newSampler(cfg.SampleRatio)),
	)
	t.provider = t.sdk

	if o.global {
		otel.SetTracerProvider(t.sdk)
		otel.SetTextMapPropagator(
			propagation.NewCompositeTextMapPropagator(
				propagation.TraceContext{},
				propagation.Baggage{},
			),
		)
	}

	return t, nil
}

// Tracer returns the tracer handed to the client and processor.
func (t *Tracer) Tracer() trace.Tracer {
	return t.provider.Tracer(InstrumentationName)
}

// Provider returns the underlying tracer provider.
func (t *Tracer) Provider() trace.TracerProvider {
	return t.provider
}

// Enabled returns whether tracing is enabled.
func (t *Tracer) Enabled() bool {
	return t.enabled
}

// ForceFlush exports all finished spans.
func (t *Tracer) ForceFlush(ctx context.Context) error {
	if t.sdk == nil {
		return nil
	}
	return t.sdk.ForceFlush(ctx)
}

// Shutdown flushes any pending spans and shuts down the provider.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.sdk == nil {
		return nil
	}
	return t.sdk.Shutdown(ctx)
}

// createOTLPExporter creates an OTLP gRPC exporter. The connection is made
// lazily, so an unreachable collector does not block startup.
func createOTLPExporter(ctx context.Context, cfg *config.TracingConfig) (sdktrace.SpanExporter, error) {
	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}
	return exporter, nil
}
