package tracing

import (
	"context"
	"fmt"

	"github.com/DMarby/instafilter/internal/logger"
	"github.com/go-logr/stdr"
	"go.uber.org/zap"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerIdentifier = "github.com/DMarby/instafilter/internal/tracing"

// Tracer creates spans and owns the tracer provider
type Tracer struct {
	ServiceName string
	Log         *logger.Logger

	trace.TracerProvider

	ShutdownFunc   func(context.Context) error
	TracerInstance trace.Tracer
}

// New sets up a tracer exporting spans over OTLP gRPC
func New(ctx context.Context, log *logger.Logger, serviceName string) (*Tracer, error) {
	exporter, err := otlptracegrpc.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create opentelemetry grpc exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceNameKey.String(serviceName))),
	)

	// Override the global otel logging
	otel.SetLogger(stdr.New(zap.NewStdLog(log.Desugar())))
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		log.Error(err)
	}))

	return &Tracer{
		serviceName,
		log,
		tp,
		tp.Shutdown,
		tp.Tracer(tracerIdentifier),
	}, nil
}

// Start starts a span
func (t *Tracer) Start(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.TracerInstance.Start(ctx, spanName, opts...)
}

// Shutdown flushes any pending spans
func (t *Tracer) Shutdown(ctx context.Context) {
	if err := t.ShutdownFunc(ctx); err != nil {
		t.Log.Errorf("failed to shutdown tracer: %s", err)
	}
}

// TraceInfo returns the trace and span id of the span in the context
func TraceInfo(ctx context.Context) (string, string) {
	spanContext := trace.SpanContextFromContext(ctx)
	return spanContext.TraceID().String(), spanContext.SpanID().String()
}

// Noop returns a tracer that records nothing, for when no collector is configured
func Noop(log *logger.Logger) *Tracer {
	tp := trace.NewNoopTracerProvider()
	return &Tracer{
		ServiceName:    "noop",
		Log:            log,
		TracerProvider: tp,
		ShutdownFunc: func(context.Context) error {
			return nil
		},
		TracerInstance: tp.Tracer(tracerIdentifier),
	}
}
