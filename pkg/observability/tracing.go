// Package observability wires OpenTelemetry tracing into the router and the store.
package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/riandyrn/otelchi"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/extra/bunotel"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/getzep/ducks/config"
	"github.com/getzep/ducks/internal"
)

var log = internal.GetLogger()

const instrumentationName = "github.com/getzep/ducks"

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(ctx context.Context) error

// Setup installs a global tracer provider exporting over OTLP/HTTP. When
// tracing is disabled it is a no-op and the returned ShutdownFunc does nothing.
func Setup(ctx context.Context, cfg *config.Config) (ShutdownFunc, error) {
	if !cfg.OTel.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(cfg.OTel.Endpoint),
	}
	if cfg.OTel.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create otlp exporter: %w", err)
	}

	tp := NewTracerProvider(cfg, sdktrace.WithBatcher(exporter))

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)

	log.Infof("tracing enabled, exporting to %s", cfg.OTel.Endpoint)

	return tp.Shutdown, nil
}

// NewTracerProvider builds a provider tagged with the service name and version.
func NewTracerProvider(cfg *config.Config, opts ...sdktrace.TracerProviderOption) *sdktrace.TracerProvider {
	res := resource.NewSchemaless(
		attribute.String("service.name", cfg.OTel.ServiceName),
		attribute.String("service.version", config.VersionString),
	)
	return sdktrace.NewTracerProvider(append(opts, sdktrace.WithResource(res))...)
}

// Middleware traces each request, naming spans after the matched chi route.
func Middleware(
	serviceName string,
	routes chi.Routes,
	opts ...otelchi.Option,
) func(http.Handler) http.Handler {
	opts = append([]otelchi.Option{
		otelchi.WithChiRoutes(routes),
		otelchi.WithRequestMethodInSpanName(true),
	}, opts...)
	return otelchi.Middleware(serviceName, opts...)
}

// InstrumentDB adds a span for every query run through db.
func InstrumentDB(db *bun.DB, dbName string) {
	db.AddQueryHook(bunotel.NewQueryHook(bunotel.WithDBName(dbName)))
}

// Tracer returns the ducks tracer from the global provider. It is a no-op
// until Setup installs a provider.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}
