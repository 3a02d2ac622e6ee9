package observability

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/supabase/siws/internal/conf"
	"github.com/supabase/siws/internal/utilities"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	return otel.Tracer(name, opts...)
}

func openTelemetryResource(serviceName string) *sdkresource.Resource {
	environmentResource := sdkresource.Environment()
	serviceResource := sdkresource.NewSchemaless(
		attribute.String("service.name", serviceName),
		attribute.String("siws.version", utilities.Version),
	)

	mergedResource, err := sdkresource.Merge(environmentResource, serviceResource)
	if err != nil {
		logrus.WithError(err).Error("unable to merge OpenTelemetry environment and siws resources")

		return environmentResource
	}

	return mergedResource
}

func newOTLPTraceExporter(ctx context.Context, protocol string) (*otlptrace.Exporter, error) {
	switch protocol {
	case "grpc":
		return otlptracegrpc.New(ctx)

	case "http/protobuf":
		return otlptracehttp.New(ctx)

	default: // http/json for example
		return nil, fmt.Errorf("unsupported OpenTelemetry exporter protocol %q", protocol)
	}
}

func enableOpenTelemetryTracing(ctx context.Context, tc *conf.TracingConfig) error {
	traceExporter, err := newOTLPTraceExporter(ctx, tc.ExporterProtocol)
	if err != nil {
		return err
	}

	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(openTelemetryResource(tc.ServiceName)),
	)

	otel.SetTracerProvider(traceProvider)

	// W3C trace context and baggage
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)

	shutdownOnDone(ctx, "OpenTelemetry trace provider", func(shutdownCtx context.Context) error {
		if err := traceExporter.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return traceProvider.Shutdown(shutdownCtx)
	})

	logrus.Info("OpenTelemetry trace exporter started")

	return nil
}

var (
	tracingOnce sync.Once
)

// ConfigureTracing sets up global OpenTelemetry tracing. Cancelling ctx stops
// trace collection.
func ConfigureTracing(ctx context.Context, tc *conf.TracingConfig) error {
	if ctx == nil {
		panic("context must not be nil")
	}

	var err error

	tracingOnce.Do(func() {
		if tc.Enabled && tc.Exporter == conf.OpenTelemetryTracing {
			if err = enableOpenTelemetryTracing(ctx, tc); err != nil {
				logrus.WithError(err).Error("unable to start OTLP trace exporter")
			}
		}
	})

	return err
}
