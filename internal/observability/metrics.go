package observability

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/supabase/siws/internal/conf"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	otelruntimemetrics "go.opentelemetry.io/contrib/instrumentation/runtime"
)

// meterName is the instrumentation scope of every instrument the service
// registers.
const meterName = "siws"

func Meter(instrumentationName string, opts ...metric.MeterOption) metric.Meter {
	return otel.Meter(instrumentationName, opts...)
}

func ObtainMetricCounter(name, desc string) metric.Int64Counter {
	counter, err := Meter(meterName).Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		panic(err)
	}
	return counter
}

// shutdownOnDone runs fn once ctx is done, tracking it in the cleanup wait
// group.
func shutdownOnDone(ctx context.Context, name string, fn func(context.Context) error) {
	cleanupWaitGroup.Add(1)
	go func() {
		defer cleanupWaitGroup.Done()

		<-ctx.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := fn(shutdownCtx); err != nil {
			logrus.WithError(err).Errorf("unable to gracefully shut down %s", name)
		} else {
			logrus.Infof("%s shut down", name)
		}
	}()
}

func enablePrometheusMetrics(ctx context.Context, mc *conf.MetricsConfig) error {
	exporter, err := prometheus.New()
	if err != nil {
		return err
	}

	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter)))

	addr := net.JoinHostPort(mc.PrometheusListenHost, mc.PrometheusListenPort)
	baseContext, cancel := context.WithCancel(context.Background())

	server := &http.Server{
		Addr:    addr,
		Handler: promhttp.Handler(),
		BaseContext: func(net.Listener) context.Context {
			return baseContext
		},
		ReadHeaderTimeout: 2 * time.Second, // to mitigate a Slowloris attack
	}

	shutdownOnDone(ctx, "prometheus server ("+addr+")", func(shutdownCtx context.Context) error {
		cancel()
		return server.Shutdown(shutdownCtx)
	})

	go func() {
		logrus.Infof("prometheus server listening on %s", addr)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Errorf("prometheus server (%s) shut down", addr)
		}
	}()

	return nil
}

func newOTLPMetricExporter(ctx context.Context, protocol string) (sdkmetric.Exporter, error) {
	switch protocol {
	case "grpc":
		return otlpmetricgrpc.New(ctx)

	case "http/protobuf":
		return otlpmetrichttp.New(ctx)

	default: // http/json for example
		return nil, fmt.Errorf("unsupported OpenTelemetry exporter protocol %q", protocol)
	}
}

func enableOpenTelemetryMetrics(ctx context.Context, mc *conf.MetricsConfig) error {
	metricExporter, err := newOTLPMetricExporter(ctx, mc.ExporterProtocol)
	if err != nil {
		return err
	}

	otel.SetMeterProvider(sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
	))

	shutdownOnDone(ctx, "OpenTelemetry metric exporter", metricExporter.Shutdown)

	logrus.Info("OpenTelemetry metrics exporter started")
	return nil
}

var (
	metricsOnce *sync.Once = &sync.Once{}
)

func ConfigureMetrics(ctx context.Context, mc *conf.MetricsConfig) error {
	if ctx == nil {
		panic("context must not be nil")
	}

	var err error

	metricsOnce.Do(func() {
		if mc.Enabled {
			switch mc.Exporter {
			case conf.Prometheus:
				if err = enablePrometheusMetrics(ctx, mc); err != nil {
					logrus.WithError(err).Error("unable to start prometheus metrics exporter")
					return
				}

			case conf.OpenTelemetryMetrics:
				if err = enableOpenTelemetryMetrics(ctx, mc); err != nil {
					logrus.WithError(err).Error("unable to start OTLP metrics exporter")
					return
				}
			}
		}

		if err := otelruntimemetrics.Start(otelruntimemetrics.WithMinimumReadMemStatsInterval(time.Second)); err != nil {
			logrus.WithError(err).Error("unable to start OpenTelemetry Go runtime metrics collection")
		} else {
			logrus.Info("Go runtime metrics collection started")
		}

		_, gaugeErr := Meter(meterName).Int64ObservableGauge(
			"siws_running",
			metric.WithDescription("Whether the SIWS service is running (always 1)"),
			metric.WithInt64Callback(func(_ context.Context, obsrv metric.Int64Observer) error {
				obsrv.Observe(int64(1))
				return nil
			}),
		)
		if gaugeErr != nil {
			logrus.WithError(gaugeErr).Error("unable to get siws.siws_running gauge metric")
		}
	})

	return err
}
