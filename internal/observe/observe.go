package observe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

const (
	ExporterPrometheus = "prometheus"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)

// ErrUnknownExporter is returned for exporter names other than the constants above.
var ErrUnknownExporter = errors.New("observe: unknown exporter")

// Observer owns the meter provider and, for the prometheus exporter, the
// registry scraped by Handler.
type Observer struct {
	provider *sdkmetric.MeterProvider
	meter    metric.Meter
	registry *prometheus.Registry
}

// New builds an Observer for the named exporter. "none" yields no-op
// instruments.
func New(ctx context.Context, serviceName, exporter string) (*Observer, error) {
	return newObserver(ctx, serviceName, exporter, os.Stdout)
}

func newObserver(_ context.Context, serviceName, exporter string, stdout io.Writer) (*Observer, error) {
	obs := &Observer{}

	var reader sdkmetric.Reader
	switch exporter {
	case ExporterPrometheus:
		obs.registry = prometheus.NewRegistry()
		exp, err := otelprom.New(otelprom.WithRegisterer(obs.registry))
		if err != nil {
			return nil, fmt.Errorf("observe: prometheus exporter: %w", err)
		}
		reader = exp
	case ExporterStdout:
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(stdout))
		if err != nil {
			return nil, fmt.Errorf("observe: stdout exporter: %w", err)
		}
		reader = sdkmetric.NewPeriodicReader(exp)
	case ExporterNone, "":
		obs.meter = noop.NewMeterProvider().Meter(serviceName)
		return obs, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownExporter, exporter)
	}

	res := resource.NewSchemaless(attribute.String("service.name", serviceName))
	obs.provider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	obs.meter = obs.provider.Meter(serviceName)
	return obs, nil
}

// Meter returns the meter instruments are created from.
func (o *Observer) Meter() metric.Meter {
	return o.meter
}

// Handler serves the prometheus registry, or nil when another exporter is used.
func (o *Observer) Handler() http.Handler {
	if o.registry == nil {
		return nil
	}
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{})
}

// Shutdown flushes and stops the meter provider.
func (o *Observer) Shutdown(ctx context.Context) error {
	if o.provider == nil {
		return nil
	}
	return o.provider.Shutdown(ctx)
}
