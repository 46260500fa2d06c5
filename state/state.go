// Package state provides the functionality to "pack" into a single
// structure the configured metric exporters and the meter used to
// create the http client instruments.
package state

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"

	"github.com/krakend/krakend-httpclient-metrics/exporter"
)

const (
	providerName string = "io.krakend.krakend-httpclient-metrics"
)

// OTEL defines the interface to obtain the metric instruments
// for a state.
type OTEL interface {
	Meter() metric.Meter
	MeterProvider() metric.MeterProvider
	Shutdown(ctx context.Context)
}

// GetterFn defines a function that will return an [OTEL] instance.
type GetterFn func() OTEL

type OTELStateConfig struct {
	MetricProviders       []string `json:"metric_providers"`
	MetricReportingPeriod int      `json:"metric_reporting_period"`
}

// OTELState is the basic implementation of an [OTEL] intstance.
type OTELState struct {
	meterProvider metric.MeterProvider

	// we need not the interface, but the actual implementation
	// to be able to call shutown:
	sdkMeterProvider *sdkmetric.MeterProvider
	meter            metric.Meter
}

// NewWithVersion create a new OTELState with a version for the
// service, reading the metrics with the selected exporters. When no
// exporter is selected, a noop meter is used.
func NewWithVersion(serviceName string, cfg *OTELStateConfig, version string,
	me map[string]exporter.MetricReader,
) (*OTELState, error) {
	res := sdkresource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(version))

	reportingPeriod := time.Duration(cfg.MetricReportingPeriod) * time.Second
	metricOpts := make([]sdkmetric.Option, 0, len(cfg.MetricProviders)+1)
	for idx, prov := range cfg.MetricProviders {
		pm, ok := me[prov]
		if !ok {
			return nil, fmt.Errorf("not found exporter %s for metric provider %d", prov, idx)
		}
		metricOpts = append(metricOpts, sdkmetric.WithReader(pm.MetricReader(reportingPeriod)))
	}

	var meterProvider metric.MeterProvider = noopmetric.NewMeterProvider()
	var sdkMeterProvider *sdkmetric.MeterProvider
	if len(metricOpts) > 0 {
		metricOpts = append(metricOpts, sdkmetric.WithResource(res))
		sdkMeterProvider = sdkmetric.NewMeterProvider(metricOpts...)
		meterProvider = sdkMeterProvider
	}

	return &OTELState{
		meterProvider:    meterProvider,
		sdkMeterProvider: sdkMeterProvider,
		meter:            meterProvider.Meter(providerName),
	}, nil
}

// Meter returns a meter to create metric instruments.
func (s *OTELState) Meter() metric.Meter {
	return s.meter
}

func (s *OTELState) MeterProvider() metric.MeterProvider {
	return s.meterProvider
}

// Shutdown performs the clean shutdown to be able to
// flush pending metrics.
func (s *OTELState) Shutdown(ctx context.Context) {
	if s.sdkMeterProvider != nil {
		s.sdkMeterProvider.Shutdown(ctx)
	}
}
