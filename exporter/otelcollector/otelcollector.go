// Package otelcollector implements the Open Telemetry metrics exporter.
package otelcollector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/krakend/krakend-httpclient-metrics/config"
)

// OtelCollector pushes the metrics to an OTLP compatible collector.
type OtelCollector struct {
	metricExporter    sdkmetric.Exporter
	reportingPeriod   time.Duration
	disabledByDefault bool
}

// MetricReader returns a periodic reader. The custom reporting period
// of the exporter, if any, takes precedence over the provided one.
func (c *OtelCollector) MetricReader(reportingPeriod time.Duration) sdkmetric.Reader {
	if c.reportingPeriod > 0 {
		reportingPeriod = c.reportingPeriod
	}
	return sdkmetric.NewPeriodicReader(c.metricExporter,
		sdkmetric.WithInterval(reportingPeriod))
}

func (c *OtelCollector) MetricDefaultReporting() bool {
	return !c.disabledByDefault
}

func httpExporterWithOptions(ctx context.Context, cfg config.OTLPExporter,
	options []interface{},
) (sdkmetric.Exporter, error) {
	mOpts := make([]otlpmetrichttp.Option, 0, len(options)+1)
	for _, iopt := range options {
		if mo, ok := iopt.(otlpmetrichttp.Option); ok {
			mOpts = append(mOpts, mo)
		}
	}

	mOpts = append(mOpts, otlpmetrichttp.WithEndpoint(fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)))
	metricExporter, err := otlpmetrichttp.New(ctx, mOpts...)
	if err != nil {
		return nil, errors.New("cannot create http metric exporter")
	}
	return metricExporter, nil
}

func grpcExporterWithOptions(ctx context.Context, cfg config.OTLPExporter,
	options []interface{},
) (sdkmetric.Exporter, error) {
	mOpts := make([]otlpmetricgrpc.Option, 0, len(options)+1)
	for _, iopt := range options {
		if mo, ok := iopt.(otlpmetricgrpc.Option); ok {
			mOpts = append(mOpts, mo)
		}
	}

	mOpts = append(mOpts, otlpmetricgrpc.WithEndpoint(fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)))
	metricExporter, err := otlpmetricgrpc.New(ctx, mOpts...)
	if err != nil {
		return nil, errors.New("cannot create grpc metric exporter")
	}
	return metricExporter, nil
}

// ExporterWithOptions creates an exporter with a list of options, that
// can be either [otlpmetricgrpc.Option] or [otlpmetrichttp.Option]: only
// the ones for the selected protocol are used.
func ExporterWithOptions(ctx context.Context, cfg config.OTLPExporter, options []interface{}) (*OtelCollector, error) {
	if cfg.Port == 0 {
		cfg.Port = 4317
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}

	var exp sdkmetric.Exporter
	var err error
	if cfg.UseHTTP {
		exp, err = httpExporterWithOptions(ctx, cfg, options)
	} else {
		exp, err = grpcExporterWithOptions(ctx, cfg, options)
	}
	if err != nil {
		return nil, err
	}

	return &OtelCollector{
		metricExporter:    exp,
		reportingPeriod:   time.Duration(cfg.CustomMetricReportingPeriod) * time.Second,
		disabledByDefault: cfg.DisableMetrics,
	}, nil
}

// Exporter creates an Open Telemetry exporter instance.
func Exporter(ctx context.Context, cfg config.OTLPExporter) (*OtelCollector, error) {
	options := make([]interface{}, 0, 2)
	// by default, the exporters connect using TLS:
	options = append(options, otlpmetricgrpc.WithInsecure())
	options = append(options, otlpmetrichttp.WithInsecure())
	return ExporterWithOptions(ctx, cfg, options)
}
