// Package exporter defines the interface required to implement in
// order to add additional metric exporters.
package exporter

import (
	"context"
	"fmt"
	"sync"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/krakend/krakend-httpclient-metrics/config"
	"github.com/krakend/krakend-httpclient-metrics/exporter/otelcollector"
	"github.com/krakend/krakend-httpclient-metrics/exporter/prometheus"
)

// MetricReader is the interface required in order to
// export metrics.
type MetricReader interface {
	MetricReader(reportingPeriod time.Duration) sdkmetric.Reader
	MetricDefaultReporting() bool
}

var (
	metricsInstances map[string]MetricReader
	mu               = new(sync.RWMutex)
)

// CreateOTLPExporters creates an OTLP metric exporter for each one of
// the provided configurations, indexed by name.
func CreateOTLPExporters(ctx context.Context, otlpConfs []config.OTLPExporter) (map[string]MetricReader, error) {
	m := make(map[string]MetricReader, len(otlpConfs))
	for idx, ecfg := range otlpConfs {
		c, err := otelcollector.Exporter(ctx, ecfg)
		if err != nil {
			return nil, fmt.Errorf("OTLP Exporter %s (at idx %d) failed: %w", ecfg.Name, idx, err)
		}
		m[ecfg.Name] = c
	}
	return m, nil
}

// CreatePrometheusExporters creates a prometheus exporter (with its own
// scraping endpoint) for each one of the provided configurations.
func CreatePrometheusExporters(ctx context.Context, promConfs []config.PrometheusExporter) (map[string]MetricReader, error) {
	m := make(map[string]MetricReader, len(promConfs))
	for idx, ecfg := range promConfs {
		c, err := prometheus.Exporter(ctx, ecfg)
		if err != nil {
			return nil, fmt.Errorf("prometheus exporter %s (at idx %d) failed: %w", ecfg.Name, idx, err)
		}
		m[ecfg.Name] = c
	}
	return m, nil
}

// Instances create instances for a given configuration.
func Instances(ctx context.Context, cfg *config.ConfigData) (map[string]MetricReader, error) {
	// Create OTLP (OpenTelemetry Line Protocol) exporters
	m, err := CreateOTLPExporters(ctx, cfg.Exporters.OTLP)
	if err != nil {
		return nil, err
	}
	pm, err := CreatePrometheusExporters(ctx, cfg.Exporters.Prometheus)
	if err != nil {
		return nil, err
	}
	for k, v := range pm {
		m[k] = v
	}
	return m, nil
}

// SetGlobalExporterInstances sets the provided metric exporters
// as global defaults.
func SetGlobalExporterInstances(m map[string]MetricReader) {
	mu.Lock()
	metricsInstances = make(map[string]MetricReader, len(m))
	for k, v := range m {
		metricsInstances[k] = v
	}
	mu.Unlock()
}

// GetGlobalExporterInstances gets a copy of the global metric exporters
func GetGlobalExporterInstances() map[string]MetricReader {
	mu.RLock()
	m := make(map[string]MetricReader, len(metricsInstances))
	for k, v := range metricsInstances {
		m[k] = v
	}
	mu.RUnlock()
	return m
}

// GlobalMetricInstance get a global metrics exporter by name
func GlobalMetricInstance(name string) (MetricReader, error) {
	mu.RLock()
	i, ok := metricsInstances[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("metric exporter %q not found", name)
	}
	return i, nil
}
