// Package prometheus implements a Prometheus metrics exporter.
package prometheus

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollectors "github.com/prometheus/client_golang/prometheus/collectors"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/krakend/krakend-httpclient-metrics/config"
)

const (
	defaultPort        = 9090
	defaultMetricsPath = "/metrics"
)

// PrometheusCollector exposes the metrics in a scraping endpoint
type PrometheusCollector struct {
	registry          *prom.Registry
	exporter          *prometheus.Exporter
	path              string
	disabledByDefault bool
}

// MetricReader implements the interface to export metrics: the prometheus
// exporter is a pull based reader, so the reporting period is ignored.
func (c *PrometheusCollector) MetricReader(_ time.Duration) sdkmetric.Reader {
	return c.exporter
}

func (c *PrometheusCollector) MetricDefaultReporting() bool {
	return !c.disabledByDefault
}

// Handler returns the http handler that renders the collected metrics,
// and the path where it should be mounted.
func (c *PrometheusCollector) Handler() (string, http.Handler) {
	return c.path, promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// NewCollector creates the prometheus registry and the OTEL reader that
// feeds it, without starting any server.
func NewCollector(cfg config.PrometheusExporter) (*PrometheusCollector, error) {
	registry := prom.NewRegistry()

	if cfg.ProcessMetrics {
		err := registry.Register(promcollectors.NewProcessCollector(promcollectors.ProcessCollectorOpts{}))
		if err != nil {
			return nil, err
		}
	}
	if cfg.GoMetrics {
		if err := registry.Register(promcollectors.NewGoCollector()); err != nil {
			return nil, err
		}
	}

	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, err
	}

	path := cfg.Path
	if path == "" {
		path = defaultMetricsPath
	}
	return &PrometheusCollector{
		registry:          registry,
		exporter:          exporter,
		path:              path,
		disabledByDefault: cfg.DisableMetrics,
	}, nil
}

// Exporter creates a Prometheus exporter instance, and starts the server
// for the scraping endpoint. The server is shut down when ctx is done.
func Exporter(ctx context.Context, cfg config.PrometheusExporter) (*PrometheusCollector, error) {
	c, err := NewCollector(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}

	router := http.NewServeMux()
	router.Handle(c.Handler())
	server := http.Server{
		Handler:           router,
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		if serverErr := server.ListenAndServe(); serverErr != http.ErrServerClosed {
			log.Printf("[SERVICE: HTTP Client Metrics] The Prometheus exporter failed to listen and serve: %v", serverErr)
		}
	}()

	go func() {
		<-ctx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		server.Shutdown(ctx)
		cancel()
	}()

	return c, nil
}
