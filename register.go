// Package kmetrics adds the OpenTelemetry http client metrics to a
// [Lura](https://github.com/luraproject/lura) based software (like KrakenD),
// or to any other go http client.
//
// The Register functions set up the configured exporters and store a
// global state with the meter to use. Clients can then be instrumented
// with the [github.com/krakend/krakend-httpclient-metrics/http/client]
// package, or, for the Lura backends, with the
// [github.com/krakend/krakend-httpclient-metrics/lura] package.
package kmetrics

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"

	lconfig "github.com/luraproject/lura/v2/config"
	lcore "github.com/luraproject/lura/v2/core"
	"github.com/luraproject/lura/v2/logging"

	"github.com/krakend/krakend-httpclient-metrics/config"
	"github.com/krakend/krakend-httpclient-metrics/exporter"
	"github.com/krakend/krakend-httpclient-metrics/state"
)

const logPrefix = "[SERVICE: HTTP Client Metrics]"

// Register uses the ServiceConfig to instantiate the configured exporters.
// It also sets the global exporter instances and the global state, so it
// can be used from anywhere.
//
// When there is no config for the http client metrics, nothing is registered
// and no error is returned.
func Register(ctx context.Context, l logging.Logger, srvCfg lconfig.ServiceConfig) (func(), error) {
	cfg, err := config.FromLura(srvCfg)
	if err != nil {
		if errors.Is(err, config.ErrNoConfig) {
			return func() {}, nil
		}
		// we do not log, we left it to the parent:
		return func() {}, err
	}
	return RegisterWithConfig(ctx, l, cfg)
}

// RegisterWithConfig instantiates the configured exporters from an already
// parsed config: sets the global exporter instances, and the global state
// and config, so it can be used from anywhere.
func RegisterWithConfig(ctx context.Context, l logging.Logger, cfg *config.ConfigData) (func(), error) {
	shutdownFn := func() {}
	cfg.UnsetFieldsToDefaults()
	if err := cfg.Validate(); err != nil {
		return shutdownFn, err
	}

	me, err := exporter.Instances(ctx, cfg)
	if err != nil {
		return shutdownFn, err
	}
	exporter.SetGlobalExporterInstances(me)
	shutdown, err := RegisterGlobalInstance(ctx, l, me, *cfg.MetricReportingPeriod,
		cfg.ServiceName, cfg.ServiceVersion)
	if err == nil {
		state.SetGlobalConfig(state.NewConfig(cfg))
	}
	return shutdown, err
}

// RegisterGlobalInstance creates the instance that will be used to report
// the metrics, using all the exporters that have the reporting enabled
// by default.
func RegisterGlobalInstance(ctx context.Context, l logging.Logger,
	me map[string]exporter.MetricReader, metricReportingPeriod int,
	serviceName string, serviceVersion string,
) (func(), error) {
	shutdownFn := func() {}
	if l == nil {
		l = logging.NoOp
	}
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(e error) {
		// TODO: throttle repeated messages, like the ones we get
		// every reporting period while an OTLP collector is down.
		l.Error(logPrefix, e.Error())
	}))

	globalStateCfg := &state.OTELStateConfig{
		MetricReportingPeriod: metricReportingPeriod,
		MetricProviders:       make([]string, 0, len(me)),
	}
	for k, v := range me {
		if v.MetricDefaultReporting() {
			globalStateCfg.MetricProviders = append(globalStateCfg.MetricProviders, k)
		}
	}

	version := serviceVersion
	if version == "" {
		version = lcore.KrakendVersion
	}

	s, err := state.NewWithVersion(serviceName, globalStateCfg, version, me)
	if err != nil {
		return shutdownFn, err
	}
	l.Debug(logPrefix, "metrics reported with", len(globalStateCfg.MetricProviders), "exporters")
	shutdownFn = func() { s.Shutdown(ctx) }
	state.SetGlobalState(s)
	return shutdownFn, nil
}
