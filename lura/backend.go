// Package lura provides the http client factories to report the http
// client metrics for the Lura backends.
package lura

import (
	"context"
	"net/http"

	"github.com/luraproject/lura/v2/config"
	"github.com/luraproject/lura/v2/logging"
	transport "github.com/luraproject/lura/v2/transport/http/client"

	kconfig "github.com/krakend/krakend-httpclient-metrics/config"
	clienthttp "github.com/krakend/krakend-httpclient-metrics/http/client"
	"github.com/krakend/krakend-httpclient-metrics/middleware"
	"github.com/krakend/krakend-httpclient-metrics/state"
)

const logPrefix = "[SERVICE: HTTP Client Metrics]"

// HTTPRequestExecutorFromConfig creates an HTTPRequestExecutor to be used
// for the backend requests.
func HTTPRequestExecutorFromConfig(clientFactory transport.HTTPClientFactory,
	cfg *config.Backend, opts *kconfig.ClientMetricOpts, skipPaths []string,
	getState state.GetterFn, logger logging.Logger,
) transport.HTTPRequestExecutor {
	cf := InstrumentedHTTPClientFactory(clientFactory, cfg, opts, skipPaths, getState, logger)
	return transport.DefaultHTTPRequestExecutor(cf)
}

// InstrumentedHTTPClientFactory wraps the client factory so all the
// clients it creates report the http client metrics, with the backend
// attributes added to the configured static attributes.
//
// The original factory is returned untouched when the backend belongs to
// one of the skipped endpoints, when the metrics are disabled, or when the
// configuration is not valid (in that case the error is logged).
func InstrumentedHTTPClientFactory(clientFactory transport.HTTPClientFactory,
	cfg *config.Backend, opts *kconfig.ClientMetricOpts, skipPaths []string,
	getState state.GetterFn, logger logging.Logger,
) transport.HTTPClientFactory {
	if logger == nil {
		logger = logging.NoOp
	}
	for _, sp := range skipPaths {
		if cfg.ParentEndpoint == sp {
			return clientFactory
		}
	}

	if opts == nil {
		opts = new(kconfig.ClientMetricOpts)
		opts.UnsetFieldsToDefaults()
	}
	if !opts.Enabled() {
		return clientFactory
	}

	mOpts, err := clienthttp.OptionsFromConfig(opts)
	if err != nil {
		logger.Error(logPrefix, "cannot instrument the backend", cfg.URLPattern, "for",
			cfg.ParentEndpoint, ":", err.Error())
		return clientFactory
	}
	mOpts.Logger = logger
	mOpts.FixedAttributes = append(backendConfigAttributes(cfg), mOpts.FixedAttributes...)

	// the meter is selected at configuration time, not at runtime
	var metrics *clienthttp.Metrics
	if getState != nil {
		if s := getState(); s != nil {
			metrics = clienthttp.New(s.Meter(), mOpts)
		}
	}
	if metrics == nil {
		metrics = clienthttp.New(nil, mOpts)
	}

	return func(ctx context.Context) *http.Client {
		return middleware.NewClient(clientFactory(ctx), metrics)
	}
}

// GlobalHTTPRequestExecutor is like [HTTPRequestExecutorFromConfig], but
// takes the options, skipped endpoints and meter state from the global
// configuration stored at registration time.
func GlobalHTTPRequestExecutor(clientFactory transport.HTTPClientFactory,
	cfg *config.Backend, logger logging.Logger,
) transport.HTTPRequestExecutor {
	return transport.DefaultHTTPRequestExecutor(GlobalHTTPClientFactory(clientFactory, cfg, logger))
}

// GlobalHTTPClientFactory instruments the client factory using the
// global configuration: a backend level override of the client options
// replaces the service level ones. If the http client metrics have not
// been registered, the factory is returned untouched.
func GlobalHTTPClientFactory(clientFactory transport.HTTPClientFactory,
	cfg *config.Backend, logger logging.Logger,
) transport.HTTPClientFactory {
	gc := state.GlobalConfig()
	if gc == nil || gc.SkipBackend(cfg.ParentEndpoint) {
		return clientFactory
	}
	getState := func() state.OTEL {
		return gc.BackendOTEL(cfg)
	}
	return InstrumentedHTTPClientFactory(clientFactory, cfg, gc.BackendClientOpts(cfg), nil, getState, logger)
}
