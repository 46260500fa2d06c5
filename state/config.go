package state

import (
	luraconfig "github.com/luraproject/lura/v2/config"

	"github.com/krakend/krakend-httpclient-metrics/config"
)

type Config interface {
	OTEL() OTEL
	// ClientOpts gets the client metrics configuration at the service level.
	ClientOpts() *config.ClientMetricOpts

	// BackendOTEL gets the OTEL instance for a given backend
	BackendOTEL(cfg *luraconfig.Backend) OTEL
	// BackendClientOpts gets the client metrics configuration for the
	// http client of a given backend.
	BackendClientOpts(cfg *luraconfig.Backend) *config.ClientMetricOpts

	// SkipBackend tells if the backends of an endpoint should not be
	// instrumented
	SkipBackend(parentEndpoint string) bool
}

var _ Config = (*StateConfig)(nil)

type StateConfig struct {
	cfgData config.ConfigData
}

func (*StateConfig) OTEL() OTEL {
	return GlobalState()
}

func (s *StateConfig) ClientOpts() *config.ClientMetricOpts {
	return s.cfgData.Client
}

func (*StateConfig) BackendOTEL(_ *luraconfig.Backend) OTEL {
	return GlobalState()
}

// BackendClientOpts checks if there is an override for the client
// options at the backend level that fully replaces (it DOES NOT MERGE
// label names or attributes) the service level configuration.
// If none of those configs are found, it falls back to the defaults.
func (s *StateConfig) BackendClientOpts(cfg *luraconfig.Backend) *config.ClientMetricOpts {
	var opts *config.ClientMetricOpts
	if s != nil {
		opts = s.cfgData.Client
	}

	if cfg != nil {
		override, err := config.LuraClientExtraCfg(cfg.ExtraConfig)
		if err == nil && override != nil {
			opts = override
		}
	}

	if opts == nil {
		opts = new(config.ClientMetricOpts)
		opts.UnsetFieldsToDefaults()
	}
	return opts
}

func (s *StateConfig) SkipBackend(parentEndpoint string) bool {
	for _, toSkip := range s.cfgData.SkipPaths {
		if toSkip == parentEndpoint {
			return true
		}
	}
	return false
}

func NewConfig(cfgData *config.ConfigData) *StateConfig {
	s := &StateConfig{
		cfgData: *cfgData,
	}
	s.cfgData.UnsetFieldsToDefaults()
	return s
}
