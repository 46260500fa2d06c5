package config

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/luraproject/lura/v2/config"
)

const (
	// Namespace is the key under the Lura's "extra_config" root
	// section, for a valid config. See [config] documentation for
	// details.
	Namespace = "telemetry/httpclient-metrics"
)

// ErrNoConfig is used to signal no config was found
var ErrNoConfig = errors.New("no config found for the http client metrics")

// ConfigParserFn defines a function that extracts the configuration
// from a Lura's ServiceConfig.
type ConfigParserFn func(srvCfg config.ServiceConfig) (*ConfigData, error)

var _ ConfigParserFn = FromLura

// FromLura extracts the configuration from the Lura's ServiceConfig
// "extra_config" field.
//
// In case no "client" config is provided, a set of defaults with
// the metrics enabled will be used.
func FromLura(srvCfg config.ServiceConfig) (*ConfigData, error) {
	cfg := new(ConfigData)
	if err := decodeExtraCfg(srvCfg.ExtraConfig, cfg); err != nil {
		return nil, err
	}
	cfg.UnsetFieldsToDefaults()

	if cfg.ServiceName == "" {
		if srvCfg.Name != "" {
			cfg.ServiceName = srvCfg.Name
		} else {
			cfg.ServiceName = "KrakenD"
		}
	}
	return cfg, nil
}

// LuraClientExtraCfg extracts the "client" section from a backend (or
// endpoint) "extra_config". It returns a nil config when the namespace
// or the section are not present.
func LuraClientExtraCfg(extraCfg config.ExtraConfig) (*ClientMetricOpts, error) {
	var tmp struct {
		Client *ClientMetricOpts `json:"client"`
	}
	if err := decodeExtraCfg(extraCfg, &tmp); err != nil {
		if errors.Is(err, ErrNoConfig) {
			return nil, nil
		}
		return nil, err
	}
	if tmp.Client == nil {
		return nil, nil
	}
	tmp.Client.UnsetFieldsToDefaults()
	return tmp.Client, nil
}

func decodeExtraCfg(extraCfg config.ExtraConfig, dst interface{}) error {
	tmp, ok := extraCfg[Namespace]
	if !ok {
		return ErrNoConfig
	}
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(tmp); err != nil {
		return err
	}
	return json.NewDecoder(buf).Decode(dst)
}
