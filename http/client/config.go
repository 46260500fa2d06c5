package client

import (
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	kconfig "github.com/krakend/krakend-httpclient-metrics/config"
)

// OptionsFromConfig translates the declarative client configuration
// into [Options]. Unlike the [LabelNamesBuilder], the configuration
// does not allow two label keys to end up with the same name.
//
// The returned options have no logger set.
func OptionsFromConfig(cfg *kconfig.ClientMetricOpts) (*Options, error) {
	if cfg == nil {
		return &Options{LabelNames: DefaultLabelNames()}, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := NewLabelNamesBuilder()
	for token, name := range cfg.LabelNames {
		k, err := ParseLabelKey(token)
		if err != nil {
			return nil, fmt.Errorf("bad label_names entry: %w", err)
		}
		b.WithLabelName(k, name)
	}
	labelNames := b.Build()
	if conflicts := labelNames.Conflicts(); len(conflicts) > 0 {
		return nil, fmt.Errorf("label names used by more than one label: %s",
			strings.Join(conflicts, ", "))
	}

	errClass := ErrorTypeFromStatus
	if cfg.ErrorType == kconfig.ErrorTypeOutcome {
		errClass = ErrorTypeFromOutcome
	}

	var fixedAttrs []attribute.KeyValue
	if len(cfg.StaticAttributes) > 0 {
		fixedAttrs = make([]attribute.KeyValue, 0, len(cfg.StaticAttributes))
		for _, kv := range cfg.StaticAttributes {
			if kv.Key == "" {
				continue
			}
			fixedAttrs = append(fixedAttrs, attribute.String(kv.Key, kv.Value))
		}
	}

	return &Options{
		LabelNames:      labelNames,
		EnableURI:       cfg.EnableURI,
		ErrorType:       errClass,
		FixedAttributes: fixedAttrs,
		DurationBuckets: cfg.DurationBuckets,
		SizeBuckets:     cfg.SizeBuckets,
	}, nil
}
