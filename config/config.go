// Package config defines the configuration to be used to setup
// the http client metrics: the exporters, the label names and the
// level of detail we want for the reported labels.
package config

import (
	"fmt"
)

const (
	// ErrorTypeStatus reports the status code (or the error message
	// when there is no response) as the error type label value.
	ErrorTypeStatus = "status"
	// ErrorTypeOutcome reports the coarse outcome bucket (CLIENT_ERROR,
	// SERVER_ERROR, UNKNOWN) as the error type label value.
	ErrorTypeOutcome = "outcome"
)

// ConfigData is the root configuration for the http client metrics
type ConfigData struct {
	ServiceName           string            `json:"service_name"`
	ServiceVersion        string            `json:"service_version"`
	Client                *ClientMetricOpts `json:"client"`
	Exporters             Exporters         `json:"exporters"`
	SkipPaths             []string          `json:"skip_paths"`
	MetricReportingPeriod *int              `json:"metric_reporting_period"`
}

func (c *ConfigData) Validate() error {
	if err := c.Exporters.Validate(); err != nil {
		return err
	}
	return c.Client.Validate()
}

func (c *ConfigData) UnsetFieldsToDefaults() {
	if c.MetricReportingPeriod == nil {
		reportingPeriod := 30
		c.MetricReportingPeriod = &reportingPeriod
	}

	if c.Client == nil {
		c.Client = &ClientMetricOpts{}
	}
	c.Client.UnsetFieldsToDefaults()

	if len(c.SkipPaths) == 0 {
		// if there are no defined skip paths, we use the default ones:
		// to avoid using defaultSkipPaths, provide a list with an empty string
		c.SkipPaths = []string{
			"/__health",
			"/__debug/",
			"/__echo/",
			"/__stats/",
		}
	}
}

type Exporters struct {
	OTLP       []OTLPExporter       `json:"otlp"`
	Prometheus []PrometheusExporter `json:"prometheus"`
}

func (e *Exporters) Validate() error {
	uniqueNames := make(map[string]bool, len(e.OTLP)+len(e.Prometheus))
	for idx, ecfg := range e.OTLP {
		if uniqueNames[ecfg.Name] {
			return fmt.Errorf("OTLP exporter with duplicate name: %s (at idx %d)", ecfg.Name, idx)
		}
		uniqueNames[ecfg.Name] = true
	}
	for idx, ecfg := range e.Prometheus {
		if uniqueNames[ecfg.Name] {
			return fmt.Errorf("prometheus with duplicate name: %s (at idx %d)", ecfg.Name, idx)
		}
		uniqueNames[ecfg.Name] = true
	}
	return nil
}

type OTLPExporter struct {
	Name                        string `json:"name"`
	Host                        string `json:"host"`
	Port                        int    `json:"port"`
	UseHTTP                     bool   `json:"use_http"`
	DisableMetrics              bool   `json:"disable_metrics"`
	CustomMetricReportingPeriod uint   `json:"custom_reporting_period"`
}

type PrometheusExporter struct {
	Name           string `json:"name"`
	Port           int    `json:"port"`
	Host           string `json:"host"`
	Path           string `json:"path"`
	ProcessMetrics bool   `json:"process_metrics"`
	GoMetrics      bool   `json:"go_metrics"`
	DisableMetrics bool   `json:"disable_metrics"`
}

// ClientMetricOpts provides the options for the metrics reported for
// each request sent by an instrumented http client.
//
// LabelNames allows to rename the reported labels: the keys are the
// semantic label keys (`request_method`, `server_address`, `server_port`,
// `error_type`, `response_status`, `protocol_name`, `protocol_version`,
// `url_scheme` and `uri`) and the values the names we want to report.
//
// EnableURI adds the path and query of the request as a label. Be aware
// that it can blow up the cardinality of the metrics.
//
// ErrorType selects what is reported under the error type label: the
// status code / error message ("status", the default) or the coarse
// outcome bucket ("outcome").
type ClientMetricOpts struct {
	DisableMetrics   bool              `json:"disable_metrics"`
	LabelNames       map[string]string `json:"label_names"`
	EnableURI        bool              `json:"enable_uri"`
	ErrorType        string            `json:"error_type"`
	StaticAttributes Attributes        `json:"static_attributes"`
	DurationBuckets  []float64         `json:"duration_buckets"`
	SizeBuckets      []float64         `json:"size_buckets"`
}

// Enabled tells if there are any metrics to be reported.
func (o *ClientMetricOpts) Enabled() bool {
	if o == nil {
		return false
	}
	return !o.DisableMetrics
}

// Validate checks that the error type is a known one, that the
// provided label names are not empty nor repeated, and that the
// bucket boundaries are increasing.
func (o *ClientMetricOpts) Validate() error {
	if o == nil {
		return nil
	}
	switch o.ErrorType {
	case "", ErrorTypeStatus, ErrorTypeOutcome:
	default:
		return fmt.Errorf("unknown error_type %q (valid values: %q, %q)",
			o.ErrorType, ErrorTypeStatus, ErrorTypeOutcome)
	}

	usedBy := make(map[string]string, len(o.LabelNames))
	for key, name := range o.LabelNames {
		if name == "" {
			return fmt.Errorf("empty label name for %s", key)
		}
		if other, ok := usedBy[name]; ok {
			return fmt.Errorf("label name %q used for both %s and %s", name, other, key)
		}
		usedBy[name] = key
	}
	if _, err := o.StaticAttributes.ToMap(); err != nil {
		return err
	}
	if err := validateBuckets("duration_buckets", o.DurationBuckets); err != nil {
		return err
	}
	return validateBuckets("size_buckets", o.SizeBuckets)
}

// validateBuckets checks that the boundaries are strictly increasing.
func validateBuckets(field string, boundaries []float64) error {
	for i := 1; i < len(boundaries); i++ {
		if boundaries[i] <= boundaries[i-1] {
			return fmt.Errorf("%s must be sorted in increasing order without duplicates: %v",
				field, boundaries)
		}
	}
	return nil
}

func (o *ClientMetricOpts) UnsetFieldsToDefaults() {
	if o.ErrorType == "" {
		o.ErrorType = ErrorTypeStatus
	}
	if len(o.DurationBuckets) == 0 {
		o.DurationBuckets = DefaultDurationBuckets()
	}
	if len(o.SizeBuckets) == 0 {
		o.SizeBuckets = DefaultSizeBuckets()
	}
}

type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type Attributes []KeyValue

func (a Attributes) ToMap() (map[string]string, error) {
	var err error
	m := make(map[string]string, len(a))
	for _, attr := range a {
		if _, ok := m[attr.Key]; ok {
			err = fmt.Errorf("duplicate attribute keys")
		}
		m[attr.Key] = attr.Value
	}
	return m, err
}
