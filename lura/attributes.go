package lura

import (
	"go.opentelemetry.io/otel/attribute"

	"github.com/luraproject/lura/v2/config"

	kconfig "github.com/krakend/krakend-httpclient-metrics/config"
)

// backendConfigAttributes returns the attributes set for all the
// requests of a backend. Those have low cardinality, because the
// path "template" is used instead of the actual path:
//   - the endpoint the backend belongs to
//   - the url pattern of the backend
func backendConfigAttributes(cfg *config.Backend) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("krakend.endpoint", kconfig.NormalizeURLPattern(cfg.ParentEndpoint)),
		attribute.String("url.pattern", kconfig.NormalizeURLPattern(cfg.URLPattern)),
	}
}
