// Package client provides the metrics instrumentation for an http client.
//
// Each request sent through an instrumented client reports three
// histograms, following the OpenTelemetry HTTP client semantic
// conventions:
//
//   - http.client.request.duration: seconds since we send the request
//     until the response headers are available.
//   - http.client.request.body.size: the declared Content-Length of the
//     request payload (0 when unknown).
//   - http.client.response.body.size: the Content-Length provided by the
//     server (0 when unknown).
//
// All observations are tagged with the same set of labels:
//
//   - http.request.method
//   - url.scheme
//   - network.protocol.name
//   - server.address (when known)
//   - server.port (when known, or the default port for the scheme)
//   - network.protocol.version (when known)
//   - http.response.status_code (only when a response is received)
//   - error.type (only for failed requests)
//   - uri (opt-in, see [Options])
//
// Label names can be changed with a [LabelNamesBuilder], and a set of
// fixed attributes can be added to all the observations.
//
// Requests that fail because the caller explicitly canceled them are not
// reported. Timeouts (from the client or from a context deadline) are
// reported as failed requests.
package client

import (
	"net/http"

	"go.opentelemetry.io/otel/metric"

	"github.com/krakend/krakend-httpclient-metrics/middleware"
)

// InstrumentedHTTPClient creates a new http client, that keeps the redirect
// policy, cookie jar and timeout of the provided one, but reports the
// metrics for each request sent through its transport.
// A nil client uses the [http.DefaultClient] as a base, and a nil meter
// uses the global meter provider.
func InstrumentedHTTPClient(c *http.Client, meter metric.Meter, opts *Options) *http.Client {
	return middleware.NewClient(c, New(meter, opts))
}

// NewRoundTripper wraps the base round tripper (or the [http.DefaultTransport]
// if nil) to report the metrics for each request.
func NewRoundTripper(base http.RoundTripper, meter metric.Meter, opts *Options) http.RoundTripper {
	return middleware.NewRoundTripper(base, New(meter, opts))
}
