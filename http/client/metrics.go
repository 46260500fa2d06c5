package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/luraproject/lura/v2/logging"

	"github.com/krakend/krakend-httpclient-metrics/middleware"
)

const (
	instrumentationName = "github.com/krakend/krakend-httpclient-metrics/http/client"
	logPrefix           = "[SERVICE: HTTP Client Metrics]"
)

// Options defines the labels reported for each request.
//
// The zero value is a useful default: semantic convention label names,
// no uri label, and the status code reported as error type.
type Options struct {
	LabelNames LabelNames
	// EnableURI adds the path and query of the request as a label. Since
	// it can have a huge cardinality, is disabled by default.
	EnableURI bool
	// ErrorType selects what is reported under the error type label.
	ErrorType ErrorClassification
	// FixedAttributes are "static" attributes set at config time, that
	// are added to all the observations.
	FixedAttributes []attribute.KeyValue

	DurationBuckets []float64 // in seconds, defaults to [kconfig.TimeBucketsOpt]
	SizeBuckets     []float64 // in bytes, defaults to [kconfig.SizeBucketsOpt]

	Logger logging.Logger
}

var _ middleware.Middleware = (*Metrics)(nil)

// Metrics is a [middleware.Middleware] that reports the duration of each
// request and the size of its request and response bodies.
//
// A Metrics instance is not modified after its creation, and can be
// shared by any number of clients and goroutines.
type Metrics struct {
	instr      *instruments
	labelNames LabelNames
	enableURI  bool
	errClass   ErrorClassification
	fixedAttrs []attribute.KeyValue
	logger     logging.Logger
}

// New creates the metrics middleware, registering the histograms with
// the provided meter. When meter is nil, the global meter provider is used.
func New(meter metric.Meter, opts *Options) *Metrics {
	if opts == nil {
		opts = &Options{}
	}
	if meter == nil {
		meter = otel.Meter(instrumentationName)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NoOp
	}

	var fixedAttrs []attribute.KeyValue
	if len(opts.FixedAttributes) > 0 {
		fixedAttrs = make([]attribute.KeyValue, len(opts.FixedAttributes))
		copy(fixedAttrs, opts.FixedAttributes)
	}

	return &Metrics{
		instr:      newInstruments(meter, opts.DurationBuckets, opts.SizeBuckets, logger),
		labelNames: opts.LabelNames,
		enableURI:  opts.EnableURI,
		errClass:   opts.ErrorType,
		fixedAttrs: fixedAttrs,
		logger:     logger,
	}
}

// Handle implements [middleware.Middleware]: it times the rest of the
// chain and reports the metrics once it returns. The response and error
// are returned untouched, and the extensions are passed as they are.
//
// The reported duration ends when the response headers are available: the
// time spent by the caller reading the body is not accounted.
func (m *Metrics) Handle(req *http.Request, ext middleware.Extensions, next middleware.Next) (*http.Response, error) {
	snapshot := newRequestSnapshot(req, m.enableURI)

	requestSentAt := time.Now()
	resp, err := next(req, ext)
	latencyInSecs := float64(time.Since(requestSentAt)) / float64(time.Second)

	m.report(req.Context(), &snapshot, resp, err, latencyInSecs)
	return resp, err
}

func (m *Metrics) report(ctx context.Context, snapshot *requestSnapshot,
	resp *http.Response, err error, latencyInSecs float64,
) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error(logPrefix, fmt.Sprintf("cannot report metrics for %s request: %v", snapshot.method, r))
		}
	}()

	if err != nil && canceledByCaller(ctx) {
		// the caller is no longer waiting for this request: we
		// do not report anything for it.
		m.logger.Debug(logPrefix, "skipping metrics for canceled request:", err.Error())
		return
	}

	o := newOutcome(resp, err, m.errClass)
	attrOpt := metric.WithAttributeSet(attribute.NewSet(m.labels(snapshot, &o)...))

	m.instr.duration.Record(ctx, latencyInSecs, attrOpt)
	m.instr.requestSize.Record(ctx, snapshot.bodySize, attrOpt)
	m.instr.responseSize.Record(ctx, o.bodySize, attrOpt)
}

// canceledByCaller tells if the request context has been explicitly
// canceled before reaching its deadline (if any). Timeouts, including
// the one set by [http.Client.Timeout] on the request context, are
// failed calls that must be reported.
func canceledByCaller(ctx context.Context) bool {
	if ctx == nil || !errors.Is(ctx.Err(), context.Canceled) {
		return false
	}
	if deadline, ok := ctx.Deadline(); ok && !time.Now().Before(deadline) {
		// the client timeout cancels the context when the deadline
		// is reached
		return false
	}
	return true
}

// labels returns the list of labels to report for a request, always in
// the same order: fixed attributes, method, scheme, protocol name, and
// then the optional ones (host, port, protocol version, status, error
// type and uri).
func (m *Metrics) labels(s *requestSnapshot, o *outcome) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, len(m.fixedAttrs), len(m.fixedAttrs)+int(numLabelKeys))
	copy(attrs, m.fixedAttrs)

	attrs = append(attrs,
		m.label(RequestMethod, s.method),
		m.label(URLScheme, s.scheme),
		m.label(ProtocolName, "http"))

	if s.host != "" {
		attrs = append(attrs, m.label(ServerAddress, s.host))
	}
	if s.port != "" {
		attrs = append(attrs, m.label(ServerPort, s.port))
	}
	if s.protocolVersion != "" {
		attrs = append(attrs, m.label(ProtocolVersion, s.protocolVersion))
	}
	if o.hasResponse {
		attrs = append(attrs, m.label(ResponseStatus, o.status))
	}
	if o.errorType != "" {
		attrs = append(attrs, m.label(ErrorType, o.errorType))
	}
	if m.enableURI {
		attrs = append(attrs, m.label(URI, s.uri))
	}
	return attrs
}

func (m *Metrics) label(k LabelKey, value string) attribute.KeyValue {
	return attribute.String(m.labelNames.Name(k), value)
}
