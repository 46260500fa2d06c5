package client

import (
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	v127 "go.opentelemetry.io/otel/semconv/v1.27.0"

	"github.com/luraproject/lura/v2/logging"

	kconfig "github.com/krakend/krakend-httpclient-metrics/config"
)

// instruments holds the histograms reported for each request.
//
// Instruments are created once per [Metrics] instance. Creating them again
// against the same meter does not duplicate them: the OTEL SDK meter returns
// the already registered instrument when name, kind, unit and description
// match. Custom meter implementations must provide the same guarantee.
type instruments struct {
	duration     metric.Float64Histogram
	requestSize  metric.Int64Histogram
	responseSize metric.Int64Histogram
}

func newInstruments(meter metric.Meter, durationBuckets, sizeBuckets []float64,
	logger logging.Logger,
) *instruments {
	nopMeter := noop.Meter{}
	durationOpt := kconfig.BucketsOpt(durationBuckets, kconfig.TimeBucketsOpt)
	sizeOpt := kconfig.BucketsOpt(sizeBuckets, kconfig.SizeBucketsOpt)

	// the SDK can return a usable instrument together with an error (like
	// when it falls back to the default buckets): we only replace it with a
	// noop one when there is no instrument at all.
	var instr instruments
	var err error

	instr.duration, err = meter.Float64Histogram(v127.HTTPClientRequestDurationName,
		metric.WithUnit(v127.HTTPClientRequestDurationUnit),
		metric.WithDescription(v127.HTTPClientRequestDurationDescription),
		durationOpt)
	logInstrumentErr(logger, v127.HTTPClientRequestDurationName, err)
	if instr.duration == nil {
		instr.duration, _ = nopMeter.Float64Histogram(v127.HTTPClientRequestDurationName)
	}

	instr.requestSize, err = meter.Int64Histogram(v127.HTTPClientRequestBodySizeName,
		metric.WithUnit(v127.HTTPClientRequestBodySizeUnit),
		metric.WithDescription(v127.HTTPClientRequestBodySizeDescription),
		sizeOpt)
	logInstrumentErr(logger, v127.HTTPClientRequestBodySizeName, err)
	if instr.requestSize == nil {
		instr.requestSize, _ = nopMeter.Int64Histogram(v127.HTTPClientRequestBodySizeName)
	}

	instr.responseSize, err = meter.Int64Histogram(v127.HTTPClientResponseBodySizeName,
		metric.WithUnit(v127.HTTPClientResponseBodySizeUnit),
		metric.WithDescription(v127.HTTPClientResponseBodySizeDescription),
		sizeOpt)
	logInstrumentErr(logger, v127.HTTPClientResponseBodySizeName, err)
	if instr.responseSize == nil {
		instr.responseSize, _ = nopMeter.Int64Histogram(v127.HTTPClientResponseBodySizeName)
	}

	return &instr
}

func logInstrumentErr(logger logging.Logger, name string, err error) {
	if err != nil {
		logger.Warning(logPrefix, "problem registering", name, "histogram:", err.Error())
	}
}
