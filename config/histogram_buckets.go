package config

import (
	"go.opentelemetry.io/otel/metric"
)

var (
	defaultDurationBuckets = []float64{
		0.010, 0.020, 0.050, 0.075,
		0.100, 0.125, 0.150, 0.175,
		0.200, 0.250, 0.300, 0.350,
		0.500, 0.750, 1.000, 1.500,
		2.000, 3.500, 5.000, 10.000,
	}

	defaultSizeBuckets = []float64{
		128, 256, 512, 1024, // <- reasonable body sizes
		4 * 1024, 8 * 1024, 16 * 1024, 32 * 1024, // <- these starts to be big
		64 * 1024, 4 * 64 * 1024, 8 * 64 * 1024, 16 * 64 * 1024, // <- 64k to 1 Meg
		4 * 1024 * 1024, 16 * 1024 * 1024, 64 * 1024 * 1024,
	}

	TimeBucketsOpt = metric.WithExplicitBucketBoundaries(defaultDurationBuckets...)
	SizeBucketsOpt = metric.WithExplicitBucketBoundaries(defaultSizeBuckets...)
)

// DefaultDurationBuckets returns a copy of the default bucket boundaries
// (in seconds) for the duration histograms.
func DefaultDurationBuckets() []float64 {
	return append([]float64(nil), defaultDurationBuckets...)
}

// DefaultSizeBuckets returns a copy of the default bucket boundaries
// (in bytes) for the body size histograms.
func DefaultSizeBuckets() []float64 {
	return append([]float64(nil), defaultSizeBuckets...)
}

// BucketsOpt returns the histogram option for the provided boundaries,
// or the fallback one when none are provided.
func BucketsOpt(boundaries []float64, fallback metric.HistogramOption) metric.HistogramOption {
	if len(boundaries) == 0 {
		return fallback
	}
	return metric.WithExplicitBucketBoundaries(boundaries...)
}
