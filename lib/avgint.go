package lib

import "math"

// AverageInt64 tracks running count, min, max, mean and variance over a
// stream of int64 samples without retaining the samples themselves. Mean
// and variance are updated incrementally with Welford's method rather
// than a running sum-of-squares, which keeps the variance computation
// stable over long-lived counters with widely varying sample magnitudes.
type AverageInt64 struct {
	n      int64
	minval int64
	maxval int64
	sum    int64
	mean   float64
	m2     float64 // running sum of squared deviations from mean
	seeded bool
}

// Add folds one more sample into the running statistics.
func (av *AverageInt64) Add(sample int64) {
	av.n++
	av.sum += sample

	delta := float64(sample) - av.mean
	av.mean += delta / float64(av.n)
	av.m2 += delta * (float64(sample) - av.mean)

	if !av.seeded || sample < av.minval {
		av.minval = sample
		av.seeded = true
	}
	if sample > av.maxval {
		av.maxval = sample
	}
}

func (av *AverageInt64) Min() int64 { return av.minval }

func (av *AverageInt64) Max() int64 { return av.maxval }

func (av *AverageInt64) Samples() int64 { return av.n }

func (av *AverageInt64) Sum() int64 { return av.sum }

func (av *AverageInt64) Mean() int64 {
	if av.n == 0 {
		return 0
	}
	return int64(av.mean)
}

func (av *AverageInt64) Variance() float64 {
	if av.n == 0 {
		return 0
	}
	return av.m2 / float64(av.n)
}

func (av *AverageInt64) SD() float64 {
	return math.Sqrt(av.Variance())
}

// Clone returns an independent copy of the running statistics.
func (av *AverageInt64) Clone() *AverageInt64 {
	clone := *av
	return &clone
}

// Stats renders the running statistics as a generic map, the shape
// every stats-reporting call site in this module deals in.
func (av *AverageInt64) Stats() map[string]interface{} {
	return map[string]interface{}{
		"samples":     av.Samples(),
		"min":         av.Min(),
		"max":         av.Max(),
		"mean":        av.Mean(),
		"variance":    av.Variance(),
		"stddeviance": av.SD(),
	}
}
