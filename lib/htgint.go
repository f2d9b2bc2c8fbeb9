package lib

import "math"
import "sort"
import "strconv"
import "strings"

// HistogramInt64 buckets int64 samples into fixed-width ranges between
// from and till (inclusive of overflow/underflow buckets at either end)
// while also tracking the running count, min, max, mean and variance of
// every sample seen, regardless of which bucket it landed in.
type HistogramInt64 struct {
	buckets []int64
	from    int64
	till    int64
	width   int64

	n      int64
	minval int64
	maxval int64
	sum    int64
	mean   float64
	m2     float64
	seeded bool
}

// NewhistorgramInt64 builds a histogram with buckets of the given width
// spanning [from, till), snapped down to multiples of width.
func NewhistorgramInt64(from, till, width int64) *HistogramInt64 {
	from = (from / width) * width
	till = (till / width) * width
	return &HistogramInt64{
		from:    from,
		till:    till,
		width:   width,
		buckets: make([]int64, 1+((till-from)/width)+1),
	}
}

func (h *HistogramInt64) bucketOf(sample int64) int {
	switch {
	case sample < h.from:
		return 0
	case sample >= h.till:
		return len(h.buckets) - 1
	default:
		return int((sample-h.from)/h.width) + 1
	}
}

// Add folds one more sample into both the histogram and the running
// statistics.
func (h *HistogramInt64) Add(sample int64) {
	h.n++
	h.sum += sample
	h.buckets[h.bucketOf(sample)]++

	delta := float64(sample) - h.mean
	h.mean += delta / float64(h.n)
	h.m2 += delta * (float64(sample) - h.mean)

	if !h.seeded || sample < h.minval {
		h.minval = sample
		h.seeded = true
	}
	if sample > h.maxval {
		h.maxval = sample
	}
}

func (h *HistogramInt64) Min() int64 { return h.minval }

func (h *HistogramInt64) Max() int64 { return h.maxval }

func (h *HistogramInt64) Samples() int64 { return h.n }

func (h *HistogramInt64) Sum() int64 { return h.sum }

func (h *HistogramInt64) Mean() int64 {
	if h.n == 0 {
		return 0
	}
	return int64(h.mean)
}

func (h *HistogramInt64) Variance() float64 {
	if h.n == 0 {
		return 0
	}
	return h.m2 / float64(h.n)
}

func (h *HistogramInt64) SD() float64 {
	return math.Sqrt(h.Variance())
}

// Clone copies the entire instance, including its bucket counts.
func (h *HistogramInt64) Clone() *HistogramInt64 {
	clone := *h
	clone.buckets = append([]int64(nil), h.buckets...)
	return &clone
}

// Stats collapses the bucket counts into a cumulative-from-the-top map
// keyed by bucket upper bound, stopping as soon as the running total
// would start repeating an already-reported bucket. The top populated
// bucket is reported under the special key "+".
func (h *HistogramInt64) Stats() map[string]int64 {
	result := make(map[string]int64)
	var cumulative int64
	for i := len(h.buckets) - 1; i >= 0; i-- {
		if h.buckets[i] == 0 {
			continue
		}
		for j := 0; j <= i; j++ {
			cumulative += h.buckets[j]
			if j == i {
				result["+"] = cumulative
				continue
			}
			result[strconv.FormatInt(h.from+int64(j)*h.width, 10)] = cumulative
		}
		break
	}
	return result
}

// Fullstats adds the running mean/variance/stddeviance to Stats.
func (h *HistogramInt64) Fullstats() map[string]interface{} {
	buckets := make(map[string]interface{}, len(h.buckets))
	for k, v := range h.Stats() {
		buckets[k] = v
	}
	return map[string]interface{}{
		"samples":     h.Samples(),
		"min":         h.Min(),
		"max":         h.Max(),
		"mean":        h.Mean(),
		"variance":    h.Variance(),
		"stddeviance": h.SD(),
		"histogram":   buckets,
	}
}

// Logstring renders Fullstats as a single-line JSON-ish string, suitable
// for dropping straight into a log line without a full JSON encoder.
func (h *HistogramInt64) Logstring() string {
	full := h.Fullstats()
	histogram := full["histogram"].(map[string]interface{})
	delete(full, "histogram")

	keys := make([]string, 0, len(full))
	for k := range full {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(k))
		b.WriteByte(':')
		b.WriteString(formatHistogramValue(full[k]))
	}
	if len(full) > 0 {
		b.WriteByte(',')
	}
	b.WriteString(`"histogram":`)
	b.WriteString(formatBucketMap(histogram))
	b.WriteByte('}')
	return b.String()
}

func formatHistogramValue(v interface{}) string {
	switch val := v.(type) {
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	default:
		return strconv.Quote("")
	}
}

func formatBucketMap(histogram map[string]interface{}) string {
	bucketKeys := make([]int, 0, len(histogram))
	hasOverflow := false
	for k := range histogram {
		if k == "+" {
			hasOverflow = true
			continue
		}
		n, _ := strconv.Atoi(k)
		bucketKeys = append(bucketKeys, n)
	}
	sort.Ints(bucketKeys)

	var b strings.Builder
	b.WriteByte('{')
	for i, n := range bucketKeys {
		if i > 0 {
			b.WriteByte(',')
		}
		key := strconv.Itoa(n)
		b.WriteString(strconv.Quote(key))
		b.WriteByte(':')
		b.WriteString(formatHistogramValue(histogram[key]))
	}
	if hasOverflow {
		if len(bucketKeys) > 0 {
			b.WriteByte(',')
		}
		b.WriteString(`"+":`)
		b.WriteString(formatHistogramValue(histogram["+"]))
	}
	b.WriteByte('}')
	return b.String()
}
