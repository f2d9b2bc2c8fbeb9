package malloc

import "sort"
import "sync/atomic"

import gohumanize "github.com/dustin/go-humanize"
import golog "github.com/bnclabs/golog"

// Utilization reports, per active size class, what fraction of the
// blocks carved for that class are outstanding according to the span
// trackers' free counts. Those counts are updated when fetchRange pops a
// block and on each delayed-return sweep, not when returnRange pushes
// blocks back, and blocks held in ThreadCache free lists count as
// outstanding.
// Mirrors the storage engine's arena.Utilization() in shape: parallel
// slices of block size and percentage, sorted by block size.
func (cc *CentralCache) Utilization() ([]int, []float64) {
	n := atomic.LoadInt64(&cc.spanCount)
	if n > maxSpanTrackers {
		n = maxSpanTrackers
	}

	blockTotal := make(map[int]int64)
	freeTotal := make(map[int]int64)
	for idx := int64(0); idx < n; idx++ {
		t := &cc.trackers[idx]
		if t.numPages == 0 {
			continue
		}
		size := int(BlockSize(t.sizeClass))
		blockTotal[size] += t.blockCount
		freeTotal[size] += t.freeCount
	}

	sizes := make([]int, 0, len(blockTotal))
	for size := range blockTotal {
		sizes = append(sizes, size)
	}
	sort.Ints(sizes)

	pcts := make([]float64, 0, len(sizes))
	for _, size := range sizes {
		total, free := blockTotal[size], freeTotal[size]
		used := total - free
		pcts = append(pcts, (float64(used)/float64(total))*100)
	}
	return sizes, pcts
}

// Stats reports aggregate byte counts across this CentralCache and its
// backing PageCache: bytes carved into trackers, and bytes still parked
// as free spans awaiting reuse.
func (cc *CentralCache) Stats() map[string]interface{} {
	n := atomic.LoadInt64(&cc.spanCount)
	if n > maxSpanTrackers {
		n = maxSpanTrackers
	}

	var trackedBytes, freeBytes int64
	for idx := int64(0); idx < n; idx++ {
		t := &cc.trackers[idx]
		if t.numPages == 0 {
			continue
		}
		trackedBytes += t.numPages * PageSize
		freeBytes += t.freeCount * BlockSize(t.sizeClass)
	}

	var cachedSpanBytes int64
	for pages, count := range cc.pages.FreeSpanCount() {
		cachedSpanBytes += pages * PageSize * int64(count)
	}

	cc.spanHistMu.Lock()
	spanSamples := cc.spanHist.Samples()
	spanMeanPages := cc.spanHist.Mean()
	cc.spanHistMu.Unlock()

	return map[string]interface{}{
		"spans.tracked":     n,
		"spans.carved":      spanSamples,
		"spans.meanpages":   spanMeanPages,
		"bytes.tracked":     trackedBytes,
		"bytes.free":        freeBytes,
		"bytes.cachedspans": cachedSpanBytes,
	}
}

// LargeAllocationStats reports the distribution of request sizes that
// bypassed the tiered cache entirely via allocateLarge.
func LargeAllocationStats() map[string]interface{} {
	largeAllocsMu.Lock()
	defer largeAllocsMu.Unlock()
	return map[string]interface{}{
		"samples":  largeAllocs.Samples(),
		"min":      largeAllocs.Min(),
		"max":      largeAllocs.Max(),
		"mean":     largeAllocs.Mean(),
		"variance": largeAllocs.Variance(),
		"stddev":   largeAllocs.SD(),
	}
}

// LogUtilization writes a human-readable utilization report through this
// package's logger, in the storage engine's "size blocks at NN.NN%" idiom.
func (cc *CentralCache) LogUtilization() {
	sizes, pcts := cc.Utilization()
	stats := cc.Stats()
	fmsg := "malloc: tracked %v cached %v across %v spans\n"
	golog.Infof(fmsg,
		gohumanize.Bytes(uint64(stats["bytes.tracked"].(int64))),
		gohumanize.Bytes(uint64(stats["bytes.cachedspans"].(int64))),
		stats["spans.tracked"])
	for i, size := range sizes {
		golog.Infof("  %8v blocks: %2.2f%% utilized\n", size, pcts[i])
	}

	cc.spanHistMu.Lock()
	histogram := cc.spanHist.Logstring()
	cc.spanHistMu.Unlock()
	golog.Infof("malloc: span size (pages) histogram %v\n", histogram)

	if large := LargeAllocationStats(); large["samples"].(int64) > 0 {
		golog.Infof("malloc: large allocations samples=%v mean=%v bytes\n",
			large["samples"], large["mean"])
	}
}
