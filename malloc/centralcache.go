package malloc

import "sync"
import "sync/atomic"
import "time"
import "unsafe"

import "github.com/JMJTC/memorypool/lib"

// classCache holds one size class's free list together with the delayed
// return bookkeeping for that class. Every field below is guarded by the
// embedded spinlock except where noted.
type classCache struct {
	lock spinlock

	head  unsafe.Pointer // head of the free list, embedded-pointer chain
	count int64          // blocks currently on this free list

	delayCount     int
	lastReturnTime time.Time
}

// CentralCache is the process-wide array of per-size-class free lists
// sitting between every ThreadCache and PageCache. Each size class is
// guarded by its own spinlock so that unrelated size classes never
// contend with each other.
type CentralCache struct {
	classes [FreeListSize]classCache

	trackers  [maxSpanTrackers]spanTracker
	spanCount int64 // atomic cursor into trackers, never decremented

	pages         *PageCache
	maxDelayCount int

	spanHistMu sync.Mutex
	spanHist   *lib.HistogramInt64 // pages per span carved from PageCache
}

var (
	centralCacheOnce sync.Once
	centralCacheInst *CentralCache
)

// TheCentralCache returns the process-wide CentralCache singleton, lazily
// initializing it (and its backing PageCache) on first use.
func TheCentralCache() *CentralCache {
	centralCacheOnce.Do(func() {
		centralCacheInst = newCentralCache(ThePageCache())
	})
	return centralCacheInst
}

func newCentralCache(pc *PageCache) *CentralCache {
	// lastReturnTime is left at its zero value so that the very first
	// returnRange call on every class satisfies the time-based delayed
	// return condition immediately, rather than waiting a full
	// DelayInterval after process start.
	return &CentralCache{
		pages:         pc,
		maxDelayCount: MaxDelayCount,
		spanHist:      lib.NewhistorgramInt64(0, 64, 4),
	}
}

// NewCentralCacheWithSettings is like TheCentralCache/newCentralCache,
// except the delayed-return sweep threshold comes from settings (see
// Defaultsettings) instead of the package's hardcoded MaxDelayCount
// constant. Any key settings omits falls back to its Defaultsettings
// value.
func NewCentralCacheWithSettings(pc *PageCache, settings lib.Settings) *CentralCache {
	setts := Defaultsettings().Mixin(settings)
	cc := newCentralCache(pc)
	cc.maxDelayCount = int(setts.Int64("maxdelaycount"))
	return cc
}

// fetchRange returns exactly one free block of size class i, refilling
// the class's free list from PageCache if it is currently empty.
func (cc *CentralCache) fetchRange(i int) (unsafe.Pointer, bool) {
	cls := &cc.classes[i]
	cls.lock.lock()
	defer cls.lock.unlock()

	if cls.head != nil {
		block := cls.head
		cls.head = nextFree(block)
		cls.count--
		setNextFree(block, nil)
		if t := cc.trackerOwning(block); t != nil {
			t.freeCount--
		}
		return block, true
	}

	return cc.fetchFromPageCache(cls, i)
}

// fetchFromPageCache refills an empty free list by carving a fresh span.
// Called with cls.lock held, matching the reference's single documented
// exception to "never call PageCache with a spinlock held".
func (cc *CentralCache) fetchFromPageCache(cls *classCache, i int) (unsafe.Pointer, bool) {
	blockSize := BlockSize(i)

	var numPages int64
	if blockSize <= SpanPages*PageSize {
		numPages = SpanPages
	} else {
		numPages = ceil(blockSize, PageSize)
	}

	pageAddr, ok := cc.pages.AllocateSpan(numPages)
	if !ok {
		return nil, false
	}

	cc.spanHistMu.Lock()
	cc.spanHist.Add(numPages)
	cc.spanHistMu.Unlock()

	blockCount := (numPages * PageSize) / blockSize
	head, _ := threadBlocks(pageAddr, blockSize, blockCount)

	first := head
	rest := nextFree(first)
	setNextFree(first, nil)

	cls.head = rest
	cls.count = blockCount - 1

	cc.installTracker(pageAddr, numPages, blockCount, blockCount-1, i)

	return first, true
}

// installTracker records a freshly carved span's state. Once the tracker
// table is full, new spans are still carved and used normally but cannot
// ever be returned to PageCache -- a deliberate bounded-memory
// degradation, not a fault.
func (cc *CentralCache) installTracker(pageAddr uintptr, numPages, blockCount, freeCount int64, sizeClass int) {
	idx := atomic.AddInt64(&cc.spanCount, 1) - 1
	if idx >= maxSpanTrackers {
		warnf("malloc: span tracker table exhausted, span at %x unreturnable\n", pageAddr)
		return
	}
	cc.trackers[idx] = spanTracker{
		pageAddr:   pageAddr,
		numPages:   numPages,
		blockCount: blockCount,
		freeCount:  freeCount,
		sizeClass:  sizeClass,
	}
}

// trackerOwning linearly scans the installed trackers for the one whose
// span contains addr. O(n) in the number of installed trackers, matching
// the reference's acknowledged-suboptimal lookup.
func (cc *CentralCache) trackerOwning(block unsafe.Pointer) *spanTracker {
	addr := uintptr(block)
	n := atomic.LoadInt64(&cc.spanCount)
	if n > maxSpanTrackers {
		n = maxSpanTrackers
	}
	for idx := int64(0); idx < n; idx++ {
		t := &cc.trackers[idx]
		if t.contains(addr) {
			return t
		}
	}
	return nil
}

// returnRange splices the chain beginning at start (at most byteCount /
// blockSize blocks, stopping earlier on a null next-pointer) onto the
// front of size class i's free list, then evaluates the delayed-return
// heuristic.
func (cc *CentralCache) returnRange(start unsafe.Pointer, byteCount int64, i int) {
	cls := &cc.classes[i]
	cls.lock.lock()
	defer cls.lock.unlock()

	blockSize := BlockSize(i)
	maxSteps := byteCount / blockSize

	tail := start
	n := int64(1)
	for n < maxSteps {
		next := nextFree(tail)
		if next == nil {
			break
		}
		tail = next
		n++
	}

	setNextFree(tail, cls.head)
	cls.head = start
	cls.count += n

	cls.delayCount++
	if cls.delayCount >= cc.maxDelayCount || time.Since(cls.lastReturnTime) >= DelayInterval {
		cc.performDelayReturn(cls, i)
	}
}

// performDelayReturn walks the current free list, tallies how many of
// each tracked span's blocks are observed free, and hands any span whose
// every block is free back to PageCache.
func (cc *CentralCache) performDelayReturn(cls *classCache, i int) {
	cls.delayCount = 0
	cls.lastReturnTime = time.Now()

	n := atomic.LoadInt64(&cc.spanCount)
	if n > maxSpanTrackers {
		n = maxSpanTrackers
	}
	observed := make(map[int64]int64, n)

	for block := cls.head; block != nil; block = nextFree(block) {
		addr := uintptr(block)
		for idx := int64(0); idx < n; idx++ {
			t := &cc.trackers[idx]
			if t.sizeClass == i && t.contains(addr) {
				observed[idx]++
				break
			}
		}
	}

	reclaim := make(map[int64]bool)
	for idx, free := range observed {
		t := &cc.trackers[idx]
		if free == t.blockCount {
			reclaim[idx] = true
		}
	}

	if len(reclaim) == 0 {
		for idx, free := range observed {
			cc.trackers[idx].freeCount = free
		}
		return
	}

	var newHead, newTail unsafe.Pointer
	var newCount int64
	for block := cls.head; block != nil; {
		next := nextFree(block)
		owned := false
		addr := uintptr(block)
		for idx := range reclaim {
			if cc.trackers[idx].contains(addr) {
				owned = true
				break
			}
		}
		if !owned {
			setNextFree(block, nil)
			if newHead == nil {
				newHead, newTail = block, block
			} else {
				setNextFree(newTail, block)
				newTail = block
			}
			newCount++
		}
		block = next
	}
	cls.head = newHead
	cls.count = newCount

	for idx := range reclaim {
		t := &cc.trackers[idx]
		cc.pages.DeallocateSpan(t.pageAddr, t.numPages)
		t.numPages = 0
		t.freeCount = 0
		t.blockCount = 0
	}
	for idx, free := range observed {
		if !reclaim[idx] {
			cc.trackers[idx].freeCount = free
		}
	}
}
