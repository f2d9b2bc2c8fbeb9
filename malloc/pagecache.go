package malloc

import "sync"

// PageCache is a process-wide best-fit cache of page-aligned spans,
// serialized by a single mutex. It obtains memory from the OS in
// multi-page chunks, splits spans on demand, and coalesces a freed span
// with its immediate successor (address-order forward neighbor only)
// before reinserting it.
type PageCache struct {
	mu        sync.Mutex
	freeSpans map[int64]*span   // numPages -> head of a free-span list
	keys      []int64           // sorted ascending keys with a non-empty bucket
	spanMap   map[uintptr]*span // every span this cache has ever issued
	mapped    []mappedRegion    // OS regions obtained, for optional teardown
}

type mappedRegion struct {
	addr     uintptr
	numPages int64
}

var (
	pageCacheOnce sync.Once
	pageCacheInst *PageCache
)

// ThePageCache returns the process-wide PageCache singleton, lazily
// initializing it on first use.
func ThePageCache() *PageCache {
	pageCacheOnce.Do(func() {
		pageCacheInst = newPageCache()
	})
	return pageCacheInst
}

func newPageCache() *PageCache {
	return &PageCache{
		freeSpans: make(map[int64]*span),
		spanMap:   make(map[uintptr]*span),
	}
}

// AllocateSpan hands out a span of exactly numPages pages. Returns
// (0, false) only if the OS denies a new anonymous mapping and no
// cached span of adequate size exists.
func (pc *PageCache) AllocateSpan(numPages int64) (uintptr, bool) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if idx, ok := pc.bestFit(numPages); ok {
		key := pc.keys[idx]
		head := pc.freeSpans[key]
		pc.unlinkFree(head)

		if head.numPages > numPages {
			trailingAddr := head.pageAddr + uintptr(numPages*PageSize)
			trailing := &span{
				pageAddr: trailingAddr,
				numPages: head.numPages - numPages,
			}
			pc.spanMap[trailingAddr] = trailing
			pc.insertFree(trailing)
			head.numPages = numPages
		}
		head.free = false
		return head.pageAddr, true
	}

	addr, ok := mmapPages(numPages)
	if !ok {
		errorf("malloc: OS denied a mapping of %v pages\n", numPages)
		return 0, false
	}
	pc.mapped = append(pc.mapped, mappedRegion{addr: addr, numPages: numPages})
	sp := &span{pageAddr: addr, numPages: numPages}
	pc.spanMap[addr] = sp
	return addr, true
}

// DeallocateSpan returns a span to the cache, coalescing it with its
// immediate address-order successor if that neighbor is also free. A
// pageAddr this cache never issued is silently ignored -- the allocator
// cannot distinguish that from a double free or a foreign pointer.
func (pc *PageCache) DeallocateSpan(pageAddr uintptr, numPages int64) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	sp, ok := pc.spanMap[pageAddr]
	if !ok {
		return
	}

	successorAddr := pageAddr + uintptr(numPages*PageSize)
	if succ, ok := pc.spanMap[successorAddr]; ok && succ.free {
		pc.unlinkFree(succ)
		delete(pc.spanMap, successorAddr)
		numPages += succ.numPages
	}

	sp.numPages = numPages
	sp.free = true
	pc.insertFree(sp)
}

// bestFit finds the smallest key in freeSpans that is >= numPages.
// pc.keys is kept sorted ascending by insertFree/unlinkFree.
func (pc *PageCache) bestFit(numPages int64) (int, bool) {
	lo, hi := 0, len(pc.keys)
	for lo < hi {
		mid := (lo + hi) / 2
		if pc.keys[mid] < numPages {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo == len(pc.keys) {
		return 0, false
	}
	return lo, true
}

func (pc *PageCache) insertFree(sp *span) {
	sp.free = true
	key := sp.numPages
	head, exists := pc.freeSpans[key]
	sp.prev, sp.next = nil, head
	if head != nil {
		head.prev = sp
	}
	pc.freeSpans[key] = sp
	if !exists {
		pc.insertKey(key)
	}
}

func (pc *PageCache) unlinkFree(sp *span) {
	key := sp.numPages
	if sp.prev != nil {
		sp.prev.next = sp.next
	} else {
		pc.freeSpans[key] = sp.next
	}
	if sp.next != nil {
		sp.next.prev = sp.prev
	}
	sp.prev, sp.next = nil, nil
	if pc.freeSpans[key] == nil {
		delete(pc.freeSpans, key)
		pc.removeKey(key)
	}
}

func (pc *PageCache) insertKey(key int64) {
	lo, hi := 0, len(pc.keys)
	for lo < hi {
		mid := (lo + hi) / 2
		if pc.keys[mid] < key {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	pc.keys = append(pc.keys, 0)
	copy(pc.keys[lo+1:], pc.keys[lo:])
	pc.keys[lo] = key
}

func (pc *PageCache) removeKey(key int64) {
	for i, k := range pc.keys {
		if k == key {
			pc.keys = append(pc.keys[:i], pc.keys[i+1:]...)
			return
		}
	}
}

// FreeSpanCount reports, per page count, how many free spans are
// currently cached. Diagnostic only.
func (pc *PageCache) FreeSpanCount() map[int64]int {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	counts := make(map[int64]int, len(pc.keys))
	for key, head := range pc.freeSpans {
		n := 0
		for sp := head; sp != nil; sp = sp.next {
			n++
		}
		counts[key] = n
	}
	return counts
}

// Close unmaps every OS region this cache ever obtained. Intended for
// tests and explicit process teardown only -- PageCache never calls this
// itself, matching the reference's "never unmap on deallocateSpan"
// policy.
func (pc *PageCache) Close() {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	for _, m := range pc.mapped {
		munmapPages(m.addr, m.numPages)
	}
	pc.mapped = nil
	pc.freeSpans = make(map[int64]*span)
	pc.keys = nil
	pc.spanMap = make(map[uintptr]*span)
}
