package malloc

import "sync"
import "unsafe"

import "github.com/JMJTC/memorypool/lib"

var (
	largeAllocsMu sync.Mutex
	largeAllocs   lib.AverageInt64
)

// allocateLarge services a request larger than MaxBytes with a direct OS
// mapping, bypassing ThreadCache, CentralCache, and PageCache entirely --
// the tiered cache exists to amortize the cost of many small requests,
// which a single large one does not benefit from. Freeing such a block
// must use deallocateLarge with the same size.
func allocateLarge(n int64) (unsafe.Pointer, bool) {
	numPages := ceil(n, PageSize)
	addr, ok := mmapPages(numPages)
	if !ok {
		errorf("malloc: large allocation of %v bytes failed\n", n)
		return nil, false
	}
	largeAllocsMu.Lock()
	largeAllocs.Add(n)
	largeAllocsMu.Unlock()
	return unsafe.Pointer(addr), true
}

// deallocateLarge unmaps a large block obtained from allocateLarge
// immediately; unlike spans, it is never cached for reuse.
func deallocateLarge(ptr unsafe.Pointer, n int64) {
	numPages := ceil(n, PageSize)
	munmapPages(uintptr(ptr), numPages)
}

var (
	processCacheOnce sync.Once
	processCacheMu   sync.Mutex
	processCache     *ThreadCache
)

func theProcessCache() *ThreadCache {
	processCacheOnce.Do(func() { processCache = NewThreadCache() })
	return processCache
}

// Allocate is a package-level convenience entry point for callers that do
// not want to manage a ThreadCache themselves. It lazily creates a single
// process-wide ThreadCache and serializes every caller's access to it
// behind processCacheMu, so -- unlike a ThreadCache value obtained
// directly from NewThreadCache -- it is safe to call concurrently from
// any number of goroutines.
func Allocate(n int64) (unsafe.Pointer, bool) {
	tc := theProcessCache()
	processCacheMu.Lock()
	defer processCacheMu.Unlock()
	return tc.Allocate(n)
}

// Deallocate is the package-level counterpart to Allocate, with the same
// concurrency guarantee.
func Deallocate(ptr unsafe.Pointer, n int64) {
	if ptr == nil {
		return
	}
	tc := theProcessCache()
	processCacheMu.Lock()
	defer processCacheMu.Unlock()
	tc.Deallocate(ptr, n)
}
