package malloc

import "unsafe"

import "github.com/JMJTC/memorypool/lib"

// ThreadCache is a lock-free, single-goroutine front cache of free lists,
// one per size class. Go offers no safe equivalent of thread-local
// storage, so unlike the reference, a ThreadCache here is an explicit
// handle: callers obtain one with NewThreadCache, must confine it to a
// single goroutine for its lifetime, and give it back with Release.
type ThreadCache struct {
	central *CentralCache

	freeHead  [FreeListSize]unsafe.Pointer
	freeSize  [FreeListSize]int64
	threshold int64
	released  bool
}

func newThreadCache(central *CentralCache) *ThreadCache {
	return &ThreadCache{central: central, threshold: Threshold}
}

// NewThreadCache allocates a fresh, empty ThreadCache bound to the
// process-wide CentralCache singleton.
func NewThreadCache() *ThreadCache {
	return newThreadCache(TheCentralCache())
}

// NewThreadCacheWithSettings is NewThreadCache, except the bulk-return
// high-water mark comes from settings (see Defaultsettings) instead of
// the package's hardcoded Threshold constant. Any key settings omits
// falls back to its Defaultsettings value.
func NewThreadCacheWithSettings(settings lib.Settings) *ThreadCache {
	setts := Defaultsettings().Mixin(settings)
	tc := newThreadCache(TheCentralCache())
	tc.threshold = setts.Int64("threshold")
	return tc
}

// Allocate returns a block of at least n bytes. Requests larger than
// MaxBytes bypass every cache tier and go straight to the OS.
func (tc *ThreadCache) Allocate(n int64) (unsafe.Pointer, bool) {
	if tc.released {
		panicerr("threadcache released")
	}
	if n > MaxBytes {
		return allocateLarge(n)
	}

	i := IndexOf(n)
	if block := tc.freeHead[i]; block != nil {
		tc.freeHead[i] = nextFree(block)
		tc.freeSize[i]--
		setNextFree(block, nil)
		return block, true
	}

	block, ok := tc.central.fetchRange(i)
	if !ok {
		return nil, false
	}
	return block, true
}

// Deallocate returns a block of size n, previously obtained from
// Allocate, to this ThreadCache's free list for class i. When that list
// grows past the cache's high-water mark (Threshold, unless set through
// NewThreadCacheWithSettings), the excess is returned to CentralCache in
// bulk.
func (tc *ThreadCache) Deallocate(ptr unsafe.Pointer, n int64) {
	if ptr == nil {
		return
	}
	if tc.released {
		panicerr("threadcache released")
	}
	if n > MaxBytes {
		deallocateLarge(ptr, n)
		return
	}

	i := IndexOf(n)
	setNextFree(ptr, tc.freeHead[i])
	tc.freeHead[i] = ptr
	tc.freeSize[i]++

	if tc.freeSize[i] > tc.threshold {
		tc.drain(i)
	}
}

// drain trims class i's free list back down to its retained head,
// handing the detached tail to CentralCache as a single chain.
func (tc *ThreadCache) drain(i int) {
	keep := (tc.freeSize[i] + 3) / 4
	if keep < 1 {
		keep = 1
	}

	split := tc.freeHead[i]
	for k := int64(1); k < keep; k++ {
		split = nextFree(split)
	}

	tail := nextFree(split)
	setNextFree(split, nil)

	returned := tc.freeSize[i] - keep
	tc.freeSize[i] = keep

	if tail != nil {
		blockSize := BlockSize(i)
		tc.central.returnRange(tail, returned*blockSize, i)
	}
}

// Release hands every block still resident in this ThreadCache back to
// CentralCache and marks the handle unusable.
func (tc *ThreadCache) Release() {
	if tc.released {
		return
	}
	for i := 0; i < FreeListSize; i++ {
		if tc.freeHead[i] != nil {
			blockSize := BlockSize(i)
			tc.central.returnRange(tc.freeHead[i], tc.freeSize[i]*blockSize, i)
			tc.freeHead[i] = nil
			tc.freeSize[i] = 0
		}
	}
	tc.released = true
}
