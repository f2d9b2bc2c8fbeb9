package malloc

import "testing"
import "unsafe"

func newTestThreadCache() *ThreadCache {
	return newThreadCache(newCentralCache(newPageCache()))
}

func TestThreadCacheAllocateDeallocateLIFO(t *testing.T) {
	tc := newTestThreadCache()
	defer tc.central.pages.Close()

	a, ok := tc.Allocate(32)
	if !ok {
		t.Fatalf("Allocate(32) failed")
	}
	tc.Deallocate(a, 32)

	b, ok := tc.Allocate(32)
	if !ok {
		t.Fatalf("Allocate(32) failed")
	}
	if a != b {
		t.Fatalf("expected LIFO reuse of the freed block, got a=%v b=%v", a, b)
	}
}

func TestThreadCacheDrainsPastThreshold(t *testing.T) {
	tc := newTestThreadCache()
	defer tc.central.pages.Close()

	i := IndexOf(16)
	var blocks []unsafe.Pointer
	for n := int64(0); n <= Threshold; n++ {
		ptr, ok := tc.Allocate(16)
		if !ok {
			t.Fatalf("Allocate(16) failed")
		}
		blocks = append(blocks, ptr)
	}
	for _, ptr := range blocks {
		tc.Deallocate(ptr, 16)
	}

	if tc.freeSize[i] > Threshold {
		t.Fatalf("expected a drain once past Threshold, got freeSize=%v", tc.freeSize[i])
	}
	if tc.freeSize[i] < 1 {
		t.Fatalf("drain must retain at least one block")
	}
}

func TestThreadCacheLargeBypassesTiers(t *testing.T) {
	tc := newTestThreadCache()
	defer tc.central.pages.Close()

	spanCountBefore := tc.central.spanCount
	spansBefore := tc.central.pages.FreeSpanCount()

	ptr, ok := tc.Allocate(MaxBytes + 1)
	if !ok {
		t.Fatalf("large Allocate failed")
	}
	tc.Deallocate(ptr, MaxBytes+1)

	i := IndexOf(MaxBytes)
	if tc.freeSize[i] != 0 {
		t.Fatalf("large allocation must not touch ThreadCache's size-class free lists")
	}
	if tc.central.spanCount != spanCountBefore {
		t.Fatalf("large allocation must not touch CentralCache's span trackers")
	}
	spansAfter := tc.central.pages.FreeSpanCount()
	if len(spansAfter) != len(spansBefore) {
		t.Fatalf("large allocation must not touch PageCache's free spans")
	}
}

func TestThreadCacheReleaseReturnsEverything(t *testing.T) {
	tc := newTestThreadCache()
	defer tc.central.pages.Close()

	ptr, ok := tc.Allocate(24)
	if !ok {
		t.Fatalf("Allocate(24) failed")
	}
	tc.Deallocate(ptr, 24)
	tc.Release()

	i := IndexOf(24)
	if tc.freeHead[i] != nil {
		t.Fatalf("expected Release to detach every free-list head")
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected a panic from a released ThreadCache")
			}
		}()
		tc.Allocate(24)
	}()
}
