package malloc

import "sync"
import "testing"
import "unsafe"

// freshStack builds an isolated ThreadCache/CentralCache/PageCache triple
// so tests never share state with the package-level singletons or with
// each other.
func freshStack() *ThreadCache {
	return newThreadCache(newCentralCache(newPageCache()))
}

func TestScenarioLIFOLaw(t *testing.T) {
	tc := freshStack()
	defer tc.central.pages.Close()

	a, ok := tc.Allocate(40)
	if !ok {
		t.Fatalf("Allocate failed")
	}
	tc.Deallocate(a, 40)
	b, ok := tc.Allocate(40)
	if !ok {
		t.Fatalf("Allocate failed")
	}
	if a != b {
		t.Fatalf("freeing then re-allocating the same size must return the same block")
	}
}

func TestScenarioSizeClassBoundary(t *testing.T) {
	if IndexOf(8) == IndexOf(9) {
		t.Fatalf("8 and 9 bytes must map to different size classes")
	}
	if IndexOf(MaxBytes) != FreeListSize-1 {
		t.Fatalf("MaxBytes must map to the largest size class")
	}
}

func TestScenarioSpanReclamation(t *testing.T) {
	tc := freshStack()
	defer tc.central.pages.Close()

	i := IndexOf(4096)
	blockSize := BlockSize(i)

	var blocks []unsafe.Pointer
	for {
		ptr, ok := tc.central.fetchRange(i)
		if !ok {
			t.Fatalf("fetchRange failed")
		}
		blocks = append(blocks, ptr)
		owner := tc.central.trackerOwning(ptr)
		if owner.blockCount == int64(len(blocks)) {
			break
		}
	}

	for _, ptr := range blocks {
		tc.central.returnRange(ptr, blockSize, i)
	}
	cls := &tc.central.classes[i]
	cls.lock.lock()
	tc.central.performDelayReturn(cls, i)
	cls.lock.unlock()

	if cls.head != nil {
		t.Fatalf("span's blocks must have left CentralCache once all returned")
	}
	counts := tc.central.pages.FreeSpanCount()
	if counts[SpanPages] != 1 {
		t.Fatalf("reclaimed span must be present in PageCache, got %v", counts)
	}
}

func TestScenarioLargeBypass(t *testing.T) {
	tc := freshStack()
	defer tc.central.pages.Close()

	n := int64(300 * 1024)
	spansBefore := tc.central.pages.FreeSpanCount()

	ptr, ok := tc.Allocate(n)
	if !ok {
		t.Fatalf("large Allocate failed")
	}
	tc.Deallocate(ptr, n)

	spansAfter := tc.central.pages.FreeSpanCount()
	if len(spansAfter) != len(spansBefore) {
		t.Fatalf("large allocation must never reach PageCache")
	}
}

func TestScenarioNullDeallocateIsNoop(t *testing.T) {
	tc := freshStack()
	defer tc.central.pages.Close()

	tc.Deallocate(nil, 40)
	i := IndexOf(40)
	if tc.freeHead[i] != nil || tc.freeSize[i] != 0 {
		t.Fatalf("deallocating a nil pointer must not touch the free list")
	}

	tc.Deallocate(nil, MaxBytes+1)
}

func TestScenarioMultithreadedStress(t *testing.T) {
	tc := freshStack()
	defer tc.central.pages.Close()

	const goroutines, perGoroutine = 16, 200
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func(seed int) {
			defer wg.Done()
			local := newThreadCache(tc.central)
			sizes := []int64{8, 64, 512, 4096}
			type loan struct {
				ptr  unsafe.Pointer
				size int64
			}
			var held []loan
			for n := 0; n < perGoroutine; n++ {
				size := sizes[(seed+n)%len(sizes)]
				ptr, ok := local.Allocate(size)
				if !ok {
					t.Errorf("Allocate(%v) failed in goroutine %v", size, seed)
					return
				}
				held = append(held, loan{ptr, size})
				if len(held) > 8 {
					local.Deallocate(held[0].ptr, held[0].size)
					held = held[1:]
				}
			}
		}(g)
	}
	wg.Wait()
}

func TestScenarioCoalescing(t *testing.T) {
	pc := newPageCache()
	defer pc.Close()

	low, ok := pc.AllocateSpan(4)
	if !ok {
		t.Fatalf("AllocateSpan(4) failed")
	}
	high, ok := pc.AllocateSpan(4)
	if !ok {
		t.Fatalf("AllocateSpan(4) failed")
	}
	if high != low+uintptr(4*PageSize) {
		t.Skip("allocator did not hand back adjacent spans in this run")
	}

	pc.DeallocateSpan(high, 4)
	pc.DeallocateSpan(low, 4)

	counts := pc.FreeSpanCount()
	if counts[8] != 1 {
		t.Fatalf("expected a single coalesced 8-page span, got %v", counts)
	}
}
