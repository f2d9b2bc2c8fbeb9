package malloc

import "testing"
import "unsafe"

func TestFetchRangeCarvesFreshSpan(t *testing.T) {
	cc := newCentralCache(newPageCache())
	defer cc.pages.Close()

	i := IndexOf(64)
	block, ok := cc.fetchRange(i)
	if !ok || block == nil {
		t.Fatalf("fetchRange(%v) failed", i)
	}
	if nextFree(block) != nil {
		t.Fatalf("detached block must have a nil next pointer")
	}

	cls := &cc.classes[i]
	blockSize := BlockSize(i)
	expectCount := (SpanPages*PageSize)/blockSize - 1
	if cls.count != expectCount {
		t.Fatalf("expected %v blocks left on free list, got %v", expectCount, cls.count)
	}
}

func TestFetchRangeReusesFreeListBeforeNewSpan(t *testing.T) {
	cc := newCentralCache(newPageCache())
	defer cc.pages.Close()

	i := IndexOf(64)
	first, ok := cc.fetchRange(i)
	if !ok {
		t.Fatalf("fetchRange failed")
	}
	// Keep a second block outstanding so returning the first does not
	// complete the span's free set and trigger an eager delayed return.
	second, ok := cc.fetchRange(i)
	if !ok {
		t.Fatalf("fetchRange failed")
	}
	cc.returnRange(first, BlockSize(i), i)

	spansBefore := cc.spanCount
	third, ok := cc.fetchRange(i)
	if !ok {
		t.Fatalf("fetchRange failed")
	}
	if third != first {
		t.Fatalf("expected the just-returned block back, got a different one")
	}
	if cc.spanCount != spansBefore {
		t.Fatalf("fetchRange should not have carved a new span")
	}
	cc.returnRange(second, BlockSize(i), i)
}

func TestPerformDelayReturnReclaimsFullyIdleSpan(t *testing.T) {
	cc := newCentralCache(newPageCache())
	defer cc.pages.Close()

	i := IndexOf(4096) // block size 4096: span of SpanPages carves into 8 blocks
	blockSize := BlockSize(i)

	var blocks []unsafe.Pointer
	for {
		block, ok := cc.fetchRange(i)
		if !ok {
			t.Fatalf("fetchRange failed")
		}
		blocks = append(blocks, block)
		owner := cc.trackerOwning(block)
		if owner == nil {
			t.Fatalf("carved block has no owning tracker")
		}
		if owner.blockCount == int64(len(blocks)) {
			break
		}
	}

	for _, block := range blocks {
		cc.returnRange(block, blockSize, i)
	}

	cls := &cc.classes[i]
	cls.lock.lock()
	cc.performDelayReturn(cls, i)
	cls.lock.unlock()

	if cls.head != nil {
		t.Fatalf("expected every block to be reclaimed from the free list")
	}

	counts := cc.pages.FreeSpanCount()
	if counts[SpanPages] != 1 {
		t.Fatalf("expected the reclaimed span back in PageCache, got counts=%v", counts)
	}
}
