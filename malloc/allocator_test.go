package malloc

import "sync"
import "testing"
import "unsafe"

func TestDeallocateNilIsNoopEvenWithoutPriorAllocate(t *testing.T) {
	saved := processCache
	processCache = nil
	defer func() { processCache = saved }()

	Deallocate(nil, 40)
}

// TestAllocateConcurrentCallersGetDistinctBlocks drives the package-level
// Allocate/Deallocate from many goroutines at once against the shared
// process-wide ThreadCache. Every outstanding pointer must be unique
// among goroutines holding blocks concurrently -- if processCacheMu ever
// stopped serializing access, two goroutines could observe the same
// freeHead entry and hand out the same address twice.
func TestAllocateConcurrentCallersGetDistinctBlocks(t *testing.T) {
	const goroutines, perGoroutine = 32, 200

	var mu sync.Mutex
	outstanding := make(map[unsafe.Pointer]bool)

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			for n := 0; n < perGoroutine; n++ {
				ptr, ok := Allocate(64)
				if !ok {
					t.Errorf("Allocate(64) failed")
					return
				}

				mu.Lock()
				if outstanding[ptr] {
					mu.Unlock()
					t.Errorf("Allocate(64) returned an already-outstanding block %p", ptr)
					return
				}
				outstanding[ptr] = true
				mu.Unlock()

				mu.Lock()
				delete(outstanding, ptr)
				mu.Unlock()
				Deallocate(ptr, 64)
			}
		}()
	}
	wg.Wait()
}
