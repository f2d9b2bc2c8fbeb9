package api

import "unsafe"

import "github.com/JMJTC/memorypool/malloc"

var headerSize = int64(unsafe.Sizeof(int64(0)))

// Alloc allocates a single zero-valued T from tc and returns a typed
// pointer into it. Returns nil if tc (and the tiers beneath it) cannot
// satisfy the request.
func Alloc[T any](tc *malloc.ThreadCache) *T {
	var zero T
	size := int64(unsafe.Sizeof(zero))
	ptr, ok := tc.Allocate(size)
	if !ok {
		return nil
	}
	p := (*T)(ptr)
	*p = zero
	return p
}

// Free returns a value obtained from Alloc[T] to tc.
func Free[T any](tc *malloc.ThreadCache, p *T) {
	if p == nil {
		return
	}
	var zero T
	size := int64(unsafe.Sizeof(zero))
	tc.Deallocate(unsafe.Pointer(p), size)
}

// AllocSlice allocates a contiguous run of n zero-valued Ts, prefixed by
// a hidden header word recording n, so that FreeSlice can recover the
// original allocation size without the caller passing it back in.
func AllocSlice[T any](tc *malloc.ThreadCache, n int) []T {
	if n <= 0 {
		return nil
	}
	var zero T
	elemSize := int64(unsafe.Sizeof(zero))
	total := headerSize + elemSize*int64(n)

	ptr, ok := tc.Allocate(total)
	if !ok {
		return nil
	}
	*(*int64)(ptr) = int64(n)
	data := unsafe.Add(ptr, headerSize)
	s := unsafe.Slice((*T)(data), n)
	for i := range s {
		s[i] = zero
	}
	return s
}

// FreeSlice returns a slice obtained from AllocSlice[T] to tc, recovering
// the original allocation size from the slice's hidden header word.
func FreeSlice[T any](tc *malloc.ThreadCache, s []T) {
	if len(s) == 0 {
		return
	}
	var zero T
	elemSize := int64(unsafe.Sizeof(zero))

	data := unsafe.Pointer(&s[0])
	base := unsafe.Add(data, -headerSize)
	n := *(*int64)(base)
	total := headerSize + elemSize*n
	tc.Deallocate(base, total)
}

// Warmup pre-populates tc's free list for the size class covering size
// by allocating and immediately freeing k blocks, so that the first k
// real allocations of that size hit tc's lock-free fast path instead of
// faulting through to CentralCache. When k exceeds tc's bulk-return
// high-water mark, the frees trigger bulk returns to CentralCache and
// fewer than k blocks stay resident in tc.
func Warmup(tc *malloc.ThreadCache, size int64, k int) {
	ptrs := make([]unsafe.Pointer, 0, k)
	for i := 0; i < k; i++ {
		ptr, ok := tc.Allocate(size)
		if !ok {
			break
		}
		ptrs = append(ptrs, ptr)
	}
	for _, ptr := range ptrs {
		tc.Deallocate(ptr, size)
	}
}
