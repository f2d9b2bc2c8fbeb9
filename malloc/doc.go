// Package malloc implements a three-tier general-purpose allocator for
// small and medium objects, modeled on the TCMalloc/jemalloc family:
//
//	ThreadCache -> CentralCache -> PageCache -> OS
//
// ThreadCache is a lock-free, per-goroutine-owner front cache of free
// lists, one per size class. CentralCache is a process-wide cache of free
// lists guarded by one spinlock per size class, refilled from PageCache in
// whole spans and carved into equally sized blocks. PageCache is a
// process-wide, mutex-guarded best-fit cache of page-aligned spans backed
// by anonymous memory obtained from the OS.
//
// Free blocks thread their own storage: a free block's first machine word
// holds the address of the next free block in its list, or nil. This
// costs nothing in metadata but means the allocator must never touch a
// block once it is handed to a caller, and a caller must never touch the
// first word of a block it no longer owns. That boundary is enforced
// entirely through unsafe.Pointer arithmetic confined to this package;
// nothing above malloc needs to, or is allowed to, see it.
//
// Requests larger than MaxBytes bypass the tiered cache entirely and are
// satisfied directly by the OS, transparently, through the same
// ThreadCache.Allocate/Deallocate and package-level Allocate/Deallocate
// entry points used for everything else.
//
// Types and functions in this package are safe for concurrent use from
// multiple goroutines, with the exception of ThreadCache, whose value
// must be owned by a single goroutine for its entire lifetime. Go has no
// safe goroutine-local storage, so unlike the C++ reference this package
// never fakes thread-local access: callers that want the ThreadCache tier
// must obtain one explicitly with NewThreadCache and Release it when done.
package malloc

// TODO: PageCache coalesces forward only; a bidirectional coalescer keyed
// off spanMap would repair backward fragmentation left by this scheme.
