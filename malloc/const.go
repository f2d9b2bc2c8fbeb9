package malloc

import "time"

// Alignment every block handed out by this package is a multiple of
// Alignment bytes, and Alignment itself is the smallest block size.
const Alignment = int64(8)

// MaxBytes largest request size serviced by the tiered cache. Requests
// above this go straight to the OS.
const MaxBytes = int64(256 * 1024)

// FreeListSize number of size classes, one per Alignment-sized step up
// to MaxBytes.
const FreeListSize = int(MaxBytes / Alignment)

// PageSize granularity at which PageCache deals with the OS.
const PageSize = int64(4096)

// SpanPages default number of pages CentralCache requests from PageCache
// when refilling a size class whose block size fits within a
// SpanPages-sized span.
const SpanPages = int64(8)

// Threshold high-water mark: the deallocate that grows a ThreadCache
// free list for a size class past this many blocks returns part of the
// list to CentralCache in bulk.
const Threshold = 64

// MaxDelayCount number of accumulated returns to a CentralCache size
// class that force a delayed-return sweep even if DelayInterval has not
// elapsed.
const MaxDelayCount = 48

// DelayInterval wall-clock interval that, once elapsed since the last
// delayed-return sweep of a size class, forces another sweep.
const DelayInterval = 1 * time.Second

// maxSpanTrackers fixed capacity of CentralCache's span-tracker table.
// Spans issued once this table is full are still usable but are never
// returned to PageCache -- a deliberate bounded-memory degradation, not
// a fault.
const maxSpanTrackers = 1024
