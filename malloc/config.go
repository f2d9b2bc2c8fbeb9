package malloc

import sigar "github.com/cloudfoundry/gosigar"

import "github.com/JMJTC/memorypool/lib"

// Defaultsettings returns a starting configuration for a standalone
// allocator instance, sizing its soft OS-request cap off this machine's
// currently free RAM the same way the storage-engine configs in this
// codebase size their key/value arenas.
//
// "maxbytes" (int64, default: MaxBytes)
//		The size above which requests go straight to the OS. No
//		constructor reads this key; the cutoff is always MaxBytes.
//
// "capacity" (int64)
//		Half of free RAM at the time of the call. No constructor reads
//		this key, and nothing in this package caps OS requests by it.
//
// "threshold" (int64, default: Threshold)
//		ThreadCache free-list high-water mark before a bulk return to
//		CentralCache is triggered.
//
// "maxdelaycount" (int64, default: MaxDelayCount)
//		CentralCache return-count threshold before a delayed-return
//		sweep is forced.
func Defaultsettings() lib.Settings {
	_, _, free := getsysmem()
	return lib.Settings{
		"maxbytes":      MaxBytes,
		"capacity":      int64(free / 2),
		"threshold":     int64(Threshold),
		"maxdelaycount": int64(MaxDelayCount),
	}
}

func getsysmem() (total, used, free uint64) {
	mem := sigar.Mem{}
	mem.Get()
	return mem.Total, mem.Used, mem.Free
}
