//go:build unix

package malloc

import "unsafe"

import "golang.org/x/sys/unix"

// mmapPages obtains n pages of zero-initialized, anonymous, private
// memory from the OS. Mirrors the reference's POSIX path (mmap with
// MAP_PRIVATE|MAP_ANON, PROT_READ|PROT_WRITE).
func mmapPages(n int64) (uintptr, bool) {
	length := int(n * PageSize)
	data, err := unix.Mmap(-1, 0, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return 0, false
	}
	return uintptr(unsafe.Pointer(&data[0])), true
}

// munmapPages releases n pages previously obtained from mmapPages. Used
// by deallocateLarge for large blocks and by PageCache.Close at explicit
// teardown -- PageCache otherwise retains every span it has ever mapped
// for reuse.
func munmapPages(addr uintptr, n int64) {
	length := int(n * PageSize)
	data := unsafe.Slice((*byte)(unsafe.Pointer(addr)), length)
	unix.Munmap(data)
}
