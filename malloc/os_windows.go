//go:build windows

package malloc

import "golang.org/x/sys/windows"

// mmapPages obtains n pages of zero-initialized memory backed by an
// anonymous file mapping, mirroring the reference's Windows path:
// CreateFileMapping(INVALID_HANDLE_VALUE, ..., PAGE_READWRITE, ...) +
// MapViewOfFile.
func mmapPages(n int64) (uintptr, bool) {
	size := uint64(n * PageSize)
	h, err := windows.CreateFileMapping(
		windows.InvalidHandle, nil, windows.PAGE_READWRITE,
		uint32(size>>32), uint32(size), nil)
	if err != nil || h == 0 {
		return 0, false
	}
	addr, err := windows.MapViewOfFile(h, windows.FILE_MAP_WRITE, 0, 0, uintptr(size))
	windows.CloseHandle(h)
	if err != nil {
		return 0, false
	}
	return addr, true
}

// munmapPages releases n pages previously obtained from mmapPages.
func munmapPages(addr uintptr, _ int64) {
	windows.UnmapViewOfFile(addr)
}
