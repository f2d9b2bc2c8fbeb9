package malloc

// RoundUp rounds n up to the next multiple of Alignment.
func RoundUp(n int64) int64 {
	return (n + Alignment - 1) &^ (Alignment - 1)
}

// IndexOf returns the size-class index serving a request of n bytes.
// Zero-sized requests are promoted to one alignment unit before
// indexing. Callers must check n against MaxBytes themselves -- IndexOf
// does not route large requests to the OS, it just computes the class
// that would hold them.
func IndexOf(n int64) int {
	if n < Alignment {
		n = Alignment
	}
	return int(RoundUp(n)/Alignment) - 1
}

// BlockSize returns the block size, in bytes, of size class i.
func BlockSize(i int) int64 {
	return int64(i+1) * Alignment
}
