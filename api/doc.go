// Package api provides a typed convenience layer over package malloc's
// raw unsafe.Pointer allocator, in the shape of the Mallocer interface
// this codebase has always exposed around its memory pools: allocate and
// free a single value, or a slice of values, without the caller handling
// byte-size arithmetic directly.
package api
