// Package lib holds small, self-contained helpers shared by the rest of
// this module -- settings lookup and running statistics -- that have no
// business knowing what a size class or a span is. Nothing here imports
// anything above the standard library.
package lib
