// Package gptr defines the address handles used to refer to persistent
// objects inside a fabric memory pool.
//
//   - Gptr: an opaque global pointer (pool id + offset). Null denotes "no object".
//   - TagGptr: a Gptr plus a monotonically increasing version tag. Tagged pointers
//     are how callers of the kvs package detect that a cached handle went stale:
//     the address alone is not enough since address space may be reclaimed and
//     reused, and a slot that is deleted and written again points somewhere else
//     with a higher tag.
//
// Both types are small values, copy them freely. Holding a handle does not keep
// the object alive.
package gptr
