// Package pool emulates the fabric-attached memory that fKV stores live in.
//
// A fabric holds heaps, identified by (Base, User, HeapID). Every process
// component that opens the same identity shares the same Heap, which is how
// independent store instances observe one coherent view of the data.
//
// Key Components:
//
//   - Heap: a bounded allocator. Alloc hands out global pointers (gptr.Gptr)
//     that encode the heap id and an offset; Load and Bytes dereference them.
//     Allocation sizes are rounded up to 64 byte blocks, freed blocks are
//     recycled through per-size free lists.
//
//   - Deferred reclamation: an object that a concurrent reader may still be
//     dereferencing (for example the old payload after a value overwrite) must
//     not be freed immediately. Writers call DelayedFree, which records the
//     current epoch in a retire heap. Readers wrap every dereference in
//     Enter/Exit, which pins the epoch they started in. Maintenance advances
//     the epoch and frees every retiree that is older than all pinned epochs.
//     Objects are only ever reclaimed inside Maintenance.
//
//   - Registry: Open, Lookup and Destroy manage the heaps of the fabric.
//
// Note: the heap does not persist across process restarts. The layout of the
// memory pool on real hardware is out of scope for fKV.
package pool
