// Package malloclab implements a general-purpose dynamic memory allocator
// over a single, monotonically growing, externally-provided heap region. It
// exports the four classical primitives - Init, Allocate, Free, Reallocate -
// plus an optional consistency Check, and keeps all of its bookkeeping
// (boundary tags, segregated free lists, a prologue/epilogue pair) inside
// the heap region itself.
//
// The allocator is not goroutine-safe: every entry point must run to
// completion on the caller's goroutine before another call begins, exactly
// like the single-threaded C allocator this package is descended from.
package malloclab

import (
	"fmt"
	"os"
	"unsafe"
)

// defaultChunkSize is the number of bytes requested from the substrate
// whenever Allocate or Reallocate's fallback path needs more heap than a
// single free block can supply. 4096 matches the original implementation's
// CHUNKSIZE (1<<12): large enough to amortize the cost of a Grow call
// across many small allocations, small enough not to waste a full OS page
// on a lab workload that rarely needs more.
const defaultChunkSize = 4096

// Allocator is a single allocator instance. Its zero value is not ready for
// use - call Init (or NewAllocator, which calls it for you) before any other
// method. Every entry point is non-reentrant and must not be called
// concurrently from multiple goroutines; the single heap region is the
// allocator's only state and there is no internal locking.
type Allocator struct {
	h     heap
	chunk int

	epilogueOff int
	initialized bool

	allocs    int
	frees     int
	reallocs  int
	liveBytes int // sum of block sizes currently allocated
}

// NewAllocator constructs an Allocator backed by a fresh SliceSubstrate of
// the given arena capacity (0 means defaultArenaBytes) and initializes it.
// It panics only if Init itself would return an error for a brand-new
// substrate, which should not happen absent a programming error.
func NewAllocator(arenaBytes int) *Allocator {
	return NewAllocatorWithChunk(arenaBytes, defaultChunkSize)
}

// NewAllocatorWithChunk is like NewAllocator but overrides the heap
// extension granularity documented in §4.7 (CHUNK). chunk <= 0 falls back
// to defaultChunkSize.
func NewAllocatorWithChunk(arenaBytes, chunk int) *Allocator {
	if chunk <= 0 {
		chunk = defaultChunkSize
	}
	a := &Allocator{chunk: chunk}
	if err := a.InitWithSubstrate(NewSliceSubstrate(arenaBytes)); err != nil {
		panic(err)
	}
	return a
}

// NewAllocatorWithSubstrate constructs an Allocator over a caller-supplied,
// freshly constructed Substrate (see InitWithSubstrate) instead of the
// default SliceSubstrate - e.g. an MmapSubstrate for benchmarking against
// real OS-page growth. Unlike NewAllocator/NewAllocatorWithChunk it reports
// initialization failure as an error instead of panicking, since a
// platform-specific substrate (mmap, file mapping) can fail for reasons
// outside the caller's control.
func NewAllocatorWithSubstrate(sub Substrate, chunk int) (*Allocator, error) {
	if chunk <= 0 {
		chunk = defaultChunkSize
	}
	a := &Allocator{chunk: chunk}
	if err := a.InitWithSubstrate(sub); err != nil {
		return nil, err
	}
	return a, nil
}

// Init (re)initializes the allocator against a fresh SliceSubstrate,
// discarding any prior heap. Returns an error analogous to the classical
// implementation's -1 return; callers that need the literal int contract
// can use InitCode.
func (a *Allocator) Init() error {
	return a.InitWithSubstrate(NewSliceSubstrate(0))
}

// InitCode matches the classical signature: 0 on success, -1 on failure.
func (a *Allocator) InitCode() int {
	if a.Init() != nil {
		return -1
	}
	return 0
}

// InitWithSubstrate (re)initializes the allocator against sub, which must be
// freshly constructed (an empty region). It writes the prologue - padding,
// 16 empty free-list heads, an 8-byte allocated sentinel, and an epilogue -
// then extends the heap by one chunk to seed an initial free block. Safe to
// call again later to reset the allocator to a brand-new heap, provided sub
// is itself fresh.
func (a *Allocator) InitWithSubstrate(sub Substrate) (err error) {
	if traceEnabled() {
		defer func() {
			fmt.Fprintf(os.Stderr, "Init() %v\n", err)
		}()
	}

	a.h = heap{sub: sub}
	a.allocs, a.frees, a.reallocs, a.liveBytes = 0, 0, 0, 0
	a.initialized = false
	if a.chunk <= 0 {
		a.chunk = defaultChunkSize
	}

	if _, err = a.h.grow(prologueBytes); err != nil {
		return fmt.Errorf("%w: %v", ErrInitFailed, err)
	}

	// Sentinel: an 8-byte permanently-allocated block that lets prevBlock
	// read a valid footer for the very first real block without a
	// start-of-heap special case.
	a.h.setBoth(sentinelBlockBp, dwordSize, true)
	// Epilogue: a zero-size permanently-allocated header that lets
	// nextBlock/coalesce treat the end of the heap uniformly.
	a.h.putU32(initialEpilogueOff, packHeader(0, true))
	a.epilogueOff = initialEpilogueOff

	bp, err := a.extendHeap(a.chunk)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInitFailed, err)
	}
	a.h.insertFree(bp)
	a.initialized = true
	return nil
}

// extendHeap grows the substrate by exactly nbytes (already expected to be
// 8-aligned and >= minBlockSize) and carves the new region into one free
// block, reusing the old epilogue slot as the new block's header and
// writing a fresh epilogue at the new end of heap. The returned block is
// free, 8-aligned, and not a member of any free list.
func (a *Allocator) extendHeap(nbytes int) (int, error) {
	size := align8(nbytes)
	if size < minBlockSize {
		size = minBlockSize
	}

	base, err := a.h.grow(size)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrOutOfMemory, err)
	}

	bp := base
	a.h.setBoth(bp, size, false)
	newEpilogueOff := bp + size - wordSize
	a.h.putU32(newEpilogueOff, packHeader(0, true))
	a.epilogueOff = newEpilogueOff
	return bp, nil
}

// Allocate returns size freshly carved, uninitialized bytes, or
// ErrInvalidSize for a zero or negative size. The returned slice is 8-byte
// aligned at the start of its backing block and remains valid - and
// exclusively the caller's - until a matching Free or Reallocate.
func (a *Allocator) Allocate(size int) (r []byte, err error) {
	if traceEnabled() {
		defer func() {
			fmt.Fprintf(os.Stderr, "Allocate(%d) len=%d err=%v\n", size, len(r), err)
		}()
	}
	if !a.initialized {
		return nil, ErrNotInitialized
	}
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	asize := blockSizeFor(size)
	bp := a.h.findFit(asize)
	if bp == 0 {
		extend := asize
		if a.chunk > extend {
			extend = a.chunk
		}
		newBp, growErr := a.extendHeap(extend)
		if growErr != nil {
			return nil, growErr
		}
		bp = a.h.coalesce(newBp)
	}

	a.h.place(bp, asize)
	a.allocs++
	a.liveBytes += a.h.sizeOf(bp)
	return a.payload(bp, size), nil
}

// Free releases ptr, which must have been returned by a prior Allocate or
// Reallocate on this same Allocator and not since freed; violating that
// precondition is undefined behavior and is not detected, matching the
// classical allocator contract. Free is a no-op for a ptr with zero
// capacity (including nil); a zero-length slice that still has capacity is
// re-extended to its capacity and its block is freed.
func (a *Allocator) Free(ptr []byte) (err error) {
	if traceEnabled() {
		defer func() {
			fmt.Fprintf(os.Stderr, "Free(len=%d) %v\n", len(ptr), err)
		}()
	}
	ptr = ptr[:cap(ptr)]
	if len(ptr) == 0 {
		return nil
	}
	if !a.initialized {
		return ErrNotInitialized
	}

	bp := a.bpOf(ptr)
	size := a.h.sizeOf(bp)
	a.h.setBoth(bp, size, false)
	merged := a.h.coalesce(bp)
	a.h.insertFree(merged)
	a.frees++
	a.liveBytes -= size
	return nil
}

// Reallocate resizes the allocation at ptr to size bytes, per the classical
// realloc contract: a nil ptr behaves as Allocate(size); a zero size behaves
// as Free(ptr) followed by a nil return. Otherwise it tries, in order, to
// shrink in place, grow into a free right neighbor, grow into a free left
// neighbor (moving the payload with an overlap-safe copy), grow into both
// neighbors at once, and finally falls back to allocate+copy+free. On
// failure (only possible in the fallback path) ptr is left completely
// intact and valid.
func (a *Allocator) Reallocate(ptr []byte, size int) (r []byte, err error) {
	if traceEnabled() {
		defer func() {
			fmt.Fprintf(os.Stderr, "Reallocate(len=%d, %d) len=%d err=%v\n", len(ptr), size, len(r), err)
		}()
	}

	ptr = ptr[:cap(ptr)]
	if len(ptr) == 0 {
		return a.Allocate(size)
	}
	if size == 0 {
		return nil, a.Free(ptr)
	}
	if !a.initialized {
		return nil, ErrNotInitialized
	}

	a.reallocs++
	bp := a.bpOf(ptr)
	old := a.h.sizeOf(bp)
	msize := blockSizeFor(size)

	var finalBp int
	var out []byte
	switch {
	case msize <= old:
		finalBp, out = a.shrinkInPlace(bp, old, msize, size)
	default:
		var ok bool
		finalBp, out, ok = a.growIntoNeighbors(bp, old, msize, size)
		if !ok {
			return a.reallocFallback(ptr, old, size)
		}
	}

	a.liveBytes += a.h.sizeOf(finalBp) - old
	return out, nil
}

// shrinkInPlace implements Reallocate's fast path 1: split off the
// residue when it is large enough to stand as its own block (merging it
// with a free right neighbor before listing it), otherwise leave bp at its
// current size untouched rather than produce an unmanageable sub-minimum
// fragment.
func (a *Allocator) shrinkInPlace(bp, old, msize, size int) (int, []byte) {
	residue := old - msize
	if residue >= minBlockSize {
		a.h.setBoth(bp, msize, true)
		split := bp + msize
		a.h.setBoth(split, residue, false)
		a.h.insertFree(a.h.coalesce(split))
	}
	return bp, a.payload(bp, size)
}

// growIntoNeighbors implements Reallocate's fast paths 2-4, branching on
// (prevFree, nextFree) exactly as the original mm_realloc does (mm.c:334-417)
// rather than searching for the first neighbor combination that happens to
// supply enough bytes. In particular, when both neighbors are free, the
// both-neighbors path is always taken - growing right alone is never
// preferred even if it alone would have sufficed - because absorbing only
// the right neighbor there would silently leave the free left neighbor
// behind and move the block to the wrong final address (spec.md §8 scenario
// 3: reallocating with both a free left and a free right neighbor must
// return the left neighbor's original address). Returns ok=false if the
// available combination for this (prevFree, nextFree) state still isn't
// enough, in which case bp and the heap are left untouched.
func (a *Allocator) growIntoNeighbors(bp, old, msize, size int) (finalBp int, r []byte, ok bool) {
	next := a.h.nextBlock(bp)
	prev := a.h.prevBlock(bp)
	nextFree := !a.h.allocOf(next)
	prevFree := !a.h.allocOf(prev)

	switch {
	case !prevFree && !nextFree:
		return 0, nil, false

	case !prevFree && nextFree:
		merged := old + a.h.sizeOf(next)
		if merged < msize {
			return 0, nil, false
		}
		a.h.removeFree(next)
		a.h.setBoth(bp, merged, false) // bp's header must reflect the merged size before place reads it
		a.h.place(bp, msize)
		return bp, a.payload(bp, size), true

	case prevFree && !nextFree:
		merged := old + a.h.sizeOf(prev)
		if merged < msize {
			return 0, nil, false
		}
		fbp, r := a.growIntoLeft(bp, prev, old, msize, size)
		return fbp, r, true

	default: // both free
		merged := old + a.h.sizeOf(prev) + a.h.sizeOf(next)
		if merged < msize {
			return 0, nil, false
		}
		withNext := old + a.h.sizeOf(next)
		a.h.removeFree(next)
		a.h.setBoth(bp, withNext, false) // fold next's bytes into bp, still just a plain free block
		fbp, r := a.growIntoLeft(bp, prev, withNext, msize, size)
		return fbp, r, true
	}
}

// growIntoLeft absorbs prev (already known free and large enough together
// with bp's own size to cover msize), moving the live payload down with an
// overlap-safe copy before any new header/footer write could otherwise
// clobber bytes still to be read. bp's own size (curSize) may itself
// already include an absorbed right neighbor (see the both-neighbors case
// above), so the copy always uses the true current payload length.
func (a *Allocator) growIntoLeft(bp, prev, curSize, msize, size int) (int, []byte) {
	a.h.removeFree(prev)
	total := curSize + a.h.sizeOf(prev)
	copyLen := payloadOf(curSize)

	b := a.h.bytes()
	// prev < bp always (prev is bp's left neighbor), so this is a
	// forward-overlapping move: copy low-to-high is safe only because the
	// destination start (prev) is <= the source start (bp). Go's built-in
	// copy already handles overlap correctly for a single slice, but prev
	// and bp are views of the very same backing array, so go through one
	// shared slice rather than two independently-bounded ones.
	copy(b[prev:prev+copyLen], b[bp:bp+copyLen])

	residue := total - msize
	if residue >= minBlockSize {
		a.h.setBoth(prev, msize, true)
		split := prev + msize
		a.h.setBoth(split, residue, false)
		a.h.insertFree(split)
	} else {
		a.h.setBoth(prev, total, true)
	}
	return prev, a.payload(prev, size)
}

// reallocFallback implements Reallocate's fast path 5: allocate a fresh
// block, copy the overlap of old and new payloads, and free the original.
// If the allocation fails, the error is returned and ptr is left completely
// untouched so the caller's existing data is never lost.
func (a *Allocator) reallocFallback(ptr []byte, old, size int) ([]byte, error) {
	fresh, err := a.Allocate(size)
	if err != nil {
		return nil, err
	}

	n := payloadOf(old)
	if n > size {
		n = size
	}
	if n > len(ptr) {
		n = len(ptr)
	}
	copy(fresh, ptr[:n])
	if err := a.Free(ptr); err != nil {
		return nil, err
	}
	return fresh, nil
}

// bpOf recovers a block pointer (payload offset) from a []byte the
// allocator itself previously returned, by way of its offset into the
// substrate's backing array. Passing a slice this allocator did not return
// is undefined behavior, as with any foreign pointer passed to free/realloc.
func (a *Allocator) bpOf(ptr []byte) int {
	base := uintptr(unsafe.Pointer(&a.h.bytes()[0]))
	off := uintptr(unsafe.Pointer(&ptr[0]))
	return int(off - base)
}

// payload returns the want-byte prefix of bp's payload area as a slice
// aliasing the heap's backing array directly - no copy, no auxiliary
// allocation.
func (a *Allocator) payload(bp, want int) []byte {
	b := a.h.bytes()
	return b[bp : bp+want : bp+a.h.sizeOf(bp)-dwordSize]
}

// Stats reports simple running counters useful for scoring and debugging;
// it is not part of the classical API and carries no behavior of its own.
type Stats struct {
	Allocs    int
	Frees     int
	Reallocs  int
	LiveBytes int
	HeapBytes int
}

// Stats returns a snapshot of the allocator's bookkeeping counters.
func (a *Allocator) Stats() Stats {
	return Stats{
		Allocs:    a.allocs,
		Frees:     a.frees,
		Reallocs:  a.reallocs,
		LiveBytes: a.liveBytes,
		HeapBytes: a.h.hi(),
	}
}

// Utilization returns live allocated block bytes divided by total heap bytes
// grown so far. It counts whole block sizes (header, footer and alignment
// padding included), not the byte counts callers requested, since the
// allocator records only block sizes. It is a point-in-time snapshot.
func (a *Allocator) Utilization() float64 {
	heap := a.h.hi()
	if heap == 0 {
		return 0
	}
	return float64(a.liveBytes) / float64(heap)
}
