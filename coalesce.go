package malloclab

// coalesce merges bp with any free immediate neighbor. bp must already carry
// a free header/footer but must not yet be a member of any size-class list;
// any neighbor absorbed here is first removed from its own list. The
// prologue sentinel and the epilogue are always marked allocated, so the
// neighbor lookups below never need a separate end-of-heap check.
//
// Returns the bp of the resulting free block (bp itself, or whichever
// neighbor absorbed it), still not on any list - the caller either registers
// it with insertFree (Free, Reallocate's shrink path) or hands it straight
// to place (Allocate, after extendHeap).
func (h *heap) coalesce(bp int) int {
	prev := h.prevBlock(bp)
	next := h.nextBlock(bp)
	prevFree := !h.allocOf(prev)
	nextFree := !h.allocOf(next)
	size := h.sizeOf(bp)

	switch {
	case !prevFree && !nextFree:
		return bp

	case !prevFree && nextFree:
		h.removeFree(next)
		size += h.sizeOf(next)
		h.setBoth(bp, size, false)
		return bp

	case prevFree && !nextFree:
		h.removeFree(prev)
		size += h.sizeOf(prev)
		h.setBoth(prev, size, false)
		return prev

	default: // both free
		h.removeFree(prev)
		h.removeFree(next)
		size += h.sizeOf(prev) + h.sizeOf(next)
		h.setBoth(prev, size, false)
		return prev
	}
}
