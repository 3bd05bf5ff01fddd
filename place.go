package malloclab

// findFit performs a segregated first-fit search: starting at asize's own
// class, it walks that class's list looking for the first block big enough,
// then overflows to the next class up, and so on through class 15. Any
// class at or above k may legitimately satisfy the request since every
// block in a higher class is, by classOf's monotonicity, at least as large
// as anything in a lower one - the search only needs to walk class k itself
// with a size check because boxes above k are not size-homogeneous from
// below.
//
// On a hit, the returned bp has already been removed from its list (fusing
// the search with the removal avoids a second walk). Returns 0 if no class
// has a fit.
func (h *heap) findFit(asize int) int {
	for class := classOf(asize); class < numClasses; class++ {
		for bp := h.listHead(class); bp != 0; bp = h.getNext(bp) {
			if h.sizeOf(bp) >= asize {
				h.removeFree(bp)
				return bp
			}
		}
	}
	return 0
}

// place installs an asize-byte allocation at the head of bp, which must
// already be free, at least asize bytes, and already removed from its free
// list. If the remainder is at least the minimum block size it is split off
// as a new free block and reinserted; otherwise the whole block is handed
// to the caller, since a smaller remainder could never be tracked as a
// legal block of its own.
func (h *heap) place(bp, asize int) {
	total := h.sizeOf(bp)
	residue := total - asize

	if residue >= minBlockSize {
		h.setBoth(bp, asize, true)
		split := bp + asize
		h.setBoth(split, residue, false)
		h.insertFree(split)
		return
	}

	h.setBoth(bp, total, true)
}
