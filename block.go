package malloclab

// Block encoding.
//
// A block pointer ("bp" below, matching the original C naming) is an int
// offset addressing the first payload byte of a block, exactly as a C bp
// addresses the first payload byte. Every accessor computes a neighbor's bp
// purely from the boundary tags already in the heap — there is no side
// table mapping offsets to sizes.
//
//	[ header ][ ... payload (or next/prev links when free) ... ][ footer ]
//	^ hdr = bp-4                                                 ^ ftr = bp+size-8
//
// allocBit occupies bit 0 of the header/footer word; size occupies the
// remaining bits and is always a multiple of 8, so the low 3 bits of size
// are free to carry metadata (only bit 0 is used here).
const (
	allocBit     = 0x1
	sizeMask     = ^uint32(0x7)
	minBlockSize = 16
)

func header(bp int) int { return bp - wordSize }
func footer(bp, size int) int {
	return bp + size - dwordSize
}

func packHeader(size int, alloc bool) uint32 {
	v := uint32(size)
	if alloc {
		v |= allocBit
	}
	return v
}

func (h *heap) sizeOf(bp int) int {
	return int(h.u32(header(bp)) & sizeMask)
}

func (h *heap) allocOf(bp int) bool {
	return h.u32(header(bp))&allocBit != 0
}

func (h *heap) setHeader(bp, size int, alloc bool) {
	h.putU32(header(bp), packHeader(size, alloc))
}

func (h *heap) setFooter(bp, size int, alloc bool) {
	h.putU32(footer(bp, size), packHeader(size, alloc))
}

// setBoth writes matching header and footer; used whenever a block's size
// or allocation bit changes, to preserve invariant I1 (tag agreement).
func (h *heap) setBoth(bp, size int, alloc bool) {
	h.setHeader(bp, size, alloc)
	h.setFooter(bp, size, alloc)
}

// nextBlock returns the bp immediately following bp. Always safe to call,
// including on the last real block, because the epilogue sentinel's header
// (size 0, allocated) terminates the chain without a separate end-of-heap
// check.
func (h *heap) nextBlock(bp int) int {
	return bp + h.sizeOf(bp)
}

// prevBlock returns the bp immediately preceding bp by reading the
// predecessor's footer, which always sits in the 4 bytes directly before
// this block's header. Safe to call on the first real block because the
// prologue's 8-byte sentinel is marked allocated and has a footer of its
// own at that same fixed offset.
func (h *heap) prevBlock(bp int) int {
	prevFooterOff := bp - dwordSize
	prevSize := int(h.u32(prevFooterOff) & sizeMask)
	return bp - prevSize
}

// Free-block payload overlay: the first two words of a free block's payload
// hold the explicit list's next/prev offsets. Only valid while the block is
// unallocated; an allocated block's payload belongs entirely to the caller.
func (h *heap) getNext(bp int) int { return int(h.u32(bp)) }
func (h *heap) getPrev(bp int) int { return int(h.u32(bp + wordSize)) }
func (h *heap) setNext(bp, v int)  { h.putU32(bp, uint32(v)) }
func (h *heap) setPrev(bp, v int)  { h.putU32(bp+wordSize, uint32(v)) }

// align8 rounds n up to the next multiple of the double-word alignment.
func align8(n int) int {
	return (n + alignment - 1) &^ (alignment - 1)
}

// blockSizeFor converts a requested payload size into the block size that
// must be carved for it: align8(size + header/footer overhead), floored at
// the minimum legal block size.
func blockSizeFor(size int) int {
	asize := align8(size + dwordSize)
	if asize < minBlockSize {
		return minBlockSize
	}
	return asize
}

// payloadOf returns the usable payload capacity of a block of the given
// total size — the inverse of blockSizeFor's rounding, used by Reallocate to
// decide whether a request actually shrinks or grows relative to what bp
// already has room for.
func payloadOf(blockSize int) int {
	return blockSize - dwordSize
}
