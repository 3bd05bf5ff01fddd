package malloclab

// Free-list registry.
//
// The prologue reserves 20 words at the very start of the heap:
//
//	word 0       padding (alignment)
//	words 1..16  one head offset per size class, 0 meaning "empty"
//	word 17      prologue sentinel header (size=8, allocated)
//	word 18      prologue sentinel footer
//	word 19      epilogue header (size=0, allocated) at init time
//
// A free block's own prev link either names another free block's bp, or -
// for the first node in a class - names the class's head slot itself. Since
// every head-slot offset is < firstBlockOffset and every real bp is >=
// firstBlockOffset, remove can tell the two apart with one comparison
// instead of a null check, exactly as the design notes call for.
const (
	prologueWords      = 1 /* pad */ + numClasses /* heads */ + 2 /* sentinel */ + 1 /* epilogue */
	prologueBytes      = prologueWords * wordSize
	sentinelHeaderOff  = prologueBytes - 3*wordSize
	sentinelBlockBp    = prologueBytes - 2*wordSize
	firstBlockOffset   = prologueBytes
	initialEpilogueOff = prologueBytes - wordSize
)

func headOffset(class int) int { return wordSize * (1 + class) }

func (h *heap) listHead(class int) int {
	return int(h.u32(headOffset(class)))
}

func (h *heap) setListHead(class, bp int) {
	h.putU32(headOffset(class), uint32(bp))
}

// insertFree pushes bp onto the head of its size class's list. bp must already
// have a valid header (so its size, and therefore its class, can be read);
// it must not currently be a member of any list.
func (h *heap) insertFree(bp int) {
	class := classOf(h.sizeOf(bp))
	head := headOffset(class)
	first := h.listHead(class)

	h.setNext(bp, first)
	h.setPrev(bp, head)
	if first != 0 {
		h.setPrev(first, bp)
	}
	h.setListHead(class, bp)
}

// removeFree unlinks bp from whatever list it is currently on. O(1): bp
// carries both neighbor links, so no traversal is needed.
func (h *heap) removeFree(bp int) {
	next := h.getNext(bp)
	prev := h.getPrev(bp)

	if next != 0 {
		h.setPrev(next, prev)
	}
	if prev < firstBlockOffset {
		// prev names a class's head slot, not a block.
		h.putU32(prev, uint32(next))
	} else {
		h.setNext(prev, next)
	}
}
