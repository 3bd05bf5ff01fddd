package malloclab

import "fmt"

// Check is the optional debug consistency checker from §4.10: it scans the
// heap and the free lists and reports whether every invariant in §3/§8
// still holds. It is not on any allocation hot path and exists purely for
// development and test assertions - callers that do not care about the
// reason for a failure can ignore the returned message.
func (a *Allocator) Check() (ok bool, reason string) {
	if !a.initialized {
		return false, "allocator not initialized"
	}

	inList := map[int]bool{}
	for class := 0; class < numClasses; class++ {
		for bp := a.h.listHead(class); bp != 0; bp = a.h.getNext(bp) {
			if a.h.allocOf(bp) {
				return false, fmt.Sprintf("block at %d is on free list %d but marked allocated", bp, class)
			}
			if got := classOf(a.h.sizeOf(bp)); got != class {
				return false, fmt.Sprintf("block at %d belongs to class %d, found on class %d's list", bp, got, class)
			}

			prev := a.h.prevBlock(bp)
			next := a.h.nextBlock(bp)
			if !a.h.allocOf(prev) {
				return false, fmt.Sprintf("block at %d has a free predecessor at %d: coalescence is not maximal", bp, prev)
			}
			if !a.h.allocOf(next) {
				return false, fmt.Sprintf("block at %d has a free successor at %d: coalescence is not maximal", bp, next)
			}

			if inList[bp] {
				return false, fmt.Sprintf("block at %d appears on a free list more than once", bp)
			}
			inList[bp] = true
		}
	}

	seen := map[int]bool{}
	for bp := firstBlockOffset; ; {
		size := a.h.sizeOf(bp)
		if size == 0 {
			break // epilogue reached: the chain is exhaustive
		}
		if size%dwordSize != 0 || size < minBlockSize {
			return false, fmt.Sprintf("block at %d has illegal size %d", bp, size)
		}
		if a.h.u32(header(bp)) != a.h.u32(footer(bp, size)) {
			return false, fmt.Sprintf("block at %d: header and footer disagree", bp)
		}
		if seen[bp] {
			return false, fmt.Sprintf("block chain at %d revisits an offset: cycle or overlap", bp)
		}
		seen[bp] = true

		if !a.h.allocOf(bp) && !inList[bp] {
			return false, fmt.Sprintf("free block at %d does not appear in its size class's list", bp)
		}

		bp = a.h.nextBlock(bp)
	}

	for bp := range inList {
		if !seen[bp] {
			return false, fmt.Sprintf("free list references block at %d, which the heap walk never reached", bp)
		}
	}

	return true, ""
}
