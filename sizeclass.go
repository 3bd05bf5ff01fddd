package malloclab

import "github.com/cznic/mathutil"

// numClasses is the number of segregated free lists. Class 15 is the
// open-ended top bucket; every other class k holds blocks whose size is in
// (2^k * 8, 2^(k+1) * 8], approximately — see classOf.
const numClasses = 16

// classOf maps an already 8-aligned block size (size >= minBlockSize) to one
// of the 16 segregated free-list classes. The mapping must be monotone
// non-decreasing in size, and a block in class k must be usable to satisfy
// any request whose own class is <= k; find_fit's overflow-to-higher-class
// search depends on exactly that property, not on any particular box
// boundary.
//
// size == 16 is special-cased into class 1 rather than the class 0 the
// general formula would produce, matching the segregated-box numbering of
// the handout this allocator is descended from: box 0 is otherwise empty,
// so folding the smallest legal blocks into box 1 avoids scanning a box
// that can never hold anything else.
func classOf(size int) int {
	if size == 16 {
		return 1
	}

	q := (size - 8) / 8
	class := mathutil.BitLen(q) - 1
	if class > numClasses-1 {
		return numClasses - 1
	}
	return class
}
