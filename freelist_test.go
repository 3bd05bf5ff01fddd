package malloclab

import "testing"

func newTestHeapWithPrologue(t *testing.T, extra int) *heap {
	t.Helper()
	h := &heap{sub: NewSliceSubstrate(1 << 16)}
	if _, err := h.grow(prologueBytes); err != nil {
		t.Fatal(err)
	}
	if extra > 0 {
		if _, err := h.grow(extra); err != nil {
			t.Fatal(err)
		}
	}
	return h
}

func TestInsertRemoveSingleFreeBlock(t *testing.T) {
	h := newTestHeapWithPrologue(t, 64)
	bp := firstBlockOffset
	h.setBoth(bp, 32, false)
	class := classOf(32)

	h.insertFree(bp)
	if got := h.listHead(class); got != bp {
		t.Fatalf("listHead(%d) = %d, want %d", class, got, bp)
	}

	h.removeFree(bp)
	if got := h.listHead(class); got != 0 {
		t.Fatalf("listHead(%d) after remove = %d, want 0", class, got)
	}
}

func TestInsertLIFOOrder(t *testing.T) {
	h := newTestHeapWithPrologue(t, 128)
	bp1 := firstBlockOffset
	bp2 := bp1 + 32
	h.setBoth(bp1, 32, false)
	h.setBoth(bp2, 32, false)
	class := classOf(32)

	h.insertFree(bp1)
	h.insertFree(bp2)

	if got := h.listHead(class); got != bp2 {
		t.Fatalf("listHead = %d, want most-recently-inserted %d", got, bp2)
	}
	if got := h.getNext(bp2); got != bp1 {
		t.Fatalf("getNext(bp2) = %d, want %d", got, bp1)
	}
	if got := h.getPrev(bp2); got != headOffset(class) {
		t.Fatalf("getPrev(bp2) = %d, want head slot %d", got, headOffset(class))
	}
}

func TestRemoveMiddleOfList(t *testing.T) {
	h := newTestHeapWithPrologue(t, 192)
	bp1 := firstBlockOffset
	bp2 := bp1 + 32
	bp3 := bp2 + 32
	h.setBoth(bp1, 32, false)
	h.setBoth(bp2, 32, false)
	h.setBoth(bp3, 32, false)
	class := classOf(32)

	h.insertFree(bp1)
	h.insertFree(bp2)
	h.insertFree(bp3) // list: bp3 -> bp2 -> bp1

	h.removeFree(bp2)

	if got := h.listHead(class); got != bp3 {
		t.Fatalf("listHead = %d, want %d", got, bp3)
	}
	if got := h.getNext(bp3); got != bp1 {
		t.Fatalf("getNext(bp3) = %d, want %d (bp2 unlinked)", got, bp1)
	}
	if got := h.getPrev(bp1); got != bp3 {
		t.Fatalf("getPrev(bp1) = %d, want %d", got, bp3)
	}
}
