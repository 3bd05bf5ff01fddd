package malloclab

import "testing"

func TestAlign8(t *testing.T) {
	cases := map[int]int{0: 0, 1: 8, 7: 8, 8: 8, 9: 16, 16: 16, 17: 24}
	for in, want := range cases {
		if got := align8(in); got != want {
			t.Errorf("align8(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestBlockSizeForFloorsAtMinimum(t *testing.T) {
	if got := blockSizeFor(1); got != minBlockSize {
		t.Errorf("blockSizeFor(1) = %d, want %d", got, minBlockSize)
	}
	if got := blockSizeFor(100); got != align8(100+dwordSize) {
		t.Errorf("blockSizeFor(100) = %d, want %d", got, align8(100+dwordSize))
	}
}

func TestPayloadOfInvertsBlockSizeForOverhead(t *testing.T) {
	bs := blockSizeFor(40)
	if got := payloadOf(bs); got < 40 {
		t.Errorf("payloadOf(%d) = %d, want >= 40", bs, got)
	}
}

func TestHeaderFooterRoundTrip(t *testing.T) {
	h := &heap{sub: NewSliceSubstrate(1 << 16)}
	if _, err := h.grow(256); err != nil {
		t.Fatal(err)
	}

	bp := 64
	h.setBoth(bp, 32, true)
	if got := h.sizeOf(bp); got != 32 {
		t.Errorf("sizeOf = %d, want 32", got)
	}
	if !h.allocOf(bp) {
		t.Error("allocOf = false, want true")
	}
	if h.u32(header(bp)) != h.u32(footer(bp, 32)) {
		t.Error("header/footer disagree after setBoth")
	}

	h.setBoth(bp, 32, false)
	if h.allocOf(bp) {
		t.Error("allocOf = true after clearing, want false")
	}
}

func TestNextPrevBlockAgree(t *testing.T) {
	h := &heap{sub: NewSliceSubstrate(1 << 16)}
	if _, err := h.grow(256); err != nil {
		t.Fatal(err)
	}

	bp1 := 64
	h.setBoth(bp1, 32, false)
	bp2 := bp1 + 32
	h.setBoth(bp2, 24, true)

	if got := h.nextBlock(bp1); got != bp2 {
		t.Errorf("nextBlock(bp1) = %d, want %d", got, bp2)
	}
	if got := h.prevBlock(bp2); got != bp1 {
		t.Errorf("prevBlock(bp2) = %d, want %d", got, bp1)
	}
}

func TestFreeBlockLinkOverlay(t *testing.T) {
	h := &heap{sub: NewSliceSubstrate(1 << 16)}
	if _, err := h.grow(256); err != nil {
		t.Fatal(err)
	}

	bp := 64
	h.setNext(bp, 12)
	h.setPrev(bp, 24)
	if got := h.getNext(bp); got != 12 {
		t.Errorf("getNext = %d, want 12", got)
	}
	if got := h.getPrev(bp); got != 24 {
		t.Errorf("getPrev = %d, want 24", got)
	}
}
