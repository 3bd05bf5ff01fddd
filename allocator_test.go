package malloclab

import (
	"bytes"
	"math"
	"testing"

	"github.com/cznic/mathutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quota = 16 << 20

func freshStats(t *testing.T, a *Allocator) {
	t.Helper()
	st := a.Stats()
	require.Equal(t, 0, st.LiveBytes, "%+v", st)
	ok, reason := a.Check()
	require.True(t, ok, reason)
}

// fuzzAllocVerifyFree is test1/test2 from the fuzz corpus generalized to the
// new API: allocate randomly-sized blocks until quota bytes have been
// requested, fill each with PRNG bytes, replay the same PRNG to verify every
// byte survived untouched, then free everything (in a shuffled order when
// shuffle is true, in allocation order otherwise).
func fuzzAllocVerifyFree(t *testing.T, max int, shuffle bool) {
	a := NewAllocator(64 << 20)
	rem := quota
	var bufs [][]byte

	rng, err := mathutil.NewFC32(0, math.MaxInt32, true)
	require.NoError(t, err)
	rng.Seed(42)
	pos := rng.Pos()

	for rem > 0 {
		size := rng.Next()%max + 1
		rem -= size
		b, err := a.Allocate(size)
		require.NoError(t, err)
		bufs = append(bufs, b)
		for i := range b {
			b[i] = byte(rng.Next())
		}
	}

	rng.Seek(pos)
	for i, b := range bufs {
		require.Equal(t, rng.Next()%max+1, len(b), "block %d", i)
		for j, got := range b {
			want := byte(rng.Next())
			require.Equalf(t, want, got, "block %d byte %d", i, j)
			b[j] = 0
		}
	}

	if shuffle {
		for i := range bufs {
			j := rng.Next() % len(bufs)
			bufs[i], bufs[j] = bufs[j], bufs[i]
		}
	}

	for _, b := range bufs {
		require.NoError(t, a.Free(b))
	}
	freshStats(t, a)
}

func TestFuzzAllocVerifyFreeSmall(t *testing.T) { fuzzAllocVerifyFree(t, 512, true) }
func TestFuzzAllocVerifyFreeBig(t *testing.T)   { fuzzAllocVerifyFree(t, 8192, true) }
func TestFuzzAllocVerifyFreeOrdered(t *testing.T) { fuzzAllocVerifyFree(t, 512, false) }

// fuzzMixedOps is test3 generalized: a running random mix of allocate and
// free against a shadow copy, checking the live heap content against the
// shadow on every free and at the end.
func fuzzMixedOps(t *testing.T, max int) {
	a := NewAllocator(64 << 20)
	rem := quota
	shadow := map[*byte][]byte{}
	var live [][]byte

	rng, err := mathutil.NewFC32(1, max, true)
	require.NoError(t, err)

	for rem > 0 {
		switch rng.Next() % 3 {
		case 0, 1: // allocate
			size := rng.Next()
			rem -= size
			b, err := a.Allocate(size)
			require.NoError(t, err)
			cp := append([]byte(nil), make([]byte, len(b))...)
			for i := range b {
				b[i] = byte(i)
				cp[i] = byte(i)
			}
			shadow[&b[0]] = cp
			live = append(live, b)
		default: // free the oldest live block
			if len(live) == 0 {
				continue
			}
			b := live[0]
			live = live[1:]
			rem += len(b)
			require.True(t, bytes.Equal(b, shadow[&b[0]]), "corrupted heap before free")
			delete(shadow, &b[0])
			require.NoError(t, a.Free(b))
		}
	}

	for _, b := range live {
		require.True(t, bytes.Equal(b, shadow[&b[0]]), "corrupted heap at drain")
		require.NoError(t, a.Free(b))
	}
	freshStats(t, a)
}

func TestFuzzMixedOpsSmall(t *testing.T) { fuzzMixedOps(t, 256) }
func TestFuzzMixedOpsBig(t *testing.T)   { fuzzMixedOps(t, 4096) }

func TestFreeZeroLengthSliceFreesBlock(t *testing.T) {
	a := NewAllocator(1 << 20)
	b, err := a.Allocate(1)
	require.NoError(t, err)
	require.NoError(t, a.Free(b[:0]))
	freshStats(t, a)
}

func TestAllocateRejectsNonPositiveSize(t *testing.T) {
	a := NewAllocator(1 << 20)
	_, err := a.Allocate(0)
	assert.ErrorIs(t, err, ErrInvalidSize)
	_, err = a.Allocate(-1)
	assert.ErrorIs(t, err, ErrInvalidSize)
}

func TestAllocateBeforeInitReturnsError(t *testing.T) {
	var a Allocator
	_, err := a.Allocate(8)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestReallocateShrinkInPlace(t *testing.T) {
	a := NewAllocator(1 << 20)
	b, err := a.Allocate(200)
	require.NoError(t, err)
	for i := range b {
		b[i] = byte(i)
	}

	shrunk, err := a.Reallocate(b, 32)
	require.NoError(t, err)
	require.Len(t, shrunk, 32)
	for i := range shrunk {
		assert.Equal(t, byte(i), shrunk[i])
	}

	require.NoError(t, a.Free(shrunk))
	freshStats(t, a)
}

func TestReallocateGrowIntoRightNeighbor(t *testing.T) {
	a := NewAllocator(1 << 20)
	b, err := a.Allocate(32)
	require.NoError(t, err)
	for i := range b {
		b[i] = byte(i + 1)
	}

	grown, err := a.Reallocate(b, 512)
	require.NoError(t, err)
	require.Len(t, grown, 512)
	for i := 0; i < 32; i++ {
		assert.Equal(t, byte(i+1), grown[i])
	}

	require.NoError(t, a.Free(grown))
	freshStats(t, a)
}

func TestReallocateGrowIntoLeftNeighborOnly(t *testing.T) {
	a := NewAllocator(1 << 20)
	first, err := a.Allocate(100)
	require.NoError(t, err)
	firstAddr := a.bpOf(first)

	second, err := a.Allocate(100)
	require.NoError(t, err)
	for i := range second {
		second[i] = byte(i + 1)
	}

	// Keep second's right neighbor allocated so only the left (first) is a
	// candidate, forcing Reallocate down the prevFree && !nextFree path.
	third, err := a.Allocate(100)
	require.NoError(t, err)

	require.NoError(t, a.Free(first))

	grown, err := a.Reallocate(second, 200)
	require.NoError(t, err)
	assert.Equal(t, firstAddr, a.bpOf(grown), "realloc should have absorbed the free left neighbor in place")
	for i := 0; i < 100; i++ {
		assert.Equal(t, byte(i+1), grown[i])
	}

	require.NoError(t, a.Free(grown))
	require.NoError(t, a.Free(third))
	freshStats(t, a)
}

// TestReallocateGrowIntoBothNeighborsPrefersLeft reproduces spec.md §8
// scenario 3 literally: init(); a=allocate(100); b=allocate(100);
// free(a); c=reallocate(b,200) must yield c == a's original address, even
// though growing into the free right-hand leftover block alone would also
// have been large enough. The both-neighbors path must always be taken
// when both neighbors are free, matching the original mm_realloc.
func TestReallocateGrowIntoBothNeighborsPrefersLeft(t *testing.T) {
	a := NewAllocator(1 << 20)
	first, err := a.Allocate(100)
	require.NoError(t, err)
	firstAddr := a.bpOf(first)

	second, err := a.Allocate(100)
	require.NoError(t, err)
	for i := range second {
		second[i] = byte(i + 1)
	}

	require.NoError(t, a.Free(first))

	grown, err := a.Reallocate(second, 200)
	require.NoError(t, err)
	assert.Equal(t, firstAddr, a.bpOf(grown), "realloc with both neighbors free must return the left neighbor's address")
	for i := 0; i < 100; i++ {
		assert.Equal(t, byte(i+1), grown[i])
	}

	require.NoError(t, a.Free(grown))
	freshStats(t, a)
}

func TestReallocateNilActsAsAllocate(t *testing.T) {
	a := NewAllocator(1 << 20)
	b, err := a.Reallocate(nil, 16)
	require.NoError(t, err)
	require.Len(t, b, 16)
	require.NoError(t, a.Free(b))
	freshStats(t, a)
}

func TestReallocateZeroActsAsFree(t *testing.T) {
	a := NewAllocator(1 << 20)
	b, err := a.Allocate(16)
	require.NoError(t, err)
	out, err := a.Reallocate(b, 0)
	require.NoError(t, err)
	require.Nil(t, out)
	freshStats(t, a)
}

func TestCheckCatchesNothingOnFreshHeap(t *testing.T) {
	a := NewAllocator(1 << 20)
	ok, reason := a.Check()
	require.True(t, ok, reason)
}

func TestNewAllocatorWithSubstrateUsesCallerSubstrate(t *testing.T) {
	sub := NewSliceSubstrate(1 << 20)
	a, err := NewAllocatorWithSubstrate(sub, 1024)
	require.NoError(t, err)

	b, err := a.Allocate(64)
	require.NoError(t, err)
	require.NoError(t, a.Free(b))
	freshStats(t, a)
}

func benchmarkAllocateFree(b *testing.B, size int) {
	a := NewAllocator(0)
	bufs := make([][]byte, b.N)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p, err := a.Allocate(size)
		if err != nil {
			b.Fatal(err)
		}
		bufs[i] = p
	}
	b.StopTimer()
	for _, p := range bufs {
		a.Free(p)
	}
}

func BenchmarkAllocateFree16(b *testing.B) { benchmarkAllocateFree(b, 1<<4) }
func BenchmarkAllocateFree32(b *testing.B) { benchmarkAllocateFree(b, 1<<5) }
func BenchmarkAllocateFree64(b *testing.B) { benchmarkAllocateFree(b, 1<<6) }
