package trace

import (
	"time"

	"github.com/pkg/errors"

	"github.com/calvinszeto/malloclab"
)

// Result summarizes one full replay of a Trace against an allocator.
type Result struct {
	Ops             int
	Elapsed         time.Duration
	PeakUtilization float64 // max over the run of live payload bytes / heap bytes
}

// Replay drives every Op in t against a fresh malloclab.Allocator (capacity
// arenaBytes, or the default if <= 0) and returns the allocator (for a
// caller that wants to run Check() afterward) alongside a Result. Each call
// gets its own allocator, matching the spec's single-heap-per-run contract.
func Replay(t *Trace, arenaBytes, chunkBytes int) (*malloclab.Allocator, Result, error) {
	return ReplayWithSubstrate(t, malloclab.NewSliceSubstrate(arenaBytes), chunkBytes)
}

// ReplayWithSubstrate is Replay against a caller-supplied Substrate, letting
// mallocstat's --substrate=mmap flag drive the trace against real OS pages
// instead of the default in-process arena.
func ReplayWithSubstrate(t *Trace, sub malloclab.Substrate, chunkBytes int) (*malloclab.Allocator, Result, error) {
	a, err := malloclab.NewAllocatorWithSubstrate(sub, chunkBytes)
	if err != nil {
		return nil, Result{}, errors.Wrap(err, "init allocator")
	}
	live := make(map[int][]byte, t.NumIDs)

	liveReq := 0 // sum of the requested sizes of every live block
	var peak float64
	sample := func() {
		heapBytes := a.Stats().HeapBytes
		if heapBytes == 0 {
			return
		}
		if u := float64(liveReq) / float64(heapBytes); u > peak {
			peak = u
		}
	}

	start := time.Now()
	for i, op := range t.Ops {
		switch op.Kind {
		case OpAlloc:
			b, err := a.Allocate(op.Size)
			if err != nil {
				return nil, Result{}, errors.Wrapf(err, "op %d: allocate id=%d size=%d", i, op.ID, op.Size)
			}
			live[op.ID] = b
			liveReq += len(b)

		case OpFree:
			b, ok := live[op.ID]
			if !ok {
				return nil, Result{}, errors.Errorf("op %d: free id=%d: id not live", i, op.ID)
			}
			if err := a.Free(b); err != nil {
				return nil, Result{}, errors.Wrapf(err, "op %d: free id=%d", i, op.ID)
			}
			delete(live, op.ID)
			liveReq -= len(b)

		case OpRealloc:
			b, ok := live[op.ID]
			if !ok {
				return nil, Result{}, errors.Errorf("op %d: realloc id=%d: id not live", i, op.ID)
			}
			nb, err := a.Reallocate(b, op.Size)
			if err != nil {
				return nil, Result{}, errors.Wrapf(err, "op %d: realloc id=%d size=%d", i, op.ID, op.Size)
			}
			live[op.ID] = nb
			liveReq += len(nb) - len(b)
		}
		sample()
	}

	return a, Result{
		Ops:             len(t.Ops),
		Elapsed:         time.Since(start),
		PeakUtilization: peak,
	}, nil
}
