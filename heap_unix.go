// +build darwin dragonfly freebsd linux openbsd solaris netbsd

package malloclab

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// MmapSubstrate is a Substrate backed by one anonymous mmap reservation
// instead of a Go slice. Growth never reallocates: the whole capacity is
// mapped up front and Grow only advances the live-prefix boundary, so a
// payload slice handed to a caller stays valid (same backing array, same
// address) for the substrate's entire lifetime. This is the allocator's
// answer to "give me memory outside the Go heap, reported as whatever OS
// pages it actually costs" rather than Go's GC-managed heap.
type MmapSubstrate struct {
	buf []byte
	hi  int
}

// NewMmapSubstrate reserves capacity bytes of anonymous, zero-filled memory
// via mmap. capacity <= 0 falls back to defaultArenaBytes, matching
// NewSliceSubstrate.
func NewMmapSubstrate(capacity int) (*MmapSubstrate, error) {
	if capacity <= 0 {
		capacity = defaultArenaBytes
	}
	b, err := unix.Mmap(-1, 0, capacity, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("malloclab: mmap %d bytes: %w", capacity, err)
	}
	return &MmapSubstrate{buf: b}, nil
}

// Close unmaps the reservation. The substrate (and every payload slice it
// ever returned) must not be used afterward.
func (s *MmapSubstrate) Close() error {
	return unix.Munmap(s.buf)
}

func (s *MmapSubstrate) Grow(nbytes int) (int, error) {
	if nbytes <= 0 || nbytes%wordSize != 0 {
		return 0, fmt.Errorf("malloclab: Grow(%d): not a positive multiple of %d", nbytes, wordSize)
	}
	base := s.hi
	if base+nbytes > len(s.buf) {
		return 0, fmt.Errorf("%w: need %d more bytes, mmap reservation %d exhausted at %d", ErrOutOfMemory, nbytes, len(s.buf), s.hi)
	}
	s.hi += nbytes
	return base, nil
}

func (s *MmapSubstrate) Bytes() []byte { return s.buf[:s.hi] }
func (s *MmapSubstrate) Lo() int       { return 0 }
func (s *MmapSubstrate) Hi() int       { return s.hi }
