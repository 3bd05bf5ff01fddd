package malloclab

import (
	"fmt"
	"reflect"
	"unsafe"

	"golang.org/x/sys/windows"
)

// MmapSubstrate is the Windows counterpart of the unix mmap-backed
// Substrate: CreateFileMapping+MapViewOfFile plays the role mmap plays on
// unix, reserving the whole capacity once so Grow never moves previously
// returned payload slices.
type MmapSubstrate struct {
	buf    []byte
	hi     int
	handle windows.Handle
}

// NewMmapSubstrate reserves capacity bytes of zero-filled memory backed by
// the system paging file. capacity <= 0 falls back to defaultArenaBytes.
func NewMmapSubstrate(capacity int) (*MmapSubstrate, error) {
	if capacity <= 0 {
		capacity = defaultArenaBytes
	}

	sizeHigh := uint32(int64(capacity) >> 32)
	sizeLow := uint32(int64(capacity) & 0xFFFFFFFF)
	h, err := windows.CreateFileMapping(windows.InvalidHandle, nil, windows.PAGE_READWRITE, sizeHigh, sizeLow, nil)
	if h == 0 {
		return nil, fmt.Errorf("malloclab: CreateFileMapping %d bytes: %w", capacity, err)
	}

	addr, err := windows.MapViewOfFile(h, windows.FILE_MAP_WRITE, 0, 0, uintptr(capacity))
	if addr == 0 {
		windows.CloseHandle(h)
		return nil, fmt.Errorf("malloclab: MapViewOfFile %d bytes: %w", capacity, err)
	}

	var b []byte
	sh := (*reflect.SliceHeader)(unsafe.Pointer(&b))
	sh.Data = addr
	sh.Len = capacity
	sh.Cap = capacity

	return &MmapSubstrate{buf: b, handle: h}, nil
}

// Close unmaps the view and closes the backing handle.
func (s *MmapSubstrate) Close() error {
	addr := uintptr(unsafe.Pointer(&s.buf[0]))
	if err := windows.UnmapViewOfFile(addr); err != nil {
		return err
	}
	return windows.CloseHandle(s.handle)
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
