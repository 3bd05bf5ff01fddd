package malloclab

import "errors"

// Sentinel errors returned at the allocator's API boundary. See §7 of the
// design doc: failures never unwind as panics, only as these values (or a
// null/zero return alongside them).
var (
	// ErrInitFailed is returned by Init when the substrate refuses to grow
	// enough bytes for the prologue plus the initial chunk.
	ErrInitFailed = errors.New("malloclab: heap initialization failed")

	// ErrOutOfMemory is returned by Allocate/Reallocate when the substrate
	// refuses a required growth. The allocator's state remains valid and
	// every existing block is untouched.
	ErrOutOfMemory = errors.New("malloclab: substrate out of memory")

	// ErrInvalidSize is returned by Allocate for a zero-byte request.
	ErrInvalidSize = errors.New("malloclab: invalid allocation size")

	// ErrNotInitialized is returned when an entry point other than Init is
	// called on a zero-value Allocator.
	ErrNotInitialized = errors.New("malloclab: allocator not initialized")
)
