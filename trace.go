package malloclab

import "os"

// traceEnabled gates the verbose per-call logging used while debugging the
// allocator itself. It reads MALLOCLAB_TRACE on every call rather than once
// at package init, so a caller (e.g. mallocstat's --trace flag) that sets
// the variable after the process has already started still takes effect.
func traceEnabled() bool {
	return os.Getenv("MALLOCLAB_TRACE") != ""
}
