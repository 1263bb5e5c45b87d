package utils

import (
	"os"
	"strconv"
	"unsafe"
)

///////////////////////////////////////////////////////////////////////////////
// Conversion Utilities — Zero-Alloc Casts
///////////////////////////////////////////////////////////////////////////////

// B2s converts a []byte to a string **without** allocation.
// ⚠️ Caller must ensure the input slice remains valid and unchanged.
// Used for human-readable print paths.
//
//go:nosplit
//go:inline
func B2s(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}

// TrimNUL cuts b at the first NUL byte. Kernel read buffers are often
// zero-padded past the payload.
//
//go:nosplit
//go:inline
func TrimNUL(b []byte) []byte {
	for i := 0; i < len(b); i++ {
		if b[i] == 0 {
			return b[:i]
		}
	}
	return b
}

///////////////////////////////////////////////////////////////////////////////
// Direct Writers — Unbuffered fd Output
///////////////////////////////////////////////////////////////////////////////

// PrintWarning writes msg to stderr in one write call. No formatting, no
// buffering: partial lines from concurrent writers never interleave.
//
//go:inline
func PrintWarning(msg string) {
	_, _ = os.Stderr.WriteString(msg)
}

// PrintInfo writes msg to stdout in one write call.
//
//go:inline
func PrintInfo(msg string) {
	_, _ = os.Stdout.WriteString(msg)
}

///////////////////////////////////////////////////////////////////////////////
// Line Builders — Stack-Buffered Formatting
///////////////////////////////////////////////////////////////////////////////

// AppendTagged appends "<prefix><n><suffix>" to dst. Used to build status
// lines on worker threads without fmt or heap traffic when dst has room.
//
//go:nosplit
//go:inline
func AppendTagged(dst []byte, prefix string, n int, suffix string) []byte {
	dst = append(dst, prefix...)
	dst = strconv.AppendInt(dst, int64(n), 10)
	return append(dst, suffix...)
}
