//go:build linux

package barrier

import (
	"math"
	"unsafe"

	"golang.org/x/sys/unix"
)

// futex(2) operations, process-private.
const (
	futexWait        = 0
	futexWake        = 1
	futexPrivateFlag = 128
)

// park sleeps the calling thread while *word == 0. Returns on wake-up,
// signal interruption or a changed word; the caller re-checks.
//
//go:norace
func park(word *uint32, _ <-chan struct{}) {
	_, _, _ = unix.Syscall6(unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(word)),
		futexWait|futexPrivateFlag,
		0, // expected value: closed
		0, // no timeout
		0, 0)
}

// wakeAll wakes every thread parked on word.
//
//go:norace
func wakeAll(word *uint32) {
	_, _, _ = unix.Syscall6(unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(word)),
		futexWake|futexPrivateFlag,
		math.MaxInt32,
		0, 0, 0)
}
