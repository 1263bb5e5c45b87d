// ============================================================================
// CROSS-PLATFORM COMPATIBILITY STUB
// ============================================================================
//
// Platforms without sched_setaffinity(2) cannot confine threads to one core,
// which would make worker ordering unobservable. Every call fails loudly
// instead of silently doing nothing.

//go:build !linux

package affinity

// PinThread reports ErrUnsupported.
func PinThread(cpu int) error { return ErrUnsupported }

// PinTask reports ErrUnsupported.
func PinTask(tid, cpu int) error { return ErrUnsupported }

// PinProcess reports ErrUnsupported.
func PinProcess(cpu int) error { return ErrUnsupported }

// Allowed reports ErrUnsupported.
func Allowed(cpu int) (bool, error) { return false, ErrUnsupported }

// Current reports ErrUnsupported.
func Current() ([]int, error) { return nil, ErrUnsupported }

// ThreadID reports 0: no per-thread kernel ids on this platform.
func ThreadID() int { return 0 }
