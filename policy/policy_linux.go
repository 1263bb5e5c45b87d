//go:build linux

package policy

import (
	"errors"
	"fmt"

	"scheddemo/config"
	"scheddemo/constants"

	"golang.org/x/sys/unix"
)

// Apply sets the calling thread's class and priority from d and returns the
// kernel's view afterwards. The caller must hold runtime.LockOSThread.
//
//go:registerparams
func Apply(d config.Descriptor) (Applied, error) {
	attr := unix.SchedAttr{}
	switch d.Policy {
	case config.PolicyFIFO:
		lo, hi, err := PriorityRange(d.Policy)
		if err != nil {
			return Applied{}, err
		}
		if d.Priority < lo || d.Priority > hi {
			return Applied{}, fmt.Errorf("%w: worker %d priority %d outside %s range [%d, %d]",
				config.ErrConfig, d.ID, d.Priority, d.Policy, lo, hi)
		}
		attr.Policy = unix.SCHED_FIFO
		attr.Priority = uint32(d.Priority)
	case config.PolicyOther:
		// Keep the thread's nice value: lowering it would need privilege.
		cur, err := unix.SchedGetAttr(0, 0)
		if err != nil {
			return Applied{}, classify(err, "query")
		}
		attr.Policy = unix.SCHED_NORMAL
		attr.Nice = cur.Nice
	default:
		return Applied{}, fmt.Errorf("%w: worker %d has unknown policy %d", config.ErrConfig, d.ID, d.Policy)
	}

	if err := unix.SchedSetAttr(0, &attr, 0); err != nil {
		return Applied{}, classify(err, "apply "+d.Policy.String())
	}
	return Query()
}

// Query returns the calling thread's current class and priority.
func Query() (Applied, error) {
	attr, err := unix.SchedGetAttr(0, 0)
	if err != nil {
		return Applied{}, classify(err, "query")
	}
	return fromKernel(attr.Policy, attr.Priority)
}

// PriorityRange returns the kernel's valid static priority range for p.
// Time-sharing classes report [0, 0].
func PriorityRange(p config.Policy) (int, int, error) {
	class, err := kernelClass(p)
	if err != nil {
		return 0, 0, err
	}
	lo, _, errno := unix.RawSyscall(unix.SYS_SCHED_GET_PRIORITY_MIN, uintptr(class), 0, 0)
	if errno != 0 {
		return 0, 0, classify(errno, "priority min")
	}
	hi, _, errno := unix.RawSyscall(unix.SYS_SCHED_GET_PRIORITY_MAX, uintptr(class), 0, 0)
	if errno != 0 {
		return 0, 0, classify(errno, "priority max")
	}
	return int(lo), int(hi), nil
}

// kernelClass maps a symbolic policy to its SCHED_* number.
func kernelClass(p config.Policy) (uint32, error) {
	switch p {
	case config.PolicyFIFO:
		return unix.SCHED_FIFO, nil
	case config.PolicyOther:
		return unix.SCHED_NORMAL, nil
	default:
		return 0, fmt.Errorf("%w: unknown policy %d", config.ErrConfig, p)
	}
}

// fromKernel normalizes a SCHED_* class and raw priority.
func fromKernel(class, priority uint32) (Applied, error) {
	switch class {
	case unix.SCHED_FIFO:
		return Applied{Policy: config.PolicyFIFO, Priority: int(priority)}, nil
	case unix.SCHED_NORMAL:
		return Applied{Policy: config.PolicyOther, Priority: constants.PriorityNotApplicable}, nil
	default:
		return Applied{}, fmt.Errorf("%w: thread runs under unexpected class %d", ErrResource, class)
	}
}

// classify wraps a syscall error with the matching sentinel.
func classify(err error, op string) error {
	if errors.Is(err, unix.EPERM) || errors.Is(err, unix.EACCES) {
		return fmt.Errorf("%w: %s: %w", ErrPrivilege, op, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrResource, op, err)
}
