// affinity_linux.go - Linux CPU affinity via sched_setaffinity(2)

//go:build linux

package affinity

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"unsafe"

	"scheddemo/constants"

	"golang.org/x/sys/unix"
)

// setBits is the number of cpus a unix.CPUSet can describe.
const setBits = int(unsafe.Sizeof(unix.CPUSet{})) * 8

// maskFor returns a set holding only cpu.
func maskFor(cpu int) (unix.CPUSet, error) {
	var set unix.CPUSet
	if cpu < 0 || cpu >= setBits {
		return set, fmt.Errorf("%w: cpu %d outside mask range", ErrAffinity, cpu)
	}
	set.Zero()
	set.Set(cpu)
	return set, nil
}

// PinThread pins the calling OS thread to cpu and verifies the kernel kept
// exactly that mask. The caller must hold runtime.LockOSThread, otherwise
// the goroutine may migrate off the pinned thread at any point.
//
//go:registerparams
func PinThread(cpu int) error {
	return PinTask(0, cpu)
}

// PinProcess pins every existing thread of the process to cpu. Linux
// affinity is per task, so this walks /proc/self/task. Threads that exit
// during the walk are skipped.
func PinProcess(cpu int) error {
	entries, err := os.ReadDir(constants.ProcTaskDir)
	if err != nil {
		return fmt.Errorf("%w: list tasks: %v", ErrAffinity, err)
	}
	for _, e := range entries {
		tid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		if err := PinTask(tid, cpu); err != nil {
			if isGone(err) {
				continue
			}
			return err
		}
	}
	return nil
}

// Allowed reports whether cpu is in the calling thread's current mask, i.e.
// whether pinning to it can succeed without widening the mask first.
func Allowed(cpu int) (bool, error) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return false, fmt.Errorf("%w: get mask: %v", ErrAffinity, err)
	}
	if cpu < 0 || cpu >= setBits {
		return false, nil
	}
	return set.IsSet(cpu), nil
}

// Current returns the cpus in the calling thread's mask, ascending.
func Current() ([]int, error) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return nil, fmt.Errorf("%w: get mask: %v", ErrAffinity, err)
	}
	out := make([]int, 0, set.Count())
	for cpu := 0; cpu < setBits && len(out) < cap(out); cpu++ {
		if set.IsSet(cpu) {
			out = append(out, cpu)
		}
	}
	return out, nil
}

// PinTask pins one task of this process to cpu and verifies the kernel kept
// exactly that mask. tid 0 means the calling thread.
func PinTask(tid, cpu int) error {
	want, err := maskFor(cpu)
	if err != nil {
		return err
	}
	if err := unix.SchedSetaffinity(tid, &want); err != nil {
		return &taskError{tid: tid, cpu: cpu, op: "set", err: err}
	}

	var got unix.CPUSet
	if err := unix.SchedGetaffinity(tid, &got); err != nil {
		return &taskError{tid: tid, cpu: cpu, op: "verify", err: err}
	}
	if got != want {
		return fmt.Errorf("%w: task %d mask holds %d cpus after pinning to cpu %d", ErrAffinity, tid, got.Count(), cpu)
	}
	return nil
}

// taskError carries the errno of a failed affinity call.
type taskError struct {
	tid, cpu int
	op       string
	err      error
}

func (e *taskError) Error() string {
	return fmt.Sprintf("%v: %s task %d to cpu %d: %v", ErrAffinity, e.op, e.tid, e.cpu, e.err)
}

func (e *taskError) Unwrap() []error { return []error{ErrAffinity, e.err} }

// isGone reports whether err means the task exited mid-walk.
func isGone(err error) bool {
	var te *taskError
	return errors.As(err, &te) && errors.Is(te.err, unix.ESRCH)
}

// ThreadID returns the kernel task id of the calling thread.
func ThreadID() int {
	return unix.Gettid()
}
