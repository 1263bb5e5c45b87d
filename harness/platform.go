package harness

import (
	"scheddemo/affinity"
	"scheddemo/config"
	"scheddemo/policy"
)

// Platform is the kernel surface the harness drives. Thread-scoped methods
// act on the calling OS thread and are only called from locked goroutines.
type Platform interface {
	// PinProcess confines every thread of the process to cpu.
	PinProcess(cpu int) error
	// PinThread confines the calling thread to cpu.
	PinThread(cpu int) error
	// PinTask confines the thread with kernel id tid to cpu.
	PinTask(tid, cpu int) error
	// Allowed reports whether cpu is in the current affinity mask.
	Allowed(cpu int) (bool, error)
	// PriorityRange returns the valid static priorities of p.
	PriorityRange(p config.Policy) (lo, hi int, err error)
	// Apply sets the calling thread's class from d and reports the result.
	Apply(d config.Descriptor) (policy.Applied, error)
	// ThreadID identifies the calling thread.
	ThreadID() int
}

// system is the Platform backed by the running kernel.
type system struct{}

// System returns the Platform that issues real scheduling syscalls.
func System() Platform { return system{} }

func (system) PinProcess(cpu int) error      { return affinity.PinProcess(cpu) }
func (system) PinThread(cpu int) error       { return affinity.PinThread(cpu) }
func (system) PinTask(tid, cpu int) error    { return affinity.PinTask(tid, cpu) }
func (system) Allowed(cpu int) (bool, error) { return affinity.Allowed(cpu) }
func (system) ThreadID() int                 { return affinity.ThreadID() }

func (system) PriorityRange(p config.Policy) (int, int, error) {
	return policy.PriorityRange(p)
}

func (system) Apply(d config.Descriptor) (policy.Applied, error) {
	return policy.Apply(d)
}
