// ════════════════════════════════════════════════════════════════════════════════════════════════
// 🎚 SCHEDULING POLICY ASSIGNMENT
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: Scheduling Policy Harness
// Component: Per-Thread Scheduling Class & Priority
//
// Description:
//   Translates a worker descriptor into the kernel's scheduling class and static priority and
//   applies it to the calling OS thread, then reads back what the kernel actually holds.
//
// Ordering:
//   A goroutine cannot be created with scheduling attributes attached. The worker applies its
//   own attributes first thing on its locked thread and acknowledges before the coordinator
//   creates the next worker or arrives at the start barrier, so no workload code ever runs under
//   an inherited class.
//
// Failure Model:
//   - ErrPrivilege: the kernel refused a real-time class (no CAP_SYS_NICE / RLIMIT_RTPRIO)
//   - ErrResource: any other kernel refusal
//   - config.ErrConfig: a priority outside the class's valid range
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package policy

import (
	"errors"

	"scheddemo/config"
)

var (
	// ErrPrivilege means the process may not use the requested class. Fatal
	// for the whole run: a partially honored configuration is worthless.
	ErrPrivilege = errors.New("insufficient privilege for scheduling class")

	// ErrResource covers every other scheduling syscall failure.
	ErrResource = errors.New("scheduling attribute error")

	// ErrUnsupported is returned on platforms without sched_setattr(2).
	ErrUnsupported = errors.New("scheduling classes not supported on this platform")
)

// Applied is the class and priority the kernel reports for a thread.
// Time-sharing threads report constants.PriorityNotApplicable.
type Applied struct {
	Policy   config.Policy `json:"policy"`
	Priority int           `json:"priority"`
}

// Matches reports whether a holds what d requested.
func (a Applied) Matches(d config.Descriptor) bool {
	return a.Policy == d.Policy && a.Priority == d.Priority
}
