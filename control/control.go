// control.go — Lifecycle phase tracking for the worker manager
// ============================================================================
// RUN LIFECYCLE ORCHESTRATION
// ============================================================================
//
// Control package tracks where one experiment is in its lifecycle with a
// single atomic word, readable from any thread without locks.
//
// Phase graph (forward only, never re-entered):
//   Idle → Configuring → AllWorkersCreated → Released → AllWorkersJoined → Cleaned
//   Configuring → Cleaned                     (aborted before release)
//
// Threading model:
//   • The coordinator advances the phase
//   • Workers and observers may read it at any time
//   • Compare-and-swap makes a lost race visible instead of silently
//     overwriting a newer phase

package control

import "sync/atomic"

// Phase is one step of a run's lifecycle.
type Phase uint32

const (
	Idle Phase = iota
	Configuring
	AllWorkersCreated
	Released
	AllWorkersJoined
	Cleaned
)

var phaseNames = [...]string{
	Idle:              "idle",
	Configuring:       "configuring",
	AllWorkersCreated: "all-workers-created",
	Released:          "released",
	AllWorkersJoined:  "all-workers-joined",
	Cleaned:           "cleaned",
}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// ============================================================================
// LIFECYCLE WORD
// ============================================================================

// Lifecycle holds the current phase. The zero value is Idle.
type Lifecycle struct {
	phase atomic.Uint32
}

// Current returns the phase as of the call.
//
//go:nosplit
//go:inline
func (l *Lifecycle) Current() Phase {
	return Phase(l.phase.Load())
}

// Advance moves from one phase to a later one. It reports false if the
// lifecycle is not in from, or if to does not lie ahead of from.
//
//go:nosplit
//go:inline
func (l *Lifecycle) Advance(from, to Phase) bool {
	if to <= from || to > Cleaned {
		return false
	}
	return l.phase.CompareAndSwap(uint32(from), uint32(to))
}

// Reached reports whether the lifecycle is at or past p.
//
//go:nosplit
//go:inline
func (l *Lifecycle) Reached(p Phase) bool {
	return l.Current() >= p
}
