// ════════════════════════════════════════════════════════════════════════════════════════════════
// 🚦 START BARRIER
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: Scheduling Policy Harness
// Component: Single-Release Rendezvous
//
// Description:
//   Blocks each arriving party until the configured number have arrived, then releases all of
//   them at once. The coordinator is one of the parties and arrives last, after every worker has
//   its scheduling class applied, so no worker can start its timed loop early.
//
// Lifecycle:
//   Initialized(n) → Waiting(k), 0 ≤ k < n → Released → Destroyed
//   Initialized/Waiting → Broken → Destroyed    (partial-failure cleanup)
//
// Safety:
//   - The arrival counter is only touched under the barrier's own mutex
//   - The outcome is written before the release gate opens and never changes afterwards,
//     so late-waking parties observe it correctly even after Destroy
//   - Surplus arrivals fail with ErrOverflow instead of blocking forever
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package barrier

import (
	"errors"
	"sync"
)

var (
	// ErrBroken is returned to parties released by Break instead of by the
	// final arrival.
	ErrBroken = errors.New("barrier broken")

	// ErrOverflow is returned to an arrival beyond the configured count.
	ErrOverflow = errors.New("barrier arrival exceeds party count")

	// ErrBusy is returned by Destroy while parties may still be waiting.
	ErrBusy = errors.New("barrier not yet released")

	// ErrDestroyed is returned by Wait on a destroyed barrier.
	ErrDestroyed = errors.New("barrier destroyed")
)

// State is a barrier lifecycle state.
type State uint8

const (
	Initialized State = iota
	Waiting
	Released
	Broken
	Destroyed
)

func (s State) String() string {
	switch s {
	case Initialized:
		return "initialized"
	case Waiting:
		return "waiting"
	case Released:
		return "released"
	case Broken:
		return "broken"
	case Destroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// SINGLE-USE BARRIER
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// Barrier is a single-use rendezvous for a fixed number of parties.
type Barrier struct {
	mu      sync.Mutex
	parties int
	arrived int
	state   State
	outcome error // set once, before the gate opens
	gate    *gate // opens on release or break
}

// New returns a barrier for n parties. It panics if n < 1.
func New(n int) *Barrier {
	if n < 1 {
		panic("barrier: party count must be positive")
	}
	return &Barrier{
		parties: n,
		state:   Initialized,
		gate:    newGate(),
	}
}

// Wait records one arrival and blocks until the barrier is released or
// broken. The n-th arrival returns immediately and releases everyone.
func (b *Barrier) Wait() error {
	b.mu.Lock()
	switch b.state {
	case Released:
		b.mu.Unlock()
		return ErrOverflow
	case Broken:
		b.mu.Unlock()
		return ErrBroken
	case Destroyed:
		b.mu.Unlock()
		return ErrDestroyed
	}

	b.arrived++
	if b.arrived == b.parties {
		b.state = Released
		b.gate.open()
		b.mu.Unlock()
		return nil
	}
	b.state = Waiting
	b.mu.Unlock()

	b.gate.wait()
	return b.outcome
}

// Break releases every waiting party with ErrBroken. It reports false if
// the barrier had already been released, broken or destroyed.
func (b *Barrier) Break() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Initialized && b.state != Waiting {
		return false
	}
	b.state = Broken
	b.outcome = ErrBroken
	b.gate.open()
	return true
}

// Destroy retires the barrier. Valid once released or broken; repeated
// calls are no-ops. Parties already resumed are unaffected.
func (b *Barrier) Destroy() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case Released, Broken:
		b.state = Destroyed
		return nil
	case Destroyed:
		return nil
	default:
		return ErrBusy
	}
}

// State returns the current lifecycle state.
func (b *Barrier) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Arrived returns how many parties have arrived so far.
func (b *Barrier) Arrived() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.arrived
}

// Done is closed once the barrier is released or broken.
func (b *Barrier) Done() <-chan struct{} { return b.gate.done }
