// ════════════════════════════════════════════════════════════════════════════════════════════════
// 🧵 WORKER LIFECYCLE MANAGER
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: Scheduling Policy Harness
// Component: Worker Creation, Release & Join
//
// Description:
//   Runs one experiment: validates the configuration, pins the process to the target core,
//   creates one locked-thread worker per descriptor, releases them together through the start
//   barrier and joins them after their busy-wait iterations.
//
// Startup Ordering:
//   1. Configuration and priority ranges are checked before any thread exists
//   2. The coordinator pins the whole process to the target core, so every thread the runtime
//      creates from here on inherits that mask
//   3. Each worker locks its goroutine to an OS thread, re-pins that thread, applies its
//      scheduling class, reads it back and acknowledges
//   4. The coordinator pins the acknowledged worker's task by id, independently of the worker's
//      own pin; the next worker is created only after that
//   5. The coordinator arrives at the start barrier last, releasing everyone
//
// Failure Model:
//   Any failure before release breaks the start barrier, waits for every worker already created
//   and returns the first cause. There is no degraded mode: either every worker runs under its
//   configured class or the run is aborted.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package harness

import (
	"errors"
	"fmt"
	"runtime"

	"scheddemo/barrier"
	"scheddemo/config"
	"scheddemo/constants"
	"scheddemo/control"
	"scheddemo/policy"
	"scheddemo/spin"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrAlreadyStarted is returned by a second Start.
	ErrAlreadyStarted = errors.New("harness already started")

	// ErrNotStarted is returned by Join before Start.
	ErrNotStarted = errors.New("harness not started")
)

// WorkerResult is what one worker observed about itself. Each worker
// writes only its own result; the slice is read after join.
type WorkerResult struct {
	ID         int                          `json:"id"`
	TID        int                          `json:"tid"`
	Requested  config.Descriptor            `json:"requested"`
	Applied    policy.Applied               `json:"applied"`
	Iterations int                          `json:"iterations"`
	Polls      [constants.Iterations]uint64 `json:"polls"`
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// CONSTRUCTION
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// Harness runs exactly one experiment. Not reusable.
type Harness struct {
	cfg  config.RunConfig
	plat Platform
	obs  Observer

	life    control.Lifecycle
	start   *barrier.Barrier
	round   *barrier.Cyclic
	group   errgroup.Group
	results []WorkerResult

	procs int   // GOMAXPROCS before Start, restored on cleanup
	cause error // set when the run aborted before release
}

// Option customizes a Harness.
type Option func(*Harness)

// WithPlatform replaces the kernel-backed platform.
func WithPlatform(p Platform) Option {
	return func(h *Harness) { h.plat = p }
}

// WithObserver installs an iteration observer.
func WithObserver(o Observer) Option {
	return func(h *Harness) { h.obs = o }
}

// New prepares a harness for cfg. Nothing is created until Start.
func New(cfg config.RunConfig, opts ...Option) *Harness {
	h := &Harness{
		cfg:  cfg,
		plat: System(),
		obs:  nopObserver{},
	}
	for _, o := range opts {
		o(h)
	}
	if h.obs == nil {
		h.obs = nopObserver{}
	}
	return h
}

// Phase returns the current lifecycle phase.
func (h *Harness) Phase() control.Phase { return h.life.Current() }

// Run starts the experiment and joins it.
func Run(cfg config.RunConfig, opts ...Option) ([]WorkerResult, error) {
	h := New(cfg, opts...)
	if err := h.Start(); err != nil {
		return nil, err
	}
	return h.Join()
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// START
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// Start creates and configures every worker, then releases them. It returns
// once the start barrier has opened. On error every worker that was created
// has already exited and the harness is cleaned up.
func (h *Harness) Start() error {
	if !h.life.Advance(control.Idle, control.Configuring) {
		return ErrAlreadyStarted
	}
	if err := h.preflight(); err != nil {
		return h.abort(err)
	}

	n := h.cfg.Threads()
	h.start = barrier.New(n + 1)
	if h.cfg.RoundSync() {
		h.round = barrier.NewCyclic(n)
	}
	h.results = make([]WorkerResult, n)

	// Every released worker must find an idle P when it returns from the
	// barrier's futex wait, or the Go scheduler would gate who runs first.
	h.procs = runtime.GOMAXPROCS(0)
	if want := n + 2; h.procs < want {
		runtime.GOMAXPROCS(want)
	}

	if err := h.plat.PinProcess(h.cfg.Core()); err != nil {
		return h.abort(fmt.Errorf("pin coordinator: %w", err))
	}

	for _, d := range h.cfg.Descriptors() {
		ready := make(chan error, 1)
		h.group.Go(func() error { return h.work(d, ready) })
		if err := <-ready; err != nil {
			return h.abort(fmt.Errorf("worker %d: %w", d.ID, err))
		}
		if err := h.plat.PinTask(h.results[d.ID].TID, h.cfg.Core()); err != nil {
			return h.abort(fmt.Errorf("worker %d: pin task: %w", d.ID, err))
		}
	}
	h.life.Advance(control.Configuring, control.AllWorkersCreated)

	if err := h.start.Wait(); err != nil {
		return h.abort(fmt.Errorf("coordinator arrival: %w", err))
	}
	h.life.Advance(control.AllWorkersCreated, control.Released)
	return nil
}

// preflight rejects anything that can be known bad before threads exist.
func (h *Harness) preflight() error {
	if err := h.cfg.Validate(); err != nil {
		return err
	}
	ok, err := h.plat.Allowed(h.cfg.Core())
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: cpu %d is not in the process affinity mask", config.ErrConfig, h.cfg.Core())
	}
	for _, d := range h.cfg.Descriptors() {
		if !d.Policy.RealTime() {
			continue
		}
		lo, hi, err := h.plat.PriorityRange(d.Policy)
		if err != nil {
			return err
		}
		if d.Priority < lo || d.Priority > hi {
			return fmt.Errorf("%w: worker %d priority %d outside %s range [%d, %d]",
				config.ErrConfig, d.ID, d.Priority, d.Policy, lo, hi)
		}
	}
	return nil
}

// abort tears down a run that failed before release.
func (h *Harness) abort(cause error) error {
	if h.start != nil {
		h.start.Break()
	}
	if h.round != nil {
		h.round.Break()
	}
	// Created workers are parked on the broken barrier or already gone.
	_ = h.group.Wait()
	if h.start != nil {
		_ = h.start.Destroy()
	}
	h.restoreProcs()
	h.cause = cause
	h.life.Advance(h.life.Current(), control.Cleaned)
	return cause
}

func (h *Harness) restoreProcs() {
	if h.procs > 0 {
		runtime.GOMAXPROCS(h.procs)
		h.procs = 0
	}
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// WORKER
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// work is the body of one worker goroutine. d is the worker's own copy.
//
//go:registerparams
func (h *Harness) work(d config.Descriptor, ready chan<- error) error {
	// Never unlocked: the thread carries this worker's class and affinity and
	// is destroyed when the goroutine exits.
	runtime.LockOSThread()

	res := &h.results[d.ID]
	res.ID = d.ID
	res.Requested = d
	res.TID = h.plat.ThreadID()

	if err := h.plat.PinThread(h.cfg.Core()); err != nil {
		ready <- err
		return err
	}
	applied, err := h.plat.Apply(d)
	if err != nil {
		ready <- err
		return err
	}
	if !applied.Matches(d) {
		err := fmt.Errorf("%w: requested %s/%d, kernel reports %s/%d",
			policy.ErrResource, d.Policy, d.Priority, applied.Policy, applied.Priority)
		ready <- err
		return err
	}
	res.Applied = applied
	ready <- nil

	if err := h.start.Wait(); err != nil {
		return err
	}

	interval := h.cfg.WorkDuration()
	for i := 0; i < constants.Iterations; i++ {
		h.obs.IterationStart(d.ID, i)
		res.Polls[i] = spin.BusyWait(interval)
		res.Iterations++
		h.obs.IterationEnd(d.ID, i, res.Polls[i])

		if h.round != nil {
			if err := h.round.Wait(); err != nil {
				return err
			}
		}
	}
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// JOIN
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// Join blocks until every worker has finished and releases the barrier.
// Call it once, after Start returned nil. After a failed Start it returns
// the abort cause.
func (h *Harness) Join() ([]WorkerResult, error) {
	switch h.life.Current() {
	case control.Idle:
		return nil, ErrNotStarted
	case control.Cleaned:
		if h.cause != nil {
			return nil, h.cause
		}
		return h.results, nil
	case control.Released:
	default:
		return nil, fmt.Errorf("join in phase %v", h.life.Current())
	}

	err := h.group.Wait()
	h.life.Advance(control.Released, control.AllWorkersJoined)

	if derr := h.start.Destroy(); derr != nil && err == nil {
		err = derr
	}
	h.restoreProcs()
	h.life.Advance(control.AllWorkersJoined, control.Cleaned)
	if err != nil {
		return h.results, err
	}
	return h.results, nil
}
