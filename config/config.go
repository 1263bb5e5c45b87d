// ════════════════════════════════════════════════════════════════════════════════════════════════
// 🧾 RUN CONFIGURATION
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: Scheduling Policy Harness
// Component: Immutable Experiment Description
//
// Description:
//   Describes one experiment: how many workers, how long each busy-wait interval lasts, and the
//   scheduling class and priority of every worker. Built and validated once, then only read.
//   Workers receive Descriptor values, never a pointer into the configuration.
//
// Invariants:
//   - len(Policies) == len(Priorities) == Threads
//   - Time-sharing descriptors always carry PriorityNotApplicable
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"scheddemo/constants"

	"github.com/sugawarayuuta/sonnet"
	"golang.org/x/crypto/sha3"
)

// ErrConfig marks every configuration failure. Reported before any worker
// thread exists.
var ErrConfig = errors.New("configuration error")

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// SCHEDULING CLASSES
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// Policy is a symbolic scheduling class.
type Policy uint8

const (
	// PolicyOther is the default time-sharing class.
	PolicyOther Policy = iota
	// PolicyFIFO is the real-time first-in-first-out class.
	PolicyFIFO
)

// String returns the command-line spelling of p.
func (p Policy) String() string {
	switch p {
	case PolicyFIFO:
		return constants.PolicyNameFIFO
	case PolicyOther:
		return constants.PolicyNameOther
	default:
		return "Policy(" + strconv.Itoa(int(p)) + ")"
	}
}

// RealTime reports whether p is a real-time class whose priority matters.
func (p Policy) RealTime() bool {
	return p == PolicyFIFO
}

// MarshalText encodes p by name so reports stay readable.
func (p Policy) MarshalText() ([]byte, error) {
	switch p {
	case PolicyFIFO, PolicyOther:
		return []byte(p.String()), nil
	default:
		return nil, fmt.Errorf("%w: unknown policy %d", ErrConfig, p)
	}
}

// UnmarshalText decodes a policy name.
func (p *Policy) UnmarshalText(b []byte) error {
	v, err := ParsePolicy(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// ParsePolicy accepts FIFO or OTHER in any letter case, with surrounding
// whitespace ignored.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case constants.PolicyNameFIFO:
		return PolicyFIFO, nil
	case constants.PolicyNameOther:
		return PolicyOther, nil
	default:
		return 0, fmt.Errorf("%w: unknown scheduling policy %q (want %s or %s)",
			ErrConfig, s, constants.PolicyNameFIFO, constants.PolicyNameOther)
	}
}

// ParsePolicies parses every token of a split policy list.
func ParsePolicies(tokens []string) ([]Policy, error) {
	out := make([]Policy, 0, len(tokens))
	for i, tok := range tokens {
		p, err := ParsePolicy(tok)
		if err != nil {
			return nil, fmt.Errorf("policy #%d: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// WORKER DESCRIPTORS
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// Descriptor identifies one worker and the class it must run under. Passed
// by value into the worker's goroutine.
type Descriptor struct {
	ID       int    `json:"id"`
	Policy   Policy `json:"policy"`
	Priority int    `json:"priority"`
}

// NewDescriptor builds a descriptor, normalizing the priority of
// time-sharing workers to PriorityNotApplicable.
func NewDescriptor(id int, p Policy, priority int) Descriptor {
	if !p.RealTime() {
		priority = constants.PriorityNotApplicable
	}
	return Descriptor{ID: id, Policy: p, Priority: priority}
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// RUN CONFIGURATION
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// RunConfig is one experiment. Construct it with New; the zero value is
// invalid.
type RunConfig struct {
	threads    int
	work       time.Duration
	policies   []Policy
	priorities []int
	core       int
	roundSync  bool
}

// Option adjusts optional RunConfig fields during New.
type Option func(*RunConfig)

// WithCore selects the processor every thread is pinned to.
func WithCore(cpu int) Option {
	return func(c *RunConfig) { c.core = cpu }
}

// WithRoundSync makes workers rendezvous again after every iteration.
func WithRoundSync(on bool) Option {
	return func(c *RunConfig) { c.roundSync = on }
}

// New validates its inputs and returns an immutable configuration. The
// slices are copied; later changes by the caller are not observed.
func New(threads int, work time.Duration, policies []Policy, priorities []int, opts ...Option) (RunConfig, error) {
	c := RunConfig{
		threads:    threads,
		work:       work,
		policies:   append([]Policy(nil), policies...),
		priorities: append([]int(nil), priorities...),
		core:       constants.DefaultCore,
	}
	for _, o := range opts {
		o(&c)
	}
	if err := c.Validate(); err != nil {
		return RunConfig{}, err
	}
	return c, nil
}

// Validate checks the structural invariants. It does not consult the
// kernel; priority ranges are checked by the harness against the platform.
func (c RunConfig) Validate() error {
	switch {
	case c.threads <= 0:
		return fmt.Errorf("%w: thread count must be positive, got %d", ErrConfig, c.threads)
	case c.threads > constants.MaxThreads:
		return fmt.Errorf("%w: thread count %d exceeds limit %d", ErrConfig, c.threads, constants.MaxThreads)
	case c.work < 0:
		return fmt.Errorf("%w: work duration must not be negative, got %v", ErrConfig, c.work)
	case len(c.policies) != c.threads:
		return fmt.Errorf("%w: %d policies for %d threads", ErrConfig, len(c.policies), c.threads)
	case len(c.priorities) != c.threads:
		return fmt.Errorf("%w: %d priorities for %d threads", ErrConfig, len(c.priorities), c.threads)
	case c.core < 0:
		return fmt.Errorf("%w: core must not be negative, got %d", ErrConfig, c.core)
	}
	for i, p := range c.policies {
		if p != PolicyFIFO && p != PolicyOther {
			return fmt.Errorf("%w: policy #%d is not a known class", ErrConfig, i)
		}
	}
	return nil
}

// Threads returns the worker count.
func (c RunConfig) Threads() int { return c.threads }

// WorkDuration returns the length of one busy-wait interval.
func (c RunConfig) WorkDuration() time.Duration { return c.work }

// Core returns the target processor.
func (c RunConfig) Core() int { return c.core }

// RoundSync reports whether the per-round barrier is enabled.
func (c RunConfig) RoundSync() bool { return c.roundSync }

// Policies returns a copy of the per-worker classes.
func (c RunConfig) Policies() []Policy { return append([]Policy(nil), c.policies...) }

// Priorities returns a copy of the per-worker priorities as given.
func (c RunConfig) Priorities() []int { return append([]int(nil), c.priorities...) }

// Descriptors returns one freshly built descriptor per worker, in ID order.
func (c RunConfig) Descriptors() []Descriptor {
	out := make([]Descriptor, c.threads)
	for i := range out {
		out[i] = NewDescriptor(i, c.policies[i], c.priorities[i])
	}
	return out
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// CANONICAL FORM & FINGERPRINT
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// Snapshot is the serializable form of a RunConfig used in reports.
type Snapshot struct {
	Threads        int          `json:"threads"`
	WorkDurationNs int64        `json:"work_duration_ns"`
	Core           int          `json:"core"`
	RoundSync      bool         `json:"round_sync"`
	Iterations     int          `json:"iterations"`
	Workers        []Descriptor `json:"workers"`
}

// Snapshot captures c with normalized descriptors.
func (c RunConfig) Snapshot() Snapshot {
	return Snapshot{
		Threads:        c.threads,
		WorkDurationNs: int64(c.work),
		Core:           c.core,
		RoundSync:      c.roundSync,
		Iterations:     constants.Iterations,
		Workers:        c.Descriptors(),
	}
}

// Fingerprint is the hex SHA3-256 of the canonical JSON snapshot. Two runs
// with equal fingerprints executed the same experiment.
func (c RunConfig) Fingerprint() (string, error) {
	raw, err := sonnet.Marshal(c.Snapshot())
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	sum := sha3.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
