package harness

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"scheddemo/config"
	"scheddemo/constants"
	"scheddemo/control"
	"scheddemo/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// TEST DOUBLES
// ============================================================================

// fakePlatform records every kernel call and echoes back what was requested
// unless told otherwise.
type fakePlatform struct {
	mu sync.Mutex

	pinProcessErr error
	pinTaskErr    error
	disallowed    bool
	pinThreadErr  map[int]error // by creation order
	applyErr      map[int]error // by worker ID
	report        map[int]policy.Applied
	lo, hi        int

	pinProcessCalls int
	pinThreadCalls  int
	applied         []int // worker IDs in Apply order
	pinnedTIDs      []int // task ids pinned by the coordinator

	configured atomic.Int32
	tids       atomic.Int32
}

func newFake() *fakePlatform {
	return &fakePlatform{lo: 1, hi: 99}
}

func (f *fakePlatform) PinProcess(cpu int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pinProcessCalls++
	return f.pinProcessErr
}

func (f *fakePlatform) PinThread(cpu int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.pinThreadCalls
	f.pinThreadCalls++
	return f.pinThreadErr[idx]
}

func (f *fakePlatform) PinTask(tid, cpu int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pinnedTIDs = append(f.pinnedTIDs, tid)
	return f.pinTaskErr
}

func (f *fakePlatform) Allowed(cpu int) (bool, error) { return !f.disallowed, nil }

func (f *fakePlatform) PriorityRange(p config.Policy) (int, int, error) {
	if !p.RealTime() {
		return 0, 0, nil
	}
	return f.lo, f.hi, nil
}

func (f *fakePlatform) Apply(d config.Descriptor) (policy.Applied, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = append(f.applied, d.ID)
	if err := f.applyErr[d.ID]; err != nil {
		return policy.Applied{}, err
	}
	if a, ok := f.report[d.ID]; ok {
		return a, nil
	}
	f.configured.Add(1)
	return policy.Applied{Policy: d.Policy, Priority: d.Priority}, nil
}

func (f *fakePlatform) ThreadID() int { return int(f.tids.Add(1)) }

// recorder counts iterations and checks that every worker was configured
// before the first one started working.
type recorder struct {
	plat *fakePlatform
	want int32

	mu     sync.Mutex
	starts map[int]int
	ends   map[int]int
	polls  uint64
	early  atomic.Bool
}

func newRecorder(p *fakePlatform, n int) *recorder {
	return &recorder{plat: p, want: int32(n), starts: map[int]int{}, ends: map[int]int{}}
}

func (r *recorder) IterationStart(worker, iter int) {
	if r.plat.configured.Load() != r.want {
		r.early.Store(true)
	}
	r.mu.Lock()
	r.starts[worker]++
	r.mu.Unlock()
}

func (r *recorder) IterationEnd(worker, iter int, polls uint64) {
	r.mu.Lock()
	r.ends[worker]++
	r.polls += polls
	r.mu.Unlock()
}

func mustConfig(t *testing.T, policies []config.Policy, priorities []int, opts ...config.Option) config.RunConfig {
	t.Helper()
	cfg, err := config.New(len(policies), time.Millisecond, policies, priorities, opts...)
	require.NoError(t, err)
	return cfg
}

// ============================================================================
// SUCCESSFUL RUNS
// ============================================================================

func TestRunThreeIterationsPerWorker(t *testing.T) {
	fake := newFake()
	cfg := mustConfig(t,
		[]config.Policy{config.PolicyOther, config.PolicyFIFO, config.PolicyFIFO},
		[]int{0, 10, 50})
	rec := newRecorder(fake, 3)

	results, err := Run(cfg, WithPlatform(fake), WithObserver(rec))
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, r := range results {
		assert.Equal(t, i, r.ID)
		assert.Equal(t, constants.Iterations, r.Iterations)
		assert.NotZero(t, r.TID)
		for _, p := range r.Polls {
			assert.NotZero(t, p)
		}
		assert.Equal(t, constants.Iterations, rec.starts[i])
		assert.Equal(t, constants.Iterations, rec.ends[i])
	}
	assert.False(t, rec.early.Load(), "a worker ran before all workers were configured")
	assert.Equal(t, 1, fake.pinProcessCalls)
	assert.Equal(t, 3, fake.pinThreadCalls)
	assert.Equal(t, []int{0, 1, 2}, fake.applied)
	assert.Equal(t, []int{results[0].TID, results[1].TID, results[2].TID}, fake.pinnedTIDs)
}

func TestRunReportsAppliedClasses(t *testing.T) {
	fake := newFake()
	cfg := mustConfig(t,
		[]config.Policy{config.PolicyFIFO, config.PolicyFIFO, config.PolicyOther},
		[]int{10, 50, 99})

	results, err := Run(cfg, WithPlatform(fake))
	require.NoError(t, err)

	assert.Equal(t, policy.Applied{Policy: config.PolicyFIFO, Priority: 10}, results[0].Applied)
	assert.Equal(t, policy.Applied{Policy: config.PolicyFIFO, Priority: 50}, results[1].Applied)
	assert.Equal(t, policy.Applied{Policy: config.PolicyOther, Priority: constants.PriorityNotApplicable}, results[2].Applied)
	assert.Equal(t, constants.PriorityNotApplicable, results[2].Requested.Priority)
}

func TestRunZeroWork(t *testing.T) {
	fake := newFake()
	cfg, err := config.New(2, 0, []config.Policy{config.PolicyOther, config.PolicyOther}, []int{0, 0})
	require.NoError(t, err)

	results, err := Run(cfg, WithPlatform(fake))
	require.NoError(t, err)
	for _, r := range results {
		assert.Equal(t, constants.Iterations, r.Iterations)
	}
}

func TestRunRoundSync(t *testing.T) {
	fake := newFake()
	cfg := mustConfig(t,
		[]config.Policy{config.PolicyOther, config.PolicyOther, config.PolicyOther, config.PolicyOther},
		[]int{0, 0, 0, 0},
		config.WithRoundSync(true))

	h := New(cfg, WithPlatform(fake))
	require.NoError(t, h.Start())
	require.NotNil(t, h.round)
	results, err := h.Join()
	require.NoError(t, err)

	assert.Equal(t, constants.Iterations, h.round.Rounds())
	for _, r := range results {
		assert.Equal(t, constants.Iterations, r.Iterations)
	}
}

func TestPhasesAndGOMAXPROCS(t *testing.T) {
	before := runtime.GOMAXPROCS(0)
	fake := newFake()
	cfg := mustConfig(t, []config.Policy{config.PolicyOther, config.PolicyOther}, []int{0, 0})

	h := New(cfg, WithPlatform(fake))
	assert.Equal(t, control.Idle, h.Phase())

	require.NoError(t, h.Start())
	assert.Equal(t, control.Released, h.Phase())
	assert.GreaterOrEqual(t, runtime.GOMAXPROCS(0), 4)

	_, err := h.Join()
	require.NoError(t, err)
	assert.Equal(t, control.Cleaned, h.Phase())
	assert.Equal(t, before, runtime.GOMAXPROCS(0))
}

// ============================================================================
// MISUSE
// ============================================================================

func TestStartTwice(t *testing.T) {
	fake := newFake()
	cfg := mustConfig(t, []config.Policy{config.PolicyOther}, []int{0})

	h := New(cfg, WithPlatform(fake))
	require.NoError(t, h.Start())
	assert.ErrorIs(t, h.Start(), ErrAlreadyStarted)
	_, err := h.Join()
	require.NoError(t, err)
}

func TestJoinBeforeStart(t *testing.T) {
	h := New(config.RunConfig{}, WithPlatform(newFake()))
	_, err := h.Join()
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestJoinTwiceReturnsSameResults(t *testing.T) {
	fake := newFake()
	cfg := mustConfig(t, []config.Policy{config.PolicyOther}, []int{0})

	h := New(cfg, WithPlatform(fake))
	require.NoError(t, h.Start())
	first, err := h.Join()
	require.NoError(t, err)
	second, err := h.Join()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNilObserverIgnored(t *testing.T) {
	cfg := mustConfig(t, []config.Policy{config.PolicyOther}, []int{0})
	_, err := Run(cfg, WithPlatform(newFake()), WithObserver(nil))
	require.NoError(t, err)
}

// ============================================================================
// ABORTS
// ============================================================================

func TestInvalidConfigCreatesNoThreads(t *testing.T) {
	fake := newFake()
	_, err := Run(config.RunConfig{}, WithPlatform(fake))
	require.ErrorIs(t, err, config.ErrConfig)
	assert.Zero(t, fake.pinProcessCalls)
	assert.Zero(t, fake.pinThreadCalls)
}

func TestPriorityOutOfRangeCreatesNoThreads(t *testing.T) {
	fake := newFake()
	cfg := mustConfig(t, []config.Policy{config.PolicyFIFO, config.PolicyFIFO}, []int{10, 120})

	h := New(cfg, WithPlatform(fake))
	err := h.Start()
	require.ErrorIs(t, err, config.ErrConfig)
	assert.Zero(t, fake.pinThreadCalls)
	assert.Equal(t, control.Cleaned, h.Phase())

	_, jerr := h.Join()
	assert.ErrorIs(t, jerr, config.ErrConfig)
}

func TestCoreOutsideMaskCreatesNoThreads(t *testing.T) {
	fake := newFake()
	fake.disallowed = true
	cfg := mustConfig(t, []config.Policy{config.PolicyOther, config.PolicyOther}, []int{0, 0}, config.WithCore(3))

	h := New(cfg, WithPlatform(fake))
	err := h.Start()
	require.ErrorIs(t, err, config.ErrConfig)
	assert.Contains(t, err.Error(), "cpu 3")
	assert.Zero(t, fake.pinProcessCalls)
	assert.Zero(t, fake.pinThreadCalls)
	assert.Equal(t, control.Cleaned, h.Phase())
}

func TestPinTaskFailureAborts(t *testing.T) {
	fake := newFake()
	fake.pinTaskErr = errors.New("no such task")
	cfg := mustConfig(t, []config.Policy{config.PolicyOther, config.PolicyOther}, []int{0, 0})

	_, err := Run(cfg, WithPlatform(fake))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "worker 0: pin task")
	assert.Equal(t, []int{0}, fake.applied)
	assert.Len(t, fake.pinnedTIDs, 1)
}

func TestPinProcessFailureAborts(t *testing.T) {
	fake := newFake()
	fake.pinProcessErr = errors.New("no such cpu")
	cfg := mustConfig(t, []config.Policy{config.PolicyOther}, []int{0})

	_, err := Run(cfg, WithPlatform(fake))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pin coordinator")
	assert.Zero(t, fake.pinThreadCalls)
}

func TestApplyFailureJoinsEarlierWorkers(t *testing.T) {
	fake := newFake()
	fake.applyErr = map[int]error{2: policy.ErrPrivilege}
	cfg := mustConfig(t,
		[]config.Policy{config.PolicyOther, config.PolicyOther, config.PolicyFIFO, config.PolicyOther},
		[]int{0, 0, 10, 0})
	rec := newRecorder(fake, 4)

	h := New(cfg, WithPlatform(fake), WithObserver(rec))
	err := h.Start()
	require.ErrorIs(t, err, policy.ErrPrivilege)
	assert.Contains(t, err.Error(), "worker 2")

	// Worker 3 was never created and nobody iterated.
	assert.Equal(t, []int{0, 1, 2}, fake.applied)
	assert.Empty(t, rec.starts)
	assert.Equal(t, control.Cleaned, h.Phase())
}

func TestPinThreadFailureAborts(t *testing.T) {
	fake := newFake()
	fake.pinThreadErr = map[int]error{1: errors.New("affinity rejected")}
	cfg := mustConfig(t, []config.Policy{config.PolicyOther, config.PolicyOther}, []int{0, 0})

	_, err := Run(cfg, WithPlatform(fake))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "worker 1")
	assert.Equal(t, []int{0}, fake.applied)
}

func TestMismatchedReadBackAborts(t *testing.T) {
	fake := newFake()
	fake.report = map[int]policy.Applied{
		0: {Policy: config.PolicyOther, Priority: constants.PriorityNotApplicable},
	}
	cfg := mustConfig(t, []config.Policy{config.PolicyFIFO}, []int{20})

	_, err := Run(cfg, WithPlatform(fake))
	require.ErrorIs(t, err, policy.ErrResource)
}

// ============================================================================
// OBSERVERS
// ============================================================================

type countObserver struct{ starts, ends atomic.Int32 }

func (c *countObserver) IterationStart(int, int)       { c.starts.Add(1) }
func (c *countObserver) IterationEnd(int, int, uint64) { c.ends.Add(1) }

func TestTee(t *testing.T) {
	a, b := &countObserver{}, &countObserver{}

	assert.Equal(t, nopObserver{}, Tee())
	assert.Equal(t, nopObserver{}, Tee(nil, nil))
	assert.Same(t, a, Tee(nil, a))

	o := Tee(a, nil, b)
	o.IterationStart(0, 0)
	o.IterationEnd(0, 0, 7)
	assert.EqualValues(t, 1, a.starts.Load())
	assert.EqualValues(t, 1, b.ends.Load())
}

func TestTeeDuringRun(t *testing.T) {
	a, b := &countObserver{}, &countObserver{}
	cfg := mustConfig(t, []config.Policy{config.PolicyOther, config.PolicyOther}, []int{0, 0})

	_, err := Run(cfg, WithPlatform(newFake()), WithObserver(Tee(a, b)))
	require.NoError(t, err)
	assert.EqualValues(t, 2*constants.Iterations, a.starts.Load())
	assert.EqualValues(t, 2*constants.Iterations, b.ends.Load())
}
