package barrier

import "sync"

// generation is one round of a Cyclic barrier.
type generation struct {
	gate   *gate
	broken bool // set before the gate opens
}

// Cyclic is a reusable barrier: every time the last of n parties arrives,
// the current round is released and a new one begins. Used for per-round
// synchronization between workload iterations.
type Cyclic struct {
	mu      sync.Mutex
	parties int
	arrived int
	rounds  int
	broken  bool
	gen     *generation
}

// NewCyclic returns a reusable barrier for n parties. It panics if n < 1.
func NewCyclic(n int) *Cyclic {
	if n < 1 {
		panic("barrier: party count must be positive")
	}
	return &Cyclic{
		parties: n,
		gen:     &generation{gate: newGate()},
	}
}

// Wait blocks until all parties reach the current round or the barrier is
// broken.
func (c *Cyclic) Wait() error {
	c.mu.Lock()
	if c.broken {
		c.mu.Unlock()
		return ErrBroken
	}
	g := c.gen
	c.arrived++
	if c.arrived == c.parties {
		c.arrived = 0
		c.rounds++
		c.gen = &generation{gate: newGate()}
		g.gate.open()
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	g.gate.wait()
	if g.broken {
		return ErrBroken
	}
	return nil
}

// Break releases the current round with ErrBroken and fails every later
// Wait. Reports false if already broken.
func (c *Cyclic) Break() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.broken {
		return false
	}
	c.broken = true
	c.gen.broken = true
	c.gen.gate.open()
	return true
}

// Rounds returns how many rounds have been released.
func (c *Cyclic) Rounds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rounds
}
