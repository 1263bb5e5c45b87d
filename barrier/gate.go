package barrier

import "sync/atomic"

// gate is a one-shot latch. Waiters block until open is called once.
//
// On Linux, wait parks the calling OS thread in FUTEX_WAIT on word and open
// wakes every parked thread with one FUTEX_WAKE, so the kernel scheduler
// picks the order in which released threads run, exactly as with a pthread
// barrier. A channel wait would let the Go scheduler decide instead.
type gate struct {
	word uint32        // 0 = closed, 1 = open
	done chan struct{} // closed together with word
}

func newGate() *gate {
	return &gate{done: make(chan struct{})}
}

// open releases every current and future waiter. Must be called once.
func (g *gate) open() {
	atomic.StoreUint32(&g.word, 1)
	close(g.done)
	wakeAll(&g.word)
}

// isOpen reports whether open has been called.
func (g *gate) isOpen() bool {
	return atomic.LoadUint32(&g.word) == 1
}

// wait blocks until open has been called.
func (g *gate) wait() {
	for !g.isOpen() {
		park(&g.word, g.done)
	}
}
