// ════════════════════════════════════════════════════════════════════════════════════════════════
// 📜 ITERATION TRACE
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: Scheduling Policy Harness
// Component: Start-Order Recorder & Run Report
//
// Description:
//   Records when every worker iteration started and ended, and in which global order. The
//   recorder is an iteration observer: each worker writes only its own preallocated slots and the
//   single shared word is an atomic sequence counter, so recording never takes a lock on the
//   measured path.
//
// Output:
//   - Report: fingerprinted JSON document of the configuration, worker results and events
//   - Summary: fixed-width human table
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package trace

import (
	"sort"
	"sync/atomic"
	"time"

	"scheddemo/constants"
)

// sample is one iteration as seen by its worker. Seq is zero until the
// iteration starts.
type sample struct {
	seq   uint64
	start int64 // ns since the recorder's origin
	end   int64
	polls uint64
}

// Recorder captures iteration timing for a fixed number of workers.
type Recorder struct {
	origin time.Time
	seq    atomic.Uint64
	slots  [][constants.Iterations]sample
}

// NewRecorder allocates slots for workers workers.
func NewRecorder(workers int) *Recorder {
	if workers < 0 {
		workers = 0
	}
	return &Recorder{
		origin: time.Now(),
		slots:  make([][constants.Iterations]sample, workers),
	}
}

// IterationStart stamps the iteration with the next global sequence number.
func (r *Recorder) IterationStart(worker, iter int) {
	if !r.valid(worker, iter) {
		return
	}
	s := &r.slots[worker][iter]
	s.seq = r.seq.Add(1)
	s.start = int64(time.Since(r.origin))
}

// IterationEnd stamps the end of the iteration.
func (r *Recorder) IterationEnd(worker, iter int, polls uint64) {
	if !r.valid(worker, iter) {
		return
	}
	s := &r.slots[worker][iter]
	s.end = int64(time.Since(r.origin))
	s.polls = polls
}

//go:inline
func (r *Recorder) valid(worker, iter int) bool {
	return uint(worker) < uint(len(r.slots)) && uint(iter) < constants.Iterations
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// READ-OUT (after join only)
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// Event is one recorded iteration.
type Event struct {
	Seq       uint64 `json:"seq"`
	Worker    int    `json:"worker"`
	Iteration int    `json:"iteration"`
	StartNs   int64  `json:"start_ns"`
	EndNs     int64  `json:"end_ns"`
	Polls     uint64 `json:"polls"`
}

// Duration is the measured wall time of the iteration.
func (e Event) Duration() time.Duration { return time.Duration(e.EndNs - e.StartNs) }

// Events returns every started iteration in global start order.
func (r *Recorder) Events() []Event {
	out := make([]Event, 0, len(r.slots)*constants.Iterations)
	for w := range r.slots {
		for i, s := range r.slots[w] {
			if s.seq == 0 {
				continue
			}
			out = append(out, Event{
				Seq:       s.seq,
				Worker:    w,
				Iteration: i,
				StartNs:   s.start,
				EndNs:     s.end,
				Polls:     s.polls,
			})
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Seq < out[b].Seq })
	return out
}

// StartOrder returns worker IDs ordered by when their first iteration
// began. Workers that never started are omitted.
func (r *Recorder) StartOrder() []int {
	ids := make([]int, 0, len(r.slots))
	for w := range r.slots {
		if r.slots[w][0].seq != 0 {
			ids = append(ids, w)
		}
	}
	sort.Slice(ids, func(a, b int) bool {
		return r.slots[ids[a]][0].seq < r.slots[ids[b]][0].seq
	})
	return ids
}
