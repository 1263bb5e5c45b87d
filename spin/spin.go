// ════════════════════════════════════════════════════════════════════════════════════════════════
// ⏱ BUSY-WAIT WORKLOAD
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: Scheduling Policy Harness
// Component: CPU-Bound Timed Interval
//
// Description:
//   Occupies the calling thread in a tight loop sampling the monotonic clock until the requested
//   interval has elapsed. The loop never sleeps, yields or issues a PAUSE hint: the kernel has to
//   preempt it actively, which is exactly the behavior the harness exists to observe.
//
// Clock Source:
//   - time.Now carries a monotonic reading; time.Since subtracts monotonic readings only
//   - Wall-clock steps (NTP, settimeofday) cannot shorten an interval
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package spin

import (
	"math"
	"time"
)

// BusyWait spins until at least d has elapsed on the monotonic clock and
// returns how many clock samples it took. A thread that was preempted for
// part of the interval takes fewer samples than one that ran throughout,
// so the count is a direct measure of CPU share during the interval.
//
// d <= 0 returns after a single sample.
//
//go:norace
//go:registerparams
func BusyWait(d time.Duration) uint64 {
	start := time.Now()
	var polls uint64
	for {
		polls++
		if time.Since(start) >= d {
			return polls
		}
	}
}

// Seconds converts a real number of seconds into a Duration, rounding up to
// the next nanosecond so the resulting interval is never shorter than the
// one requested. Negative and NaN inputs yield 0; overflow saturates.
func Seconds(s float64) time.Duration {
	if math.IsNaN(s) || s <= 0 {
		return 0
	}
	ns := math.Ceil(s * float64(time.Second))
	if ns >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ns)
}
