//go:build !linux

package barrier

// park blocks on the gate's channel; wake order is the Go scheduler's.
func park(_ *uint32, done <-chan struct{}) {
	<-done
}

// wakeAll is a no-op: closing the channel already woke every waiter.
func wakeAll(_ *uint32) {}
