package harness

// Observer is notified around every workload iteration. Calls come from the
// worker's own pinned thread, between barrier release and join, so an
// implementation must be cheap and must not block: anything it does is
// part of the measured schedule.
type Observer interface {
	IterationStart(worker, iter int)
	IterationEnd(worker, iter int, polls uint64)
}

type nopObserver struct{}

func (nopObserver) IterationStart(int, int)       {}
func (nopObserver) IterationEnd(int, int, uint64) {}

// tee fans out to several observers in order.
type tee []Observer

func (t tee) IterationStart(worker, iter int) {
	for _, o := range t {
		o.IterationStart(worker, iter)
	}
}

func (t tee) IterationEnd(worker, iter int, polls uint64) {
	for _, o := range t {
		o.IterationEnd(worker, iter, polls)
	}
}

// Tee combines observers; nil entries are dropped.
func Tee(obs ...Observer) Observer {
	out := make(tee, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			out = append(out, o)
		}
	}
	switch len(out) {
	case 0:
		return nopObserver{}
	case 1:
		return out[0]
	default:
		return out
	}
}
