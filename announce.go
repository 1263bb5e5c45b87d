package main

import (
	"scheddemo/utils"
)

// announceLineCap fits "Thread <id> is starting\n" for any int id.
const announceLineCap = 48

// announcer prints one line per iteration start from the worker's own
// thread. Lines are built in a per-worker buffer allocated before release
// and written with a single write call; write must not retain its argument.
type announcer struct {
	bufs  [][announceLineCap]byte
	write func(string)
}

func newAnnouncer(workers int, write func(string)) *announcer {
	if write == nil {
		write = utils.PrintInfo
	}
	return &announcer{
		bufs:  make([][announceLineCap]byte, workers),
		write: write,
	}
}

func (a *announcer) IterationStart(worker, iter int) {
	if uint(worker) >= uint(len(a.bufs)) {
		return
	}
	line := utils.AppendTagged(a.bufs[worker][:0], "Thread ", worker, " is starting\n")
	a.write(utils.B2s(line))
}

func (a *announcer) IterationEnd(int, int, uint64) {}
