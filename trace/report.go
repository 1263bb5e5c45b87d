package trace

import (
	"fmt"
	"io"
	"os"

	"scheddemo/config"
	"scheddemo/constants"
	"scheddemo/harness"
	"scheddemo/kfetch"

	"github.com/dustin/go-humanize"
	"github.com/sugawarayuuta/sonnet"
)

// Report is the machine-readable record of one run.
type Report struct {
	Fingerprint string                 `json:"fingerprint"`
	Config      config.Snapshot        `json:"config"`
	Workers     []harness.WorkerResult `json:"workers"`
	StartOrder  []int                  `json:"start_order"`
	Events      []Event                `json:"events"`
	Host        *kfetch.Info           `json:"host,omitempty"`
}

// NewReport assembles a report. rec may be nil when no recorder was
// installed; the report then carries results only.
func NewReport(cfg config.RunConfig, results []harness.WorkerResult, rec *Recorder) (Report, error) {
	fp, err := cfg.Fingerprint()
	if err != nil {
		return Report{}, err
	}
	rep := Report{
		Fingerprint: fp,
		Config:      cfg.Snapshot(),
		Workers:     results,
	}
	if rec != nil {
		rep.StartOrder = rec.StartOrder()
		rep.Events = rec.Events()
	}
	return rep, nil
}

// Encode writes rep as a single JSON document followed by a newline.
func (rep Report) Encode(w io.Writer) error {
	raw, err := sonnet.Marshal(rep)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	raw = append(raw, '\n')
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// WriteFile stores rep at path, replacing any existing file.
func (rep Report) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := rep.Encode(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// DecodeReport parses a document produced by Encode.
func DecodeReport(raw []byte) (Report, error) {
	var rep Report
	if err := sonnet.Unmarshal(raw, &rep); err != nil {
		return Report{}, fmt.Errorf("decode report: %w", err)
	}
	return rep, nil
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// HUMAN SUMMARY
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// Summary writes a fixed-width table of the run: one row per worker with
// its applied class, total spin polls and the position its first iteration
// took in the global start order.
func (rep Report) Summary(w io.Writer) error {
	place := make(map[int]int, len(rep.StartOrder))
	for i, id := range rep.StartOrder {
		place[id] = i + 1
	}

	fp := rep.Fingerprint
	if len(fp) > 12 {
		fp = fp[:12]
	}
	if _, err := fmt.Fprintf(w, "run %s  %d workers x %d iterations on cpu %d, %s per iteration\n",
		fp, rep.Config.Threads, constants.Iterations, rep.Config.Core,
		humanDuration(rep.Config.WorkDurationNs)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%-6s %-8s %-6s %-4s %16s %s\n",
		"WORKER", "TID", "POLICY", "PRIO", "POLLS", "STARTED"); err != nil {
		return err
	}

	var total uint64
	for _, r := range rep.Workers {
		var polls uint64
		for _, p := range r.Polls {
			polls += p
		}
		total += polls

		started := "-"
		if n, ok := place[r.ID]; ok {
			started = humanize.Ordinal(n)
		}
		prio := "-"
		if r.Applied.Policy.RealTime() {
			prio = fmt.Sprint(r.Applied.Priority)
		}
		if _, err := fmt.Fprintf(w, "%-6d %-8d %-6s %-4s %16s %s\n",
			r.ID, r.TID, r.Applied.Policy, prio, humanize.Comma(int64(polls)), started); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "total polls %s\n", humanize.Comma(int64(total)))
	return err
}

func humanDuration(ns int64) string {
	return humanize.FtoaWithDigits(float64(ns)/1e9, 6) + "s"
}
