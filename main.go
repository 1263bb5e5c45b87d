// ════════════════════════════════════════════════════════════════════════════════════════════════
// Scheduling Policy Harness - Main Entry Point
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: Scheduling Policy Harness
// Component: Command Line & Run Orchestration
//
// Description:
//   Parses the worker configuration, runs one experiment on a single core and reports what the
//   kernel did with it.
//   Parse → Preflight → Create & Configure → Release → Join → Report
//
// Architecture:
//   - Phase 1: Flags become an immutable run configuration
//   - Phase 2: The harness creates, configures and releases every worker
//   - Phase 3: Optional JSON report, metrics textfile and summary table
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package main

import (
	"errors"
	"os"

	"scheddemo/config"
	"scheddemo/debug"
)

func main() {
	cmd := newRootCmd(defaultEnv())
	if err := cmd.Execute(); err != nil {
		debug.DropError("sched_demo", err)
		if errors.Is(err, config.ErrConfig) {
			cmd.SetOut(os.Stderr)
			_ = cmd.Usage()
		}
		os.Exit(1)
	}
}
