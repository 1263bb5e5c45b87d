// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: constants.go — Harness tunables & kernel-facing constants
//
// Purpose:
//   - Defines the fixed shape of one experiment (iterations, default core).
//   - Names the sentinel values used when a field does not apply.
//   - Carries the kfetch device protocol numbers.
//
// Notes:
//   - Nothing here is user-configurable at runtime; flags live in main.go
//
// ⚠️ No runtime logic here — all values must be compile-time resolvable
// ─────────────────────────────────────────────────────────────────────────────

package constants

// ───────────────────────────── Experiment Shape ─────────────────────────────

const (
	// Iterations is the number of busy-wait intervals each worker runs after
	// the start barrier releases. Fixed per run; not exposed as a flag.
	Iterations = 3

	// DefaultCore is the processor every thread is pinned to unless the
	// caller selects another one.
	DefaultCore = 0

	// MaxThreads bounds -n. Every worker holds one locked OS thread and the
	// Go runtime caps the process at 10,000 threads.
	MaxThreads = 4096
)

// ─────────────────────────── Scheduling Sentinels ───────────────────────────

const (
	// PriorityNotApplicable is reported for time-sharing workers, whose
	// static priority field carries no meaning.
	PriorityNotApplicable = -1

	// PolicyNameFIFO and PolicyNameOther are the symbolic class names
	// accepted on the command line and written to reports.
	PolicyNameFIFO  = "FIFO"
	PolicyNameOther = "OTHER"
)

// ───────────────────────────── Affinity Probing ─────────────────────────────

const (
	// ProcTaskDir lists every kernel task (thread) of the running process.
	ProcTaskDir = "/proc/self/task"
)

// ──────────────────────────── Metrics Namespace ─────────────────────────────

const (
	// MetricsNamespace prefixes every exported Prometheus series.
	MetricsNamespace = "scheddemo"
)

// ─────────────────────────── kfetch Device Protocol ─────────────────────────

const (
	// KfetchDevice is the character device created by the kfetch module.
	KfetchDevice = "/dev/kfetch"

	// KfetchMaskSize is the exact length of a control write: one C int.
	KfetchMaskSize = 4

	// KfetchBufSize mirrors the module's report buffer; a single read never
	// returns more than this.
	KfetchBufSize = 1024
)

// kfetch report field bits. Written as a native-endian int to the device.
const (
	KfetchRelease  = 1 << 0
	KfetchNumCPUs  = 1 << 1
	KfetchCPUModel = 1 << 2
	KfetchMem      = 1 << 3
	KfetchUptime   = 1 << 4
	KfetchNumProcs = 1 << 5

	KfetchNumInfo  = 6
	KfetchFullInfo = (1 << KfetchNumInfo) - 1
)
