// ============================================================================
// CPU AFFINITY CONTROL
// ============================================================================
//
// Confines the coordinating process and every worker thread to one processor
// so that a single run queue decides all ordering among workers.
//
// Pinning happens twice per worker: once process-wide from the coordinator,
// once from inside the worker on its own locked thread. The second pin covers
// threads the Go runtime creates after the process-wide pass.

package affinity

import "errors"

var (
	// ErrAffinity marks a failure to set or verify an affinity mask.
	ErrAffinity = errors.New("cpu affinity error")

	// ErrUnsupported is returned on platforms without per-thread affinity.
	ErrUnsupported = errors.New("cpu affinity not supported on this platform")
)
