// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: debug.go — Cold-path diagnostics helper
//
// Purpose:
//   - Reports configuration, privilege and resource failures on stderr.
//   - Used only by the command layer, never from a worker's timed loop.
//
// Notes:
//   - Avoids fmt.Sprintf; one concatenation, one write.
//   - A single write per message keeps lines whole under concurrency.
//
// ⚠️ Never invoke between barrier release and join — output perturbs the
//    scheduling behavior being observed.
// ─────────────────────────────────────────────────────────────────────────────

package debug

import "scheddemo/utils"

// DropError logs prefix and err on stderr. With a nil err only the prefix
// is printed, for tagged warnings.
//
//go:nosplit
//go:inline
//go:registerparams
func DropError(prefix string, err error) {
	if err != nil {
		msg := prefix + ": " + err.Error() + "\n"
		utils.PrintWarning(msg)
	} else {
		msg := prefix + "\n"
		utils.PrintWarning(msg)
	}
}

// DropMessage logs a tagged diagnostic line on stderr.
//
//go:nosplit
//go:inline
//go:registerparams
func DropMessage(prefix, message string) {
	msg := prefix + ": " + message + "\n"
	utils.PrintWarning(msg)
}
