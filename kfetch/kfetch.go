// ============================================================================
// KFETCH DEVICE CLIENT
// ============================================================================
//
// Talks to the kfetch character device: a 4-byte native-endian write selects
// which system fields the next read reports, and a single read returns the
// rendered report (at most KfetchBufSize bytes). The device serializes
// openers, so a Fetch holds it only for one write and one read.

package kfetch

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"scheddemo/constants"
	"scheddemo/utils"
)

// ErrMask is returned for masks outside the known field bits.
var ErrMask = errors.New("invalid kfetch mask")

// KeepMask makes Fetch read with whatever mask the device currently holds.
const KeepMask = -1

// Mask selects report fields.
type Mask int32

// fieldNames maps command-line spellings to bits, in report order.
var fieldNames = [...]struct {
	name string
	bit  Mask
}{
	{"release", constants.KfetchRelease},
	{"cpu", constants.KfetchCPUModel},
	{"cpus", constants.KfetchNumCPUs},
	{"mem", constants.KfetchMem},
	{"procs", constants.KfetchNumProcs},
	{"uptime", constants.KfetchUptime},
}

// Valid reports whether m only holds known bits.
func (m Mask) Valid() bool {
	return m >= 0 && m <= constants.KfetchFullInfo
}

// String lists the selected fields joined by commas.
func (m Mask) String() string {
	if !m.Valid() {
		return "Mask(" + strconv.Itoa(int(m)) + ")"
	}
	var parts []string
	for _, f := range fieldNames {
		if m&f.bit != 0 {
			parts = append(parts, f.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}

// ParseMask accepts a decimal or 0x-prefixed number, "all", or a
// comma-separated list of field names.
func ParseMask(s string) (Mask, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrMask)
	}
	if s == "all" {
		return constants.KfetchFullInfo, nil
	}
	if n, err := strconv.ParseInt(s, 0, 32); err == nil {
		m := Mask(n)
		if !m.Valid() {
			return 0, fmt.Errorf("%w: %d outside [0, %d]", ErrMask, n, constants.KfetchFullInfo)
		}
		return m, nil
	}

	var m Mask
	for _, tok := range strings.Split(s, ",") {
		tok = strings.ToLower(strings.TrimSpace(tok))
		found := false
		for _, f := range fieldNames {
			if f.name == tok {
				m |= f.bit
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("%w: unknown field %q", ErrMask, tok)
		}
	}
	return m, nil
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// DEVICE I/O
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// SetMask writes m as exactly KfetchMaskSize bytes in host byte order.
func SetMask(w io.Writer, m Mask) error {
	if !m.Valid() {
		return fmt.Errorf("%w: %d", ErrMask, int32(m))
	}
	var buf [constants.KfetchMaskSize]byte
	binary.NativeEndian.PutUint32(buf[:], uint32(m))
	n, err := w.Write(buf[:])
	if err != nil {
		return fmt.Errorf("kfetch: set mask: %w", err)
	}
	if n != len(buf) {
		return fmt.Errorf("kfetch: set mask: short write %d/%d", n, len(buf))
	}
	return nil
}

// Read performs one read of up to KfetchBufSize bytes and returns the
// report with trailing NUL padding removed.
func Read(r io.Reader) (string, error) {
	var buf [constants.KfetchBufSize]byte
	n, err := r.Read(buf[:])
	if err != nil && !(errors.Is(err, io.EOF) && n > 0) {
		return "", fmt.Errorf("kfetch: read: %w", err)
	}
	return strings.Clone(utils.B2s(utils.TrimNUL(buf[:n]))), nil
}

// Fetch opens the device at path, selects mask (unless KeepMask) and reads
// one report.
func Fetch(path string, mask Mask) (string, error) {
	flag := os.O_RDWR
	if mask == KeepMask {
		flag = os.O_RDONLY
	}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return "", fmt.Errorf("kfetch: open: %w", err)
	}
	defer f.Close()

	if mask != KeepMask {
		if err := SetMask(f, mask); err != nil {
			return "", err
		}
	}
	return Read(f)
}
