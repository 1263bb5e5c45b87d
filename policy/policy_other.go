//go:build !linux

package policy

import "scheddemo/config"

// Apply reports ErrUnsupported.
func Apply(d config.Descriptor) (Applied, error) { return Applied{}, ErrUnsupported }

// Query reports ErrUnsupported.
func Query() (Applied, error) { return Applied{}, ErrUnsupported }

// PriorityRange reports ErrUnsupported.
func PriorityRange(p config.Policy) (int, int, error) { return 0, 0, ErrUnsupported }
