//go:build !darwin && !linux && !freebsd && !windows

package binding

import "github.com/wippyai/sharpbridge/errors"

// Runtime is unavailable without a native call mechanism.
func (t *Table) Runtime() (*Runtime, error) {
	return nil, errors.Unsupported(errors.PhaseBind, "native calls on this platform")
}
