//go:build !darwin && !linux && !freebsd && !windows

package binding

import "github.com/wippyai/sharpbridge/errors"

// Open is unsupported on this platform; use Static.
func Open(path string) (Library, error) {
	return nil, errors.Unsupported(errors.PhaseLoad, "dynamic runtime loading on this platform")
}
