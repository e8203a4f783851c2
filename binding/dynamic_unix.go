//go:build darwin || linux || freebsd

package binding

import (
	"path/filepath"

	"github.com/ebitengine/purego"

	"github.com/wippyai/sharpbridge/errors"
)

type dynamic struct {
	name   string
	handle uintptr
}

// Open loads a shared library with dlopen.
func Open(path string) (Library, error) {
	h, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, errors.Load("dlopen "+path, err)
	}
	return &dynamic{name: filepath.Base(path), handle: h}, nil
}

func (d *dynamic) Name() string { return d.name }

func (d *dynamic) Symbol(name string) (uintptr, error) {
	addr, err := purego.Dlsym(d.handle, name)
	if err != nil {
		return 0, errors.Wrap(errors.PhaseBind, errors.KindSymbolMissing, err, name)
	}
	return addr, nil
}

func (d *dynamic) Close() error {
	if d.handle == 0 {
		return nil
	}
	err := purego.Dlclose(d.handle)
	d.handle = 0
	return err
}
