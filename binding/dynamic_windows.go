//go:build windows

package binding

import (
	"path/filepath"

	"golang.org/x/sys/windows"

	"github.com/wippyai/sharpbridge/errors"
)

type dynamic struct {
	name string
	dll  *windows.LazyDLL
}

// Open loads a DLL with LoadLibrary.
func Open(path string) (Library, error) {
	dll := windows.NewLazyDLL(path)
	if err := dll.Load(); err != nil {
		return nil, errors.Load("LoadLibrary "+path, err)
	}
	return &dynamic{name: filepath.Base(path), dll: dll}, nil
}

func (d *dynamic) Name() string { return d.name }

func (d *dynamic) Symbol(name string) (uintptr, error) {
	proc := d.dll.NewProc(name)
	if err := proc.Find(); err != nil {
		return 0, errors.Wrap(errors.PhaseBind, errors.KindSymbolMissing, err, name)
	}
	return proc.Addr(), nil
}

func (d *dynamic) Close() error {
	if d.dll == nil {
		return nil
	}
	err := windows.FreeLibrary(windows.Handle(d.dll.Handle()))
	d.dll = nil
	return err
}
