// Package binding resolves the embedded runtime's C embedding API, either
// from a shared library loaded at run time or from a table of addresses
// linked into the host, and feeds the resolved addresses into the interop
// registry.
package binding

import (
	"slices"

	"go.uber.org/zap"

	"github.com/wippyai/sharpbridge/errors"
	"github.com/wippyai/sharpbridge/interop"
)

// Library is a source of symbol addresses.
type Library interface {
	// Name identifies the library in errors, e.g. "libmonosgen-2.0.so".
	Name() string
	Symbol(name string) (uintptr, error)
	Close() error
}

// Symbol is one entry of an API list.
type Symbol struct {
	Name     string
	Optional bool
}

// API is the embedding surface the bridge binds against.
var API = []Symbol{
	{Name: "mono_jit_init_version"},
	{Name: "mono_jit_cleanup"},
	{Name: "mono_domain_assembly_open"},
	{Name: "mono_assembly_get_image"},
	{Name: "mono_class_from_name"},
	{Name: "mono_class_get_method_from_name"},
	{Name: "mono_runtime_invoke"},
	{Name: "mono_string_new"},
	{Name: "mono_thread_attach"},
	{Name: "mono_add_internal_call", Optional: true},
	{Name: "mono_set_dirs", Optional: true},
	{Name: "mono_jit_set_aot_mode", Optional: true},
}

// Table is the resolved API.
type Table struct {
	library string
	addrs   map[string]uintptr
}

// Bind resolves every symbol of api from lib. Missing required symbols are
// reported together; missing optional ones are skipped.
func Bind(lib Library, api []Symbol) (*Table, error) {
	t := &Table{library: lib.Name(), addrs: make(map[string]uintptr, len(api))}
	var missing []string
	for _, sym := range api {
		addr, err := lib.Symbol(sym.Name)
		if err != nil || addr == 0 {
			if sym.Optional {
				Logger().Debug("optional runtime symbol absent",
					zap.String("library", lib.Name()),
					zap.String("symbol", sym.Name))
				continue
			}
			missing = append(missing, lib.Name()+"#"+sym.Name)
			continue
		}
		t.addrs[sym.Name] = addr
	}
	if len(missing) > 0 {
		return nil, errors.NewMissingSymbolsError(missing)
	}
	Logger().Info("runtime API bound",
		zap.String("library", lib.Name()),
		zap.Int("symbols", len(t.addrs)))
	return t, nil
}

// Library returns the name of the library the table was bound from.
func (t *Table) Library() string { return t.library }

// Lookup returns the address of a resolved symbol.
func (t *Table) Lookup(name string) (uintptr, bool) {
	addr, ok := t.addrs[name]
	return addr, ok
}

// Functions returns the resolved symbols as raw-address registry entries,
// sorted by name.
func (t *Table) Functions() []interop.Function {
	names := make([]string, 0, len(t.addrs))
	for name := range t.addrs {
		names = append(names, name)
	}
	slices.Sort(names)

	fns := make([]interop.Function, len(names))
	for i, name := range names {
		fns[i] = interop.Function{Name: name, Addr: interop.Address(t.addrs[name])}
	}
	return fns
}

// static serves addresses linked into the host.
type static struct {
	addrs map[string]uintptr
}

// Static wraps a fixed symbol table, for runtimes linked into the host.
func Static(addrs map[string]uintptr) Library {
	return &static{addrs: addrs}
}

func (s *static) Name() string { return "static" }

func (s *static) Symbol(name string) (uintptr, error) {
	addr, ok := s.addrs[name]
	if !ok {
		return 0, errors.NotFound(errors.PhaseBind, "symbol", name)
	}
	return addr, nil
}

func (s *static) Close() error { return nil }
