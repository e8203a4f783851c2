package interop

import (
	goerrors "errors"
	"reflect"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/sharpbridge/errors"
)

// Well-known bootstrap entries. The managed side only needs the first to
// reach everything else by name.
const (
	NameInteropFunctionsPtr    = "GetUnrealInteropFunctionsPtr"
	NameInteropFunctionPointer = "GetUnrealInteropFunctionPointer"
	NameValidateBuildInfo      = "ValidateUnrealSharpBuildInfo"
)

// Address is an opaque function address handed across the boundary.
type Address uintptr

// Function is one registry entry.
type Function struct {
	Name string
	Addr Address
	// Fn is the Go implementation behind Addr, nil for raw addresses
	// resolved from a native library.
	Fn any
	// ParamNames documents the parameters of Fn, in order.
	ParamNames []string
}

// Registry is the name to address table the managed runtime resolves
// native capabilities through. Lookups are safe for concurrent use with
// each other and with registration.
type Registry struct {
	funcs  map[string]Function
	byAddr map[Address]string
	mu     sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		funcs:  make(map[string]Function),
		byAddr: make(map[Address]string),
	}
}

// AddressOf returns the code address of fn. Method values of the same
// method share one address regardless of receiver, as do closures created
// from the same function literal.
func AddressOf(fn any) Address {
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		return 0
	}
	return Address(rv.Pointer())
}

// Register binds name to addr. It reports whether name is bound to addr
// afterwards: re-registering the identical address is a no-op success, a
// different address is refused unless allowOverride is set, and a refused
// registration leaves the table unchanged.
func (r *Registry) Register(name string, addr Address, allowOverride bool) bool {
	_, ok := r.put(Function{Name: name, Addr: addr}, allowOverride)
	return ok
}

// RegisterFunc registers a Go function under name at its code address.
func (r *Registry) RegisterFunc(name string, fn any, allowOverride bool) bool {
	addr := AddressOf(fn)
	if addr == 0 {
		Logger().Warn("interop function is not a func", zap.String("name", name))
		return false
	}
	_, ok := r.put(Function{Name: name, Addr: addr, Fn: fn}, allowOverride)
	return ok
}

// Add registers fns as one population pass. Entries with Fn set and no
// Addr get their code address. Every conflict is reported in one error of
// kind conflict; non-conflicting entries are still registered.
func (r *Registry) Add(fns []Function, allowOverride bool) error {
	var conflicts []error
	for _, f := range fns {
		if f.Addr == 0 {
			f.Addr = AddressOf(f.Fn)
		}
		if existing, ok := r.put(f, allowOverride); !ok {
			conflicts = append(conflicts, errors.Conflict(f.Name, uintptr(existing), uintptr(f.Addr)))
		}
	}
	if len(conflicts) == 0 {
		return nil
	}
	return errors.New(errors.PhaseRegister, errors.KindConflict).
		Detail("%d of %d interop functions conflict", len(conflicts), len(fns)).
		Cause(goerrors.Join(conflicts...)).
		Build()
}

// put returns the address bound to f.Name before the call when it refuses.
func (r *Registry) put(f Function, allowOverride bool) (Address, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, found := r.funcs[f.Name]
	if found && existing.Addr == f.Addr {
		return existing.Addr, true
	}
	if found && !allowOverride {
		Logger().Error("interop function already registered",
			zap.String("name", f.Name),
			zap.Uintptr("existing", uintptr(existing.Addr)),
			zap.Uintptr("incoming", uintptr(f.Addr)))
		return existing.Addr, false
	}
	if found {
		Logger().Debug("overriding interop function",
			zap.String("name", f.Name),
			zap.Uintptr("previous", uintptr(existing.Addr)),
			zap.Uintptr("address", uintptr(f.Addr)))
		r.dropAddr(existing)
	}

	r.funcs[f.Name] = f
	if _, taken := r.byAddr[f.Addr]; !taken {
		r.byAddr[f.Addr] = f.Name
	}
	return f.Addr, true
}

// dropAddr removes the reverse entry for f, handing it to another name
// bound to the same address if one remains.
func (r *Registry) dropAddr(f Function) {
	if r.byAddr[f.Addr] != f.Name {
		return
	}
	delete(r.byAddr, f.Addr)
	for name, other := range r.funcs {
		if name != f.Name && other.Addr == f.Addr {
			r.byAddr[f.Addr] = name
			return
		}
	}
}

// Lookup returns the address bound to name.
func (r *Registry) Lookup(name string) (Address, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.funcs[name]
	return f.Addr, ok
}

// Resolve is Lookup with a not_found error for absent names. A missing
// capability means native/managed version skew and is not retryable.
func (r *Registry) Resolve(name string) (Address, error) {
	addr, ok := r.Lookup(name)
	if !ok {
		return 0, errors.NotFound(errors.PhaseLookup, "interop function", name)
	}
	return addr, nil
}

func (r *Registry) Function(name string) (Function, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.funcs[name]
	return f, ok
}

// ByAddress returns the entry registered at addr. When several names share
// an address the first registered one wins.
func (r *Registry) ByAddress(addr Address) (Function, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.byAddr[addr]
	if !ok {
		return Function{}, false
	}
	return r.funcs[name], true
}

// Unregister removes name unconditionally.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.funcs[name]; ok {
		delete(r.funcs, name)
		r.dropAddr(f)
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.funcs)
}

// Names returns every registered name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Functions returns a snapshot of every entry, sorted by name.
func (r *Registry) Functions() []Function {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fns := make([]Function, 0, len(r.funcs))
	for _, f := range r.funcs {
		fns = append(fns, f)
	}
	slices.SortFunc(fns, func(a, b Function) int {
		return strings.Compare(a.Name, b.Name)
	})
	return fns
}

// Reset empties the table.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.funcs)
	clear(r.byAddr)
}
