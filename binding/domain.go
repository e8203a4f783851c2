package binding

import (
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/sharpbridge/errors"
)

// Runtime is the typed view of the core embedding calls. Handles of the
// embedded runtime (domains, assemblies, images, classes, methods,
// objects) are opaque uintptrs.
type Runtime struct {
	JitInitVersion         func(domain, version string) uintptr
	JitCleanup             func(domain uintptr)
	DomainAssemblyOpen     func(domain uintptr, path string) uintptr
	AssemblyGetImage       func(assembly uintptr) uintptr
	ClassFromName          func(image uintptr, namespace, name string) uintptr
	ClassGetMethodFromName func(class uintptr, name string, params int32) uintptr
	RuntimeInvoke          func(method, obj, params uintptr, exc *uintptr) uintptr
	StringNew              func(domain uintptr, text string) uintptr
	ThreadAttach           func(domain uintptr) uintptr

	// AddInternalCall is nil when the runtime does not export it.
	AddInternalCall func(name string, fn uintptr)
}

// Domain is a booted root domain with the calling thread attached.
type Domain struct {
	rt     *Runtime
	name   string
	handle uintptr
}

// Boot initializes the runtime's root domain. The runtime allows one root
// domain per process and cannot be booted again after Close.
func (rt *Runtime) Boot(name, version string) (*Domain, error) {
	h := rt.JitInitVersion(name, version)
	if h == 0 {
		return nil, errors.New(errors.PhaseLoad, errors.KindNotInitialized).
			Path(name).
			Detail("runtime refused to create root domain (version %s)", version).
			Build()
	}
	rt.ThreadAttach(h)
	Logger().Info("root domain booted", zap.String("domain", name), zap.String("version", version))
	return &Domain{rt: rt, name: name, handle: h}, nil
}

// Handle returns the raw domain handle.
func (d *Domain) Handle() uintptr { return d.handle }

// InvokeStatic loads assembly and calls the parameterless static method
// named by entry, written "Namespace.Class:Method". A managed exception is
// returned as a guest trap.
func (d *Domain) InvokeStatic(assembly, entry string) error {
	ns, class, method, err := splitEntry(entry)
	if err != nil {
		return err
	}
	asm := d.rt.DomainAssemblyOpen(d.handle, assembly)
	if asm == 0 {
		return errors.NotFound(errors.PhaseLoad, "assembly", assembly)
	}
	img := d.rt.AssemblyGetImage(asm)
	cls := d.rt.ClassFromName(img, ns, class)
	if cls == 0 {
		return errors.NotFound(errors.PhaseLookup, "managed class", qualify(ns, class))
	}
	m := d.rt.ClassGetMethodFromName(cls, method, 0)
	if m == 0 {
		return errors.NotFound(errors.PhaseLookup, "managed method", entry)
	}

	Logger().Debug("invoking managed entry", zap.String("entry", entry), zap.String("assembly", assembly))
	var exc uintptr
	d.rt.RuntimeInvoke(m, 0, 0, &exc)
	if exc != 0 {
		return errors.New(errors.PhaseGuest, errors.KindTrap).
			Path(entry).
			Value(exc).
			Detail("managed entry threw").
			Build()
	}
	return nil
}

// Close shuts the runtime down.
func (d *Domain) Close() {
	if d.handle == 0 {
		return
	}
	d.rt.JitCleanup(d.handle)
	d.handle = 0
	Logger().Info("root domain closed", zap.String("domain", d.name))
}

func splitEntry(entry string) (ns, class, method string, err error) {
	typ, method, ok := strings.Cut(entry, ":")
	if !ok || typ == "" || method == "" {
		return "", "", "", errors.InvalidInput(errors.PhaseLoad, "entry must be Namespace.Class:Method, got "+entry)
	}
	if i := strings.LastIndexByte(typ, '.'); i >= 0 {
		return typ[:i], typ[i+1:], method, nil
	}
	return "", typ, method, nil
}

func qualify(ns, class string) string {
	if ns == "" {
		return class
	}
	return ns + "." + class
}
