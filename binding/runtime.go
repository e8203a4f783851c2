//go:build darwin || linux || freebsd || windows

package binding

import (
	"github.com/ebitengine/purego"

	"github.com/wippyai/sharpbridge/errors"
)

// Runtime builds typed wrappers over the resolved addresses.
func (t *Table) Runtime() (*Runtime, error) {
	rt := &Runtime{}
	required := []struct {
		name string
		fptr any
	}{
		{"mono_jit_init_version", &rt.JitInitVersion},
		{"mono_jit_cleanup", &rt.JitCleanup},
		{"mono_domain_assembly_open", &rt.DomainAssemblyOpen},
		{"mono_assembly_get_image", &rt.AssemblyGetImage},
		{"mono_class_from_name", &rt.ClassFromName},
		{"mono_class_get_method_from_name", &rt.ClassGetMethodFromName},
		{"mono_runtime_invoke", &rt.RuntimeInvoke},
		{"mono_string_new", &rt.StringNew},
		{"mono_thread_attach", &rt.ThreadAttach},
	}
	var missing []string
	for _, r := range required {
		addr, ok := t.addrs[r.name]
		if !ok {
			missing = append(missing, t.library+"#"+r.name)
			continue
		}
		purego.RegisterFunc(r.fptr, addr)
	}
	if len(missing) > 0 {
		return nil, errors.NewMissingSymbolsError(missing)
	}
	if addr, ok := t.addrs["mono_add_internal_call"]; ok {
		purego.RegisterFunc(&rt.AddInternalCall, addr)
	}
	return rt, nil
}
