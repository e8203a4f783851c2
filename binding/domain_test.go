package binding

import (
	goerrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/sharpbridge/errors"
)

// fakeRuntime records calls and hands out fixed handles. Zero entries in
// classes or methods make the lookup fail.
type fakeRuntime struct {
	calls   []string
	domain  uintptr
	asm     uintptr
	classes map[string]uintptr
	methods map[string]uintptr
	exc     uintptr
}

func (f *fakeRuntime) runtime() *Runtime {
	return &Runtime{
		JitInitVersion: func(domain, version string) uintptr {
			f.calls = append(f.calls, "init "+domain+" "+version)
			return f.domain
		},
		JitCleanup: func(domain uintptr) { f.calls = append(f.calls, "cleanup") },
		ThreadAttach: func(domain uintptr) uintptr {
			f.calls = append(f.calls, "attach")
			return 1
		},
		DomainAssemblyOpen: func(domain uintptr, path string) uintptr {
			f.calls = append(f.calls, "open "+path)
			return f.asm
		},
		AssemblyGetImage: func(assembly uintptr) uintptr { return assembly + 1 },
		ClassFromName: func(image uintptr, namespace, name string) uintptr {
			return f.classes[namespace+"."+name]
		},
		ClassGetMethodFromName: func(class uintptr, name string, params int32) uintptr {
			return f.methods[name]
		},
		RuntimeInvoke: func(method, obj, params uintptr, exc *uintptr) uintptr {
			f.calls = append(f.calls, "invoke")
			*exc = f.exc
			return 0
		},
	}
}

func newFake() *fakeRuntime {
	return &fakeRuntime{
		domain:  0x10,
		asm:     0x20,
		classes: map[string]uintptr{"Game.Plugins.Main": 0x30},
		methods: map[string]uintptr{"Initialize": 0x40},
	}
}

func TestBootInvokeClose(t *testing.T) {
	f := newFake()
	d, err := f.runtime().Boot("root", "v4.0.30319")
	require.NoError(t, err)
	assert.Equal(t, uintptr(0x10), d.Handle())

	require.NoError(t, d.InvokeStatic("Game.dll", "Game.Plugins.Main:Initialize"))
	d.Close()
	d.Close()

	assert.Equal(t, []string{"init root v4.0.30319", "attach", "open Game.dll", "invoke", "cleanup"}, f.calls)
}

func TestBootRefused(t *testing.T) {
	f := newFake()
	f.domain = 0
	_, err := f.runtime().Boot("root", "v2")
	assert.True(t, goerrors.Is(err, &errors.Error{Phase: errors.PhaseLoad, Kind: errors.KindNotInitialized}))
	assert.NotContains(t, f.calls, "attach")
}

func TestInvokeStaticFailures(t *testing.T) {
	tests := []struct {
		name  string
		entry string
		setup func(*fakeRuntime)
		phase errors.Phase
		kind  errors.Kind
	}{
		{"malformed entry", "Game.Plugins.Main", nil, errors.PhaseLoad, errors.KindInvalidInput},
		{"missing assembly", "Game.Plugins.Main:Initialize", func(f *fakeRuntime) { f.asm = 0 }, errors.PhaseLoad, errors.KindNotFound},
		{"missing class", "Game.Plugins.Other:Initialize", nil, errors.PhaseLookup, errors.KindNotFound},
		{"missing method", "Game.Plugins.Main:Shutdown", nil, errors.PhaseLookup, errors.KindNotFound},
		{"managed exception", "Game.Plugins.Main:Initialize", func(f *fakeRuntime) { f.exc = 0xbad }, errors.PhaseGuest, errors.KindTrap},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFake()
			if tt.setup != nil {
				tt.setup(f)
			}
			d, err := f.runtime().Boot("root", "v4")
			require.NoError(t, err)
			err = d.InvokeStatic("Game.dll", tt.entry)
			assert.True(t, goerrors.Is(err, &errors.Error{Phase: tt.phase, Kind: tt.kind}), "got %v", err)
		})
	}
}

func TestSplitEntry(t *testing.T) {
	ns, class, method, err := splitEntry("A.B.C:Run")
	require.NoError(t, err)
	assert.Equal(t, []string{"A.B", "C", "Run"}, []string{ns, class, method})

	ns, class, _, err = splitEntry("Program:Main")
	require.NoError(t, err)
	assert.Empty(t, ns)
	assert.Equal(t, "Program", class)
	assert.Equal(t, "Program", qualify(ns, class))
}
