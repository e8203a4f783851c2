package main

import (
	goerrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/sharpbridge/binding"
	"github.com/wippyai/sharpbridge/bridge"
	"github.com/wippyai/sharpbridge/errors"
	"github.com/wippyai/sharpbridge/interop"
	"github.com/wippyai/sharpbridge/reflection/snapshot"
)

func TestHostNeedsLibrary(t *testing.T) {
	cmd := &HostCmd{Assembly: "Game.dll"}
	err := cmd.Run(&Globals{Snapshot: snapshotPath}, zap.NewNop())
	assert.True(t, goerrors.Is(err, &errors.Error{Phase: errors.PhaseLoad, Kind: errors.KindInvalidInput}))
}

func TestHostWithoutRuntime(t *testing.T) {
	err := host(&session{}, zap.NewNop(), "Game.dll", "A.B:C", "root", "v4")
	assert.True(t, goerrors.Is(err, &errors.Error{Phase: errors.PhaseLoad, Kind: errors.KindNotInitialized}))
}

func TestHostPublishesBootstrap(t *testing.T) {
	u, err := snapshot.LoadFile(snapshotPath)
	require.NoError(t, err)
	b, err := bridge.New(u)
	require.NoError(t, err)
	defer b.Close()

	var (
		calls    []string
		internal = map[string]uintptr{}
	)
	rt := &binding.Runtime{
		JitInitVersion: func(domain, version string) uintptr {
			calls = append(calls, "init")
			return 1
		},
		JitCleanup:   func(uintptr) { calls = append(calls, "cleanup") },
		ThreadAttach: func(uintptr) uintptr { return 1 },
		DomainAssemblyOpen: func(_ uintptr, path string) uintptr {
			calls = append(calls, "open "+path)
			return 2
		},
		AssemblyGetImage:       func(uintptr) uintptr { return 3 },
		ClassFromName:          func(uintptr, string, string) uintptr { return 4 },
		ClassGetMethodFromName: func(uintptr, string, int32) uintptr { return 5 },
		RuntimeInvoke: func(_, _, _ uintptr, exc *uintptr) uintptr {
			calls = append(calls, "invoke")
			return 0
		},
		AddInternalCall: func(name string, fn uintptr) {
			calls = append(calls, "icall")
			internal[name] = fn
		},
	}

	core, logs := observer.New(zap.DebugLevel)
	require.NoError(t, host(&session{bridge: b, rt: rt}, zap.New(core), "Game.dll", "Game.Main:Initialize", "root", "v4"))

	assert.Equal(t, []string{"init", "icall", "open Game.dll", "invoke", "cleanup"}, calls)
	want, err := b.Registry().Resolve(interop.NameInteropFunctionsPtr)
	require.NoError(t, err)
	assert.Equal(t, uintptr(want), internal["UnrealSharp.Binds.NativeBinds::"+interop.NameInteropFunctionsPtr])
	assert.Equal(t, 1, logs.FilterMessage("managed entry returned").Len())
}

func TestHostManagedException(t *testing.T) {
	u, err := snapshot.LoadFile(snapshotPath)
	require.NoError(t, err)
	b, err := bridge.New(u)
	require.NoError(t, err)
	defer b.Close()

	cleaned := false
	rt := &binding.Runtime{
		JitInitVersion:         func(string, string) uintptr { return 1 },
		JitCleanup:             func(uintptr) { cleaned = true },
		ThreadAttach:           func(uintptr) uintptr { return 1 },
		DomainAssemblyOpen:     func(uintptr, string) uintptr { return 2 },
		AssemblyGetImage:       func(uintptr) uintptr { return 3 },
		ClassFromName:          func(uintptr, string, string) uintptr { return 4 },
		ClassGetMethodFromName: func(uintptr, string, int32) uintptr { return 5 },
		RuntimeInvoke: func(_, _, _ uintptr, exc *uintptr) uintptr {
			*exc = 0x99
			return 0
		},
	}
	err = host(&session{bridge: b, rt: rt}, zap.NewNop(), "Game.dll", "Game.Main:Initialize", "root", "v4")
	assert.True(t, goerrors.Is(err, &errors.Error{Phase: errors.PhaseGuest, Kind: errors.KindTrap}))
	assert.True(t, cleaned)
}
