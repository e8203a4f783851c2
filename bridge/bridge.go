// Package bridge owns the native side of one embedded managed runtime: the
// interop registry with its bootstrap and generated entries, the log
// bridge and build-info validation.
//
// There is one Bridge per embedded runtime. It is constructed explicitly
// and torn down with Close; nothing is held in package state.
//
//	b, err := bridge.New(universe, bridge.WithLogger(log))
//	if err != nil {
//		return err
//	}
//	defer b.Close()
//	info := b.FunctionsInfo() // handed to the managed side at startup
package bridge

import (
	"encoding/binary"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/sharpbridge/buildinfo"
	"github.com/wippyai/sharpbridge/errors"
	"github.com/wippyai/sharpbridge/interop"
	"github.com/wippyai/sharpbridge/logbridge"
	"github.com/wippyai/sharpbridge/natives"
	"github.com/wippyai/sharpbridge/reflection"
)

// Bridge is the context the managed runtime binds against.
type Bridge struct {
	id       uuid.UUID
	instance uint64
	registry *interop.Registry
	utils    *natives.Utils
	logs     *logbridge.Bridge
	native   buildinfo.BuildInfo
	fatal    FatalHandler
	log      *zap.Logger

	closeOnce sync.Once
}

// New builds a bridge over u and populates its registry: bootstrap entries
// first, then the generated natives, then the runtime API and any extra
// functions.
func New(u reflection.Universe, opts ...Option) (*Bridge, error) {
	if u == nil {
		return nil, errors.InvalidInput(errors.PhaseRegister, "bridge needs a reflection universe")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	id := uuid.New()
	b := &Bridge{
		id:       id,
		instance: instanceOf(id),
		registry: interop.NewRegistry(),
		utils:    natives.New(u, cfg.namer),
		logs:     logbridge.New(cfg.logger),
		native:   cfg.native,
		log:      cfg.logger.Named("bridge").With(zap.Stringer("bridge_id", id)),
	}
	b.fatal = cfg.fatal
	if b.fatal == nil {
		b.fatal = func(err error) {
			b.log.Fatal("managed runtime cannot continue", zap.Error(err))
		}
	}

	passes := []struct {
		name string
		fns  []interop.Function
	}{
		{"bootstrap", b.bootstrap()},
		{"generated", b.utils.Functions()},
	}
	if cfg.runtime != nil {
		passes = append(passes, struct {
			name string
			fns  []interop.Function
		}{"runtime", cfg.runtime.Functions()})
	}
	if len(cfg.functions) > 0 {
		passes = append(passes, struct {
			name string
			fns  []interop.Function
		}{"extra", cfg.functions})
	}

	for _, p := range passes {
		if err := b.registry.Add(p.fns, false); err != nil {
			return nil, err
		}
		b.log.Debug("registered interop functions",
			zap.String("pass", p.name),
			zap.Int("count", len(p.fns)))
	}

	b.log.Info("bridge ready",
		zap.Int("functions", b.registry.Len()),
		zap.Stringer("native", b.native))
	return b, nil
}

// instanceOf derives a non-zero instance handle from the bridge id.
func instanceOf(id uuid.UUID) uint64 {
	h := binary.LittleEndian.Uint64(id[:8])
	if h == 0 {
		h = 1
	}
	return h
}

func (b *Bridge) bootstrap() []interop.Function {
	return []interop.Function{
		{Name: interop.NameInteropFunctionsPtr, Fn: b.InteropFunctionsPtr},
		{Name: interop.NameInteropFunctionPointer, Fn: b.InteropFunctionPointer, ParamNames: []string{"instance", "name"}},
		{Name: interop.NameValidateBuildInfo, Fn: b.ValidateBuildInfo, ParamNames: []string{"platform", "configuration", "with_editor"}},
	}
}

func (b *Bridge) ID() uuid.UUID                        { return b.id }
func (b *Bridge) Instance() uint64                     { return b.instance }
func (b *Bridge) Registry() *interop.Registry          { return b.registry }
func (b *Bridge) Natives() *natives.Utils              { return b.utils }
func (b *Bridge) NativeBuildInfo() buildinfo.BuildInfo { return b.native }

// FunctionsInfo is the bootstrap record for the managed side.
func (b *Bridge) FunctionsInfo() interop.FunctionsInfo {
	return interop.NewFunctionsInfo(b.instance,
		interop.AddressOf(b.InteropFunctionPointer),
		interop.AddressOf(b.LogMessage))
}

// InteropFunctionsPtr returns the instance handle the resolver expects.
func (b *Bridge) InteropFunctionsPtr() uint64 {
	return b.instance
}

// InteropFunctionPointer resolves name to an address. It returns zero for
// unknown names and for a foreign instance handle.
func (b *Bridge) InteropFunctionPointer(instance uint64, name string) uint64 {
	if instance != b.instance {
		b.log.Warn("resolver called with foreign instance", zap.Uint64("instance", instance))
		return 0
	}
	addr, ok := b.registry.Lookup(name)
	if !ok {
		b.log.Debug("interop function not found", zap.String("name", name))
		return 0
	}
	return uint64(addr)
}

// Function returns the registry entry for name.
func (b *Bridge) Function(name string) (interop.Function, error) {
	f, ok := b.registry.Function(name)
	if !ok {
		return interop.Function{}, errors.NotFound(errors.PhaseLookup, "interop function", name)
	}
	return f, nil
}

// LogMessage is the managed log sink.
func (b *Bridge) LogMessage(level int32, text string) {
	b.logs.LogMessage(logbridge.Level(level), text)
}

// LogBytes logs narrow-character text read from managed memory. A nil
// message is ignored.
func (b *Bridge) LogBytes(level int32, msg []byte) {
	b.logs.LogBytes(logbridge.Level(level), msg)
}

// LogWide logs UTF-16 text read from managed memory. A nil message is
// ignored.
func (b *Bridge) LogWide(level int32, msg []byte) {
	b.logs.LogWide(logbridge.Level(level), msg)
}

// Validate compares the managed build info with the native one.
func (b *Bridge) Validate(managed buildinfo.BuildInfo) (buildinfo.Report, error) {
	return buildinfo.Compare(b.native, managed)
}

// ValidateBuildInfo is the boundary form of Validate: a hard mismatch goes
// to the fatal handler.
func (b *Bridge) ValidateBuildInfo(platform, configuration int32, withEditor bool) {
	managed := buildinfo.BuildInfo{
		Platform:      buildinfo.Platform(platform),
		Configuration: buildinfo.Configuration(configuration),
		WithEditor:    withEditor,
	}
	if _, err := b.Validate(managed); err != nil {
		b.fatal(err)
	}
}

// Close empties the registry and releases every handle. It is safe to call
// more than once.
func (b *Bridge) Close() error {
	b.closeOnce.Do(func() {
		b.registry.Reset()
		b.utils.ReleaseAll()
		b.log.Info("bridge closed")
	})
	return nil
}
