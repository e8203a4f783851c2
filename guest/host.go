// Package guest hosts WASI-compiled managed assemblies on wazero and
// exposes the bridge to them through the "unrealsharp" host module.
//
// Guests cannot call native addresses directly. They resolve a name to an
// address with get_interop_function_pointer as usual and pass the address
// to invoke, which dispatches to the registered Go function:
//
//	(import "unrealsharp" "invoke" (func (param i64 i32 i32 i32) (result i32)))
//
// Arguments are argc little-endian u64 slots at args_ptr. A string argument
// takes two slots, pointer then length. A scalar result is written as one
// u64 at result_ptr; a string result is copied into memory obtained from the
// guest's malloc export and written as a u32 pointer and u32 length.
package guest

import (
	"context"
	"encoding/binary"
	goerrors "errors"
	"io"
	"sort"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"
	"go.uber.org/zap"

	"github.com/wippyai/sharpbridge/bridge"
	"github.com/wippyai/sharpbridge/buildinfo"
	"github.com/wippyai/sharpbridge/errors"
	"github.com/wippyai/sharpbridge/interop"
)

// ModuleName is the import module guests link against.
const ModuleName = "unrealsharp"

// MallocExport is the guest export used to place string results.
const MallocExport = "malloc"

// Config controls the wazero runtime and guest I/O.
type Config struct {
	// MemoryLimitPages caps guest memory in 64KiB pages. Zero keeps the
	// wazero default.
	MemoryLimitPages uint32
	Stdout           io.Writer
	Stderr           io.Writer
	Env              map[string]string
}

// Option configures a Host.
type Option func(*Config)

func WithMemoryLimitPages(n uint32) Option { return func(c *Config) { c.MemoryLimitPages = n } }
func WithStdout(w io.Writer) Option        { return func(c *Config) { c.Stdout = w } }
func WithStderr(w io.Writer) Option        { return func(c *Config) { c.Stderr = w } }
func WithEnv(env map[string]string) Option {
	return func(c *Config) { c.Env = env }
}

// Host is a wazero runtime with WASI preview1 and the bridge host module.
type Host struct {
	bridge  *bridge.Bridge
	runtime wazero.Runtime
	cfg     Config

	mu          sync.Mutex
	trampolines map[interop.Address]*trampoline
}

// New creates the runtime and instantiates WASI and the host module.
func New(ctx context.Context, b *bridge.Bridge, opts ...Option) (*Host, error) {
	if b == nil {
		return nil, errors.NotInitialized(errors.PhaseGuest, "bridge")
	}
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}

	// a fatal build-info mismatch cancels ctx and must stop the guest
	rc := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if cfg.MemoryLimitPages > 0 {
		rc = rc.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	h := &Host{
		bridge:      b,
		runtime:     wazero.NewRuntimeWithConfig(ctx, rc),
		cfg:         cfg,
		trampolines: make(map[interop.Address]*trampoline),
	}

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, h.runtime); err != nil {
		_ = h.runtime.Close(ctx)
		return nil, errors.Load("instantiate WASI", err)
	}
	if err := h.instantiateHost(ctx); err != nil {
		_ = h.runtime.Close(ctx)
		return nil, errors.Load("instantiate host module", err)
	}
	return h, nil
}

func (h *Host) instantiateHost(ctx context.Context) error {
	i32, i64 := api.ValueTypeI32, api.ValueTypeI64
	builder := h.runtime.NewHostModuleBuilder(ModuleName)

	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(h.functionsInfo), []api.ValueType{i32}, nil).
		WithParameterNames("info_ptr").
		Export("get_interop_functions_info")
	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(h.functionPointer), []api.ValueType{i64, i32, i32}, []api.ValueType{i64}).
		WithParameterNames("instance", "name_ptr", "name_len").
		Export("get_interop_function_pointer")
	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(h.logMessage), []api.ValueType{i32, i32, i32}, nil).
		WithParameterNames("level", "msg_ptr", "msg_len").
		Export("log_message")
	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(h.logMessageWide), []api.ValueType{i32, i32, i32}, nil).
		WithParameterNames("level", "msg_ptr", "msg_len").
		Export("log_message_wide")
	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(h.validateBuildInfo), []api.ValueType{i32}, nil).
		WithParameterNames("info_ptr").
		Export("validate_build_info")
	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(h.invoke), []api.ValueType{i64, i32, i32, i32}, []api.ValueType{i32}).
		WithParameterNames("addr", "args_ptr", "argc", "result_ptr").
		Export("invoke")

	_, err := builder.Instantiate(ctx)
	return err
}

// Instantiate compiles and instantiates wasm without running a start
// function.
func (h *Host) Instantiate(ctx context.Context, wasm []byte, name string) (api.Module, error) {
	compiled, err := h.runtime.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.Load("compile guest", err)
	}
	mod, err := h.runtime.InstantiateModule(ctx, compiled, h.moduleConfig(name).WithStartFunctions())
	if err != nil {
		return nil, errors.Load("instantiate guest", err)
	}
	return mod, nil
}

// Run instantiates wasm as a command and runs _start. A zero exit code is
// not an error.
func (h *Host) Run(ctx context.Context, wasm []byte, args ...string) error {
	compiled, err := h.runtime.CompileModule(ctx, wasm)
	if err != nil {
		return errors.Load("compile guest", err)
	}
	defer compiled.Close(ctx)

	cfg := h.moduleConfig("").WithArgs(append([]string{"guest"}, args...)...)
	mod, err := h.runtime.InstantiateModule(ctx, compiled, cfg)
	if mod != nil {
		defer mod.Close(ctx)
	}
	if err == nil {
		return nil
	}
	var exit *sys.ExitError
	if goerrors.As(err, &exit) {
		if exit.ExitCode() == 0 {
			return nil
		}
		return errors.New(errors.PhaseGuest, errors.KindTrap).
			Value(exit.ExitCode()).
			Detail("guest exited with code %d", exit.ExitCode()).
			Build()
	}
	return errors.Wrap(errors.PhaseGuest, errors.KindTrap, err, "run guest")
}

func (h *Host) moduleConfig(name string) wazero.ModuleConfig {
	cfg := wazero.NewModuleConfig().
		WithName(name).
		WithSysWalltime().
		WithSysNanotime()
	if h.cfg.Stdout != nil {
		cfg = cfg.WithStdout(h.cfg.Stdout)
	}
	if h.cfg.Stderr != nil {
		cfg = cfg.WithStderr(h.cfg.Stderr)
	}
	keys := make([]string, 0, len(h.cfg.Env))
	for k := range h.cfg.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		cfg = cfg.WithEnv(k, h.cfg.Env[k])
	}
	return cfg
}

// Close releases the runtime and every module in it.
func (h *Host) Close(ctx context.Context) error {
	return h.runtime.Close(ctx)
}

func badMemory(fn string, ptr, length uint32, mod api.Module) *errors.Error {
	size := 0
	if mem := mod.Memory(); mem != nil {
		size = int(mem.Size())
	}
	return errors.New(errors.PhaseGuest, errors.KindOutOfBounds).
		Path(fn).
		Detail("range [%d, %d) outside guest memory of %d bytes", ptr, uint64(ptr)+uint64(length), size).
		Build()
}

func read(mod api.Module, ptr, length uint32) ([]byte, bool) {
	mem := mod.Memory()
	if mem == nil {
		return nil, false
	}
	return mem.Read(ptr, length)
}

func (h *Host) functionsInfo(_ context.Context, mod api.Module, stack []uint64) {
	ptr := api.DecodeU32(stack[0])
	buf, _ := h.bridge.FunctionsInfo().MarshalBinary()
	mem := mod.Memory()
	if mem == nil || !mem.Write(ptr, buf) {
		panic(badMemory("get_interop_functions_info", ptr, interop.FunctionsInfoSize, mod))
	}
}

func (h *Host) functionPointer(_ context.Context, mod api.Module, stack []uint64) {
	instance := stack[0]
	ptr, length := api.DecodeU32(stack[1]), api.DecodeU32(stack[2])
	name, ok := read(mod, ptr, length)
	if !ok {
		Logger().Warn("function name outside guest memory",
			zap.Uint32("ptr", ptr), zap.Uint32("len", length))
		stack[0] = 0
		return
	}
	stack[0] = h.bridge.InteropFunctionPointer(instance, string(name))
}

func (h *Host) logMessage(_ context.Context, mod api.Module, stack []uint64) {
	level := api.DecodeI32(stack[0])
	ptr, length := api.DecodeU32(stack[1]), api.DecodeU32(stack[2])
	msg, ok := read(mod, ptr, length)
	if !ok {
		Logger().Warn("log message outside guest memory",
			zap.Uint32("ptr", ptr), zap.Uint32("len", length))
		return
	}
	h.bridge.LogBytes(level, msg)
}

// logMessageWide takes msg_len in bytes, not code units.
func (h *Host) logMessageWide(_ context.Context, mod api.Module, stack []uint64) {
	level := api.DecodeI32(stack[0])
	ptr, length := api.DecodeU32(stack[1]), api.DecodeU32(stack[2])
	msg, ok := read(mod, ptr, length)
	if !ok {
		Logger().Warn("log message outside guest memory",
			zap.Uint32("ptr", ptr), zap.Uint32("len", length))
		return
	}
	h.bridge.LogWide(level, msg)
}

func (h *Host) validateBuildInfo(_ context.Context, mod api.Module, stack []uint64) {
	ptr := api.DecodeU32(stack[0])
	raw, ok := read(mod, ptr, buildinfo.RecordSize)
	if !ok {
		panic(badMemory("validate_build_info", ptr, buildinfo.RecordSize, mod))
	}
	var info buildinfo.BuildInfo
	if err := info.UnmarshalBinary(raw); err != nil {
		panic(err)
	}
	h.bridge.ValidateBuildInfo(int32(info.Platform), int32(info.Configuration), info.WithEditor)
}

func (h *Host) invoke(ctx context.Context, mod api.Module, stack []uint64) {
	addr := interop.Address(stack[0])
	argsPtr, argc, resultPtr := api.DecodeU32(stack[1]), api.DecodeU32(stack[2]), api.DecodeU32(stack[3])
	status := h.call(ctx, mod, addr, argsPtr, argc, resultPtr)
	stack[0] = api.EncodeI32(int32(status))
}

// trampoline returns the trampoline for addr. The registry is consulted on
// every call so unregistered, overridden or reset entries stop resolving;
// only the reflected call shape is cached.
func (h *Host) trampoline(addr interop.Address) (*trampoline, Status) {
	f, found := h.bridge.Registry().ByAddress(addr)

	h.mu.Lock()
	defer h.mu.Unlock()

	if !found {
		delete(h.trampolines, addr)
		return nil, StatusNotFound
	}
	if t, ok := h.trampolines[addr]; ok && t.name == f.Name {
		return t, StatusOK
	}
	t, err := newTrampoline(f)
	if err != nil {
		delete(h.trampolines, addr)
		Logger().Warn("function cannot be invoked from a guest",
			zap.String("name", f.Name), zap.Error(err))
		return nil, StatusUnsupported
	}
	h.trampolines[addr] = t
	return t, StatusOK
}

func (h *Host) call(ctx context.Context, mod api.Module, addr interop.Address, argsPtr, argc, resultPtr uint32) (status Status) {
	t, status := h.trampoline(addr)
	if status != StatusOK {
		return status
	}
	defer func() {
		if r := recover(); r != nil {
			Logger().Error("interop function panicked",
				zap.String("name", t.name), zap.Any("panic", r))
			status = StatusPanic
		}
	}()

	if argc != t.slots {
		return StatusBadArity
	}
	raw, ok := read(mod, argsPtr, argc*SlotSize)
	if !ok {
		return StatusBadMemory
	}
	// raw aliases guest memory, which a malloc call below may grow.
	raw = append([]byte(nil), raw...)

	args, status := t.args(raw, func(ptr, length uint32) (string, bool) {
		b, ok := read(mod, ptr, length)
		return string(b), ok
	})
	if status != StatusOK {
		return status
	}

	out := t.fn.Call(args)
	if len(out) == 0 {
		return StatusOK
	}
	if t.returnsString() {
		return h.writeString(ctx, mod, out[0].String(), resultPtr)
	}
	mem := mod.Memory()
	if !mem.WriteUint64Le(resultPtr, toSlot(out[0])) {
		return StatusBadMemory
	}
	return StatusOK
}

func (h *Host) writeString(ctx context.Context, mod api.Module, s string, resultPtr uint32) Status {
	var ptr uint32
	if len(s) > 0 {
		malloc := mod.ExportedFunction(MallocExport)
		if malloc == nil {
			return StatusUnsupported
		}
		res, err := malloc.Call(ctx, uint64(len(s)))
		if err != nil || len(res) == 0 {
			Logger().Error("guest malloc failed", zap.Int("size", len(s)), zap.Error(err))
			return StatusPanic
		}
		ptr = api.DecodeU32(res[0])
		if !mod.Memory().Write(ptr, []byte(s)) {
			return StatusBadMemory
		}
	}
	var rec [8]byte
	binary.LittleEndian.PutUint32(rec[0:], ptr)
	binary.LittleEndian.PutUint32(rec[4:], uint32(len(s)))
	if !mod.Memory().Write(resultPtr, rec[:]) {
		return StatusBadMemory
	}
	return StatusOK
}
