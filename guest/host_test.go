package guest

import (
	"context"
	"encoding/binary"
	goerrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/sharpbridge/bridge"
	"github.com/wippyai/sharpbridge/buildinfo"
	"github.com/wippyai/sharpbridge/errors"
	"github.com/wippyai/sharpbridge/interop"
	"github.com/wippyai/sharpbridge/reflection/snapshot"
)

const (
	argsPtr   = 512
	resultPtr = 768
)

type fixture struct {
	ctx    context.Context
	bridge *bridge.Bridge
	host   *Host
	mod    api.Module
	logs   *observer.ObservedLogs
	fatal  []error
}

func newFixture(t *testing.T, opts ...bridge.Option) *fixture {
	t.Helper()
	f := &fixture{ctx: context.Background()}

	u, err := snapshot.LoadFile("../reflection/snapshot/testdata/engine.yaml")
	require.NoError(t, err)

	core, logs := observer.New(zapcore.DebugLevel)
	f.logs = logs
	opts = append([]bridge.Option{
		bridge.WithLogger(zap.New(core)),
		bridge.WithNativeBuildInfo(buildinfo.BuildInfo{
			Platform:      buildinfo.PlatformLinux,
			Configuration: buildinfo.ConfigurationDevelopment,
		}),
		bridge.WithFatalHandler(func(err error) { f.fatal = append(f.fatal, err) }),
	}, opts...)
	f.bridge, err = bridge.New(u, opts...)
	require.NoError(t, err)

	f.host, err = New(f.ctx, f.bridge)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = f.host.Close(f.ctx)
		_ = f.bridge.Close()
	})

	f.mod, err = f.host.Instantiate(f.ctx, testModule(), "test")
	require.NoError(t, err)
	return f
}

func (f *fixture) write(t *testing.T, ptr uint32, data []byte) {
	t.Helper()
	require.True(t, f.mod.Memory().Write(ptr, data))
}

func (f *fixture) call(t *testing.T, export string, params ...uint64) []uint64 {
	t.Helper()
	res, err := f.mod.ExportedFunction(export).Call(f.ctx, params...)
	require.NoError(t, err)
	return res
}

func (f *fixture) slots(t *testing.T, slots ...uint64) uint32 {
	t.Helper()
	buf := make([]byte, len(slots)*SlotSize)
	for i, s := range slots {
		binary.LittleEndian.PutUint64(buf[i*SlotSize:], s)
	}
	f.write(t, argsPtr, buf)
	return uint32(len(slots))
}

func (f *fixture) invoke(t *testing.T, name string, slots ...uint64) Status {
	t.Helper()
	addr, ok := f.bridge.Registry().Lookup(name)
	require.True(t, ok, name)
	argc := f.slots(t, slots...)
	res := f.call(t, "call_invoke", uint64(addr), argsPtr, uint64(argc), resultPtr)
	return Status(api.DecodeI32(res[0]))
}

func (f *fixture) result(t *testing.T) uint64 {
	t.Helper()
	v, ok := f.mod.Memory().ReadUint64Le(resultPtr)
	require.True(t, ok)
	return v
}

func (f *fixture) stringResult(t *testing.T) string {
	t.Helper()
	ptr, ok := f.mod.Memory().ReadUint32Le(resultPtr)
	require.True(t, ok)
	length, ok := f.mod.Memory().ReadUint32Le(resultPtr + 4)
	require.True(t, ok)
	b, ok := f.mod.Memory().Read(ptr, length)
	require.True(t, ok)
	return string(b)
}

func TestFunctionsInfo(t *testing.T) {
	f := newFixture(t)
	f.call(t, "call_info", 64)

	raw, ok := f.mod.Memory().Read(64, interop.FunctionsInfoSize)
	require.True(t, ok)
	var info interop.FunctionsInfo
	require.NoError(t, info.UnmarshalBinary(raw))
	assert.Equal(t, f.bridge.FunctionsInfo(), info)
}

func TestFunctionsInfoOutOfBoundsTraps(t *testing.T) {
	f := newFixture(t)
	_, err := f.mod.ExportedFunction("call_info").Call(f.ctx, 65536-8)
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	f := newFixture(t)
	f.write(t, 128, []byte("GetEnum"))

	want, ok := f.bridge.Registry().Lookup("GetEnum")
	require.True(t, ok)
	res := f.call(t, "call_resolve", f.bridge.Instance(), 128, 7)
	assert.Equal(t, uint64(want), res[0])

	res = f.call(t, "call_resolve", f.bridge.Instance()+1, 128, 7)
	assert.Zero(t, res[0], "foreign instance")

	res = f.call(t, "call_resolve", f.bridge.Instance(), 65530, 100)
	assert.Zero(t, res[0], "name outside memory")
}

func TestInvokeNatives(t *testing.T) {
	f := newFixture(t)
	path := "/Script/Engine.EColor"
	f.write(t, 128, []byte(path))

	require.Equal(t, StatusOK, f.invoke(t, "GetEnum", 128, uint64(len(path))))
	h := f.result(t)
	assert.NotZero(t, h)
	assert.Equal(t, uint64(f.bridge.Natives().GetEnum(path)), h)

	require.Equal(t, StatusOK, f.invoke(t, "GetEnumNumEnums", h))
	assert.Equal(t, uint64(4), f.result(t))

	require.Equal(t, StatusOK, f.invoke(t, "GetEnumNameByIndex", h, 1))
	assert.Equal(t, "Green", f.stringResult(t))

	require.Equal(t, StatusOK, f.invoke(t, "GetEnumNameByIndex", h, 2))
	assert.Equal(t, "Blue", f.stringResult(t), "second allocation does not clobber")

	tp := "/Script/Engine.ETeleportType"
	f.write(t, 128, []byte(tp))
	require.Equal(t, StatusOK, f.invoke(t, "GetEnum", 128, uint64(len(tp))))
	th := f.result(t)
	f.write(t, 192, []byte("None"))
	require.Equal(t, StatusOK, f.invoke(t, "GetEnumValueByName", th, 192, 4))
	assert.Equal(t, int64(-1), int64(f.result(t)))
}

func TestInvokeEmptyStringResult(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, StatusOK, f.invoke(t, "GetEnumNameByIndex", 0, 0))

	ptr, _ := f.mod.Memory().ReadUint32Le(resultPtr)
	length, _ := f.mod.Memory().ReadUint32Le(resultPtr + 4)
	assert.Zero(t, ptr)
	assert.Zero(t, length)
}

func TestInvokeSignedArguments(t *testing.T) {
	double := func(v int32) int64 { return int64(v) * 2 }
	f := newFixture(t, bridge.WithFunctions(interop.Function{Name: "Double", Fn: double}))

	neg := int32(-3)
	require.Equal(t, StatusOK, f.invoke(t, "Double", uint64(uint32(neg))))
	assert.Equal(t, int64(-6), int64(f.result(t)))
}

func TestInvokeFailures(t *testing.T) {
	boom := func() int32 { panic("boom") }
	f := newFixture(t, bridge.WithFunctions(
		interop.Function{Name: "Raw", Addr: 0x77},
		interop.Function{Name: "Boom", Fn: boom},
	))

	res := f.call(t, "call_invoke", 0xdead, argsPtr, 0, resultPtr)
	assert.Equal(t, StatusNotFound, Status(api.DecodeI32(res[0])))

	assert.Equal(t, StatusUnsupported, f.invoke(t, "Raw"))
	assert.Equal(t, StatusBadArity, f.invoke(t, "GetEnumNumEnums"))
	assert.Equal(t, StatusBadMemory, f.invoke(t, "GetEnum", 65530, 100))
	assert.Equal(t, StatusPanic, f.invoke(t, "Boom"))

	addr, _ := f.bridge.Registry().Lookup("GetEnumNumEnums")
	res = f.call(t, "call_invoke", uint64(addr), 65530, 1, resultPtr)
	assert.Equal(t, StatusBadMemory, Status(api.DecodeI32(res[0])), "args outside memory")
}

func (f *fixture) invokeAddr(t *testing.T, addr interop.Address) Status {
	t.Helper()
	res := f.call(t, "call_invoke", uint64(addr), argsPtr, 0, resultPtr)
	return Status(api.DecodeI32(res[0]))
}

func TestInvokeFollowsRegistry(t *testing.T) {
	var hot, cold int
	f := newFixture(t, bridge.WithFunctions(
		interop.Function{Name: "Hot", Fn: func() int32 { hot++; return 1 }},
	))
	reg := f.bridge.Registry()

	hotAddr, ok := reg.Lookup("Hot")
	require.True(t, ok)
	require.Equal(t, StatusOK, f.invokeAddr(t, hotAddr))
	assert.Equal(t, 1, hot)

	reg.Unregister("Hot")
	assert.Equal(t, StatusNotFound, f.invokeAddr(t, hotAddr), "unregistered")
	assert.Equal(t, 1, hot)

	require.True(t, reg.RegisterFunc("Hot", func() int32 { hot++; return 1 }, false))
	hotAddr, _ = reg.Lookup("Hot")
	require.Equal(t, StatusOK, f.invokeAddr(t, hotAddr))
	require.True(t, reg.RegisterFunc("Hot", func() int32 { cold++; return 2 }, true))
	coldAddr, _ := reg.Lookup("Hot")
	require.NotEqual(t, hotAddr, coldAddr)

	assert.Equal(t, StatusNotFound, f.invokeAddr(t, hotAddr), "overridden")
	require.Equal(t, StatusOK, f.invokeAddr(t, coldAddr))
	assert.Equal(t, uint64(2), f.result(t))
	assert.Equal(t, 2, hot)
	assert.Equal(t, 1, cold)

	require.NoError(t, f.bridge.Close())
	assert.Equal(t, StatusNotFound, f.invokeAddr(t, coldAddr), "bridge closed")
	assert.Equal(t, 1, cold)
}

func TestLogMessage(t *testing.T) {
	f := newFixture(t)
	f.write(t, 128, []byte("from guest"))
	warning := int32(-8)
	f.call(t, "call_log", uint64(uint32(warning)), 128, 10)

	entries := f.logs.FilterLoggerName("managed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "from guest", entries[0].Message)
}

func TestLogMessageWide(t *testing.T) {
	f := newFixture(t)
	f.write(t, 128, []byte{'w', 0, 'i', 0, 'd', 0, 'e', 0})
	info := int32(-9)
	f.call(t, "call_log_wide", uint64(uint32(info)), 128, 8)
	f.call(t, "call_log_wide", uint64(uint32(info)), 65530, 64)

	entries := f.logs.FilterLoggerName("managed").All()
	require.Len(t, entries, 1, "out of bounds message is dropped")
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "wide", entries[0].Message)
}

func TestValidateBuildInfo(t *testing.T) {
	f := newFixture(t)

	same := buildinfo.BuildInfo{Platform: buildinfo.PlatformLinux, Configuration: buildinfo.ConfigurationDevelopment}
	raw, err := same.MarshalBinary()
	require.NoError(t, err)
	f.write(t, 64, raw)
	f.call(t, "call_validate", 64)
	assert.Empty(t, f.fatal)

	other := buildinfo.BuildInfo{Platform: buildinfo.PlatformWindows, Configuration: buildinfo.ConfigurationDevelopment}
	raw, err = other.MarshalBinary()
	require.NoError(t, err)
	f.write(t, 64, raw)
	f.call(t, "call_validate", 64)
	require.Len(t, f.fatal, 1)
	assert.True(t, goerrors.Is(f.fatal[0], &errors.Error{Phase: errors.PhaseValidate, Kind: errors.KindFatalConfig}))

	_, err = f.mod.ExportedFunction("call_validate").Call(f.ctx, 65530)
	assert.Error(t, err, "record outside memory traps")
}

func TestRun(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.host.Run(f.ctx, testModule()))

	entries := f.logs.FilterMessage("hello from guest").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
}

func TestRunRejectsGarbage(t *testing.T) {
	f := newFixture(t)
	err := f.host.Run(f.ctx, []byte("not wasm"))
	assert.True(t, goerrors.Is(err, &errors.Error{Phase: errors.PhaseLoad, Kind: errors.KindInvalidData}))
}

func TestNewNeedsBridge(t *testing.T) {
	_, err := New(context.Background(), nil)
	assert.True(t, goerrors.Is(err, &errors.Error{Phase: errors.PhaseGuest, Kind: errors.KindNotInitialized}))
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "ok", StatusOK.String())
	assert.Equal(t, "bad_memory", StatusBadMemory.String())
	assert.Equal(t, "unknown", Status(42).String())
}
