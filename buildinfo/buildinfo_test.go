package buildinfo

import (
	goerrors "errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/sharpbridge/errors"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	prev := Logger()
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(prev) })
	return logs
}

func TestCompare(t *testing.T) {
	native := BuildInfo{Platform: PlatformLinux, Configuration: ConfigurationDevelopment, WithEditor: true}

	tests := []struct {
		name     string
		managed  BuildInfo
		fatal    bool
		field    string
		mismatch bool
	}{
		{
			name:    "identical",
			managed: native,
		},
		{
			name:     "configuration only",
			managed:  BuildInfo{Platform: PlatformLinux, Configuration: ConfigurationShipping, WithEditor: true},
			mismatch: true,
		},
		{
			name:    "platform",
			managed: BuildInfo{Platform: PlatformWindows, Configuration: ConfigurationDevelopment, WithEditor: true},
			fatal:   true,
			field:   "Platform",
		},
		{
			name:    "editor",
			managed: BuildInfo{Platform: PlatformLinux, Configuration: ConfigurationDevelopment, WithEditor: false},
			fatal:   true,
			field:   "WITH_EDITOR",
		},
		{
			name:    "editor checked before platform",
			managed: BuildInfo{Platform: PlatformMac, Configuration: ConfigurationDebug, WithEditor: false},
			fatal:   true,
			field:   "WITH_EDITOR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := observe(t)
			report, err := Compare(native, tt.managed)

			if tt.fatal {
				var e *errors.Error
				require.True(t, goerrors.As(err, &e))
				assert.Equal(t, errors.KindFatalConfig, e.Kind)
				assert.Equal(t, []string{tt.field}, e.Path)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.mismatch, report.ConfigurationMismatch)
			assert.Equal(t, tt.managed, report.Managed)

			warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
			if tt.mismatch {
				require.Len(t, warnings, 1)
				assert.Equal(t, "build configuration mismatch", warnings[0].Message)
			} else {
				assert.Empty(t, warnings)
			}
		})
	}
}

func TestCompareLogsManagedInfo(t *testing.T) {
	logs := observe(t)
	managed := BuildInfo{Platform: PlatformAndroid, Configuration: ConfigurationTest}
	_, _ = Compare(managed, managed)

	entries := logs.FilterMessage("managed build info").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "Android", fields["platform"])
	assert.Equal(t, "Test", fields["configuration"])
	assert.Equal(t, false, fields["editor"])
}

func TestFatalConfigMessage(t *testing.T) {
	_, err := Compare(
		BuildInfo{Platform: PlatformWindows},
		BuildInfo{Platform: PlatformLinux},
	)
	require.Error(t, err)
	assert.Equal(t, "[validate] fatal_config at Platform: native Platform=Windows but managed Platform=Linux", err.Error())
}

func TestValidateAgainstNative(t *testing.T) {
	_, err := Validate(Native())
	require.NoError(t, err)

	other := Native()
	other.WithEditor = !other.WithEditor
	_, err = Validate(other)
	assert.True(t, goerrors.Is(err, &errors.Error{Phase: errors.PhaseValidate, Kind: errors.KindFatalConfig}))
}

func TestNative(t *testing.T) {
	n := Native()
	assert.Equal(t, PlatformFor(runtime.GOOS), n.Platform)
	assert.Equal(t, ConfigurationDevelopment, n.Configuration)
	assert.False(t, n.WithEditor)
}

func TestRecord(t *testing.T) {
	info := BuildInfo{Platform: PlatformMac, Configuration: ConfigurationShipping, WithEditor: true}
	data, err := info.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0, 0, 0, 4, 0, 0, 0, 1, 0, 0, 0}, data)

	var got BuildInfo
	require.NoError(t, got.UnmarshalBinary(data))
	assert.Equal(t, info, got)

	unknown := BuildInfo{Platform: PlatformUnknown}
	data, _ = unknown.MarshalBinary()
	require.NoError(t, got.UnmarshalBinary(data))
	assert.Equal(t, PlatformUnknown, got.Platform)

	err = got.UnmarshalBinary(data[:8])
	assert.True(t, goerrors.Is(err, &errors.Error{Phase: errors.PhaseValidate, Kind: errors.KindOutOfBounds}))
}

func TestParse(t *testing.T) {
	p, err := ParsePlatform("linux")
	require.NoError(t, err)
	assert.Equal(t, PlatformLinux, p)

	_, err = ParsePlatform("amiga")
	assert.Error(t, err)

	c, err := ParseConfiguration("DebugGame")
	require.NoError(t, err)
	assert.Equal(t, ConfigurationDebugGame, c)

	_, err = ParseConfiguration("release")
	assert.Error(t, err)

	assert.Equal(t, "Unknown", Platform(42).String())
	assert.Equal(t, "Unknown", Configuration(-3).String())
	assert.Equal(t, "Platform = Mac, Configuration = Test, Editor = true",
		BuildInfo{Platform: PlatformMac, Configuration: ConfigurationTest, WithEditor: true}.String())
}
