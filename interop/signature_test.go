package interop

import (
	goerrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/sharpbridge/errors"
)

type handle uint64

func TestSignatureOf(t *testing.T) {
	tests := []struct {
		name string
		fn   any
		want string
	}{
		{"empty", func() {}, "func()"},
		{"scalars", func(int8, uint8, int16, uint16, int32, uint32) {}, "func(s8, u8, s16, u16, s32, u32)"},
		{"wide", func(int64, int, uint64, uint, uintptr) float64 { return 0 }, "func(s64, s64, u64, u64, u64) -> f64"},
		{"named", func(h handle, name string) bool { return false }, "func(u64, string) -> bool"},
		{"address", func(Address) float32 { return 0 }, "func(u64) -> f32"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, err := SignatureOf(tt.fn)
			require.NoError(t, err)
			assert.Equal(t, tt.want, sig.String())
		})
	}
}

func TestSignatureOfRejects(t *testing.T) {
	tests := []struct {
		name string
		fn   any
		kind errors.Kind
	}{
		{"not a func", 3, errors.KindTypeMismatch},
		{"variadic", func(...int32) {}, errors.KindUnsupported},
		{"two results", func() (int32, bool) { return 0, false }, errors.KindUnsupported},
		{"slice param", func([]byte) {}, errors.KindUnsupported},
		{"struct result", func() struct{} { return struct{}{} }, errors.KindUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SignatureOf(tt.fn)
			var e *errors.Error
			require.True(t, goerrors.As(err, &e))
			assert.Equal(t, tt.kind, e.Kind)
		})
	}

	_, err := SignatureOf(nil)
	assert.Error(t, err)
}

func TestSignatureParamPath(t *testing.T) {
	_, err := SignatureOf(func(int32, map[string]int) {})
	var e *errors.Error
	require.True(t, goerrors.As(err, &e))
	assert.Equal(t, []string{"param", "1"}, e.Path)
	assert.Equal(t, "map[string]int", e.GoType)
}

func TestSignatureTypes(t *testing.T) {
	sig, err := SignatureOf(func(uint64, string) int64 { return 0 })
	require.NoError(t, err)
	assert.Equal(t, []wit.Type{wit.U64{}, wit.String{}}, sig.Params)
	assert.Equal(t, []wit.Type{wit.S64{}}, sig.Results)
}

func TestParseSignature(t *testing.T) {
	for _, s := range []string{"func()", "func(u64, string) -> bool", "func(s32) -> f64"} {
		sig, err := ParseSignature(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, sig.String())
	}

	for _, s := range []string{"fn(u8)", "func(u8", "func(u8) bool", "func(nope)"} {
		_, err := ParseSignature(s)
		assert.Error(t, err, s)
	}
}
