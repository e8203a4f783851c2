package guest

import (
	"encoding/binary"
	"math"
	"reflect"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/sharpbridge/errors"
	"github.com/wippyai/sharpbridge/interop"
)

// Status is the result code of an invoke call.
type Status int32

const (
	StatusOK Status = iota
	StatusNotFound
	StatusBadMemory
	StatusUnsupported
	StatusPanic
	// StatusBadArity means argc did not match the function's slot count.
	StatusBadArity
)

var statusNames = [...]string{
	StatusOK:          "ok",
	StatusNotFound:    "not_found",
	StatusBadMemory:   "bad_memory",
	StatusUnsupported: "unsupported",
	StatusPanic:       "panic",
	StatusBadArity:    "bad_arity",
}

func (s Status) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

// SlotSize is the width of one argument slot.
const SlotSize = 8

// trampoline adapts a registered Go function to u64 argument slots. A
// string takes two slots: pointer then length.
type trampoline struct {
	name  string
	fn    reflect.Value
	sig   interop.Signature
	in    []reflect.Type
	slots uint32
}

func newTrampoline(f interop.Function) (*trampoline, error) {
	if f.Fn == nil {
		return nil, errors.Unsupported(errors.PhaseGuest, "raw native address "+f.Name)
	}
	sig, err := interop.SignatureOf(f.Fn)
	if err != nil {
		return nil, err
	}
	fn := reflect.ValueOf(f.Fn)
	ft := fn.Type()
	t := &trampoline{name: f.Name, fn: fn, sig: sig}
	for i := 0; i < ft.NumIn(); i++ {
		t.in = append(t.in, ft.In(i))
		t.slots += slotsOf(sig.Params[i])
	}
	return t, nil
}

func slotsOf(t wit.Type) uint32 {
	if _, ok := t.(wit.String); ok {
		return 2
	}
	return 1
}

func (t *trampoline) returnsString() bool {
	if len(t.sig.Results) == 0 {
		return false
	}
	_, ok := t.sig.Results[0].(wit.String)
	return ok
}

// readString copies len bytes at ptr out of guest memory.
type readString func(ptr, length uint32) (string, bool)

// args converts raw slots into call arguments.
func (t *trampoline) args(raw []byte, read readString) ([]reflect.Value, Status) {
	args := make([]reflect.Value, 0, len(t.in))
	pos := 0
	next := func() uint64 {
		v := binary.LittleEndian.Uint64(raw[pos*SlotSize:])
		pos++
		return v
	}
	for i, in := range t.in {
		if _, ok := t.sig.Params[i].(wit.String); ok {
			ptr, length := next(), next()
			s, ok := read(uint32(ptr), uint32(length))
			if !ok {
				return nil, StatusBadMemory
			}
			args = append(args, reflect.ValueOf(s).Convert(in))
			continue
		}
		args = append(args, fromSlot(in, next()))
	}
	return args, StatusOK
}

// fromSlot narrows a slot to t. Integer setters truncate, so a sign- or
// zero-extended 32-bit value lands correctly in either signedness.
func fromSlot(t reflect.Type, slot uint64) reflect.Value {
	v := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Bool:
		v.SetBool(slot != 0)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v.SetInt(int64(slot))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		v.SetUint(slot)
	case reflect.Float32:
		v.SetFloat(float64(math.Float32frombits(uint32(slot))))
	case reflect.Float64:
		v.SetFloat(math.Float64frombits(slot))
	}
	return v
}

func toSlot(v reflect.Value) uint64 {
	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			return 1
		}
		return 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return uint64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint()
	case reflect.Float32:
		return uint64(math.Float32bits(float32(v.Float())))
	case reflect.Float64:
		return math.Float64bits(v.Float())
	}
	return 0
}
