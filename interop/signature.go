package interop

import (
	"reflect"
	"strconv"
	"strings"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/sharpbridge/errors"
)

// Signature is the WIT view of an interop function. Only primitive types
// and strings cross the boundary.
type Signature struct {
	Params  []wit.Type
	Results []wit.Type
}

// SignatureOf derives the signature of a Go function.
func SignatureOf(fn any) (Signature, error) {
	if fn == nil {
		return Signature{}, errors.InvalidInput(errors.PhaseBind, "nil function")
	}
	return SignatureOfType(reflect.TypeOf(fn))
}

// SignatureOfType derives the signature of a func type.
func SignatureOfType(ft reflect.Type) (Signature, error) {
	if ft.Kind() != reflect.Func {
		return Signature{}, errors.New(errors.PhaseBind, errors.KindTypeMismatch).
			GoType(ft.String()).
			Detail("interop function must be a func").
			Build()
	}
	if ft.IsVariadic() {
		return Signature{}, errors.New(errors.PhaseBind, errors.KindUnsupported).
			GoType(ft.String()).
			Detail("variadic interop functions are not supported").
			Build()
	}

	var sig Signature
	for i := 0; i < ft.NumIn(); i++ {
		t, err := witTypeOf(ft.In(i), "param", i)
		if err != nil {
			return Signature{}, err
		}
		sig.Params = append(sig.Params, t)
	}
	if ft.NumOut() > 1 {
		return Signature{}, errors.New(errors.PhaseBind, errors.KindUnsupported).
			GoType(ft.String()).
			Detail("interop functions return at most one value").
			Build()
	}
	for i := 0; i < ft.NumOut(); i++ {
		t, err := witTypeOf(ft.Out(i), "result", i)
		if err != nil {
			return Signature{}, err
		}
		sig.Results = append(sig.Results, t)
	}
	return sig, nil
}

func witTypeOf(t reflect.Type, role string, index int) (wit.Type, error) {
	switch t.Kind() {
	case reflect.Bool:
		return wit.Bool{}, nil
	case reflect.Int8:
		return wit.S8{}, nil
	case reflect.Uint8:
		return wit.U8{}, nil
	case reflect.Int16:
		return wit.S16{}, nil
	case reflect.Uint16:
		return wit.U16{}, nil
	case reflect.Int32:
		return wit.S32{}, nil
	case reflect.Uint32:
		return wit.U32{}, nil
	case reflect.Int64, reflect.Int:
		return wit.S64{}, nil
	case reflect.Uint64, reflect.Uint, reflect.Uintptr:
		return wit.U64{}, nil
	case reflect.Float32:
		return wit.F32{}, nil
	case reflect.Float64:
		return wit.F64{}, nil
	case reflect.String:
		return wit.String{}, nil
	}
	return nil, errors.New(errors.PhaseBind, errors.KindUnsupported).
		Path(role, strconv.Itoa(index)).
		GoType(t.String()).
		Detail("type cannot cross the interop boundary").
		Build()
}

// TypeName returns the WIT spelling of a primitive type.
func TypeName(t wit.Type) string {
	switch t.(type) {
	case wit.Bool:
		return "bool"
	case wit.S8:
		return "s8"
	case wit.U8:
		return "u8"
	case wit.S16:
		return "s16"
	case wit.U16:
		return "u16"
	case wit.S32:
		return "s32"
	case wit.U32:
		return "u32"
	case wit.S64:
		return "s64"
	case wit.U64:
		return "u64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case wit.Char:
		return "char"
	case wit.String:
		return "string"
	default:
		return "unknown"
	}
}

// String renders the signature as a WIT func type, e.g.
// "func(u64, string) -> s64".
func (s Signature) String() string {
	var b strings.Builder
	b.WriteString("func(")
	for i, p := range s.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(TypeName(p))
	}
	b.WriteByte(')')
	if len(s.Results) == 1 {
		b.WriteString(" -> ")
		b.WriteString(TypeName(s.Results[0]))
	}
	return b.String()
}

// ParseSignature parses the output of Signature.String.
func ParseSignature(s string) (Signature, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(s), "func(")
	if !ok {
		return Signature{}, errors.InvalidInput(errors.PhaseBind, "signature must start with func(")
	}
	params, result, ok := strings.Cut(rest, ")")
	if !ok {
		return Signature{}, errors.InvalidInput(errors.PhaseBind, "unterminated parameter list")
	}

	var sig Signature
	if strings.TrimSpace(params) != "" {
		for _, p := range strings.Split(params, ",") {
			t, err := wit.ParseType(strings.TrimSpace(p))
			if err != nil {
				return Signature{}, errors.Wrap(errors.PhaseBind, errors.KindInvalidData, err, "parse param type "+p)
			}
			sig.Params = append(sig.Params, t)
		}
	}
	if result = strings.TrimSpace(result); result != "" {
		result, ok = strings.CutPrefix(result, "->")
		if !ok {
			return Signature{}, errors.InvalidInput(errors.PhaseBind, "expected -> before result type")
		}
		t, err := wit.ParseType(strings.TrimSpace(result))
		if err != nil {
			return Signature{}, errors.Wrap(errors.PhaseBind, errors.KindInvalidData, err, "parse result type "+result)
		}
		sig.Results = []wit.Type{t}
	}
	return sig, nil
}
