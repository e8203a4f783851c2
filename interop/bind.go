package interop

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/wippyai/sharpbridge/errors"
)

// Bind fills the exported fields of the struct target points to from r.
// Each field is looked up by its name or by its `interop:"Name"` tag; a tag
// of "-" skips the field and the ",optional" suffix tolerates absence.
// Func fields receive the registered Go function, which must be
// assignable to the field. Address and uintptr fields receive the raw address.
//
// All absent required names are reported together in one
// *errors.MissingSymbolsError.
func Bind(r *Registry, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		goType := "nil"
		if target != nil {
			goType = rv.Type().String()
		}
		e := errors.TypeMismatch(errors.PhaseBind, nil, goType, "")
		e.Detail = "bind target must be a non-nil pointer to a struct"
		return e
	}
	sv := rv.Elem()
	st := sv.Type()

	var missing []string
	for i := 0; i < st.NumField(); i++ {
		field := st.Field(i)
		if !field.IsExported() {
			continue
		}
		name, optional, skip := parseTag(field)
		if skip {
			continue
		}

		fn, ok := r.Function(name)
		if !ok {
			if !optional {
				missing = append(missing, "registry#"+name)
			}
			continue
		}

		fv := sv.Field(i)
		switch {
		case field.Type.Kind() == reflect.Uintptr:
			fv.SetUint(uint64(fn.Addr))
		case field.Type.Kind() == reflect.Func:
			if err := bindFunc(fv, field, fn); err != nil {
				return err
			}
		default:
			return errors.New(errors.PhaseBind, errors.KindUnsupported).
				Path(field.Name).
				GoType(field.Type.String()).
				Detail("bind fields must be funcs or addresses").
				Build()
		}
	}

	if len(missing) > 0 {
		return errors.NewMissingSymbolsError(missing)
	}
	return nil
}

func bindFunc(fv reflect.Value, field reflect.StructField, fn Function) error {
	if fn.Fn == nil {
		return errors.New(errors.PhaseBind, errors.KindTypeMismatch).
			Path(field.Name).
			GoType(field.Type.String()).
			Detail("%s is a raw address with no Go implementation", fn.Name).
			Build()
	}
	impl := reflect.ValueOf(fn.Fn)
	if !impl.Type().AssignableTo(field.Type) {
		var registered string
		if sig, err := SignatureOf(fn.Fn); err == nil {
			registered = sig.String()
		}
		e := errors.TypeMismatch(errors.PhaseBind, []string{field.Name}, field.Type.String(), registered)
		e.Detail = fmt.Sprintf("%s is registered as %s", fn.Name, impl.Type())
		return e
	}
	fv.Set(impl)
	return nil
}

func parseTag(field reflect.StructField) (name string, optional, skip bool) {
	tag, ok := field.Tag.Lookup("interop")
	if !ok {
		return field.Name, false, false
	}
	if tag == "-" {
		return "", false, true
	}
	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = field.Name
	}
	return name, opts == "optional", false
}
