package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseRegister Phase = "register" // interop function registration
	PhaseLookup   Phase = "lookup"   // interop function resolution
	PhaseValidate Phase = "validate" // build info and schema validation
	PhaseDecode   Phase = "decode"   // JSON to type definition
	PhaseEncode   Phase = "encode"   // type definition to JSON
	PhaseBind     Phase = "bind"     // runtime symbol and typed capability binding
	PhaseLoad     Phase = "load"     // snapshot, manifest and library loading
	PhaseGuest    Phase = "guest"    // guest runtime calls
	PhaseStore    Phase = "store"    // export cache
)

// Kind categorizes the error
type Kind string

const (
	KindTypeMismatch   Kind = "type_mismatch"
	KindOutOfBounds    Kind = "out_of_bounds"
	KindInvalidData    Kind = "invalid_data"
	KindUnsupported    Kind = "unsupported"
	KindFieldMissing   Kind = "field_missing"
	KindInvalidEnum    Kind = "invalid_enum"
	KindUnknownVariant Kind = "unknown_variant"
	KindNotFound       Kind = "not_found"
	KindNotInitialized Kind = "not_initialized"
	KindInvalidInput   Kind = "invalid_input"
	KindConflict       Kind = "conflict"
	KindFatalConfig    Kind = "fatal_config"
	KindSymbolMissing  Kind = "symbol_missing"
	KindSchema         Kind = "schema"
	KindTrap           Kind = "trap"
	KindIO             Kind = "io"
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Value   any
	Cause   error
	Phase   Phase
	Kind    Kind
	GoType  string
	WitType string
	Detail  string
	Path    []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" || e.WitType != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.WitType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", WIT type ")
			b.WriteString(e.WitType)
		} else if e.GoType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("WIT type ")
			b.WriteString(e.WitType)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.WitType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// WitType sets the WIT type name
func (b *Builder) WitType(t string) *Builder {
	b.err.WitType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, goType, witType string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindTypeMismatch,
		Path:    path,
		GoType:  goType,
		WitType: witType,
	}
}

// FieldMissing creates a missing field error
func FieldMissing(phase Phase, path []string, fieldName string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindFieldMissing,
		Path:   path,
		Detail: fmt.Sprintf("missing field %q", fieldName),
	}
}

// UnknownVariant creates an error for a discriminator no decoder is registered for
func UnknownVariant(phase Phase, tag string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnknownVariant,
		Detail: fmt.Sprintf("no variant registered for discriminator %q", tag),
		Value:  tag,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// InvalidEnum creates an invalid enum value error
func InvalidEnum(phase Phase, path []string, value any, enumType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidEnum,
		Path:   path,
		Detail: fmt.Sprintf("invalid %s value %v", enumType, value),
		Value:  value,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Conflict creates a registration conflict error: name is already bound
// to a different address and override was not permitted.
func Conflict(name string, existing, incoming uintptr) *Error {
	return &Error{
		Phase:  PhaseRegister,
		Kind:   KindConflict,
		Path:   []string{name},
		Detail: fmt.Sprintf("already bound to %#x, refusing %#x without override", existing, incoming),
		Value:  incoming,
	}
}

// FatalConfig creates a build parity error that must stop the bridge.
func FatalConfig(field, native, managed string) *Error {
	return &Error{
		Phase:  PhaseValidate,
		Kind:   KindFatalConfig,
		Path:   []string{field},
		Detail: fmt.Sprintf("native %s=%s but managed %s=%s", field, native, field, managed),
	}
}

// MissingSymbol represents a single unresolved symbol
type MissingSymbol struct {
	Library string // e.g., "libmonosgen-2.0.so" or "registry"
	Name    string // e.g., "mono_jit_init_version"
}

// MissingSymbolsError is returned when binding fails because required
// symbols or interop functions could not be resolved.
type MissingSymbolsError struct {
	Symbols []MissingSymbol
}

// NewMissingSymbolsError creates an error from a list of "library#symbol" strings
func NewMissingSymbolsError(symbols []string) *MissingSymbolsError {
	result := &MissingSymbolsError{
		Symbols: make([]MissingSymbol, 0, len(symbols)),
	}
	for _, sym := range symbols {
		lib, name := parseSymbolKey(sym)
		result.Symbols = append(result.Symbols, MissingSymbol{
			Library: lib,
			Name:    name,
		})
	}
	return result
}

func parseSymbolKey(key string) (library, name string) {
	lib, n, found := strings.Cut(key, "#")
	if found {
		return lib, n
	}
	return "", key
}

func (e *MissingSymbolsError) Error() string {
	if len(e.Symbols) == 0 {
		return "[bind] symbol_missing: no symbols specified"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "missing %d symbol(s):\n", len(e.Symbols))

	// Group by library for cleaner output
	byLib := make(map[string][]string)
	var libOrder []string
	for _, sym := range e.Symbols {
		if _, exists := byLib[sym.Library]; !exists {
			libOrder = append(libOrder, sym.Library)
		}
		byLib[sym.Library] = append(byLib[sym.Library], sym.Name)
	}

	for _, lib := range libOrder {
		b.WriteString("\n  ")
		if lib == "" {
			b.WriteString("(unnamed)")
		} else {
			b.WriteString(lib)
		}
		b.WriteString(":\n")
		for _, name := range byLib[lib] {
			b.WriteString("    - ")
			b.WriteString(name)
			b.WriteByte('\n')
		}
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// Is reports whether target matches this error type
func (e *MissingSymbolsError) Is(target error) bool {
	_, ok := target.(*MissingSymbolsError)
	return ok
}

// NotInitialized creates a not-initialized error
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Load creates a loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// Schema creates a schema validation error for a single type definition
func Schema(tag string, cause error) *Error {
	return &Error{
		Phase:  PhaseValidate,
		Kind:   KindSchema,
		Detail: fmt.Sprintf("schema check for %q", tag),
		Cause:  cause,
	}
}
