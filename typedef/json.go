package typedef

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/sharpbridge/errors"
)

const typeKey = "$type"

// Fields is one JSON object keyed by member name, as handed to a DecodeFunc.
type Fields map[string]json.RawMessage

// Require decodes member name into dst. Absent and null members are
// reported as field_missing.
func (f Fields) Require(name string, dst any) error {
	return f.require(nil, name, dst)
}

// Optional decodes member name into dst when present and non-null.
func (f Fields) Optional(name string, dst any) error {
	return f.optional(nil, name, dst)
}

func (f Fields) require(path []string, name string, dst any) error {
	raw, ok := f[name]
	if !ok || isNull(raw) {
		return errors.FieldMissing(errors.PhaseDecode, path, name)
	}
	return decodeMember(path, name, raw, dst)
}

func (f Fields) optional(path []string, name string, dst any) error {
	raw, ok := f[name]
	if !ok || isNull(raw) {
		return nil
	}
	return decodeMember(path, name, raw, dst)
}

func decodeMember(path []string, name string, raw json.RawMessage, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Path(slices.Concat(path, []string{name})...).
			Detail("cannot decode %q", name).
			Cause(err).
			Build()
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// DecodeFunc builds one definition variant from its JSON members.
type DecodeFunc func(f Fields) (Definition, error)

var (
	decodersMu sync.RWMutex
	decoders   = map[string]DecodeFunc{}
)

// Register binds a discriminator to its decoder. Registering the same tag
// twice panics: the table is built once at init.
func Register(tag string, fn DecodeFunc) {
	decodersMu.Lock()
	defer decodersMu.Unlock()
	if _, dup := decoders[tag]; dup {
		panic(fmt.Sprintf("typedef: decoder for %q registered twice", tag))
	}
	decoders[tag] = fn
}

func decoderFor(tag string) (DecodeFunc, bool) {
	decodersMu.RLock()
	defer decodersMu.RUnlock()
	fn, ok := decoders[tag]
	return fn, ok
}

// Tags returns every registered discriminator, sorted.
func Tags() []string {
	decodersMu.RLock()
	defer decodersMu.RUnlock()
	tags := make([]string, 0, len(decoders))
	for tag := range decoders {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	return tags
}

func init() {
	Register(TagEnum, decodeEnum)
	Register(TagStruct, decodeStruct)
	Register(TagClass, decodeClass)
}

// Write serializes def as a compact JSON object, "$type" first.
func Write(def Definition) ([]byte, error) {
	data, err := marshal(def.wire(), false)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseEncode, errors.KindInvalidData, err, def.Header().CSharpFullName)
	}
	return data, nil
}

// WriteIndent is Write with two-space indentation.
func WriteIndent(def Definition) ([]byte, error) {
	data, err := marshal(def.wire(), true)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseEncode, errors.KindInvalidData, err, def.Header().CSharpFullName)
	}
	return data, nil
}

// marshal keeps type names such as "TArray<FName>" unescaped.
func marshal(v any, indent bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// WriteObject returns def as a generic JSON object. Numbers are kept as
// json.Number so 64-bit values survive.
func WriteObject(def Definition) (map[string]any, error) {
	data, err := Write(def)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, errors.Wrap(errors.PhaseEncode, errors.KindInvalidData, err, def.Header().CSharpFullName)
	}
	return obj, nil
}

// WriteBatch serializes defs as a compact JSON array.
func WriteBatch(defs []Definition) ([]byte, error) {
	items := make([]any, len(defs))
	for i, def := range defs {
		items[i] = def.wire()
	}
	data, err := marshal(items, false)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseEncode, errors.KindInvalidData, err, "type definition batch")
	}
	return data, nil
}

// Decoder reads definitions, optionally checking each decoded entry
// against a Schema.
type Decoder struct {
	schema *Schema
}

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithSchema enables schema checking.
func WithSchema(s *Schema) DecoderOption {
	return func(d *Decoder) {
		d.schema = s
	}
}

// NewDecoder creates a decoder.
func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Read decodes one definition without schema checking.
func Read(data []byte) (Definition, error) {
	return NewDecoder().Read(data)
}

// ReadBatch decodes an array of definitions without schema checking.
func ReadBatch(data []byte) ([]Definition, error) {
	return NewDecoder().ReadBatch(data)
}

// Read decodes one definition, dispatching on its "$type" member.
func (d *Decoder) Read(data []byte) (Definition, error) {
	var f Fields
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Detail("type definition is not a JSON object").
			Cause(err).
			Build()
	}
	if f == nil {
		return nil, errors.InvalidData(errors.PhaseDecode, nil, "type definition is null")
	}
	var tag string
	if err := f.Require(typeKey, &tag); err != nil {
		return nil, err
	}
	decode, ok := decoderFor(tag)
	if !ok {
		return nil, errors.UnknownVariant(errors.PhaseDecode, tag)
	}
	def, err := decode(f)
	if err != nil {
		return nil, err
	}
	if d.schema != nil {
		if err := d.schema.Validate(tag, data); err != nil {
			return nil, err
		}
	}
	return def, nil
}

// ReadBatch decodes a JSON array of definitions. Each entry is decoded on
// its own: failing entries are skipped and reported through *BatchError
// while the rest are returned.
func (d *Decoder) ReadBatch(data []byte) ([]Definition, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Detail("type definition batch is not a JSON array").
			Cause(err).
			Build()
	}

	defs := make([]Definition, 0, len(raws))
	var batchErr BatchError
	for i, raw := range raws {
		def, err := d.Read(raw)
		if err != nil {
			name := entryName(raw)
			Logger().Warn("skipping type definition",
				zap.Int("index", i),
				zap.String("name", name),
				zap.Error(err))
			batchErr.Failures = append(batchErr.Failures, EntryError{Index: i, Name: name, Err: err})
			continue
		}
		defs = append(defs, def)
	}
	if len(batchErr.Failures) > 0 {
		batchErr.Total = len(raws)
		return defs, &batchErr
	}
	return defs, nil
}

func entryName(raw json.RawMessage) string {
	var head struct {
		CSharpFullName string `json:"CSharpFullName"`
	}
	_ = json.Unmarshal(raw, &head)
	return head.CSharpFullName
}

// EntryError is the failure of one batch entry.
type EntryError struct {
	Index int
	// Name is the entry's CSharpFullName when it could be read.
	Name string
	Err  error
}

func (e EntryError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("entry %d (%s): %v", e.Index, e.Name, e.Err)
	}
	return fmt.Sprintf("entry %d: %v", e.Index, e.Err)
}

func (e EntryError) Unwrap() error { return e.Err }

// BatchError reports the entries ReadBatch skipped.
type BatchError struct {
	Failures []EntryError
	Total    int
}

func (e *BatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d of %d type definitions failed", len(e.Failures), e.Total)
	for _, f := range e.Failures {
		b.WriteString("\n  ")
		b.WriteString(f.Error())
	}
	return b.String()
}

// Unwrap exposes every entry failure to errors.Is and errors.As.
func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

func readBase(f Fields, b *Base) error {
	for _, m := range []struct {
		name string
		dst  any
	}{
		{"CrcCode", &b.CrcCode},
		{"GeneratorVersion", &b.GeneratorVersion},
		{"CSharpFullName", &b.CSharpFullName},
		{"AssemblyName", &b.AssemblyName},
	} {
		if err := f.Require(m.name, m.dst); err != nil {
			return err
		}
	}
	return nil
}

func decodeEnum(f Fields) (Definition, error) {
	e := &Enum{}
	if err := readBase(f, &e.Base); err != nil {
		return nil, err
	}
	var items []Fields
	if err := f.Require("Fields", &items); err != nil {
		return nil, err
	}
	e.Fields = make([]EnumField, 0, len(items))
	for i, item := range items {
		path := []string{"Fields", strconv.Itoa(i)}
		var fd EnumField
		if err := item.require(path, "Name", &fd.Name); err != nil {
			return nil, err
		}
		if err := item.require(path, "Value", &fd.Value); err != nil {
			return nil, err
		}
		e.Fields = append(e.Fields, fd)
	}
	return e, nil
}

func decodeStruct(f Fields) (Definition, error) {
	s := &Struct{}
	if err := readBase(f, &s.Base); err != nil {
		return nil, err
	}
	if err := f.Optional("Size", &s.Size); err != nil {
		return nil, err
	}
	props, err := readProperties(f, nil, "Properties")
	if err != nil {
		return nil, err
	}
	s.Properties = props
	return s, nil
}

func decodeClass(f Fields) (Definition, error) {
	c := &Class{}
	if err := readBase(f, &c.Base); err != nil {
		return nil, err
	}
	if err := f.Optional("SuperName", &c.SuperName); err != nil {
		return nil, err
	}
	if err := f.Optional("Flags", &c.Flags); err != nil {
		return nil, err
	}
	props, err := readProperties(f, nil, "Properties")
	if err != nil {
		return nil, err
	}
	c.Properties = props

	var items []Fields
	if err := f.Require("Functions", &items); err != nil {
		return nil, err
	}
	c.Functions = make([]Function, 0, len(items))
	for i, item := range items {
		path := []string{"Functions", strconv.Itoa(i)}
		var fn Function
		if err := item.require(path, "Name", &fn.Name); err != nil {
			return nil, err
		}
		if err := item.optional(path, "Flags", &fn.Flags); err != nil {
			return nil, err
		}
		if err := item.optional(path, "ReturnType", &fn.ReturnType); err != nil {
			return nil, err
		}
		if fn.Params, err = readProperties(item, path, "Params"); err != nil {
			return nil, err
		}
		c.Functions = append(c.Functions, fn)
	}
	return c, nil
}

// readProperties decodes a property array. A missing array decodes as empty.
func readProperties(f Fields, path []string, name string) ([]Property, error) {
	var items []Fields
	if err := f.optional(path, name, &items); err != nil {
		return nil, err
	}
	props := make([]Property, 0, len(items))
	for i, item := range items {
		p := slices.Concat(path, []string{name, strconv.Itoa(i)})
		var prop Property
		if err := item.require(p, "Name", &prop.Name); err != nil {
			return nil, err
		}
		if err := item.require(p, "TypeName", &prop.TypeName); err != nil {
			return nil, err
		}
		for _, m := range []struct {
			name string
			dst  any
		}{
			{"Flags", &prop.Flags},
			{"Offset", &prop.Offset},
			{"Size", &prop.Size},
		} {
			if err := item.optional(p, m.name, m.dst); err != nil {
				return nil, err
			}
		}
		props = append(props, prop)
	}
	return props, nil
}
