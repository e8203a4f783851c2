// Package snapshot loads a YAML dump of the engine's reflection data and
// serves it through reflection.Universe. Dumps are what the export tooling
// and tests run against when no live engine is attached.
package snapshot

import (
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/sharpbridge/errors"
	"github.com/wippyai/sharpbridge/reflection"
)

// File is the YAML document layout.
type File struct {
	Enums   []EnumSpec   `yaml:"enums"`
	Structs []StructSpec `yaml:"structs"`
	Classes []ClassSpec  `yaml:"classes"`
}

type EnumSpec struct {
	Path    string      `yaml:"path"`
	Entries []EntrySpec `yaml:"entries"`
}

type EntrySpec struct {
	Name  string `yaml:"name"`
	Value int64  `yaml:"value"`
}

type PropertySpec struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"type"`
	Flags  uint64 `yaml:"flags,omitempty"`
	Offset int    `yaml:"offset,omitempty"`
	Size   int    `yaml:"size,omitempty"`
}

type FunctionSpec struct {
	Name   string         `yaml:"name"`
	Flags  uint64         `yaml:"flags,omitempty"`
	Params []PropertySpec `yaml:"params,omitempty"`
	Return *PropertySpec  `yaml:"return,omitempty"`
}

type StructSpec struct {
	Path       string         `yaml:"path"`
	Size       int            `yaml:"size,omitempty"`
	Properties []PropertySpec `yaml:"properties,omitempty"`
}

type ClassSpec struct {
	StructSpec `yaml:",inline"`
	Super      string         `yaml:"super,omitempty"`
	Flags      uint64         `yaml:"flags,omitempty"`
	Functions  []FunctionSpec `yaml:"functions,omitempty"`
}

// Universe is an immutable reflection.Universe built from a File.
type Universe struct {
	enums   map[string]*Enum
	structs map[string]*Struct
	classes map[string]*Class
}

var _ reflection.Universe = (*Universe)(nil)

// LoadFile reads a snapshot from disk.
func LoadFile(path string) (*Universe, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Load(fmt.Sprintf("open snapshot %s", path), err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes a YAML snapshot.
func Load(r io.Reader) (*Universe, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return nil, errors.Load("decode snapshot", err)
	}
	return New(file)
}

// New builds a Universe, resolving class super references.
func New(file File) (*Universe, error) {
	u := &Universe{
		enums:   make(map[string]*Enum, len(file.Enums)),
		structs: make(map[string]*Struct, len(file.Structs)),
		classes: make(map[string]*Class, len(file.Classes)),
	}

	for _, es := range file.Enums {
		if es.Path == "" {
			return nil, errors.InvalidInput(errors.PhaseLoad, "enum without path")
		}
		if _, dup := u.enums[es.Path]; dup {
			return nil, errors.InvalidInput(errors.PhaseLoad, fmt.Sprintf("duplicate enum %s", es.Path))
		}
		u.enums[es.Path] = &Enum{path: es.Path, entries: es.Entries}
	}

	for _, ss := range file.Structs {
		if ss.Path == "" {
			return nil, errors.InvalidInput(errors.PhaseLoad, "struct without path")
		}
		if _, dup := u.structs[ss.Path]; dup {
			return nil, errors.InvalidInput(errors.PhaseLoad, fmt.Sprintf("duplicate struct %s", ss.Path))
		}
		u.structs[ss.Path] = newStruct(ss)
	}

	for _, cs := range file.Classes {
		if cs.Path == "" {
			return nil, errors.InvalidInput(errors.PhaseLoad, "class without path")
		}
		if _, dup := u.classes[cs.Path]; dup {
			return nil, errors.InvalidInput(errors.PhaseLoad, fmt.Sprintf("duplicate class %s", cs.Path))
		}
		c := &Class{Struct: *newStruct(cs.StructSpec), flags: cs.Flags, superPath: cs.Super}
		for _, fs := range cs.Functions {
			c.functions = append(c.functions, newFunction(fs))
		}
		u.classes[cs.Path] = c
	}

	for _, c := range u.classes {
		if c.superPath == "" {
			continue
		}
		super, ok := u.classes[c.superPath]
		if !ok {
			return nil, errors.NotFound(errors.PhaseLoad, "super class", c.superPath)
		}
		c.super = super
	}

	for _, c := range u.classes {
		seen := map[*Class]bool{}
		for cur := c; cur != nil; cur = cur.super {
			if seen[cur] {
				return nil, errors.InvalidInput(errors.PhaseLoad, fmt.Sprintf("class hierarchy cycle at %s", c.path))
			}
			seen[cur] = true
		}
	}

	return u, nil
}

func (u *Universe) FindEnum(path string) (reflection.Enum, bool) {
	e, ok := u.enums[path]
	if !ok {
		return nil, false
	}
	return e, true
}

func (u *Universe) FindStruct(path string) (reflection.Struct, bool) {
	s, ok := u.structs[path]
	if !ok {
		return nil, false
	}
	return s, true
}

func (u *Universe) FindClass(path string) (reflection.Class, bool) {
	c, ok := u.classes[path]
	if !ok {
		return nil, false
	}
	return c, true
}

// Enums returns all enums sorted by path.
func (u *Universe) Enums() []reflection.Enum {
	out := make([]reflection.Enum, 0, len(u.enums))
	for _, p := range sortedKeys(u.enums) {
		out = append(out, u.enums[p])
	}
	return out
}

// Structs returns all structs sorted by path.
func (u *Universe) Structs() []reflection.Struct {
	out := make([]reflection.Struct, 0, len(u.structs))
	for _, p := range sortedKeys(u.structs) {
		out = append(out, u.structs[p])
	}
	return out
}

// Classes returns all classes sorted by path.
func (u *Universe) Classes() []reflection.Class {
	out := make([]reflection.Class, 0, len(u.classes))
	for _, p := range sortedKeys(u.classes) {
		out = append(out, u.classes[p])
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type Enum struct {
	path    string
	entries []EntrySpec
}

func (e *Enum) Name() string {
	_, name := reflection.SplitPath(e.path)
	return name
}

func (e *Enum) Path() string             { return e.path }
func (e *Enum) NumEnums() int            { return len(e.entries) }
func (e *Enum) NameByIndex(i int) string { return e.entries[i].Name }
func (e *Enum) ValueByIndex(i int) int64 { return e.entries[i].Value }

type Property struct {
	spec PropertySpec
}

func (p *Property) Name() string     { return p.spec.Name }
func (p *Property) TypeName() string { return p.spec.Type }
func (p *Property) Flags() uint64    { return p.spec.Flags }
func (p *Property) Offset() int      { return p.spec.Offset }
func (p *Property) Size() int        { return p.spec.Size }

func newProperties(specs []PropertySpec) []reflection.Property {
	out := make([]reflection.Property, len(specs))
	for i := range specs {
		out[i] = &Property{spec: specs[i]}
	}
	return out
}

type Function struct {
	name   string
	flags  uint64
	params []reflection.Property
	ret    *Property
}

func newFunction(fs FunctionSpec) *Function {
	f := &Function{name: fs.Name, flags: fs.Flags, params: newProperties(fs.Params)}
	if fs.Return != nil {
		f.ret = &Property{spec: *fs.Return}
	}
	return f
}

func (f *Function) Name() string                  { return f.name }
func (f *Function) Flags() uint64                 { return f.flags }
func (f *Function) Params() []reflection.Property { return f.params }

func (f *Function) Return() reflection.Property {
	if f.ret == nil {
		return nil
	}
	return f.ret
}

type Struct struct {
	path  string
	size  int
	props []reflection.Property
}

func newStruct(ss StructSpec) *Struct {
	return &Struct{path: ss.Path, size: ss.Size, props: newProperties(ss.Properties)}
}

func (s *Struct) Name() string {
	_, name := reflection.SplitPath(s.path)
	return name
}

func (s *Struct) Path() string                      { return s.path }
func (s *Struct) Size() int                         { return s.size }
func (s *Struct) Properties() []reflection.Property { return s.props }

type Class struct {
	Struct
	flags     uint64
	superPath string
	super     *Class
	functions []reflection.Function
}

func (c *Class) Flags() uint64                    { return c.flags }
func (c *Class) Functions() []reflection.Function { return c.functions }

func (c *Class) Super() reflection.Class {
	if c.super == nil {
		return nil
	}
	return c.super
}
