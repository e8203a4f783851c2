// Package natives implements the generated set of native-callable
// functions: name interning and read access to the reflection universe
// through opaque handles.
//
// The table registered with the interop registry is generated from
// manifest.yaml; see functions_gen.go.
package natives

//go:generate go run ../cmd/interopgen -manifest manifest.yaml -out functions_gen.go

import (
	"sync"

	"github.com/wippyai/sharpbridge/reflection"
	"github.com/wippyai/sharpbridge/typedef"
)

// Handle identifies a reflected type handed to the managed side. Zero is
// the null handle.
type Handle uint64

// NameNone is the reserved first entry of the name table.
const NameNone = "None"

// IndexNone is returned by value lookups that find nothing.
const IndexNone = -1

// Utils owns the handle and name tables backing the generated functions.
type Utils struct {
	universe reflection.Universe
	namer    typedef.Namer

	mu      sync.RWMutex
	handles map[Handle]reflection.Type
	byPath  map[string]Handle
	next    Handle

	namesMu sync.RWMutex
	names   []string
	nameIdx map[string]uint64
}

// New creates the tables over u.
func New(u reflection.Universe, n typedef.Namer) *Utils {
	return &Utils{
		universe: u,
		namer:    n,
		handles:  make(map[Handle]reflection.Type),
		byPath:   make(map[string]Handle),
		names:    []string{NameNone},
		nameIdx:  map[string]uint64{NameNone: 0},
	}
}

func (u *Utils) acquire(t reflection.Type) Handle {
	u.mu.Lock()
	defer u.mu.Unlock()
	if h, ok := u.byPath[t.Path()]; ok {
		return h
	}
	u.next++
	u.handles[u.next] = t
	u.byPath[t.Path()] = u.next
	return u.next
}

func (u *Utils) lookup(h Handle) reflection.Type {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.handles[h]
}

func (u *Utils) enum(h Handle) reflection.Enum {
	e, _ := u.lookup(h).(reflection.Enum)
	return e
}

// structOf also accepts class handles: every class is a struct.
func (u *Utils) structOf(h Handle) reflection.Struct {
	s, _ := u.lookup(h).(reflection.Struct)
	return s
}

func (u *Utils) class(h Handle) reflection.Class {
	c, _ := u.lookup(h).(reflection.Class)
	return c
}

// Handles returns the number of live handles.
func (u *Utils) Handles() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return len(u.handles)
}

// ReleaseAll drops every handle. Handles issued before the call become
// invalid.
func (u *Utils) ReleaseAll() {
	u.mu.Lock()
	defer u.mu.Unlock()
	clear(u.handles)
	clear(u.byPath)
}

// GetNameOfString interns text and returns its name index.
func (u *Utils) GetNameOfString(text string) uint64 {
	if text == "" {
		return 0
	}
	u.namesMu.RLock()
	idx, ok := u.nameIdx[text]
	u.namesMu.RUnlock()
	if ok {
		return idx
	}

	u.namesMu.Lock()
	defer u.namesMu.Unlock()
	if idx, ok := u.nameIdx[text]; ok {
		return idx
	}
	idx = uint64(len(u.names))
	u.names = append(u.names, text)
	u.nameIdx[text] = idx
	return idx
}

// GetStringOfName returns the text of a name index, NameNone for unknown
// indexes.
func (u *Utils) GetStringOfName(name uint64) string {
	u.namesMu.RLock()
	defer u.namesMu.RUnlock()
	if name >= uint64(len(u.names)) {
		return NameNone
	}
	return u.names[name]
}

// GetEnum returns a handle to the enum at path, or zero.
func (u *Utils) GetEnum(path string) Handle {
	e, ok := u.universe.FindEnum(path)
	if !ok {
		return 0
	}
	return u.acquire(e)
}

func (u *Utils) GetEnumNumEnums(h Handle) int32 {
	e := u.enum(h)
	if e == nil {
		return 0
	}
	return int32(e.NumEnums())
}

func (u *Utils) GetEnumNameByIndex(h Handle, index int32) string {
	e := u.enum(h)
	if e == nil || index < 0 || int(index) >= e.NumEnums() {
		return ""
	}
	return e.NameByIndex(int(index))
}

func (u *Utils) GetEnumValueByIndex(h Handle, index int32) int64 {
	e := u.enum(h)
	if e == nil || index < 0 || int(index) >= e.NumEnums() {
		return IndexNone
	}
	return e.ValueByIndex(int(index))
}

// GetEnumValueByName returns IndexNone when name is not an enumerator.
func (u *Utils) GetEnumValueByName(h Handle, name string) int64 {
	e := u.enum(h)
	if e == nil {
		return IndexNone
	}
	for i := 0; i < e.NumEnums(); i++ {
		if e.NameByIndex(i) == name {
			return e.ValueByIndex(i)
		}
	}
	return IndexNone
}

// GetStruct returns a handle to the script struct at path, or zero.
func (u *Utils) GetStruct(path string) Handle {
	s, ok := u.universe.FindStruct(path)
	if !ok {
		return 0
	}
	return u.acquire(s)
}

// GetClass returns a handle to the class at path, or zero.
func (u *Utils) GetClass(path string) Handle {
	c, ok := u.universe.FindClass(path)
	if !ok {
		return 0
	}
	return u.acquire(c)
}

// GetStructName returns the reflected name behind any type handle.
func (u *Utils) GetStructName(h Handle) string {
	t := u.lookup(h)
	if t == nil {
		return ""
	}
	return t.Name()
}

func (u *Utils) GetStructPath(h Handle) string {
	t := u.lookup(h)
	if t == nil {
		return ""
	}
	return t.Path()
}

// GetSuperClass returns zero for root classes and non-class handles.
func (u *Utils) GetSuperClass(h Handle) Handle {
	c := u.class(h)
	if c == nil {
		return 0
	}
	super := c.Super()
	if super == nil {
		return 0
	}
	return u.acquire(super)
}

func (u *Utils) IsClassChildOf(h, parent Handle) bool {
	c, p := u.class(h), u.class(parent)
	if c == nil || p == nil {
		return false
	}
	return reflection.IsChildOf(c, p)
}

func (u *Utils) GetPropertyCount(h Handle) int32 {
	s := u.structOf(h)
	if s == nil {
		return 0
	}
	return int32(len(s.Properties()))
}

func (u *Utils) GetPropertyNameByIndex(h Handle, index int32) string {
	s := u.structOf(h)
	if s == nil {
		return ""
	}
	props := s.Properties()
	if index < 0 || int(index) >= len(props) {
		return ""
	}
	return props[index].Name()
}

func (u *Utils) GetFunctionCount(h Handle) int32 {
	c := u.class(h)
	if c == nil {
		return 0
	}
	return int32(len(c.Functions()))
}

func (u *Utils) GetFunctionNameByIndex(h Handle, index int32) string {
	c := u.class(h)
	if c == nil {
		return ""
	}
	fns := c.Functions()
	if index < 0 || int(index) >= len(fns) {
		return ""
	}
	return fns[index].Name()
}

// GetStructCrcCode returns the CrcCode the exported type definition of h
// carries, letting the managed side detect stale generated bindings.
func (u *Utils) GetStructCrcCode(h Handle) int64 {
	switch t := u.lookup(h).(type) {
	case reflection.Class:
		return typedef.NewClass(t, u.namer).CrcCode
	case reflection.Struct:
		return typedef.NewStruct(t, u.namer).CrcCode
	case reflection.Enum:
		return typedef.NewEnum(t, u.namer).CrcCode
	default:
		return 0
	}
}

// ReleaseHandle invalidates h. It reports whether h was live.
func (u *Utils) ReleaseHandle(h Handle) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	t, ok := u.handles[h]
	if !ok {
		return false
	}
	delete(u.handles, h)
	delete(u.byPath, t.Path())
	return true
}
