// Package reflection declares the view of the engine's reflection system the
// bridge consumes. The engine owns the objects; the bridge only reads them
// through these interfaces while exporting type definitions or answering
// native calls from the managed side.
package reflection

import "strings"

// Type is any reflected type with a stable object path such as
// "/Script/Engine.ECollisionChannel".
type Type interface {
	Name() string
	Path() string
}

// Enum is a reflected enumeration. Indexes follow declaration order and
// include the trailing "_MAX" sentinel when the engine generated one.
type Enum interface {
	Type
	NumEnums() int
	NameByIndex(i int) string
	ValueByIndex(i int) int64
}

// Property is a reflected member of a struct, class or function signature.
type Property interface {
	Name() string
	TypeName() string
	Flags() uint64
	Offset() int
	Size() int
}

// Function is a reflected callable on a class.
type Function interface {
	Name() string
	Flags() uint64
	Params() []Property
	// Return is nil for functions without a return value.
	Return() Property
}

// Struct is a reflected script struct.
type Struct interface {
	Type
	Size() int
	Properties() []Property
}

// Class is a reflected class. Super is nil for root classes.
type Class interface {
	Struct
	Super() Class
	Flags() uint64
	Functions() []Function
}

// Universe resolves reflected types by object path.
type Universe interface {
	FindEnum(path string) (Enum, bool)
	FindStruct(path string) (Struct, bool)
	FindClass(path string) (Class, bool)
	Enums() []Enum
	Structs() []Struct
	Classes() []Class
}

// SplitPath splits "/Script/Module.Name" into ("Module", "Name").
// Paths without a package prefix return an empty module.
func SplitPath(path string) (module, name string) {
	rest := path
	if i := strings.LastIndexByte(rest, '/'); i >= 0 {
		rest = rest[i+1:]
	}
	module, name, found := strings.Cut(rest, ".")
	if !found {
		return "", rest
	}
	return module, name
}

// IsChildOf reports whether c is parent or derives from it.
func IsChildOf(c, parent Class) bool {
	if parent == nil {
		return false
	}
	for cur := c; cur != nil; cur = cur.Super() {
		if cur.Path() == parent.Path() {
			return true
		}
	}
	return false
}
