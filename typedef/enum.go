package typedef

import (
	"strings"

	"github.com/wippyai/sharpbridge/reflection"
)

// sentinelSuffix marks the engine-generated guard enumerator.
const sentinelSuffix = "_MAX"

// EnumField is one exported enumerator.
type EnumField struct {
	Name  string `json:"Name"`
	Value int64  `json:"Value"`
}

// Enum is the definition of a reflected enumeration.
type Enum struct {
	Base
	Fields []EnumField
}

func (e *Enum) Kind() Kind      { return KindEnum }
func (e *Enum) TypeTag() string { return TagEnum }
func (e *Enum) Header() *Base   { return &e.Base }

// NewEnum snapshots a live enum.
func NewEnum(e reflection.Enum, n Namer) *Enum {
	def := &Enum{Fields: LoadFields(e)}
	def.Base = Base{
		CrcCode:          enumCRC(e.Path(), def.Fields),
		GeneratorVersion: GeneratorVersion,
		CSharpFullName:   n.FullName(e),
		AssemblyName:     n.Assembly(e),
	}
	return def
}

// LoadFields returns every enumerator in declaration order, dropping the
// last one when its name ends in "_MAX".
func LoadFields(e reflection.Enum) []EnumField {
	n := e.NumEnums()
	fields := make([]EnumField, 0, n)
	for i := 0; i < n; i++ {
		name := e.NameByIndex(i)
		if i == n-1 && strings.HasSuffix(name, sentinelSuffix) {
			continue
		}
		fields = append(fields, EnumField{Name: name, Value: e.ValueByIndex(i)})
	}
	return fields
}

type enumWire struct {
	Type string `json:"$type"`
	Base
	Fields []EnumField `json:"Fields"`
}

func (e *Enum) wire() any {
	fields := e.Fields
	if fields == nil {
		fields = []EnumField{}
	}
	return enumWire{Type: TagEnum, Base: e.Base, Fields: fields}
}
