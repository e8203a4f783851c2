package typedef

import "github.com/wippyai/sharpbridge/reflection"

// Property is one exported member of a struct, class or function signature.
type Property struct {
	Name     string `json:"Name"`
	TypeName string `json:"TypeName"`
	Flags    uint64 `json:"Flags"`
	Offset   int    `json:"Offset"`
	Size     int    `json:"Size"`
}

// Struct is the definition of a reflected script struct.
type Struct struct {
	Base
	Size       int
	Properties []Property
}

func (s *Struct) Kind() Kind      { return KindStruct }
func (s *Struct) TypeTag() string { return TagStruct }
func (s *Struct) Header() *Base   { return &s.Base }

// NewStruct snapshots a live struct.
func NewStruct(s reflection.Struct, n Namer) *Struct {
	def := &Struct{Size: s.Size(), Properties: loadProperties(s.Properties())}
	def.Base = Base{
		CrcCode:          structCRC(s.Path(), def.Size, def.Properties),
		GeneratorVersion: GeneratorVersion,
		CSharpFullName:   n.FullName(s),
		AssemblyName:     n.Assembly(s),
	}
	return def
}

func loadProperties(props []reflection.Property) []Property {
	out := make([]Property, 0, len(props))
	for _, p := range props {
		out = append(out, propertyOf(p))
	}
	return out
}

func propertyOf(p reflection.Property) Property {
	return Property{
		Name:     p.Name(),
		TypeName: p.TypeName(),
		Flags:    p.Flags(),
		Offset:   p.Offset(),
		Size:     p.Size(),
	}
}

type structWire struct {
	Type string `json:"$type"`
	Base
	Size       int        `json:"Size"`
	Properties []Property `json:"Properties"`
}

func (s *Struct) wire() any {
	return structWire{Type: TagStruct, Base: s.Base, Size: s.Size, Properties: nonNil(s.Properties)}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
