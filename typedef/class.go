package typedef

import "github.com/wippyai/sharpbridge/reflection"

// Function is one exported callable of a class.
type Function struct {
	Name   string     `json:"Name"`
	Flags  uint64     `json:"Flags"`
	Params []Property `json:"Params"`
	// ReturnType is empty for functions without a return value.
	ReturnType string `json:"ReturnType"`
}

// Class is the definition of a reflected class.
type Class struct {
	Base
	// SuperName is the C# full name of the parent class, empty for roots.
	SuperName  string
	Flags      uint64
	Properties []Property
	Functions  []Function
}

func (c *Class) Kind() Kind      { return KindClass }
func (c *Class) TypeTag() string { return TagClass }
func (c *Class) Header() *Base   { return &c.Base }

// NewClass snapshots a live class.
func NewClass(c reflection.Class, n Namer) *Class {
	def := &Class{
		Flags:      c.Flags(),
		Properties: loadProperties(c.Properties()),
		Functions:  loadFunctions(c.Functions()),
	}
	superPath := ""
	if super := c.Super(); super != nil {
		def.SuperName = n.FullName(super)
		superPath = super.Path()
	}
	def.Base = Base{
		CrcCode:          classCRC(c.Path(), superPath, def),
		GeneratorVersion: GeneratorVersion,
		CSharpFullName:   n.FullName(c),
		AssemblyName:     n.Assembly(c),
	}
	return def
}

func loadFunctions(fns []reflection.Function) []Function {
	out := make([]Function, 0, len(fns))
	for _, f := range fns {
		fd := Function{
			Name:   f.Name(),
			Flags:  f.Flags(),
			Params: loadProperties(f.Params()),
		}
		if ret := f.Return(); ret != nil {
			fd.ReturnType = ret.TypeName()
		}
		out = append(out, fd)
	}
	return out
}

type classWire struct {
	Type string `json:"$type"`
	Base
	SuperName  string     `json:"SuperName"`
	Flags      uint64     `json:"Flags"`
	Properties []Property `json:"Properties"`
	Functions  []Function `json:"Functions"`
}

func (c *Class) wire() any {
	fns := make([]Function, len(c.Functions))
	for i, f := range c.Functions {
		f.Params = nonNil(f.Params)
		fns[i] = f
	}
	return classWire{
		Type:       TagClass,
		Base:       c.Base,
		SuperName:  c.SuperName,
		Flags:      c.Flags,
		Properties: nonNil(c.Properties),
		Functions:  fns,
	}
}
