package typedef

// GeneratorVersion is the schema-format version stamped on every exported
// definition. Bump it whenever the wire layout of any variant changes.
const GeneratorVersion = 1

// Discriminators registered in the consumer's type table.
const (
	TagEnum   = "UnrealSharpTool.Core.TypeInfo.EnumTypeDefinition, UnrealSharpTool.Core"
	TagStruct = "UnrealSharpTool.Core.TypeInfo.ScriptStructTypeDefinition, UnrealSharpTool.Core"
	TagClass  = "UnrealSharpTool.Core.TypeInfo.ClassTypeDefinition, UnrealSharpTool.Core"
)

// Kind identifies a definition variant.
type Kind int

const (
	KindEnum Kind = iota
	KindStruct
	KindClass
)

func (k Kind) String() string {
	switch k {
	case KindEnum:
		return "enum"
	case KindStruct:
		return "struct"
	case KindClass:
		return "class"
	default:
		return "unknown"
	}
}

// Base holds the fields shared by every variant.
type Base struct {
	CrcCode          int64  `json:"CrcCode"`
	GeneratorVersion int    `json:"GeneratorVersion"`
	CSharpFullName   string `json:"CSharpFullName"`
	AssemblyName     string `json:"AssemblyName"`
}

// Definition is the closed set of type definition variants: *Enum, *Struct
// and *Class.
type Definition interface {
	Kind() Kind
	// TypeTag is the "$type" discriminator written ahead of the payload.
	TypeTag() string
	Header() *Base
	wire() any
}

// Generated is implemented by engine-side proxy objects materialized from a
// definition (generated enums, structs and classes).
type Generated interface {
	SetCrcCode(int64)
	SetGeneratorVersion(int)
	SetCSharpFullName(string)
	SetAssemblyName(string)
}

// Apply copies the shared header of def onto a generated proxy.
func Apply(def Definition, target Generated) {
	h := def.Header()
	target.SetCrcCode(h.CrcCode)
	target.SetGeneratorVersion(h.GeneratorVersion)
	target.SetCSharpFullName(h.CSharpFullName)
	target.SetAssemblyName(h.AssemblyName)
}
