package typedef

import "github.com/wippyai/sharpbridge/reflection"

// Snapshot converts every type in u, enums first, then structs, then
// classes, each group in the universe's order.
func Snapshot(u reflection.Universe, n Namer) []Definition {
	enums, structs, classes := u.Enums(), u.Structs(), u.Classes()
	defs := make([]Definition, 0, len(enums)+len(structs)+len(classes))
	for _, e := range enums {
		defs = append(defs, NewEnum(e, n))
	}
	for _, s := range structs {
		defs = append(defs, NewStruct(s, n))
	}
	for _, c := range classes {
		defs = append(defs, NewClass(c, n))
	}
	return defs
}
