// Package graphexport loads exported type definitions into Neo4j so the
// shape of the managed API can be queried: which classes derive from a
// type, which members use a struct, what changed between exports.
//
// Nodes are (:SharpType {full_name}) and (:SharpMember {key}); edges are
// HAS_MEMBER from a type to its members and INHERITS from a class to its
// super class. Every statement MERGEs, so a load can be repeated.
package graphexport

import (
	"strconv"

	"github.com/wippyai/sharpbridge/typedef"
)

// Member kinds stored on SharpMember nodes.
const (
	MemberProperty  = "property"
	MemberFunction  = "function"
	MemberEnumField = "enum_field"
)

// Graph holds the UNWIND batches for one load.
type Graph struct {
	Types    []map[string]any
	Members  []map[string]any
	Inherits []map[string]any
}

// Build converts defs into batches.
func Build(defs []typedef.Definition) Graph {
	g := Graph{
		Types:    make([]map[string]any, 0, len(defs)),
		Members:  []map[string]any{},
		Inherits: []map[string]any{},
	}
	for _, def := range defs {
		h := def.Header()
		g.Types = append(g.Types, map[string]any{
			"full_name": h.CSharpFullName,
			"kind":      def.Kind().String(),
			"crc":       h.CrcCode,
			"assembly":  h.AssemblyName,
			"version":   h.GeneratorVersion,
		})

		switch d := def.(type) {
		case *typedef.Enum:
			for i, f := range d.Fields {
				g.Members = append(g.Members, member(h.CSharpFullName, MemberEnumField, f.Name, i, map[string]any{
					"value": f.Value,
				}))
			}
		case *typedef.Struct:
			g.addProperties(h.CSharpFullName, d.Properties)
		case *typedef.Class:
			g.addProperties(h.CSharpFullName, d.Properties)
			for i, fn := range d.Functions {
				g.Members = append(g.Members, member(h.CSharpFullName, MemberFunction, fn.Name, i, map[string]any{
					"flags":       int64(fn.Flags),
					"return_type": fn.ReturnType,
					"params":      len(fn.Params),
				}))
			}
			if d.SuperName != "" {
				g.Inherits = append(g.Inherits, map[string]any{
					"child":  h.CSharpFullName,
					"parent": d.SuperName,
				})
			}
		}
	}
	return g
}

func (g *Graph) addProperties(owner string, props []typedef.Property) {
	for i, p := range props {
		g.Members = append(g.Members, member(owner, MemberProperty, p.Name, i, map[string]any{
			"type_name": p.TypeName,
			"flags":     int64(p.Flags),
			"offset":    p.Offset,
			"size":      p.Size,
		}))
	}
}

// member keys are unique per owner, kind and name; functions and
// properties may share a name.
func member(owner, kind, name string, index int, extra map[string]any) map[string]any {
	row := map[string]any{
		"key":   Key(owner, kind, name),
		"owner": owner,
		"kind":  kind,
		"name":  name,
		"index": index,
	}
	for k, v := range extra {
		row[k] = v
	}
	return row
}

// Key returns the SharpMember key for a member of owner.
func Key(owner, kind, name string) string {
	return owner + "/" + kind + "/" + name
}

// Stats counts what a load wrote.
type Stats struct {
	Types    int
	Members  int
	Inherits int
}

func (s Stats) String() string {
	return strconv.Itoa(s.Types) + " types, " +
		strconv.Itoa(s.Members) + " members, " +
		strconv.Itoa(s.Inherits) + " inherits edges"
}
