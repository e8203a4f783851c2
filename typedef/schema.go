package typedef

import (
	_ "embed"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/wippyai/sharpbridge/errors"
)

//go:embed schema.cue
var schemaSource string

var schemaDefinitions = map[string]string{
	TagEnum:   "#EnumTypeDefinition",
	TagStruct: "#ScriptStructTypeDefinition",
	TagClass:  "#ClassTypeDefinition",
}

// Schema checks raw definitions against the embedded CUE schema.
// A cue.Context is not safe for concurrent use, so checks are serialized.
type Schema struct {
	mu   sync.Mutex
	ctx  *cue.Context
	defs map[string]cue.Value
}

// NewSchema compiles the embedded schema.
func NewSchema() (*Schema, error) {
	ctx := cuecontext.New()
	root := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := root.Err(); err != nil {
		return nil, errors.Wrap(errors.PhaseValidate, errors.KindSchema, err, "compile embedded schema")
	}

	s := &Schema{ctx: ctx, defs: make(map[string]cue.Value, len(schemaDefinitions))}
	for tag, name := range schemaDefinitions {
		v := root.LookupPath(cue.ParsePath(name))
		if !v.Exists() {
			return nil, errors.NotFound(errors.PhaseValidate, "schema definition", name)
		}
		s.defs[tag] = v
	}
	return s, nil
}

// Validate checks one JSON definition against the schema registered for tag.
func (s *Schema) Validate(tag string, data []byte) error {
	def, ok := s.defs[tag]
	if !ok {
		return errors.UnknownVariant(errors.PhaseValidate, tag)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.ctx.CompileBytes(data, cue.Filename("definition.json"))
	if err := v.Err(); err != nil {
		return errors.Schema(tag, err)
	}
	if err := def.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return errors.Schema(tag, err)
	}
	return nil
}
