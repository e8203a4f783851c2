package typedef

import (
	"slices"

	"github.com/wippyai/sharpbridge/reflection"
)

const actorPath = "/Script/Engine.Actor"

// Namer maps reflected type paths onto managed-side names.
type Namer struct {
	RootNamespace  string   `yaml:"root_namespace" json:"root_namespace" toml:"root_namespace"`
	EngineAssembly string   `yaml:"engine_assembly" json:"engine_assembly" toml:"engine_assembly"`
	GameAssembly   string   `yaml:"game_assembly" json:"game_assembly" toml:"game_assembly"`
	EngineModules  []string `yaml:"engine_modules" json:"engine_modules" toml:"engine_modules"`
}

// DefaultNamer returns the naming rules used by the stock generator.
func DefaultNamer() Namer {
	return Namer{
		RootNamespace:  "UnrealSharp",
		EngineAssembly: "UnrealSharp.UnrealEngine",
		GameAssembly:   "UnrealSharp.GameScripts",
		EngineModules: []string{
			"CoreUObject", "Engine", "InputCore", "SlateCore", "Slate", "UMG",
			"AIModule", "NavigationSystem", "PhysicsCore", "EnhancedInput",
			"GameplayTags", "DeveloperSettings", "MovieScene", "LevelSequence",
		},
	}
}

// TypeName returns the managed name of t: structs gain an "F" prefix,
// actor classes an "A" prefix, other classes a "U" prefix, enums keep
// their reflected name.
func (n Namer) TypeName(t reflection.Type) string {
	switch v := t.(type) {
	case reflection.Class:
		if isActor(v) {
			return "A" + v.Name()
		}
		return "U" + v.Name()
	case reflection.Struct:
		return "F" + v.Name()
	default:
		return t.Name()
	}
}

// FullName returns "<RootNamespace>.<Module>.<TypeName>".
func (n Namer) FullName(t reflection.Type) string {
	module, _ := reflection.SplitPath(t.Path())
	name := n.TypeName(t)
	prefix := n.RootNamespace
	if module != "" {
		if prefix != "" {
			prefix += "."
		}
		prefix += module
	}
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// Assembly returns the managed assembly that owns t.
func (n Namer) Assembly(t reflection.Type) string {
	module, _ := reflection.SplitPath(t.Path())
	if slices.Contains(n.EngineModules, module) {
		return n.EngineAssembly
	}
	return n.GameAssembly
}

func isActor(c reflection.Class) bool {
	for cur := c; cur != nil; cur = cur.Super() {
		if cur.Path() == actorPath {
			return true
		}
	}
	return false
}
