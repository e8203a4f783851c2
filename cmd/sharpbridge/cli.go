package main

import (
	"github.com/wippyai/sharpbridge/reflection"
	"github.com/wippyai/sharpbridge/reflection/snapshot"
	"github.com/wippyai/sharpbridge/typedef"
)

// CLI is the command tree.
type CLI struct {
	Globals

	Export     ExportCmd     `cmd:"" help:"Export type definitions as JSON"`
	Validate   ValidateCmd   `cmd:"" help:"Decode exported type definitions and report bad entries"`
	Functions  FunctionsCmd  `cmd:"" help:"List the interop registry"`
	Inspect    InspectCmd    `cmd:"" help:"Browse and call interop functions"`
	CheckBuild CheckBuildCmd `cmd:"" name:"check-build" help:"Compare managed build info with this binary"`
	Run        RunCmd        `cmd:"" help:"Run a WASI guest against the bridge"`
	Host       HostCmd       `cmd:"" help:"Boot the embedded runtime and call a managed entry point"`
	Config     ConfigCmd     `cmd:"" help:"Configuration helpers"`
}

// Globals are shared by every command.
type Globals struct {
	Config   string       `help:"Configuration file (json, yaml or toml)" type:"path" env:"SHARPBRIDGE_CONFIG"`
	Log      LogOptions   `embed:"" prefix:"log."`
	Snapshot string       `help:"Reflection snapshot (YAML)" type:"path" env:"SHARPBRIDGE_SNAPSHOT"`
	Namer    NamerOptions `embed:"" prefix:"namer."`
}

// LogOptions configures the zap logger.
type LogOptions struct {
	Level string `help:"Log level" enum:"debug,info,warn,error" default:"info"`
	File  string `help:"Log file (stderr when empty)" type:"path"`
}

// NamerOptions override typedef.DefaultNamer field by field.
type NamerOptions struct {
	RootNamespace  string   `help:"Root C# namespace"`
	EngineAssembly string   `help:"Assembly for engine modules"`
	GameAssembly   string   `help:"Assembly for game modules"`
	EngineModules  []string `help:"Modules that belong to the engine assembly"`
}

func (n NamerOptions) namer() typedef.Namer {
	out := typedef.DefaultNamer()
	if n.RootNamespace != "" {
		out.RootNamespace = n.RootNamespace
	}
	if n.EngineAssembly != "" {
		out.EngineAssembly = n.EngineAssembly
	}
	if n.GameAssembly != "" {
		out.GameAssembly = n.GameAssembly
	}
	if len(n.EngineModules) > 0 {
		out.EngineModules = n.EngineModules
	}
	return out
}

func (g *Globals) universe() (reflection.Universe, error) {
	if g.Snapshot == "" {
		return nil, errNoSnapshot
	}
	return snapshot.LoadFile(g.Snapshot)
}
