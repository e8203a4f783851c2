// Package sharpbridge is the native side of a managed scripting bridge: it
// publishes a table of native functions to an embedded .NET-style runtime,
// checks that both sides were built for the same target, and exports the
// engine's reflected types as JSON definitions for the managed code
// generator.
//
// # Architecture Overview
//
//	sharpbridge/
//	├── bridge/          Bootstrap entry points and registry assembly
//	├── interop/         Name to address registry, signatures, table binding
//	├── natives/         Generated native functions over reflection handles
//	├── buildinfo/       Platform, configuration and editor parity checks
//	├── binding/         Embedding API resolution from shared libraries
//	├── logbridge/       Managed log levels and UTF-16 text onto zap
//	├── reflection/      Engine reflection model and YAML snapshots
//	├── typedef/         Type definitions, CRC codes, JSON and CUE schema
//	├── store/           SQLite export cache with change tracking
//	├── graphexport/     Neo4j type graph sink
//	├── guest/           wazero host for WASI-compiled managed assemblies
//	├── errors/          Structured error types
//	└── cmd/
//	    ├── sharpbridge/ CLI: export, validate, functions, inspect, run, host
//	    └── interopgen/  Generator for the natives function table
//
// # Quick Start
//
// Build a bridge over a reflection snapshot and hand its bootstrap pointer
// to the managed runtime:
//
//	u, err := snapshot.LoadFile("engine.yaml")
//	if err != nil {
//		return err
//	}
//	b, err := bridge.New(u, bridge.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer b.Close()
//
//	addr, err := b.Registry().Resolve(interop.NameInteropFunctionsPtr)
//
// Export type definitions:
//
//	defs := typedef.Snapshot(u, typedef.DefaultNamer())
//	data, err := typedef.WriteBatch(defs)
//
// Host a guest compiled to WASI:
//
//	h, err := guest.New(ctx, b)
//	if err != nil {
//		return err
//	}
//	defer h.Close(ctx)
//	err = h.Run(ctx, wasm)
//
// # Error Handling
//
// Errors are structured (see the errors package) and carry a phase, a kind
// and the path of the offending name:
//
//	var e *errors.Error
//	if goerrors.As(err, &e) && e.Kind == errors.KindFatalConfig {
//		// build parity broken, stop
//	}
package sharpbridge
