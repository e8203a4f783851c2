// Package typedef snapshots reflected enums, structs and classes into the
// JSON type definitions consumed by the managed-side code generator.
//
// Every definition is written as one JSON object whose first member is the
// "$type" discriminator, followed by the shared header and the variant
// members:
//
//	{
//	  "$type": "UnrealSharpTool.Core.TypeInfo.EnumTypeDefinition, UnrealSharpTool.Core",
//	  "CrcCode": -4418693024372717374,
//	  "GeneratorVersion": 1,
//	  "CSharpFullName": "UnrealSharp.Engine.EColor",
//	  "AssemblyName": "UnrealSharp.UnrealEngine",
//	  "Fields": [{"Name": "Red", "Value": 0}]
//	}
//
// Reading dispatches on "$type" through a table of decoders filled at init
// with Register. Unknown discriminators fail with unknown_variant rather than
// guessing a variant; absent required members fail with field_missing.
//
// # Snapshots
//
//	namer := typedef.DefaultNamer()
//	def := typedef.NewEnum(enum, namer)
//	data, err := typedef.Write(def)
//
// CrcCode is a CRC-64/ECMA over the canonical shape of the reflected type, so
// it changes whenever a member, value or layout changes and stays stable
// otherwise.
//
// # Batches
//
// ReadBatch decodes each entry on its own. A corrupt entry is skipped and
// reported in a *BatchError; the remaining definitions are still returned.
//
// # Schema checks
//
//	schema, err := typedef.NewSchema()
//	dec := typedef.NewDecoder(typedef.WithSchema(schema))
//	defs, err := dec.ReadBatch(data)
package typedef
