// Package errors provides structured error types for the bridge.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the offending name path, Go/WIT type names and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseBind, errors.KindTypeMismatch).
//		Path("Natives", "GetEnum").
//		GoType("func(string) uint64").
//		WitType("func(path: string) -> u64").
//		Detail("field type does not match the registered function").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Conflict("GetEnum", existing, incoming)
//	err := errors.FieldMissing(errors.PhaseDecode, path, "CrcCode")
//
// Every error here describes a static mismatch (build skew, schema skew,
// duplicate registration). None of them is retryable.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
