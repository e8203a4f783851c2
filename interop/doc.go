// Package interop holds the name to address table the managed runtime uses
// to reach native capabilities.
//
// The managed side cannot bind arbitrary native exports. It receives one
// bootstrap record (FunctionsInfo) carrying an instance handle and the
// address of the resolver, then resolves every other capability by name:
//
//	reg := interop.NewRegistry()
//	reg.RegisterFunc("GetNameOfString", utils.GetNameOfString, false)
//	addr, ok := reg.Lookup("GetNameOfString")
//
// # Registration rules
//
// A name holds at most one address. Registering the identical address again
// succeeds without change, so redundant initialization paths are harmless.
// A different address is refused unless the caller allows override, and a
// refused registration leaves the table as it was.
//
// # Typed access
//
// Go callers should not handle raw addresses. Bind fills a struct of
// typed func fields by name and checks every type:
//
//	var api struct {
//		GetNameOfString func(string) uint64
//		Validate        func([]byte) `interop:"ValidateUnrealSharpBuildInfo,optional"`
//	}
//	err := interop.Bind(reg, &api)
//
// SignatureOf describes a function in WIT terms for the guest trampoline
// and for listings.
package interop
