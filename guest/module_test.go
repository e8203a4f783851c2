package guest

// testModule assembles a small core module that forwards to every host
// import, exports a bump allocator as malloc and logs a greeting from
// _start.
func testModule() []byte {
	i32, i64 := byte(0x7f), byte(0x7e)

	types := vec(
		functype([]byte{i64, i32, i32, i32}, []byte{i32}), // 0 invoke
		functype([]byte{i64, i32, i32}, []byte{i64}),      // 1 resolve
		functype([]byte{i32}, nil),                        // 2 info, validate
		functype([]byte{i32, i32, i32}, nil),              // 3 log
		functype([]byte{i32}, []byte{i32}),                // 4 malloc
		functype(nil, nil),                                // 5 _start
	)
	imports := vec(
		hostImport("invoke", 0),
		hostImport("get_interop_function_pointer", 1),
		hostImport("get_interop_functions_info", 2),
		hostImport("log_message", 3),
		hostImport("validate_build_info", 2),
		hostImport("log_message_wide", 3),
	)
	funcs := vec([]byte{0}, []byte{1}, []byte{2}, []byte{3}, []byte{2}, []byte{3}, []byte{4}, []byte{5})
	memory := vec([]byte{0x00, 0x01})
	// heap starts at 1024
	globals := vec([]byte{i32, 0x01, 0x41, 0x80, 0x08, 0x0b})
	exports := vec(
		export("memory", 0x02, 0),
		export("call_invoke", 0x00, 6),
		export("call_resolve", 0x00, 7),
		export("call_info", 0x00, 8),
		export("call_log", 0x00, 9),
		export("call_validate", 0x00, 10),
		export("call_log_wide", 0x00, 11),
		export("malloc", 0x00, 12),
		export("_start", 0x00, 13),
	)
	code := vec(
		body(0x20, 0, 0x20, 1, 0x20, 2, 0x20, 3, 0x10, 0),
		body(0x20, 0, 0x20, 1, 0x20, 2, 0x10, 1),
		body(0x20, 0, 0x10, 2),
		body(0x20, 0, 0x20, 1, 0x20, 2, 0x10, 3),
		body(0x20, 0, 0x10, 4),
		body(0x20, 0, 0x20, 1, 0x20, 2, 0x10, 5),
		// global.get 0; global.get 0; local.get 0; i32.add; global.set 0
		body(0x23, 0, 0x23, 0, 0x20, 0, 0x6a, 0x24, 0),
		// log_message(-9, 16, 16)
		body(0x41, 0x77, 0x41, 16, 0x41, 16, 0x10, 3),
	)
	greeting := []byte("hello from guest")
	data := vec(append([]byte{0x00, 0x41, 16, 0x0b}, append(uleb(len(greeting)), greeting...)...))

	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	out = append(out, section(1, types)...)
	out = append(out, section(2, imports)...)
	out = append(out, section(3, funcs)...)
	out = append(out, section(5, memory)...)
	out = append(out, section(6, globals)...)
	out = append(out, section(7, exports)...)
	out = append(out, section(10, code)...)
	out = append(out, section(11, data)...)
	return out
}

func uleb(n int) []byte {
	var out []byte
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n != 0 {
			out = append(out, b|0x80)
			continue
		}
		return append(out, b)
	}
}

func vec(items ...[]byte) []byte {
	out := uleb(len(items))
	for _, it := range items {
		out = append(out, it...)
	}
	return out
}

func name(s string) []byte {
	return append(uleb(len(s)), s...)
}

func section(id byte, content []byte) []byte {
	return append(append([]byte{id}, uleb(len(content))...), content...)
}

func functype(params, results []byte) []byte {
	out := []byte{0x60}
	out = append(out, uleb(len(params))...)
	out = append(out, params...)
	out = append(out, uleb(len(results))...)
	return append(out, results...)
}

func hostImport(field string, typeIdx byte) []byte {
	out := append(name(ModuleName), name(field)...)
	return append(out, 0x00, typeIdx)
}

func export(field string, kind, idx byte) []byte {
	return append(name(field), kind, idx)
}

// body wraps instructions in a function body with no locals.
func body(instrs ...byte) []byte {
	b := append([]byte{0x00}, instrs...)
	b = append(b, 0x0b)
	return append(uleb(len(b)), b...)
}
