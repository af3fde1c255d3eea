package testutil

import (
	"slices"
)

// WebAssembly value types and opcodes used by the guests below.
const (
	valI32 = 0x7f
	valI64 = 0x7e

	opUnreachable = 0x00
	opLoop        = 0x03
	opBr          = 0x0c
	opEnd         = 0x0b
	opCall        = 0x10
	opLocalGet    = 0x20
	opI32Const    = 0x41
	opI64Const    = 0x42
	opI64Or       = 0x84
	opI64Shl      = 0x86
	opI64ExtendU  = 0xad
	blockEmpty    = 0x40
)

// GuestAllocPtr is the fixed address returned by the guests' allocate.
const GuestAllocPtr = 1024

// HostImport names a host function a guest imports with signature (i64) -> i64.
type HostImport struct {
	Module string
	Name   string
}

// EchoGuest exports main(ptr, len) returning its input unchanged.
func EchoGuest() []byte {
	return guest(nil, packArgs())
}

// TrapGuest exports a main that hits unreachable.
func TrapGuest() []byte {
	return guest(nil, []byte{opUnreachable})
}

// LoopGuest exports a main that never returns.
func LoopGuest() []byte {
	return guest(nil, []byte{opLoop, blockEmpty, opBr, 0x00, opEnd, opUnreachable})
}

// OutOfBoundsGuest exports a main whose result points past its memory.
func OutOfBoundsGuest() []byte {
	body := []byte{opI32Const}
	body = append(body, sleb(70000)...)
	body = append(body, opI64ExtendU, opI64Const, 32, opI64Shl, opI64Const)
	body = append(body, sleb(100)...)
	body = append(body, opI64Or)
	return guest(nil, body)
}

// CallerGuest exports a main that forwards its input to the imported host
// function and returns the host's response.
func CallerGuest(imp HostImport) []byte {
	body := append(packArgs(), opCall, 0x00)
	return guest(&imp, body)
}

// packArgs is (i64.extend_i32_u(ptr) << 32) | i64.extend_i32_u(len).
func packArgs() []byte {
	return []byte{
		opLocalGet, 0x00, opI64ExtendU, opI64Const, 32, opI64Shl,
		opLocalGet, 0x01, opI64ExtendU, opI64Or,
	}
}

// guest assembles a module exporting memory, allocate and main. main has
// type (i32, i32) -> i64 and the given body; imp, when set, is imported as
// function 0.
func guest(imp *HostImport, mainBody []byte) []byte {
	const (
		typeAlloc  = 0
		typeMain   = 1
		typeImport = 2
	)
	types := vec(
		[]byte{0x60, 0x01, valI32, 0x01, valI32},
		[]byte{0x60, 0x02, valI32, valI32, 0x01, valI64},
		[]byte{0x60, 0x01, valI64, 0x01, valI64},
	)

	var funcBase byte
	var imports []byte
	if imp != nil {
		imports = section(0x02, vec(slices.Concat(name(imp.Module), name(imp.Name), []byte{0x00, typeImport})))
		funcBase = 1
	}

	allocBody := []byte{opI32Const}
	allocBody = append(allocBody, sleb(GuestAllocPtr)...)

	return slices.Concat(
		[]byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00},
		section(0x01, types),
		imports,
		section(0x03, vec([]byte{typeAlloc}, []byte{typeMain})),
		section(0x05, vec([]byte{0x00, 0x01})),
		section(0x07, vec(
			slices.Concat(name("memory"), []byte{0x02, 0x00}),
			slices.Concat(name("allocate"), []byte{0x00, funcBase}),
			slices.Concat(name("main"), []byte{0x00, funcBase + 1}),
		)),
		section(0x0a, vec(code(allocBody), code(mainBody))),
	)
}

func code(body []byte) []byte {
	fn := slices.Concat([]byte{0x00}, body, []byte{opEnd})
	return slices.Concat(uleb(uint32(len(fn))), fn) //nolint:gosec // test modules are tiny
}

func section(id byte, payload []byte) []byte {
	return slices.Concat([]byte{id}, uleb(uint32(len(payload))), payload) //nolint:gosec // test modules are tiny
}

func vec(items ...[]byte) []byte {
	return slices.Concat(append([][]byte{uleb(uint32(len(items)))}, items...)...) //nolint:gosec // test modules are tiny
}

func name(s string) []byte {
	return slices.Concat(uleb(uint32(len(s))), []byte(s)) //nolint:gosec // test modules are tiny
}

func uleb(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

func sleb(v int64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}
