package wazero

import (
	"context"
	"errors"
	"fmt"

	"github.com/tetratelabs/wazero/api"

	domainerrors "github.com/reglet-dev/reglet-extensions/domain/errors"
)

// AllocateExport is the guest export used to reserve memory for host data.
const AllocateExport = "allocate"

// ErrNoAllocate is returned when a guest has to receive data but does not
// export "allocate".
var ErrNoAllocate = errors.New("guest does not export 'allocate'")

// HostCallError reports a host function that could not complete its half
// of the ABI. It is raised as a panic inside host functions and surfaces
// from the guest call.
type HostCallError struct {
	Err error
}

func (e *HostCallError) Error() string {
	return fmt.Sprintf("host call failed: %v", e.Err)
}

func (e *HostCallError) Unwrap() error {
	return e.Err
}

// PackPtrLen packs a pointer and length into a single i64.
// Upper 32 bits: pointer, lower 32 bits: length.
func PackPtrLen(ptr, length uint32) uint64 {
	return (uint64(ptr) << 32) | uint64(length)
}

// UnpackPtrLen unpacks a pointer and length from a packed i64.
func UnpackPtrLen(packed uint64) (ptr, length uint32) {
	ptr = uint32(packed >> 32)           //nolint:gosec // G115: Packed format stores 32-bit values
	length = uint32(packed & 0xFFFFFFFF) //nolint:gosec // G115: Packed format stores 32-bit values
	return ptr, length
}

// ReadBytes copies length bytes at ptr out of guest memory.
func ReadBytes(mem api.Memory, ptr, length uint32) ([]byte, error) {
	if length == 0 {
		return nil, nil
	}
	if mem == nil {
		return nil, &domainerrors.MemoryError{Op: "read", Offset: ptr, Length: length}
	}
	data, ok := mem.Read(ptr, length)
	if !ok {
		return nil, &domainerrors.MemoryError{Op: "read", Offset: ptr, Length: length}
	}
	out := make([]byte, length)
	copy(out, data)
	return out, nil
}

// WriteBytes allocates guest memory through the "allocate" export, copies
// data into it and returns the packed pointer and length. Empty data
// packs to 0 without calling the guest.
func WriteBytes(ctx context.Context, mod api.Module, data []byte) (uint64, error) {
	if len(data) == 0 {
		return 0, nil
	}
	allocateFn := mod.ExportedFunction(AllocateExport)
	if allocateFn == nil {
		return 0, ErrNoAllocate
	}

	results, err := allocateFn.Call(ctx, uint64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("failed to call guest allocate: %w", err)
	}
	if len(results) == 0 {
		return 0, fmt.Errorf("allocate returned no results")
	}
	ptr := uint32(results[0]) //nolint:gosec // G115: WASM32 pointers are always 32-bit

	if mod.Memory() == nil || !mod.Memory().Write(ptr, data) {
		return 0, &domainerrors.MemoryError{Op: "write", Offset: ptr, Length: uint32(len(data))} //nolint:gosec // G115: bounded by memory size
	}

	return PackPtrLen(ptr, uint32(len(data))), nil //nolint:gosec // G115: Data length is bounded by config
}
