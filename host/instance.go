package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tetratelabs/wazero/api"

	"github.com/reglet-dev/reglet-extensions/extension"
	infrawazero "github.com/reglet-dev/reglet-extensions/infrastructure/wazero"
)

// ErrExportNotFound is returned when a guest lacks a called export.
var ErrExportNotFound = errors.New("export not found")

// PluginInstance represents an instantiated WASM plugin together with the
// extensions it may reach through host functions.
type PluginInstance struct {
	module api.Module
	exts   *extension.Extensions
	logger *slog.Logger
	name   string
}

// Extensions returns the registry host functions see during calls on this
// instance. It may be changed between calls.
func (p *PluginInstance) Extensions() *extension.Extensions {
	return p.exts
}

// MergeExtensions moves every extension of other into the instance
// registry. Entries of other win on conflict.
func (p *PluginInstance) MergeExtensions(other *extension.Extensions) {
	p.exts.Merge(other)
}

// Call invokes export with input and returns its output. The export must
// have type (ptr i32, len i32) -> i64 and return a packed pointer and
// length, or 0 for no output.
func (p *PluginInstance) Call(ctx context.Context, export string, input []byte) ([]byte, error) {
	fn := p.module.ExportedFunction(export)
	if fn == nil {
		return nil, fmt.Errorf("%w: %q", ErrExportNotFound, export)
	}

	ctx = p.callContext(ctx, export)

	var ptr, length uint32
	if len(input) > 0 {
		packed, err := infrawazero.WriteBytes(ctx, p.module, input)
		if err != nil {
			return nil, fmt.Errorf("failed to pass input to guest: %w", err)
		}
		ptr, length = infrawazero.UnpackPtrLen(packed)
	}

	results, err := fn.Call(ctx, uint64(ptr), uint64(length))
	if err != nil {
		return nil, err
	}
	if len(results) == 0 || results[0] == 0 {
		return nil, nil
	}

	outPtr, outLen := infrawazero.UnpackPtrLen(results[0])
	return infrawazero.ReadBytes(p.module.Memory(), outPtr, outLen)
}

// Close closes the module and releases the instance extensions.
func (p *PluginInstance) Close(ctx context.Context) error {
	var errs []error
	if p.module != nil {
		errs = append(errs, p.module.Close(ctx))
	}
	errs = append(errs, p.exts.Close())
	return errors.Join(errs...)
}

// callContext attaches the instance registry and the caller identity seen
// by host functions.
func (p *PluginInstance) callContext(ctx context.Context, export string) context.Context {
	ctx = extension.WithStore(ctx, p.exts)
	return infrawazero.WithCaller(ctx, infrawazero.Caller{Plugin: p.name, Export: export})
}
