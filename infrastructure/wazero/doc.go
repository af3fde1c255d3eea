// Package wazero registers host functions with the wazero runtime.
//
// This package bridges the pure Go handlers in hostfuncs with the wazero
// WebAssembly runtime. It handles:
//
//   - Converting between packed i64 pointer+length format and byte slices
//   - Reading request data from guest memory
//   - Allocating and writing response data to guest memory
//   - Registering handlers with the wazero host module builder
//
// # Basic Usage
//
//	registry, err := hostfuncs.NewRegistry(
//	    hostfuncs.WithBundle(hostfuncs.AllBundles()),
//	)
//	if err != nil {
//	    return err
//	}
//
//	runtime := wazero.NewRuntime(ctx)
//
//	err = wazero.RegisterWithRuntime(ctx, runtime, registry,
//	    wazero.WithModuleName("reglet_host"),
//	    wazero.WithCustomHandler(wazero.LogMessageHandler(logger)),
//	)
//
// Handlers find the capabilities of the calling instance through the
// extension store attached to the call context:
//
//	ctx = extension.WithStore(ctx, instanceExtensions)
//	results, err := guestFn.Call(ctx, packed)
package wazero
