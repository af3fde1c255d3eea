// Package hostfuncs implements host functions that expose registered
// extensions to sandboxed code. Handlers are plain Go: they receive a
// HostContext, which is itself an extension.Store backed by the registry
// attached to the call, and exchange JSON payloads. They have no WASM
// runtime dependencies and can be driven by any runtime adapter.
package hostfuncs
