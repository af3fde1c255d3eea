// Package host runs WebAssembly guests on wazero with extension-backed host
// functions.
//
// An Executor owns the runtime and the host function registry. Every
// PluginInstance carries its own extension.Extensions; during a call the
// registry is attached to the context, so host functions only ever see the
// capabilities of the instance that called them. Executor.Run implements
// ports.ProgramEngine for the query executor: gas is wall time in
// nanoseconds.
package host
