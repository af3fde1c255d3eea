// Package extension provides a heterogeneous registry of host capabilities
// keyed by their concrete Go type.
//
// A host builds an Extensions value, registers the services an execution
// context may use, and hands the registry to that context. Code running
// inside the context asks for a capability by type and receives either
// nothing or a value that is provably of that type:
//
//	type peersTag struct{}
//	type Peers = extension.Value[peersTag, int]
//
//	exts := extension.New()
//	exts.Register(extension.Wrap[peersTag](4))
//
//	if peers, ok := extension.Get[*Peers](exts); ok {
//	    *peers.Deref()++
//	}
//
// Storage is type-erased through the Extension interface. Retrieval goes
// through a checked type assertion, so a lookup can never yield a value of
// the wrong type.
//
// Extensions is not safe for concurrent use. Wrap it in a Shared when more
// than one goroutine needs access.
package extension
