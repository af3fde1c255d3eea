// Package metrics lets sandboxed code update client-side metrics without a
// metrics backend of its own.
//
// Every update is emitted as a single trace-level log event with target
// "metrics" and an update_op attribute holding the base58 text of the
// msgpack-encoded entities.MetricUpdate. A Collector installed on the client
// decodes those events and applies them to its Registry. Metrics must be
// known to the client; the runtime side never registers anything.
package metrics
