// Package ports defines the interfaces between query execution and the
// engines and converters that back it. Infrastructure adapters implement
// these interfaces; application code depends only on them.
package ports
