// Package entities provides the value types shared by the registry's
// collaborators: query weights, bounded query payloads, metric updates,
// program error codes and the structured error wire format.
package entities
