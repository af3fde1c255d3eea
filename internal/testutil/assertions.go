// Package testutil provides WebAssembly guests and assertions shared by the
// runtime tests.
package testutil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// DecodeJSON unmarshals data into a T, failing the test on error.
func DecodeJSON[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), "response is not valid JSON: %s", data)
	return v
}

// AssertErrorResponse asserts that data is a host function error response
// of the given type, e.g. "NOT_REGISTERED". Both the bare form and the form
// nested under a typed response's "error" field are accepted.
func AssertErrorResponse(t *testing.T, data []byte, wantType string) {
	t.Helper()
	var resp struct {
		Error json.RawMessage `json:"error"`
	}
	require.NoError(t, json.Unmarshal(data, &resp), "response is not valid JSON: %s", data)
	require.NotEmpty(t, resp.Error, "response carries no error: %s", data)

	var got string
	if err := json.Unmarshal(resp.Error, &got); err != nil {
		var nested struct {
			Error string `json:"error"`
		}
		require.NoError(t, json.Unmarshal(resp.Error, &nested), "malformed error field: %s", data)
		got = nested.Error
	}
	assert.Equal(t, wantType, got)
}
