package entities

import "fmt"

// DefaultMaxQuerySize bounds query payloads when no limit is configured.
const DefaultMaxQuerySize = 64 * 1024

// BoundedQuery is an encoded query whose length is known to be within a
// limit. The zero value is an empty query.
type BoundedQuery struct {
	data  []byte
	limit int
}

// NewBoundedQuery accepts data if it is at most limit bytes long.
// A non-positive limit selects DefaultMaxQuerySize.
func NewBoundedQuery(data []byte, limit int) (BoundedQuery, error) {
	if limit <= 0 {
		limit = DefaultMaxQuerySize
	}
	if len(data) > limit {
		return BoundedQuery{}, NewErrorDetail(ErrorTypeValidation,
			fmt.Sprintf("query of %d bytes exceeds limit of %d bytes", len(data), limit)).
			WithCode("QUERY_TOO_LARGE").
			WithDetails(map[string]any{"size": len(data), "limit": limit})
	}
	return BoundedQuery{data: data, limit: limit}, nil
}

// Bytes returns the encoded query.
func (q BoundedQuery) Bytes() []byte {
	return q.data
}

// Len returns the encoded length.
func (q BoundedQuery) Len() int {
	return len(q.data)
}

// Limit returns the bound the query was validated against.
func (q BoundedQuery) Limit() int {
	return q.limit
}
