package entities

import (
	"fmt"
	"strings"
)

// Error types carried in ErrorDetail.Type.
const (
	ErrorTypeDecode       = "decode"
	ErrorTypeWeightLimit  = "weight_limit"
	ErrorTypeTrap         = "trap"
	ErrorTypeMemoryAccess = "memory_access"
	ErrorTypeHostCall     = "host_call"
	ErrorTypeRegistry     = "registry"
	ErrorTypeValidation   = "validation"
	ErrorTypeInternal     = "internal"
)

// ErrorDetail is the structured form of a query, engine or host function
// failure. It is what crosses process and guest boundaries.
type ErrorDetail struct {
	Wrapped *ErrorDetail   `json:"wrapped,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	Message string         `json:"message"`
	Type    string         `json:"type"`
	Code    string         `json:"code"`

	// IsNotFound marks a missing extension or key.
	IsNotFound bool `json:"is_not_found,omitempty"`
}

// Error renders "type: message [code]: wrapped". Internal errors omit the
// type prefix.
func (e *ErrorDetail) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	if e.Type != "" && e.Type != ErrorTypeInternal {
		b.WriteString(e.Type)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Code != "" {
		fmt.Fprintf(&b, " [%s]", e.Code)
	}
	if e.Wrapped != nil {
		b.WriteString(": ")
		b.WriteString(e.Wrapped.Error())
	}
	return b.String()
}

// Unwrap exposes the wrapped detail to errors.Is and errors.As.
func (e *ErrorDetail) Unwrap() error {
	if e == nil || e.Wrapped == nil {
		return nil
	}
	return e.Wrapped
}

// NewErrorDetail creates an ErrorDetail of the given type.
func NewErrorDetail(errorType, message string) *ErrorDetail {
	return &ErrorDetail{Type: errorType, Message: message}
}

// NewProgramErrorDetail describes a program failure reported by an engine.
func NewProgramErrorDetail(code ProgramErrorCode, message string) *ErrorDetail {
	typ := ErrorTypeInternal
	switch code {
	case ProgramErrorFailedToDecode, ProgramErrorInvalidFormat:
		typ = ErrorTypeDecode
	case ProgramErrorWeightLimit:
		typ = ErrorTypeWeightLimit
	case ProgramErrorTrap:
		typ = ErrorTypeTrap
	case ProgramErrorMemoryAccess:
		typ = ErrorTypeMemoryAccess
	case ProgramErrorHostCall:
		typ = ErrorTypeHostCall
	}
	return &ErrorDetail{Type: typ, Message: message, Code: code.String()}
}

// WithDetails attaches details and returns e.
func (e *ErrorDetail) WithDetails(details map[string]any) *ErrorDetail {
	e.Details = details
	return e
}

// WithCode attaches a code and returns e.
func (e *ErrorDetail) WithCode(code string) *ErrorDetail {
	e.Code = code
	return e
}

// Wrap chains inner under e and returns e.
func (e *ErrorDetail) Wrap(inner *ErrorDetail) *ErrorDetail {
	e.Wrapped = inner
	return e
}
