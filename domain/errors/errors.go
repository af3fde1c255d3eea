// Package errors provides the typed errors raised by query execution, the
// program engine and extension-backed host functions.
// All error types support error unwrapping via errors.As() and errors.Is().
package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/reglet-dev/reglet-extensions/domain/entities"
	"github.com/reglet-dev/reglet-extensions/extension"
)

// ErrorDetail is an alias to entities.ErrorDetail for convenience.
type ErrorDetail = entities.ErrorDetail

// DetailedError is implemented by errors that can describe themselves as a
// structured ErrorDetail.
type DetailedError interface {
	error
	ToErrorDetail() *entities.ErrorDetail
}

// ToErrorDetail converts a Go error to a structured ErrorDetail.
func ToErrorDetail(err error) *entities.ErrorDetail {
	if err == nil {
		return nil
	}

	var e *entities.ErrorDetail
	if stdErrors.As(err, &e) {
		return e
	}

	var de DetailedError
	if stdErrors.As(err, &de) {
		return de.ToErrorDetail()
	}

	if stdErrors.Is(err, extension.ErrNotRegistered) {
		return &entities.ErrorDetail{Message: err.Error(), Type: entities.ErrorTypeRegistry, Code: "NOT_REGISTERED", IsNotFound: true}
	}

	return entities.NewErrorDetail(entities.ErrorTypeInternal, err.Error())
}

// QueryErrorKind is a failure that aborts a query instead of being reported
// inside its output.
type QueryErrorKind string

const (
	// QueryErrorDecode means the query or its program could not be decoded.
	QueryErrorDecode QueryErrorKind = "failed_to_decode"

	// QueryErrorWeightLimit means the query needs more weight than allowed.
	QueryErrorWeightLimit QueryErrorKind = "max_weight_invalid"
)

// QueryError is returned by query executors.
type QueryError struct {
	Err  error
	Kind QueryErrorKind
}

func (e *QueryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("query %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("query %s", e.Kind)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Is matches another QueryError of the same kind, so callers can write
// errors.Is(err, &QueryError{Kind: QueryErrorDecode}).
func (e *QueryError) Is(target error) bool {
	t, ok := target.(*QueryError)
	return ok && t.Err == nil && t.Kind == e.Kind
}

// ToErrorDetail implements DetailedError.
func (e *QueryError) ToErrorDetail() *entities.ErrorDetail {
	typ := entities.ErrorTypeDecode
	if e.Kind == QueryErrorWeightLimit {
		typ = entities.ErrorTypeWeightLimit
	}
	return &entities.ErrorDetail{Message: e.Error(), Type: typ, Code: string(e.Kind)}
}

// ProgramError is returned by a program engine when execution fails.
type ProgramError struct {
	Err  error
	Code entities.ProgramErrorCode
}

func (e *ProgramError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("program %s: %v", e.Code, e.Err)
	}
	return "program " + e.Code.String()
}

func (e *ProgramError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ProgramError) ToErrorDetail() *entities.ErrorDetail {
	return entities.NewProgramErrorDetail(e.Code, e.Error())
}

// NewProgramError builds a ProgramError with the given code.
func NewProgramError(code entities.ProgramErrorCode, err error) *ProgramError {
	return &ProgramError{Code: code, Err: err}
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Err   error
	Field string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config validation failed for field '%s': %v", e.Field, e.Err)
	}
	return fmt.Sprintf("config validation failed: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ConfigError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: entities.ErrorTypeValidation, Code: e.Field}
}

// MemoryError reports an out-of-range access to guest memory.
type MemoryError struct {
	Op     string
	Offset uint32
	Length uint32
}

func (e *MemoryError) Error() string {
	return fmt.Sprintf("guest memory %s out of range: offset %d, length %d", e.Op, e.Offset, e.Length)
}

// ToErrorDetail implements DetailedError.
func (e *MemoryError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: entities.ErrorTypeMemoryAccess, Code: e.Op}
}

// WireFormatError represents a wire format encoding/decoding error.
type WireFormatError struct {
	Err       error
	Operation string
	Type      string
}

func (e *WireFormatError) Error() string {
	return fmt.Sprintf("wire format %s failed for %s: %v", e.Operation, e.Type, e.Err)
}

func (e *WireFormatError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *WireFormatError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: entities.ErrorTypeDecode, Code: "wire_format"}
}
