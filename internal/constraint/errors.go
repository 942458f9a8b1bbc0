package constraint

import (
	"errors"
	"fmt"
)

// StructuralError reports a malformed constraint structure.
//
// Structural errors are fatal at rule-load time. Ordinary non-matches are
// never reported as errors.
type StructuralError struct {
	// Code identifies the error category.
	Code StructuralErrorCode

	// Message is a human-readable description.
	Message string

	// Name is the constraint name involved, if any.
	Name string
}

// StructuralErrorCode categorizes structural errors.
type StructuralErrorCode string

const (
	// ErrCodeUnsupportedType indicates a tree was built from an unsupported value.
	ErrCodeUnsupportedType StructuralErrorCode = "UNSUPPORTED_TYPE"

	// ErrCodeNotFound indicates a named lookup found no constraint.
	ErrCodeNotFound StructuralErrorCode = "NOT_FOUND"
)

// Error implements the error interface.
func (e *StructuralError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: %s (name=%s)", e.Code, e.Message, e.Name)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsNotFound returns true if err is a failed named lookup.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	var se *StructuralError
	if errors.As(err, &se) {
		return se.Code == ErrCodeNotFound
	}
	return false
}

// IsUnsupportedType returns true if err reports an unsupported tree initializer.
func IsUnsupportedType(err error) bool {
	var se *StructuralError
	if errors.As(err, &se) {
		return se.Code == ErrCodeUnsupportedType
	}
	return false
}

func newNotFoundError(name string) *StructuralError {
	return &StructuralError{
		Code:    ErrCodeNotFound,
		Message: "constraint not found",
		Name:    name,
	}
}

func newUnsupportedTypeError(v any) *StructuralError {
	return &StructuralError{
		Code:    ErrCodeUnsupportedType,
		Message: fmt.Sprintf("invalid initialization value type %T; valid types are a Constraint, a *Tree, or []Constraint", v),
	}
}
