package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents an error detected while generating.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Rule identifies the rule involved, if any.
	Rule string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeNoRules indicates the engine was built without rules.
	ErrCodeNoRules RuntimeErrorCode = "NO_RULES"

	// ErrCodeDuplicateRule indicates two rules share a name.
	ErrCodeDuplicateRule RuntimeErrorCode = "DUPLICATE_RULE"

	// ErrCodeUnknownRule indicates a rule filter named a rule that does not exist.
	ErrCodeUnknownRule RuntimeErrorCode = "UNKNOWN_RULE"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Rule != "" {
		return fmt.Sprintf("%s: %s (rule=%s)", e.Code, e.Message, e.Rule)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsRuntimeError reports whether err is a RuntimeError with the given code.
// Uses errors.As to handle wrapped errors.
func IsRuntimeError(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}
