// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

import "fmt"

// ErrorKind categorizes HLSL compilation errors.
type ErrorKind uint8

const (
	// ErrMissingBinding indicates a resource binding was not found in Bindings.
	ErrMissingBinding ErrorKind = iota

	// ErrInternalError indicates an internal compiler error.
	ErrInternalError

	// ErrInvalidProgram indicates the program failed to link.
	ErrInvalidProgram

	// ErrEntryPointNotFound indicates the requested entry point doesn't exist.
	ErrEntryPointNotFound
)

// String returns a human-readable error kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrMissingBinding:
		return "MissingBinding"
	case ErrInternalError:
		return "InternalError"
	case ErrInvalidProgram:
		return "InvalidProgram"
	case ErrEntryPointNotFound:
		return "EntryPointNotFound"
	default:
		return "Unknown"
	}
}

// Error represents an HLSL compilation error.
type Error struct {
	// Kind categorizes the error.
	Kind ErrorKind

	// Message provides details about the error.
	Message string

	// Member optionally names the program member at fault.
	Member string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Member != "" {
		return fmt.Sprintf("hlsl %s at %s: %s", e.Kind, e.Member, e.Message)
	}
	return fmt.Sprintf("hlsl %s: %s", e.Kind, e.Message)
}

// NewError creates a new HLSL error not tied to a member.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// IsMissingBinding returns true if the error is ErrMissingBinding.
func (e *Error) IsMissingBinding() bool {
	return e.Kind == ErrMissingBinding
}
