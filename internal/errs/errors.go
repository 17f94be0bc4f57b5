// Package errs provides the unified error type used across dbchat.
//
// Every subsystem (database engines, chat backends, stores, …) wraps its
// native errors into *errs.Error before returning them to callers. Callers
// use the Is* predicates to branch on the failure class without importing
// driver- or provider-specific packages.
//
// Usage:
//
//	// In an engine, wrap native errors:
//	return errs.Wrap(errs.ErrKindQueryFailed, "catalog query failed", pgErr)
//
//	// In a handler, check the error kind:
//	if errs.IsUnsupported(err) {
//	    http.Error(w, err.Error(), http.StatusBadRequest)
//	}
package errs

import (
	"errors"
	"fmt"
)

// ErrKind categorises an error without exposing subsystem-specific codes.
type ErrKind int

const (
	ErrKindUnknown           ErrKind = iota
	ErrKindNotFound                  // unknown connection, history item, object
	ErrKindConnectionFailed          // cannot reach or authenticate to the backend
	ErrKindTimeout                   // context deadline / cancellation
	ErrKindQueryFailed               // catalog or SQL execution error
	ErrKindInvalidInput              // bad arguments from the caller
	ErrKindPermissionDenied          // access denied by a storage backend
	ErrKindUnsupported               // unknown engine/provider, unsupported operation
	ErrKindContractViolation         // model reply is not the two-key JSON object
	ErrKindProviderFailed            // chat backend returned a failure
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindNotFound:
		return "not_found"
	case ErrKindConnectionFailed:
		return "connection_failed"
	case ErrKindTimeout:
		return "timeout"
	case ErrKindQueryFailed:
		return "query_failed"
	case ErrKindInvalidInput:
		return "invalid_input"
	case ErrKindPermissionDenied:
		return "permission_denied"
	case ErrKindUnsupported:
		return "unsupported"
	case ErrKindContractViolation:
		return "contract_violation"
	case ErrKindProviderFailed:
		return "provider_failed"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by all dbchat subsystems.
type Error struct {
	Kind    ErrKind
	Message string
	Cause   error // original driver/provider error, preserved for logging
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// --- Constructors ---

// New creates an *Error with the given kind and message and no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf is New with a format string.
func Newf(kind ErrKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// --- Predicates ---

// IsNotFound reports whether err represents a "not found" result.
func IsNotFound(err error) bool {
	return KindOf(err) == ErrKindNotFound
}

// IsTimeout reports whether err was caused by a deadline or context cancellation.
func IsTimeout(err error) bool {
	return KindOf(err) == ErrKindTimeout
}

// IsConnectionFailed reports whether err is a connectivity or auth failure.
func IsConnectionFailed(err error) bool {
	return KindOf(err) == ErrKindConnectionFailed
}

// IsQueryFailed reports whether err is a catalog or SQL execution failure.
func IsQueryFailed(err error) bool {
	return KindOf(err) == ErrKindQueryFailed
}

// IsInvalidInput reports whether err was caused by bad input from the caller.
func IsInvalidInput(err error) bool {
	return KindOf(err) == ErrKindInvalidInput
}

// IsPermissionDenied reports whether err is an access control failure.
func IsPermissionDenied(err error) bool {
	return KindOf(err) == ErrKindPermissionDenied
}

// IsUnsupported reports whether err names an engine, provider or operation
// that is not supported.
func IsUnsupported(err error) bool {
	return KindOf(err) == ErrKindUnsupported
}

// IsContractViolation reports whether err is a malformed model reply.
func IsContractViolation(err error) bool {
	return KindOf(err) == ErrKindContractViolation
}

// IsProviderFailed reports whether err is a chat backend failure.
func IsProviderFailed(err error) bool {
	return KindOf(err) == ErrKindProviderFailed
}

// KindOf extracts the ErrKind of the outermost *Error in the chain.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}
