package types

import (
	"errors"
	"net/http"
)

// ErrorKind is the discriminator every failure surfaced by the folder engine maps to.
type ErrorKind string

const (
	KindNotFound               ErrorKind = "not_found"
	KindForbidden              ErrorKind = "forbidden"
	KindConflict               ErrorKind = "conflict"
	KindInvalidStateTransition ErrorKind = "invalid_state_transition"
	KindValidationFailed       ErrorKind = "validation_failed"
	KindTransientStoreFailure  ErrorKind = "transient_store_failure"
	KindIntegrityFault         ErrorKind = "integrity_fault"
)

// FolderError carries a kind, a message that is safe to show callers, and the
// underlying cause for logs. Error() never includes the cause.
type FolderError struct {
	Kind         ErrorKind
	Message      string
	ResourceType string
	ResourceID   string
	Err          error
}

// Sentinels for errors.Is. Matching is by kind only.
var (
	ErrNotFound               = &FolderError{Kind: KindNotFound, Message: "not found"}
	ErrForbidden              = &FolderError{Kind: KindForbidden, Message: "forbidden"}
	ErrConflict               = &FolderError{Kind: KindConflict, Message: "conflict"}
	ErrInvalidStateTransition = &FolderError{Kind: KindInvalidStateTransition, Message: "invalid state transition"}
	ErrValidation             = &FolderError{Kind: KindValidationFailed, Message: "validation failed"}
	ErrTransientStore         = &FolderError{Kind: KindTransientStoreFailure, Message: "store unavailable"}
	ErrIntegrity              = &FolderError{Kind: KindIntegrityFault, Message: "data integrity fault"}
)

func NewError(kind ErrorKind, message string, cause error) *FolderError {
	return &FolderError{Kind: kind, Message: message, Err: cause}
}

func NotFound(resourceType, resourceID string) *FolderError {
	return &FolderError{
		Kind:         KindNotFound,
		Message:      resourceType + " not found",
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

func Forbidden(message string) *FolderError {
	return &FolderError{Kind: KindForbidden, Message: message}
}

func Conflict(message, resourceType, resourceID string) *FolderError {
	return &FolderError{
		Kind:         KindConflict,
		Message:      message,
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

func InvalidTransition(message string) *FolderError {
	return &FolderError{Kind: KindInvalidStateTransition, Message: message}
}

func Validation(message string, cause error) *FolderError {
	return &FolderError{Kind: KindValidationFailed, Message: message, Err: cause}
}

// StoreFailure wraps an internal store error. The cause is kept for logging only.
func StoreFailure(cause error) *FolderError {
	return &FolderError{Kind: KindTransientStoreFailure, Message: "store operation failed", Err: cause}
}

func Integrity(message string) *FolderError {
	return &FolderError{Kind: KindIntegrityFault, Message: message}
}

func (e *FolderError) Error() string {
	return e.Message
}

func (e *FolderError) Unwrap() error {
	return e.Err
}

func (e *FolderError) Is(target error) bool {
	var t *FolderError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func (e *FolderError) StatusCode() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict, KindInvalidStateTransition:
		return http.StatusConflict
	case KindValidationFailed:
		return http.StatusBadRequest
	case KindTransientStoreFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// KindOf reports the kind of err. Anything that is not a FolderError is a store failure.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var folderErr *FolderError
	if errors.As(err, &folderErr) {
		return folderErr.Kind
	}
	return KindTransientStoreFailure
}

// AsFolderError returns err as a FolderError, wrapping unknown errors as store failures.
func AsFolderError(err error) *FolderError {
	if err == nil {
		return nil
	}
	var folderErr *FolderError
	if errors.As(err, &folderErr) {
		return folderErr
	}
	return StoreFailure(err)
}
