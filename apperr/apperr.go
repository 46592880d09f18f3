package apperr

import (
	"errors"
	"fmt"
)

// Kind is a machine-readable classification of a failure. Handlers map kinds
// to HTTP statuses; clients switch on the kind, never on message text.
type Kind string

const (
	KindDuplicateTitle        Kind = "DuplicateTitle"
	KindInvalidAudio          Kind = "InvalidAudio"
	KindValidationFailed      Kind = "ValidationFailed"
	KindStorageConflict       Kind = "StorageConflict"
	KindStorageFailure        Kind = "StorageFailure"
	KindReferenceUpdateFailed Kind = "ReferenceUpdateFailed"
	KindNotFound              Kind = "NotFound"
	KindAlreadyMember         Kind = "AlreadyMember"
	KindNotMember             Kind = "NotMember"
	KindInvalidAction         Kind = "InvalidAction"
	KindExtractionTimeout     Kind = "ExtractionTimeout"
	KindConfigurationError    Kind = "ConfigurationError"
	KindUnauthorized          Kind = "Unauthorized"
	KindTokenExpired          Kind = "TokenExpired"
	KindInvalidID             Kind = "InvalidId"
	KindDuplicateEntry        Kind = "DuplicateEntry"
	KindInternal              Kind = "InternalError"
)

// Error carries a kind, a caller-facing message and an optional wrapped
// cause. The cause is for diagnostics only and is never serialized to
// clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes errors.Is(err, apperr.New(kind, ...)) match on kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New creates a classified error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a classified error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a classified error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from an error chain. Unclassified errors report
// KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf extracts the caller-facing message from an error chain. For
// unclassified errors a generic message is returned so that internal details
// never reach clients.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
