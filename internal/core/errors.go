// Package core implements the clinical-records rules: identity and
// account-to-entity linkage, the appointment status machine with slot
// conflict detection, access control, and health-record workflows.
// Handlers adapt HTTP requests onto these operations; the store package
// supplies persistence.
package core

import (
	"errors"
	"fmt"
)

// Kind is a machine-readable error category. Every business-rule
// failure the core reports carries one; the request layer maps kinds to
// HTTP statuses.
type Kind string

const (
	KindUnauthenticated    Kind = "UNAUTHENTICATED"
	KindInvalidCredentials Kind = "INVALID_CREDENTIALS"
	KindNotOwner           Kind = "NOT_OWNER"
	KindAlreadyLinked      Kind = "ALREADY_LINKED"
	KindRoleMismatch       Kind = "ROLE_MISMATCH"
	KindSlotConflict       Kind = "SLOT_CONFLICT"
	KindInvalidTransition  Kind = "INVALID_TRANSITION"
	KindNotFound           Kind = "NOT_FOUND"
	KindValidation         Kind = "VALIDATION_ERROR"
)

// Error is a recoverable business-rule failure. None of these are fatal
// to the process.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Errorf builds an Error with a formatted message.
func Errorf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind from an error, or "" when the error did not
// originate from the core.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
