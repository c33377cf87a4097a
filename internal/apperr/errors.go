// Package apperr defines the typed error taxonomy shared by the settlement
// core, the stores and the RPC layer.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error so callers can tell retry-safe failures from
// failures where a retry may duplicate work.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindAuthorization Kind = "authorization"
	KindConflict      Kind = "conflict"
	KindNotFound      Kind = "not_found"
	KindPersistence   Kind = "persistence"
)

// Error is a classified error. Sentinels below are *Error values; wrap them
// with fmt.Errorf("%w: ...") to add detail without losing the kind.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New returns a classified error without a cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Persistence wraps a storage failure. The message follows the
// "failed to <op>" convention used by the stores.
func Persistence(op string, err error) error {
	return &Error{Kind: KindPersistence, Message: "failed to " + op, Err: err}
}

// Validation errors.
var (
	ErrInvalidInput       = New(KindValidation, "invalid input")
	ErrNoConfirmedItems   = New(KindValidation, "no confirmed order items to settle")
	ErrAllocationMismatch = New(KindValidation, "payer allocations do not match item total")
	ErrUnbalanced         = New(KindValidation, "balances do not net to zero")
)

// Authorization errors.
var (
	ErrUnauthenticated = New(KindAuthorization, "authentication required")
	ErrNotGroupAdmin   = New(KindAuthorization, "only group admins can calculate a settlement")
	ErrNotReceiver     = New(KindAuthorization, "only the receiver can confirm a payment")
	ErrNotItemOwner    = New(KindAuthorization, "only the requester or a group admin can remove an item")
	ErrNotMember       = New(KindAuthorization, "caller is not an active member of the group")
	ErrAdminRequired   = New(KindAuthorization, "only group admins can manage members")
)

// Conflict errors.
var (
	ErrSettlementExists     = New(KindConflict, "settlement already calculated for this session")
	ErrSettlementInProgress = New(KindConflict, "settlement calculation already in progress")
	ErrSessionNotOpen       = New(KindConflict, "session is not open")
	ErrSessionAlreadyOpen   = New(KindConflict, "group already has an open session")
	ErrAlreadyConfirmed     = New(KindConflict, "transaction already confirmed")
	ErrStatusMismatch       = New(KindConflict, "status changed concurrently")
)

// Not found errors.
var (
	ErrSessionNotFound     = New(KindNotFound, "session not found")
	ErrSettlementNotFound  = New(KindNotFound, "settlement not found")
	ErrTransactionNotFound = New(KindNotFound, "transaction not found")
	ErrItemNotFound        = New(KindNotFound, "order item not found")
	ErrMembershipNotFound  = New(KindNotFound, "membership not found")
)

// KindOf returns the kind of the first classified error in err's chain.
// Unclassified errors are reported as persistence failures: the core never
// produces an unclassified error on purpose.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindPersistence
}

func IsValidation(err error) bool    { return KindOf(err) == KindValidation }
func IsAuthorization(err error) bool { return KindOf(err) == KindAuthorization }
func IsConflict(err error) bool      { return KindOf(err) == KindConflict }
func IsNotFound(err error) bool      { return KindOf(err) == KindNotFound }
func IsPersistence(err error) bool   { return KindOf(err) == KindPersistence }

// RetrySafe reports whether retrying the failed operation cannot duplicate
// work. Persistence failures are not retry safe.
func RetrySafe(err error) bool {
	switch KindOf(err) {
	case KindValidation, KindAuthorization, KindConflict, KindNotFound:
		return true
	default:
		return false
	}
}

// Invalid returns a validation error describing a bad field.
func Invalid(field, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidInput, field, fmt.Sprintf(format, args...))
}
