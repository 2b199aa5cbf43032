// Package apperr defines the business error taxonomy shared by services and
// controllers. Storage failures are wrapped with KindStorage so transport
// code can tell them apart from business outcomes.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindConflict
	KindInvalidState
	KindValidation
	KindStorage
)

// Machine-readable error codes callers can branch on.
const (
	CodePlanNotFound         = "plan_not_found"
	CodeUserNotFound         = "user_not_found"
	CodeSubscriptionNotFound = "subscription_not_found"
	CodeAgentNotFound        = "sales_agent_not_found"
	CodeCommissionNotFound   = "commission_not_found"
	CodeAlreadySubscribed    = "already_subscribed"
	CodeAgentCodeTaken       = "agent_code_taken"
	CodeAlreadyTerminal      = "already_terminal"
	CodeNoActiveSubscription = "no_active_subscription"
	CodeSamePlan             = "same_plan"
	CodeRequiresPayment      = "requires_payment"
	CodePlanTypeMismatch     = "plan_type_mismatch"
	CodeAgentInactive        = "sales_agent_inactive"
	CodeAlreadyPaid          = "commission_already_paid"
	CodeInvalidInput         = "invalid_input"
	CodeStorageFailure       = "storage_failure"
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes two taxonomy errors match on (Kind, Code), so tests and callers
// can use errors.Is with sentinel-style constructors.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

func NotFound(code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: fmt.Sprintf(format, args...)}
}

func Conflict(code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: fmt.Sprintf(format, args...)}
}

func InvalidState(code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidState, Code: code, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Code: CodeInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// Storage wraps an infrastructure failure. These are never business
// outcomes and map to HTTP 500 at the transport layer.
func Storage(err error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindStorage, Code: CodeStorageFailure, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the taxonomy kind from any error chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// CodeOf extracts the machine code from any error chain.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func IsNotFound(err error) bool     { return KindOf(err) == KindNotFound }
func IsConflict(err error) bool     { return KindOf(err) == KindConflict }
func IsInvalidState(err error) bool { return KindOf(err) == KindInvalidState }
func IsValidation(err error) bool   { return KindOf(err) == KindValidation }
