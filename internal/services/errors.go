package services

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for the transport layer.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindBusinessRule Kind = "business_rule"
	KindUnauthorized Kind = "unauthorized"
	KindInternal     Kind = "internal"
)

// Public failure messages.
const (
	MsgInvalidID        = "invalid id"
	MsgUserNotFound     = "user not found"
	MsgMissingFields    = "all fields are required"
	MsgInvalidRole      = "invalid role"
	MsgInvalidStatus    = "invalid status"
	MsgEmailInUse       = "email already in use"
	MsgLastAdmin        = "cannot delete last administrator"
	MsgMissingLogin     = "email and password are required"
	MsgBadCredentials   = "invalid email or password"
	MsgInvalidBody      = "invalid request body"
	MsgInternal         = "internal server error"
	MsgListFailed       = "failed to list users"
	MsgGetFailed        = "failed to fetch user"
	MsgCreateFailed     = "failed to create user"
	MsgUpdateFailed     = "failed to update user"
	MsgDeleteFailed     = "failed to delete user"
	MsgStatsFailed      = "failed to fetch user stats"
	MsgAuthenticateFail = "failed to authenticate"
)

// Error is a classified failure. Message is safe to return to callers;
// the wrapped cause is for logs only.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func internalError(err error, message string) *Error {
	return &Error{Kind: KindInternal, Message: message, cause: err}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// AsError extracts a classified error from err. Unclassified errors are
// reported as internal.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	return internalError(err, MsgInternal)
}

// KindOf returns the kind of err, or an empty Kind for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return AsError(err).Kind
}

// ValidationError builds a validation failure with message.
func ValidationError(message string) *Error {
	return newError(KindValidation, message)
}
