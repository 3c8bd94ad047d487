package common

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind names a class of domain failure. It is reported to clients as the
// "name" field of the error envelope.
type Kind string

const (
	KindValidation          Kind = "ValidationError"
	KindInvalidUsername     Kind = "InvalidUsername"
	KindExistUser           Kind = "ExistUserError"
	KindNotExistUser        Kind = "NotExistUser"
	KindInvalidPassword     Kind = "InvalidPassword"
	KindInvalidUser         Kind = "InvalidUser"
	KindUnauthenticated     Kind = "Unauthenticated"
	KindInvalidToken        Kind = "InvalidToken"
	KindTokenExpired        Kind = "TokenExpiredError"
	KindInvalidRefreshToken Kind = "InvalidRefreshToken"
	KindForbidden           Kind = "Forbidden"
	KindNotFound            Kind = "NotFound"
	KindBlogNotFound        Kind = "BlogNotFound"
	KindInvalidBlogID       Kind = "InvalidBlogId"
	KindInvalidStartTime    Kind = "InvalidStartTime"
	KindStorage             Kind = "StorageError"
	KindInternal            Kind = "InternalError"
	KindTooManyRequests     Kind = "TooManyRequests"
)

// Error is a tagged domain error. Two errors are considered equal by
// errors.Is when their kinds match, so the package-level values below act
// as sentinels while still allowing a custom message or cause.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// WithMessage returns a copy of e carrying msg.
func (e *Error) WithMessage(msg string) *Error {
	c := *e
	c.Message = msg
	return &c
}

// Wrap returns a copy of e with cause attached. The cause is logged but
// never shown to clients.
func (e *Error) Wrap(cause error) *Error {
	c := *e
	c.Err = cause
	return &c
}

func newError(kind Kind, status int, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Status: status}
}

var (
	ErrValidation          = newError(KindValidation, http.StatusBadRequest, "validation error")
	ErrInvalidUsername     = newError(KindInvalidUsername, http.StatusBadRequest, "invalid username")
	ErrExistUser           = newError(KindExistUser, http.StatusBadRequest, "user already exists")
	ErrNotExistUser        = newError(KindNotExistUser, http.StatusBadRequest, "user does not exist")
	ErrInvalidPassword     = newError(KindInvalidPassword, http.StatusBadRequest, "invalid password")
	ErrInvalidUser         = newError(KindInvalidUser, http.StatusBadRequest, "user is not verified")
	ErrUnauthenticated     = newError(KindUnauthenticated, http.StatusUnauthorized, "authentication required")
	ErrInvalidToken        = newError(KindInvalidToken, http.StatusUnauthorized, "invalid token")
	ErrTokenExpired        = newError(KindTokenExpired, http.StatusUnauthorized, "token expired")
	ErrInvalidRefreshToken = newError(KindInvalidRefreshToken, http.StatusUnauthorized, "invalid refresh token")
	ErrForbidden           = newError(KindForbidden, http.StatusForbidden, "admin role required")
	ErrNotFound            = newError(KindNotFound, http.StatusNotFound, "not found")
	ErrBlogNotFound        = newError(KindBlogNotFound, http.StatusNotFound, "blog not found")
	ErrInvalidBlogID       = newError(KindInvalidBlogID, http.StatusBadRequest, "invalid blog id")
	ErrInvalidStartTime    = newError(KindInvalidStartTime, http.StatusBadRequest, "start time is required")
	ErrStorage             = newError(KindStorage, http.StatusInternalServerError, "storage error")
	ErrInternal            = newError(KindInternal, http.StatusInternalServerError, "internal error")
	ErrTooManyRequests     = newError(KindTooManyRequests, http.StatusTooManyRequests, "too many requests")
)

// AsError extracts the domain error from err. Anything that is not a
// domain error is reported as ErrInternal wrapping err.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return ErrInternal.Wrap(err)
}

// StorageFailure wraps an infrastructure error as a StorageError unless it
// already is a domain error.
func StorageFailure(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return ErrStorage.Wrap(err)
}
