package service

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

type ErrorKind string

const (
	KindNotFound           ErrorKind = "not_found"
	KindConflict           ErrorKind = "conflict"
	KindInvalidCredential  ErrorKind = "invalid_credential"
	KindExpired            ErrorKind = "expired"
	KindAlreadyVerified    ErrorKind = "already_verified"
	KindAlreadyInState     ErrorKind = "already_in_state"
	KindPreconditionFailed ErrorKind = "precondition_failed"
	KindRateLimited        ErrorKind = "rate_limited"
	KindDependencyFailure  ErrorKind = "dependency_failure"
	KindInvalidInput       ErrorKind = "invalid_input"
	KindInternal           ErrorKind = "internal"
)

// Error is the typed failure returned by every service operation. Kind is
// authoritative; Message is safe to show to clients; Err is kept for logs.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the kind of err. Untyped errors are internal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return KindInternal
}

var (
	ErrUserNotFound        = &Error{Kind: KindNotFound, Message: "user not found"}
	ErrEmailAlreadyUsed    = &Error{Kind: KindConflict, Message: "email already registered"}
	ErrInvalidEmail        = &Error{Kind: KindInvalidInput, Message: "invalid email address"}
	ErrInvalidCredentials  = &Error{Kind: KindInvalidCredential, Message: "invalid email or password"}
	ErrSessionInvalid      = &Error{Kind: KindInvalidCredential, Message: "invalid or expired session"}
	ErrPasswordTooWeak     = &Error{Kind: KindInvalidInput, Message: "password does not meet strength requirements"}
	ErrOTPInvalid          = &Error{Kind: KindInvalidCredential, Message: "invalid verification code"}
	ErrOTPExpired          = &Error{Kind: KindExpired, Message: "verification code expired"}
	ErrOTPAlreadyIssued    = &Error{Kind: KindConflict, Message: "a verification code is already active"}
	ErrOTPRateLimited      = &Error{Kind: KindRateLimited, Message: "too many attempts, try again later"}
	ErrAlreadyVerified     = &Error{Kind: KindAlreadyVerified, Message: "email already verified"}
	ErrResetTokenInvalid   = &Error{Kind: KindInvalidCredential, Message: "reset token is no longer valid"}
	ErrResetTokenExpired   = &Error{Kind: KindExpired, Message: "reset token expired"}
	ErrResetTokenSignature = &Error{Kind: KindInvalidCredential, Message: "reset token signature invalid"}
	ErrNotVerified         = &Error{Kind: KindPreconditionFailed, Message: "email must be verified before going online"}
	ErrPreconditionFailed  = &Error{Kind: KindPreconditionFailed, Message: "precondition failed"}
	ErrAlreadyInState      = &Error{Kind: KindAlreadyInState, Message: "status already set"}
	ErrStatusConflict      = &Error{Kind: KindConflict, Message: "status changed concurrently, retry"}
	ErrInvalidStatus       = &Error{Kind: KindInvalidInput, Message: "invalid status"}
	ErrNotificationFailed  = &Error{Kind: KindDependencyFailure, Message: "notification could not be delivered"}
	ErrImageInvalid        = &Error{Kind: KindInvalidInput, Message: "unsupported or corrupt image"}
	ErrImageTooLarge       = &Error{Kind: KindInvalidInput, Message: "image exceeds maximum size"}
)

// dependencyFailure hides the cause of a store, signer or notifier failure
// behind a generic message.
func dependencyFailure(err error) error {
	return &Error{Kind: KindDependencyFailure, Message: "service temporarily unavailable", Err: err}
}

func internalError(err error) error {
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}

// withCause returns a copy of sentinel that also wraps cause. errors.Is still
// matches the sentinel through Unwrap.
func withCause(sentinel *Error, message string, cause error) error {
	if message == "" {
		message = sentinel.Message
	}
	return &Error{Kind: sentinel.Kind, Message: message, Err: errors.Join(sentinel, cause)}
}

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
