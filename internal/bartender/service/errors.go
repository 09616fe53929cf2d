package service

import "errors"

// Kind is the closed set of outcomes a service operation can fail with.
type Kind uint8

const (
	KindInternal Kind = iota
	KindValidationFailed
	KindAlreadyExists
	KindInvalidCredentials
	KindInvalidOrExpiredToken
	KindUserNotFound
)

var kindCodes = [...]string{
	KindInternal:              "internal_error",
	KindValidationFailed:      "validation_failed",
	KindAlreadyExists:         "already_exists",
	KindInvalidCredentials:    "invalid_credentials",
	KindInvalidOrExpiredToken: "invalid_token",
	KindUserNotFound:          "user_not_found",
}

// String is the stable machine readable code, used as the "error" field of
// HTTP error bodies.
func (k Kind) String() string {
	if int(k) < len(kindCodes) {
		return kindCodes[k]
	}
	return kindCodes[KindInternal]
}

// Error is the only error type that leaves this package. Collaborator errors
// are kept for logging but deliberately not exposed through Unwrap, so
// callers can only branch on Kind.
type Error struct {
	Kind    Kind
	Message string
	// Fields holds per-field messages for KindValidationFailed.
	Fields map[string][]string

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Kind.String() + ": " + e.cause.Error()
	}
	return e.Kind.String()
}

// Is matches any *Error of the same Kind, so errors.Is(err, ErrUserNotFound)
// works regardless of message or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrValidationFailed      = &Error{Kind: KindValidationFailed, Message: "Validation failed"}
	ErrAlreadyExists         = &Error{Kind: KindAlreadyExists, Message: "User already exists"}
	ErrInvalidCredentials    = &Error{Kind: KindInvalidCredentials, Message: "Invalid username or password"}
	ErrInvalidOrExpiredToken = &Error{Kind: KindInvalidOrExpiredToken, Message: "Invalid or expired token"}
	ErrUserNotFound          = &Error{Kind: KindUserNotFound, Message: "User not found"}
	ErrInternal              = &Error{Kind: KindInternal, Message: "Internal server error"}

	errInvalidRefreshToken = &Error{Kind: KindInvalidOrExpiredToken, Message: "Invalid or expired refresh token"}
)

func internal(cause error) *Error {
	return &Error{Kind: KindInternal, Message: ErrInternal.Message, cause: cause}
}

// KindOf reports the Kind of err; anything that is not an *Error is
// KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
