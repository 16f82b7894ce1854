package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a failure. Transport layers translate kinds into statuses.
type Kind uint8

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindUserNotFound
	KindUserAlreadyExists
	KindInvalidCredentials
	KindMissingCredentials
	KindInvalidCredentialsFormat
	KindMalformedToken
	KindSignatureInvalid
	KindTokenExpired
	KindTokenCreation
	KindForbidden
)

var kindNames = map[Kind]string{
	KindInternal:                 "internal",
	KindInvalidInput:             "invalid_input",
	KindUserNotFound:             "user_not_found",
	KindUserAlreadyExists:        "user_already_exists",
	KindInvalidCredentials:       "invalid_credentials",
	KindMissingCredentials:       "missing_credentials",
	KindInvalidCredentialsFormat: "invalid_credentials_format",
	KindMalformedToken:           "malformed_token",
	KindSignatureInvalid:         "signature_invalid",
	KindTokenExpired:             "token_expired",
	KindTokenCreation:            "token_creation",
	KindForbidden:                "forbidden",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Error is a classified failure. Two errors match under errors.Is when their kinds are equal.
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

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrInvalidInput             = &Error{Kind: KindInvalidInput, Message: "invalid input"}
	ErrUserNotFound             = &Error{Kind: KindUserNotFound, Message: "user not found"}
	ErrUserAlreadyExists        = &Error{Kind: KindUserAlreadyExists, Message: "user already exists"}
	ErrInvalidCredentials       = &Error{Kind: KindInvalidCredentials, Message: "invalid credentials"}
	ErrMissingCredentials       = &Error{Kind: KindMissingCredentials, Message: "missing authorization header"}
	ErrInvalidCredentialsFormat = &Error{Kind: KindInvalidCredentialsFormat, Message: "invalid authorization header"}
	ErrMalformedToken           = &Error{Kind: KindMalformedToken, Message: "malformed token"}
	ErrSignatureInvalid         = &Error{Kind: KindSignatureInvalid, Message: "token signature is invalid"}
	ErrTokenExpired             = &Error{Kind: KindTokenExpired, Message: "token has expired"}
	ErrTokenCreation            = &Error{Kind: KindTokenCreation, Message: "could not create token"}
	ErrForbidden                = &Error{Kind: KindForbidden, Message: "insufficient role"}
)

// NewError builds a classified error with a caller-facing message and an optional cause.
func NewError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// KindOf returns the kind of the first classified error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the caller-facing message of err. Unclassified errors get a generic message.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "internal server error"
}
