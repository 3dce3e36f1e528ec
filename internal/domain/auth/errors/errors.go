package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInternal        = errors.New("internal error")
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
)

// Authentication failures. Every one of them rejects the request as
// unauthorized except ErrIdentityDisabled, which is an authorization failure.
var (
	ErrMissingCredential  = errors.New("missing bearer credential")
	ErrDecode             = errors.New("token decode error")
	ErrInvalidSignature   = errors.New("invalid token signature")
	ErrExpired            = errors.New("token expired")
	ErrMissingSubject     = errors.New("token subject missing")
	ErrWrongTokenType     = errors.New("wrong token type")
	ErrRevoked            = errors.New("token revoked")
	ErrUnknownIdentity    = errors.New("unknown identity")
	ErrIdentityDisabled   = errors.New("identity disabled")
	ErrCredentialMismatch = errors.New("credential mismatch")
)

func NewInvalidArgument(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, msg)
}

func WrapInternal(err error, context string) error {
	return fmt.Errorf("%w: %s: %v", ErrInternal, context, err)
}

func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

func IsInternal(err error) bool {
	return errors.Is(err, ErrInternal)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

func IsCredentialMismatch(err error) bool {
	return errors.Is(err, ErrCredentialMismatch)
}

func IsIdentityDisabled(err error) bool {
	return errors.Is(err, ErrIdentityDisabled)
}

// IsUnauthenticated reports whether err is one of the token or credential
// failures that reject a request as unauthorized.
func IsUnauthenticated(err error) bool {
	for _, target := range []error{
		ErrMissingCredential,
		ErrDecode,
		ErrInvalidSignature,
		ErrExpired,
		ErrMissingSubject,
		ErrWrongTokenType,
		ErrRevoked,
		ErrUnknownIdentity,
		ErrCredentialMismatch,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
