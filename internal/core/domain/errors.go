package domain

import (
	"errors"
	"strings"
)

var (
	ErrDuplicateIdentity  = errors.New("user with this email or username already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountBanned      = errors.New("account banned, contact MIET admin")
	ErrIdentityNotFound   = errors.New("user not found")
	ErrPostNotFound       = errors.New("post not found")
	ErrUnauthorized       = errors.New("not authorized")
	ErrForbidden          = errors.New("access forbidden")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrValidation         = errors.New("validation failed")
)

// ValidationError describes malformed input. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Fields []string
}

func NewValidationError(msgs ...string) *ValidationError {
	return &ValidationError{Fields: msgs}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	return strings.Join(e.Fields, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Kind returns the machine-readable name of a domain error, or "" when err is
// not one of ours.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrDuplicateIdentity):
		return "DuplicateIdentity"
	case errors.Is(err, ErrInvalidCredentials):
		return "InvalidCredentials"
	case errors.Is(err, ErrAccountBanned):
		return "AccountBanned"
	case errors.Is(err, ErrIdentityNotFound):
		return "IdentityNotFound"
	case errors.Is(err, ErrPostNotFound):
		return "PostNotFound"
	case errors.Is(err, ErrUnauthorized):
		return "Unauthorized"
	case errors.Is(err, ErrForbidden):
		return "Forbidden"
	case errors.Is(err, ErrStoreUnavailable):
		return "StoreUnavailable"
	case errors.Is(err, ErrValidation):
		return "ValidationError"
	}
	return ""
}
