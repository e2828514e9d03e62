package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	// Login failure. Deliberately the same for unknown email and wrong
	// password so callers can't probe which emails are registered.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// Token has no row in the store: revoked, rotated or never issued
	ErrTokenNotFound = errors.New("token not found")

	// Signature invalid, token expired, wrong type or no matching store row
	ErrUnauthenticated = errors.New("authentication failed")

	// Authenticated but the role is not in the allow list
	ErrForbidden = errors.New("permission denied")

	// Required request data is missing (e.g. logout without both tokens)
	ErrInvalidRequest = errors.New("invalid request")

	// Operation called with incomplete data (e.g. user without uuid)
	ErrInvalidState = errors.New("invalid state")

	// Persistence layer failed during issuance or lookup
	ErrStorage = errors.New("storage error")
)
