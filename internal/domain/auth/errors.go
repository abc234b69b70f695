package auth

import "errors"

var (
	// ErrTokenExpired indicates a token past its validity window.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid indicates a signature mismatch or malformed payload.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrUnauthenticated indicates a missing or unusable credential.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden indicates a valid credential with insufficient privilege.
	ErrForbidden = errors.New("forbidden")
	// ErrUserNotFound indicates the store has no record for the username.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists indicates a registration conflict.
	ErrUserExists = errors.New("user already exists")
	// ErrBadCredentials indicates a failed username/password check.
	ErrBadCredentials = errors.New("incorrect username or password")
)
