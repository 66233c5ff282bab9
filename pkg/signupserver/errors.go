package signupserver

import "errors"

var (
	// ErrCodeMismatch is returned when the submitted code does not match
	ErrCodeMismatch = errors.New("verification code does not match")

	// ErrCodeExpired is returned when the code's lifetime has elapsed
	ErrCodeExpired = errors.New("verification code has expired")

	// ErrCodeNotFound is returned when no code was issued for the email
	ErrCodeNotFound = errors.New("no verification code issued for this email")

	// ErrEmailExists is returned when the email already has an account
	ErrEmailExists = errors.New("an account with this email already exists")

	// ErrInvalidSignupToken is returned when the signup token is missing,
	// malformed, expired, or issued for a different email
	ErrInvalidSignupToken = errors.New("invalid signup token")

	// ErrUserNotFound is returned when no account exists for the email
	ErrUserNotFound = errors.New("user not found")
)
