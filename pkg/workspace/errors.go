package workspace

import "errors"

var (
	// ErrUnauthenticated is returned when the caller has no valid session.
	// Callers treat this as "not logged in yet", never as a fatal error.
	ErrUnauthenticated = errors.New("no authenticated session")
)
