package verification

import "errors"

var (
	// ErrInvalidCode is returned for any verification failure. Wrong code,
	// expired code, and upstream outage are intentionally indistinguishable
	// at this layer; the caller surfaces all of them the same way.
	ErrInvalidCode = errors.New("email verification code rejected")
)
