package securitycontext

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Store holds the flow's tokens: the short-lived signup authorization
// token issued after email verification, and the session token minted
// when provisioning completes. The signup flow only ever writes to it;
// the steps that complete account provisioning read the tokens back out.
type Store struct {
	mu           sync.RWMutex
	signupToken  string
	sessionToken string
}

// NewStore creates an empty token store
func NewStore() *Store {
	return &Store{}
}

// StoreSignupToken records the signup authorization token issued after
// email verification, replacing any previously stored token.
func (s *Store) StoreSignupToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signupToken = token
}

// SignupToken returns the stored signup token, or "" if none was stored.
func (s *Store) SignupToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.signupToken
}

// StoreSessionToken records the session token minted when signup
// completes. The session probe reads it on every call, so storing it is
// enough for later probes to authenticate.
func (s *Store) StoreSessionToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionToken = token
}

// SessionToken returns the stored session token, or "" if none was stored.
func (s *Store) SessionToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionToken
}

// SignupTokenExpiry reports the expiry of the stored token, when the token
// is a JWT carrying an exp claim. The claims are decoded without signature
// verification; the server re-validates the token on use.
func (s *Store) SignupTokenExpiry() (time.Time, bool) {
	s.mu.RLock()
	token := s.signupToken
	s.mu.RUnlock()

	if token == "" {
		return time.Time{}, false
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
