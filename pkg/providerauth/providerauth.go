package providerauth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Snapshot is the read-only view of external-provider authentication
// state. A zero Snapshot means the user did not arrive via a provider.
type Snapshot struct {
	// Email is the provider-supplied email address.
	Email string

	// Token is the provisional auth token issued by the provider bridge.
	Token string

	// Completed reports whether the provider-linked account is already
	// fully provisioned.
	Completed bool
}

// Present reports whether a provider identity exists at all.
func (s Snapshot) Present() bool {
	return s.Token != ""
}

// Source supplies the current provider auth snapshot. Implementations
// must be safe to call repeatedly; the flow re-reads the snapshot at
// mount and whenever upstream auth state changes.
type Source interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// StaticSource returns a fixed snapshot. Useful when the provider state
// is resolved ahead of time, and in tests.
type StaticSource Snapshot

func (s StaticSource) Snapshot(ctx context.Context) (Snapshot, error) {
	return Snapshot(s), nil
}

// ProviderClaims are the claims carried by a provider auth token.
type ProviderClaims struct {
	Email           string `json:"email"`
	IsUserCompleted bool   `json:"isUserCompleted"`
	jwt.RegisteredClaims
}

// TokenSource derives the snapshot by decoding a provider auth token.
type TokenSource struct {
	token   string
	keyfunc jwt.Keyfunc
}

// NewTokenSource creates a Source backed by the given provider token.
// An empty token yields a zero snapshot. When keyfunc is nil the claims
// are decoded without signature verification; the token is provisional
// and is re-verified server side before anything is provisioned with it.
func NewTokenSource(token string, keyfunc jwt.Keyfunc) *TokenSource {
	return &TokenSource{token: token, keyfunc: keyfunc}
}

func (s *TokenSource) Snapshot(ctx context.Context) (Snapshot, error) {
	if s.token == "" {
		return Snapshot{}, nil
	}

	claims := &ProviderClaims{}
	var err error
	if s.keyfunc != nil {
		_, err = jwt.ParseWithClaims(s.token, claims, s.keyfunc)
	} else {
		_, _, err = jwt.NewParser().ParseUnverified(s.token, claims)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to parse provider auth token: %w", err)
	}

	return Snapshot{
		Email:     claims.Email,
		Token:     s.token,
		Completed: claims.IsUserCompleted,
	}, nil
}
