package signupserver

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tendant/signup-flow/pkg/notification"
	"github.com/tendant/signup-flow/pkg/workspace"
)

const (
	tokenTypeSignup  = "signup"
	tokenTypeSession = "session"
)

// User is a provisioned account
type User struct {
	ID           uuid.UUID
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	CreatedAt    time.Time
}

type pendingCode struct {
	code      string
	expiresAt time.Time
}

// SignupService implements the backend side of the signup flow: it
// issues and checks verification codes, mints signup and session
// tokens, and provisions users with their first workspace. All state is
// in memory; the service exists to exercise the flow end to end.
type SignupService struct {
	notifier        notification.Notifier
	jwtSecret       []byte
	codeTTL         time.Duration
	tokenExpiry     time.Duration
	emailConfigured bool

	mu         sync.Mutex
	users      map[string]*User
	codes      map[string]pendingCode
	workspaces map[string][]workspace.Workspace
}

// SignupServiceOption is a functional option for configuring SignupService
type SignupServiceOption func(*SignupService)

// WithNotifier sets the verification code delivery channel
func WithNotifier(n notification.Notifier) SignupServiceOption {
	return func(s *SignupService) {
		s.notifier = n
	}
}

// WithJWTSecret sets the signing secret for signup and session tokens
func WithJWTSecret(secret string) SignupServiceOption {
	return func(s *SignupService) {
		s.jwtSecret = []byte(secret)
	}
}

// WithCodeTTL sets the verification code lifetime
func WithCodeTTL(ttl time.Duration) SignupServiceOption {
	return func(s *SignupService) {
		s.codeTTL = ttl
	}
}

// WithTokenExpiry sets the signup token lifetime
func WithTokenExpiry(expiry time.Duration) SignupServiceOption {
	return func(s *SignupService) {
		s.tokenExpiry = expiry
	}
}

// WithEmailConfigured sets whether an email delivery channel exists
func WithEmailConfigured(configured bool) SignupServiceOption {
	return func(s *SignupService) {
		s.emailConfigured = configured
	}
}

// NewSignupService creates a new signup service with the given options
func NewSignupService(opts ...SignupServiceOption) *SignupService {
	s := &SignupService{
		notifier:    notification.NewLogNotifier(),
		jwtSecret:   []byte("dev-signup-secret"),
		codeTTL:     10 * time.Minute,
		tokenExpiry: 1 * time.Hour,
		users:       make(map[string]*User),
		codes:       make(map[string]pendingCode),
		workspaces:  make(map[string][]workspace.Workspace),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// EmailConfigured reports whether email delivery is configured.
func (s *SignupService) EmailConfigured() bool {
	return s.emailConfigured
}

// generateCode returns a random 6-digit verification code
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// RequestCode issues a verification code for the email and delivers it
// through the notifier. A new request replaces any outstanding code.
func (s *SignupService) RequestCode(ctx context.Context, email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}

	code, err := generateCode()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.codes[email] = pendingCode{
		code:      code,
		expiresAt: time.Now().UTC().Add(s.codeTTL),
	}
	s.mu.Unlock()

	err = s.notifier.Send(ctx, notification.Message{
		To:      email,
		Subject: "Verify your email",
		Body:    fmt.Sprintf("Your verification code is %s", code),
	})
	if err != nil {
		slog.Error("Failed to deliver verification code", "email", email, "err", err)
		return fmt.Errorf("failed to deliver verification code: %w", err)
	}

	slog.Info("Issued verification code", "email", email)
	return nil
}

// CheckCode validates a submitted code and, on success, consumes it and
// returns a short-lived signup authorization token.
func (s *SignupService) CheckCode(ctx context.Context, email, code string) (string, error) {
	s.mu.Lock()
	pending, ok := s.codes[email]
	if ok && pending.code == code && time.Now().UTC().Before(pending.expiresAt) {
		delete(s.codes, email)
	}
	s.mu.Unlock()

	if !ok {
		return "", ErrCodeNotFound
	}
	if time.Now().UTC().After(pending.expiresAt) {
		return "", ErrCodeExpired
	}
	if pending.code != code {
		return "", ErrCodeMismatch
	}

	return s.mintToken(email, tokenTypeSignup, s.tokenExpiry)
}

// CompleteSignupRequest carries the fields collected at the user info step
type CompleteSignupRequest struct {
	SignupToken string
	Email       string
	FirstName   string
	LastName    string
	Password    string
}

// SignupResult is the outcome of a completed signup
type SignupResult struct {
	User         *User
	Workspace    workspace.Workspace
	SessionToken string
}

// CompleteSignup provisions the account: it validates the signup token,
// hashes the password, creates the user and their first workspace, and
// mints a session token so the caller is logged in immediately.
func (s *SignupService) CompleteSignup(ctx context.Context, req CompleteSignupRequest) (*SignupResult, error) {
	// Without an email channel there is no verification step and no
	// signup token to present.
	if s.emailConfigured {
		if err := s.validateSignupToken(req.SignupToken, req.Email); err != nil {
			return nil, err
		}
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		ID:           uuid.New(),
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	ws := workspace.Workspace{
		ID:   uuid.NewString(),
		Name: fmt.Sprintf("%s's workspace", req.FirstName),
	}

	s.mu.Lock()
	if _, exists := s.users[req.Email]; exists {
		s.mu.Unlock()
		return nil, ErrEmailExists
	}
	s.users[req.Email] = user
	s.workspaces[req.Email] = []workspace.Workspace{ws}
	s.mu.Unlock()

	sessionToken, err := s.mintToken(req.Email, tokenTypeSession, 24*time.Hour)
	if err != nil {
		return nil, err
	}

	slog.Info("Signup completed", "email", req.Email, "user_id", user.ID, "workspace_id", ws.ID)
	return &SignupResult{
		User:         user,
		Workspace:    ws,
		SessionToken: sessionToken,
	}, nil
}

// Workspaces returns the workspaces the email's account belongs to.
func (s *SignupService) Workspaces(ctx context.Context, email string) ([]workspace.Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[email]; !ok {
		return nil, ErrUserNotFound
	}
	return s.workspaces[email], nil
}

// VerifyPassword checks a login attempt against the stored hash.
func (s *SignupService) VerifyPassword(ctx context.Context, email, password string) (bool, error) {
	s.mu.Lock()
	user, ok := s.users[email]
	s.mu.Unlock()

	if !ok {
		return false, ErrUserNotFound
	}
	return verifyPassword(password, user.PasswordHash)
}

func (s *SignupService) mintToken(email, tokenType string, expiry time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"email": email,
		"type":  tokenType,
		"iat":   now.Unix(),
		"exp":   now.Add(expiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

func (s *SignupService) validateSignupToken(tokenString, email string) error {
	if tokenString == "" {
		return ErrInvalidSignupToken
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignupToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ErrInvalidSignupToken
	}
	if claims["type"] != tokenTypeSignup || claims["email"] != email {
		return ErrInvalidSignupToken
	}
	return nil
}
