package signupserver

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/signup-flow/pkg/notification"
)

func lastCode(t *testing.T, notifier *notification.LogNotifier) string {
	t.Helper()
	sent := notifier.Sent()
	require.NotEmpty(t, sent)
	body := sent[len(sent)-1].Body
	return body[strings.LastIndex(body, " ")+1:]
}

func TestRequestAndCheckCode(t *testing.T) {
	ctx := context.Background()
	notifier := notification.NewLogNotifier()
	service := NewSignupService(
		WithNotifier(notifier),
		WithEmailConfigured(true),
	)

	require.NoError(t, service.RequestCode(ctx, "a@b.com"))
	code := lastCode(t, notifier)
	require.Len(t, code, 6)

	t.Run("wrong code rejected", func(t *testing.T) {
		_, err := service.CheckCode(ctx, "a@b.com", "not-it")
		assert.ErrorIs(t, err, ErrCodeMismatch)
	})

	t.Run("unknown email rejected", func(t *testing.T) {
		_, err := service.CheckCode(ctx, "nobody@b.com", code)
		assert.ErrorIs(t, err, ErrCodeNotFound)
	})

	t.Run("correct code mints a signup token and is consumed", func(t *testing.T) {
		token, err := service.CheckCode(ctx, "a@b.com", code)
		require.NoError(t, err)
		assert.NotEmpty(t, token)

		_, err = service.CheckCode(ctx, "a@b.com", code)
		assert.ErrorIs(t, err, ErrCodeNotFound, "codes are one-time")
	})
}

func TestCheckCodeExpired(t *testing.T) {
	ctx := context.Background()
	notifier := notification.NewLogNotifier()
	service := NewSignupService(
		WithNotifier(notifier),
		WithCodeTTL(-time.Minute),
		WithEmailConfigured(true),
	)

	require.NoError(t, service.RequestCode(ctx, "a@b.com"))
	_, err := service.CheckCode(ctx, "a@b.com", lastCode(t, notifier))
	assert.ErrorIs(t, err, ErrCodeExpired)
}

func TestCompleteSignup(t *testing.T) {
	ctx := context.Background()
	notifier := notification.NewLogNotifier()
	service := NewSignupService(
		WithNotifier(notifier),
		WithEmailConfigured(true),
	)

	require.NoError(t, service.RequestCode(ctx, "jane@example.com"))
	signupToken, err := service.CheckCode(ctx, "jane@example.com", lastCode(t, notifier))
	require.NoError(t, err)

	t.Run("missing token rejected", func(t *testing.T) {
		_, err := service.CompleteSignup(ctx, CompleteSignupRequest{
			Email:    "jane@example.com",
			Password: "pw",
		})
		assert.ErrorIs(t, err, ErrInvalidSignupToken)
	})

	t.Run("token for another email rejected", func(t *testing.T) {
		_, err := service.CompleteSignup(ctx, CompleteSignupRequest{
			SignupToken: signupToken,
			Email:       "mallory@example.com",
			Password:    "pw",
		})
		assert.ErrorIs(t, err, ErrInvalidSignupToken)
	})

	result, err := service.CompleteSignup(ctx, CompleteSignupRequest{
		SignupToken: signupToken,
		Email:       "jane@example.com",
		FirstName:   "Jane",
		LastName:    "Doe",
		Password:    "correct-horse-battery",
	})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", result.User.Email)
	assert.NotEmpty(t, result.Workspace.ID)
	assert.NotEmpty(t, result.SessionToken)
	assert.NotContains(t, result.User.PasswordHash, "correct-horse-battery")
	assert.True(t, strings.HasPrefix(result.User.PasswordHash, "$argon2id$"))

	t.Run("duplicate email rejected", func(t *testing.T) {
		require.NoError(t, service.RequestCode(ctx, "jane@example.com"))
		token, err := service.CheckCode(ctx, "jane@example.com", lastCode(t, notifier))
		require.NoError(t, err)

		_, err = service.CompleteSignup(ctx, CompleteSignupRequest{
			SignupToken: token,
			Email:       "jane@example.com",
			Password:    "pw",
		})
		assert.ErrorIs(t, err, ErrEmailExists)
	})

	t.Run("workspaces listed for the new account", func(t *testing.T) {
		workspaces, err := service.Workspaces(ctx, "jane@example.com")
		require.NoError(t, err)
		require.Len(t, workspaces, 1)
		assert.Equal(t, result.Workspace.ID, workspaces[0].ID)
	})

	t.Run("password verifies", func(t *testing.T) {
		ok, err := service.VerifyPassword(ctx, "jane@example.com", "correct-horse-battery")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = service.VerifyPassword(ctx, "jane@example.com", "wrong")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestCompleteSignupWithoutEmailChannel(t *testing.T) {
	ctx := context.Background()
	service := NewSignupService(WithEmailConfigured(false))

	// No verification step exists, so no token is required.
	result, err := service.CompleteSignup(ctx, CompleteSignupRequest{
		Email:     "jane@example.com",
		FirstName: "Jane",
		Password:  "pw",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.SessionToken)
}

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := hashPassword("s3cret")
	require.NoError(t, err)

	ok, err := verifyPassword("s3cret", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = verifyPassword("nope", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = hashPassword("")
	assert.Error(t, err)
}
