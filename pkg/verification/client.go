package verification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Client checks email verification codes against the signup backend.
// Verification is idempotent from the caller's perspective: retrying
// with the same code after a failure is always safe.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption is a functional option for configuring Client
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a new verification client
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type verifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type verifyResponse struct {
	Token string `json:"token"`
}

// Verify submits a candidate code for an email address and returns the
// signup authorization token on success. Any non-200 response, and any
// transport failure, is reported as ErrInvalidCode.
func (c *Client) Verify(ctx context.Context, email, code string) (string, error) {
	body, err := json.Marshal(verifyRequest{Email: email, Code: code})
	if err != nil {
		return "", fmt.Errorf("failed to encode verify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/signup/verify", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("Verification request failed", "err", err)
		return "", fmt.Errorf("%w: %v", ErrInvalidCode, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Info("Verification code rejected", "status", resp.StatusCode)
		return "", fmt.Errorf("%w: status %d", ErrInvalidCode, resp.StatusCode)
	}

	var vr verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return "", fmt.Errorf("failed to decode verify response: %w", err)
	}

	return vr.Token, nil
}
