package workspace

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Client probes for an existing session by listing the caller's workspaces
type Client struct {
	baseURL     string
	httpClient  *http.Client
	tokenSource func() string
}

// ClientOption is a functional option for configuring Client
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTokenSource sets the source of the session bearer token.
// The source is consulted on every call so a token minted later in the
// flow is picked up without rebuilding the client.
func WithTokenSource(source func() string) ClientOption {
	return func(c *Client) {
		c.tokenSource = source
	}
}

// NewClient creates a new workspace client
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

// ListMyWorkspaces returns the workspaces the caller is a member of.
// Any failure, transport or HTTP, is reported as ErrUnauthenticated:
// the absence of a session is expected and must not surface as an error
// to the user.
func (c *Client) ListMyWorkspaces(ctx context.Context) ([]Workspace, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/workspace", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build workspace request: %w", err)
	}
	if c.tokenSource != nil {
		if token := c.tokenSource(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Debug("Workspace probe failed", "err", err)
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Debug("Workspace probe denied", "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d", ErrUnauthenticated, resp.StatusCode)
	}

	var workspaces []Workspace
	if err := json.NewDecoder(resp.Body).Decode(&workspaces); err != nil {
		return nil, fmt.Errorf("failed to decode workspace response: %w", err)
	}

	return workspaces, nil
}
