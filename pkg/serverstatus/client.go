package serverstatus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Status is the server configuration snapshot consumed by the signup flow
type Status struct {
	EmailConfigured bool `json:"emailConfigured"`
}

// Reader exposes server configuration to the signup flow
type Reader interface {
	Status(ctx context.Context) (Status, error)
}

// Client fetches server status over HTTP. The first successful fetch is
// cached for the lifetime of the client; status is fetched once per flow.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu     sync.Mutex
	cached *Status
}

// ClientOption is a functional option for configuring Client
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a new server status client
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

// Status returns the server configuration snapshot. On any failure the
// zero Status is returned alongside the error; callers fall back to the
// conservative path (email not configured) rather than failing the flow.
func (c *Client) Status(ctx context.Context) (Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil {
		return *c.cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/status", nil)
	if err != nil {
		return Status{}, fmt.Errorf("failed to build status request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("Server status fetch failed", "err", err)
		return Status{}, fmt.Errorf("failed to fetch server status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("Server status fetch denied", "status", resp.StatusCode)
		return Status{}, fmt.Errorf("unexpected server status response: %d", resp.StatusCode)
	}

	var status Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return Status{}, fmt.Errorf("failed to decode server status: %w", err)
	}

	c.cached = &status
	return status, nil
}
