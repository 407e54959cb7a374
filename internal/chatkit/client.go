// Package chatkit creates client sessions for the hosted ChatKit agent
// workflow that powers the on-site assistant.
package chatkit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/visitmakkah/visitmakkah/internal/metrics"
)

const upstreamName = "chatkit"

// ErrNotConfigured is returned when the API key or workflow is missing.
var ErrNotConfigured = errors.New("chatkit is not configured")

// Config holds the ChatKit credentials.
type Config struct {
	APIKey     string
	WorkflowID string
	BaseURL    string
	HTTPClient *http.Client
}

// Session is a short-lived client secret the browser uses to talk to the
// agent directly.
type Session struct {
	ClientSecret string    `json:"client_secret"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Client calls the ChatKit sessions API.
type Client struct {
	http       *http.Client
	baseURL    string
	apiKey     string
	workflowID string
}

// New builds a Client. Missing credentials are reported lazily by
// CreateSession so the rest of the site can run without them.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://api.openai.com"
	}
	return &Client{http: httpClient, baseURL: base, apiKey: cfg.APIKey, workflowID: cfg.WorkflowID}
}

// Configured reports whether sessions can be created.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != "" && c.workflowID != ""
}

type sessionRequest struct {
	Workflow workflowRef `json:"workflow"`
	User     string      `json:"user"`
}

type workflowRef struct {
	ID string `json:"id"`
}

type sessionResponse struct {
	ClientSecret string `json:"client_secret"`
	ExpiresAt    int64  `json:"expires_at"`
}

// CreateSession opens a session for user, which must be a stable visitor
// identifier.
func (c *Client) CreateSession(ctx context.Context, user string) (_ Session, err error) {
	if !c.Configured() {
		return Session{}, ErrNotConfigured
	}
	if user == "" {
		return Session{}, fmt.Errorf("chatkit user is required")
	}
	start := time.Now()
	defer func() { metrics.ObserveUpstream(upstreamName, err, time.Since(start)) }()

	buf, err := json.Marshal(sessionRequest{Workflow: workflowRef{ID: c.workflowID}, User: user})
	if err != nil {
		return Session{}, fmt.Errorf("encode chatkit request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chatkit/sessions", bytes.NewReader(buf))
	if err != nil {
		return Session{}, fmt.Errorf("build chatkit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("OpenAI-Beta", "chatkit_beta=v1")

	resp, err := c.http.Do(req)
	if err != nil {
		return Session{}, fmt.Errorf("chatkit request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Session{}, fmt.Errorf("read chatkit response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Session{}, fmt.Errorf("chatkit error: status %d body %s", resp.StatusCode, truncate(string(body), 512))
	}

	var sr sessionResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return Session{}, fmt.Errorf("decode chatkit response: %w", err)
	}
	if sr.ClientSecret == "" {
		return Session{}, fmt.Errorf("chatkit response missing client_secret")
	}
	s := Session{ClientSecret: sr.ClientSecret}
	if sr.ExpiresAt > 0 {
		s.ExpiresAt = time.Unix(sr.ExpiresAt, 0).UTC()
	}
	return s, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
