// Package supabase implements the chat, widget and visitor repositories on
// top of the Supabase PostgREST API.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/visitmakkah/visitmakkah/internal/metrics"
	"github.com/visitmakkah/visitmakkah/internal/store"
)

const upstreamName = "supabase"

// Config addresses a Supabase project.
type Config struct {
	URL        string
	ServiceKey string
	// Schema selects a non-default Postgres schema via the profile headers.
	Schema     string
	UserAgent  string
	HTTPClient *http.Client
}

// Client talks to PostgREST with the service-role key. It implements
// store.ChatRepository, store.WidgetRepository and store.VisitorRepository.
type Client struct {
	http      *http.Client
	restURL   string
	key       string
	schema    string
	userAgent string
	logger    *zap.Logger
}

// New validates cfg and builds a Client.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("supabase url is required")
	}
	if cfg.ServiceKey == "" {
		return nil, fmt.Errorf("supabase service key is required")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("supabase url %q is not absolute", cfg.URL)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http:      httpClient,
		restURL:   strings.TrimRight(cfg.URL, "/") + "/rest/v1/",
		key:       cfg.ServiceKey,
		schema:    cfg.Schema,
		userAgent: cfg.UserAgent,
		logger:    logger.Named("supabase"),
	}, nil
}

// Bundle exposes c through the store.Repositories aggregate.
func (c *Client) Bundle() store.Repositories {
	return store.Repositories{Chat: c, Widgets: c, Visitors: c}
}

// Ping issues a cheap read to verify credentials and connectivity.
func (c *Client) Ping(ctx context.Context) error {
	var rows []visitorRow
	q := url.Values{"select": {"id"}, "limit": {"1"}}
	if err := c.do(ctx, http.MethodGet, tableVisitors, q, nil, "", &rows); err != nil {
		return fmt.Errorf("ping supabase: %w", err)
	}
	return nil
}

// APIError is a non-2xx PostgREST response.
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("supabase error: status %d code %s: %s", e.Status, e.Code, e.Message)
}

// do sends one PostgREST request. prefer is sent as the Prefer header when
// non-empty and out, when non-nil, receives the decoded JSON response.
func (c *Client) do(
	ctx context.Context,
	method, table string,
	query url.Values,
	body any,
	prefer string,
	out any,
) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveUpstream(upstreamName, err, time.Since(start)) }()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", table, err)
		}
		reader = bytes.NewReader(buf)
	}

	target := c.restURL + table
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build supabase request: %w", err)
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}
	if c.schema != "" && c.schema != "public" {
		req.Header.Set("Accept-Profile", c.schema)
		req.Header.Set("Content-Profile", c.schema)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("supabase %s %s: %w", method, table, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read supabase response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if jsonErr := json.Unmarshal(data, apiErr); jsonErr != nil {
			apiErr.Message = truncate(string(data), 512)
		}
		c.logger.Debug("postgrest error",
			zap.String("method", method),
			zap.String("table", table),
			zap.Int("status", resp.StatusCode),
			zap.String("code", apiErr.Code),
		)
		return apiErr
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", table, err)
	}
	return nil
}

func eq(v string) string { return "eq." + v }

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
