// Package content reads blog posts from the Sanity content lake and renders
// Portable Text bodies to HTML.
package content

import (
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
)

const upstreamName = "sanity"

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("content not found")

// ClientConfig addresses a Sanity project.
type ClientConfig struct {
	ProjectID  string
	Dataset    string
	APIVersion string
	Token      string
	UseCDN     bool
	UserAgent  string
	// BaseURL overrides the host derived from ProjectID (used in tests).
	BaseURL    string
	HTTPClient *http.Client
}

// Client issues GROQ queries against the Sanity HTTP query API.
type Client struct {
	http      *http.Client
	endpoint  string
	token     string
	userAgent string
	logger    *zap.Logger
}

// NewClient validates cfg and builds a Client.
func NewClient(cfg ClientConfig, logger *zap.Logger) (*Client, error) {
	if cfg.ProjectID == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("sanity project id is required")
	}
	if cfg.Dataset == "" {
		return nil, fmt.Errorf("sanity dataset is required")
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		host := "api.sanity.io"
		// The CDN never serves authenticated (draft-capable) reads.
		if cfg.UseCDN && cfg.Token == "" {
			host = "apicdn.sanity.io"
		}
		base = fmt.Sprintf("https://%s.%s", cfg.ProjectID, host)
	}
	version := strings.TrimPrefix(cfg.APIVersion, "v")
	if version == "" {
		version = "2024-01-01"
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
		endpoint:  fmt.Sprintf("%s/v%s/data/query/%s", base, version, url.PathEscape(cfg.Dataset)),
		token:     cfg.Token,
		userAgent: cfg.UserAgent,
		logger:    logger.Named("sanity"),
	}, nil
}

type queryResponse struct {
	Result json.RawMessage `json:"result"`
	Ms     int             `json:"ms"`
}

// Query runs a GROQ query and decodes its result into out. Each params entry
// is sent as a $-prefixed JSON-encoded query parameter. A null result is
// reported as ErrNotFound.
func (c *Client) Query(ctx context.Context, groq string, params map[string]any, out any) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveUpstream(upstreamName, ignoreNotFound(err), time.Since(start)) }()

	q := url.Values{}
	q.Set("query", groq)
	for name, value := range params {
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode sanity param %s: %w", name, err)
		}
		q.Set("$"+name, string(encoded))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build sanity request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sanity request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("read sanity response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sanity error: status %d body %s", resp.StatusCode, truncate(string(body), 512))
	}

	var qr queryResponse
	if err := json.Unmarshal(body, &qr); err != nil {
		return fmt.Errorf("decode sanity response: %w", err)
	}
	c.logger.Debug("sanity query", zap.Int("server_ms", qr.Ms), zap.Duration("elapsed", time.Since(start)))
	if len(qr.Result) == 0 || string(qr.Result) == "null" {
		return ErrNotFound
	}
	if err := json.Unmarshal(qr.Result, out); err != nil {
		return fmt.Errorf("decode sanity result: %w", err)
	}
	return nil
}

func ignoreNotFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
