package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/visitmakkah/visitmakkah/internal/store"
)

// TouchVisitor inserts the visitor on first sight, otherwise bumps
// last_seen, visit_count and last_path. PostgREST has no atomic increment,
// so concurrent touches of the same visitor may undercount visits.
func (c *Client) TouchVisitor(ctx context.Context, v store.Visitor) (store.Visitor, error) {
	existing, err := c.GetVisitor(ctx, v.ID)
	switch {
	case err == nil:
	case isNotFound(err):
		row := visitorRow{
			ID:         v.ID,
			FirstSeen:  v.LastSeen,
			LastSeen:   v.LastSeen,
			VisitCount: 1,
			LastPath:   v.LastPath,
			Referrer:   v.Referrer,
			UserAgent:  v.UserAgent,
			Country:    v.Country,
			IPHash:     v.IPHash,
		}
		var rows []visitorRow
		if err := c.do(ctx, http.MethodPost, tableVisitors, nil, row, preferRepresentation, &rows); err != nil {
			return store.Visitor{}, fmt.Errorf("insert visitor: %w", err)
		}
		if len(rows) == 0 {
			return row.visitor(), nil
		}
		return rows[0].visitor(), nil
	default:
		return store.Visitor{}, err
	}

	patch := map[string]any{
		"last_seen":   v.LastSeen,
		"visit_count": existing.VisitCount + 1,
		"last_path":   v.LastPath,
	}
	if v.UserAgent != "" {
		patch["user_agent"] = v.UserAgent
	}
	if v.Country != "" {
		patch["country"] = v.Country
	}
	if v.IPHash != "" {
		patch["ip_hash"] = v.IPHash
	}
	var rows []visitorRow
	q := url.Values{"id": {eq(v.ID)}}
	if err := c.do(ctx, http.MethodPatch, tableVisitors, q, patch, preferRepresentation, &rows); err != nil {
		return store.Visitor{}, fmt.Errorf("update visitor: %w", err)
	}
	if len(rows) == 0 {
		return store.Visitor{}, fmt.Errorf("update visitor: %w", store.ErrNotFound)
	}
	return rows[0].visitor(), nil
}

// GetVisitor loads a visitor by ID.
func (c *Client) GetVisitor(ctx context.Context, visitorID string) (store.Visitor, error) {
	q := url.Values{"select": {"*"}, "id": {eq(visitorID)}, "limit": {"1"}}
	var rows []visitorRow
	if err := c.do(ctx, http.MethodGet, tableVisitors, q, nil, "", &rows); err != nil {
		return store.Visitor{}, fmt.Errorf("get visitor: %w", err)
	}
	if len(rows) == 0 {
		return store.Visitor{}, fmt.Errorf("get visitor: %w", store.ErrNotFound)
	}
	return rows[0].visitor(), nil
}
