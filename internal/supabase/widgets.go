package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/visitmakkah/visitmakkah/internal/store"
)

// ListWidgets returns the visitor's widgets ordered by position.
func (c *Client) ListWidgets(ctx context.Context, visitorID string) ([]store.Widget, error) {
	q := url.Values{
		"select":     {"*"},
		"visitor_id": {eq(visitorID)},
		"order":      {"position.asc,created_at.asc"},
	}
	var rows []widgetRow
	if err := c.do(ctx, http.MethodGet, tableWidgets, q, nil, "", &rows); err != nil {
		return nil, fmt.Errorf("list widgets: %w", err)
	}
	out := make([]store.Widget, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.widget())
	}
	return out, nil
}

// SaveWidget updates the widget with the same (visitor, kind, key) in place,
// keeping its id and created_at, or inserts a new one.
func (c *Client) SaveWidget(ctx context.Context, widget store.Widget) (store.Widget, error) {
	q := url.Values{
		"select":     {"id"},
		"visitor_id": {eq(widget.VisitorID)},
		"kind":       {eq(widget.Kind)},
		"key":        {eq(widget.Key)},
		"limit":      {"1"},
	}
	var existing []widgetRow
	if err := c.do(ctx, http.MethodGet, tableWidgets, q, nil, "", &existing); err != nil {
		return store.Widget{}, fmt.Errorf("find widget: %w", err)
	}

	var rows []widgetRow
	if len(existing) > 0 {
		patch := map[string]any{
			"title":      widget.Title,
			"config":     widgetToRow(widget).Config,
			"position":   widget.Position,
			"updated_at": widget.UpdatedAt,
		}
		byID := url.Values{"id": {eq(existing[0].ID)}}
		if err := c.do(ctx, http.MethodPatch, tableWidgets, byID, patch, preferRepresentation, &rows); err != nil {
			return store.Widget{}, fmt.Errorf("update widget: %w", err)
		}
	} else {
		if err := c.do(ctx, http.MethodPost, tableWidgets, nil, widgetToRow(widget), preferRepresentation, &rows); err != nil {
			return store.Widget{}, fmt.Errorf("insert widget: %w", err)
		}
	}
	if len(rows) == 0 {
		return store.Widget{}, fmt.Errorf("save widget: empty response")
	}
	return rows[0].widget(), nil
}

// DeleteWidget removes a widget owned by visitorID.
func (c *Client) DeleteWidget(ctx context.Context, visitorID, widgetID string) error {
	q := url.Values{"id": {eq(widgetID)}, "visitor_id": {eq(visitorID)}}
	var rows []widgetRow
	if err := c.do(ctx, http.MethodDelete, tableWidgets, q, nil, preferRepresentation, &rows); err != nil {
		return fmt.Errorf("delete widget: %w", err)
	}
	if len(rows) == 0 {
		return store.ErrNotFound
	}
	return nil
}
