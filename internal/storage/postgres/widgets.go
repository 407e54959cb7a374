package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/visitmakkah/visitmakkah/internal/store"
)

const widgetColumns = "id, visitor_id, kind, key, title, config, position, created_at, updated_at"

// ListWidgets returns the visitor's widgets ordered by position.
func (s *Store) ListWidgets(ctx context.Context, visitorID string) ([]store.Widget, error) {
	rows, err := s.pool.Query(ctx, `
SELECT `+widgetColumns+`
FROM saved_widgets
WHERE visitor_id = $1
ORDER BY position ASC, created_at ASC`, visitorID)
	if err != nil {
		return nil, fmt.Errorf("list widgets: %w", err)
	}
	defer rows.Close()

	widgets := make([]store.Widget, 0)
	for rows.Next() {
		w, err := scanWidget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan widget: %w", err)
		}
		widgets = append(widgets, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate widgets: %w", err)
	}
	return widgets, nil
}

// SaveWidget upserts on (visitor_id, kind, key). The original id and
// created_at survive an update.
func (s *Store) SaveWidget(ctx context.Context, widget store.Widget) (store.Widget, error) {
	configJSON, err := marshalConfig(widget.Config)
	if err != nil {
		return store.Widget{}, err
	}
	row := s.pool.QueryRow(ctx, `
INSERT INTO saved_widgets (`+widgetColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (visitor_id, kind, key) DO UPDATE
SET title = EXCLUDED.title,
	config = EXCLUDED.config,
	position = EXCLUDED.position,
	updated_at = EXCLUDED.updated_at
RETURNING `+widgetColumns,
		widget.ID,
		widget.VisitorID,
		widget.Kind,
		widget.Key,
		widget.Title,
		configJSON,
		widget.Position,
		widget.CreatedAt,
		widget.UpdatedAt,
	)
	stored, err := scanWidget(row)
	if err != nil {
		return store.Widget{}, fmt.Errorf("save widget: %w", err)
	}
	return stored, nil
}

// DeleteWidget removes a widget owned by visitorID.
func (s *Store) DeleteWidget(ctx context.Context, visitorID, widgetID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM saved_widgets WHERE id = $1 AND visitor_id = $2`, widgetID, visitorID)
	if err != nil {
		return fmt.Errorf("delete widget: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func marshalConfig(cfg map[string]any) ([]byte, error) {
	if cfg == nil {
		cfg = map[string]any{}
	}
	out, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal widget config: %w", err)
	}
	return out, nil
}

func scanWidget(row pgx.Row) (store.Widget, error) {
	var (
		w          store.Widget
		configJSON []byte
	)
	if err := row.Scan(
		&w.ID,
		&w.VisitorID,
		&w.Kind,
		&w.Key,
		&w.Title,
		&configJSON,
		&w.Position,
		&w.CreatedAt,
		&w.UpdatedAt,
	); err != nil {
		return store.Widget{}, err
	}
	w.Config = map[string]any{}
	if len(configJSON) > 0 {
		if err := json.Unmarshal(configJSON, &w.Config); err != nil {
			return store.Widget{}, fmt.Errorf("decode widget config: %w", err)
		}
	}
	return w, nil
}
