package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/visitmakkah/visitmakkah/internal/store"
)

const visitorColumns = "id, first_seen, last_seen, visit_count, last_path, referrer, user_agent, country, ip_hash"

// TouchVisitor inserts the visitor on first sight, otherwise bumps the visit
// counters. Empty user agent, country and IP hash never overwrite known values.
func (s *Store) TouchVisitor(ctx context.Context, v store.Visitor) (store.Visitor, error) {
	row := s.pool.QueryRow(ctx, `
INSERT INTO visitors (`+visitorColumns+`)
VALUES ($1, $2, $2, 1, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE
SET last_seen = EXCLUDED.last_seen,
	visit_count = visitors.visit_count + 1,
	last_path = EXCLUDED.last_path,
	user_agent = COALESCE(NULLIF(EXCLUDED.user_agent, ''), visitors.user_agent),
	country = COALESCE(NULLIF(EXCLUDED.country, ''), visitors.country),
	ip_hash = COALESCE(NULLIF(EXCLUDED.ip_hash, ''), visitors.ip_hash)
RETURNING `+visitorColumns,
		v.ID, v.LastSeen, v.LastPath, v.Referrer, v.UserAgent, v.Country, v.IPHash)
	stored, err := scanVisitor(row)
	if err != nil {
		return store.Visitor{}, fmt.Errorf("touch visitor: %w", err)
	}
	return stored, nil
}

// GetVisitor loads a visitor by ID.
func (s *Store) GetVisitor(ctx context.Context, visitorID string) (store.Visitor, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+visitorColumns+` FROM visitors WHERE id = $1`, visitorID)
	v, err := scanVisitor(row)
	if err != nil {
		return store.Visitor{}, fmt.Errorf("get visitor: %w", notFound(err))
	}
	return v, nil
}

func scanVisitor(row pgx.Row) (store.Visitor, error) {
	var v store.Visitor
	if err := row.Scan(
		&v.ID,
		&v.FirstSeen,
		&v.LastSeen,
		&v.VisitCount,
		&v.LastPath,
		&v.Referrer,
		&v.UserAgent,
		&v.Country,
		&v.IPHash,
	); err != nil {
		return store.Visitor{}, err
	}
	return v, nil
}
