package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/visitmakkah/visitmakkah/internal/store"
)

const topicColumns = "id, visitor_id, title, created_at, updated_at"

// ListTopics returns the visitor's topics, most recently updated first.
func (s *Store) ListTopics(ctx context.Context, visitorID string, limit int) ([]store.Topic, error) {
	if limit <= 0 {
		limit = defaultTopicLimit
	}
	rows, err := s.pool.Query(ctx, `
SELECT `+topicColumns+`
FROM chat_topics
WHERE visitor_id = $1
ORDER BY updated_at DESC
LIMIT $2`, visitorID, limit)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	topics := make([]store.Topic, 0)
	for rows.Next() {
		t, err := scanTopic(rows)
		if err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		topics = append(topics, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate topics: %w", err)
	}
	return topics, nil
}

// CreateTopic inserts a topic.
func (s *Store) CreateTopic(ctx context.Context, topic store.Topic) (store.Topic, error) {
	_, err := s.pool.Exec(ctx, `
INSERT INTO chat_topics (`+topicColumns+`)
VALUES ($1, $2, $3, $4, $5)`,
		topic.ID, topic.VisitorID, topic.Title, topic.CreatedAt, topic.UpdatedAt)
	if err != nil {
		return store.Topic{}, fmt.Errorf("insert topic: %w", err)
	}
	return topic, nil
}

// GetTopic loads a topic owned by visitorID.
func (s *Store) GetTopic(ctx context.Context, visitorID, topicID string) (store.Topic, error) {
	row := s.pool.QueryRow(ctx, `
SELECT `+topicColumns+`
FROM chat_topics
WHERE id = $1 AND visitor_id = $2`, topicID, visitorID)
	t, err := scanTopic(row)
	if err != nil {
		return store.Topic{}, fmt.Errorf("get topic: %w", notFound(err))
	}
	return t, nil
}

// RenameTopic updates the title of a topic owned by visitorID.
func (s *Store) RenameTopic(
	ctx context.Context,
	visitorID, topicID, title string,
	at time.Time,
) (store.Topic, error) {
	row := s.pool.QueryRow(ctx, `
UPDATE chat_topics
SET title = $1, updated_at = $2
WHERE id = $3 AND visitor_id = $4
RETURNING `+topicColumns, title, at, topicID, visitorID)
	t, err := scanTopic(row)
	if err != nil {
		return store.Topic{}, fmt.Errorf("rename topic: %w", notFound(err))
	}
	return t, nil
}

// DeleteTopic removes a topic; messages go with it via ON DELETE CASCADE.
func (s *Store) DeleteTopic(ctx context.Context, visitorID, topicID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM chat_topics WHERE id = $1 AND visitor_id = $2`, topicID, visitorID)
	if err != nil {
		return fmt.Errorf("delete topic: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListMessages returns the newest limit messages of a topic, oldest first.
func (s *Store) ListMessages(ctx context.Context, topicID string, limit int) ([]store.Message, error) {
	if limit <= 0 {
		limit = defaultMessageLimit
	}
	rows, err := s.pool.Query(ctx, `
SELECT id, topic_id, role, content, created_at
FROM (
	SELECT id, topic_id, role, content, created_at
	FROM chat_messages
	WHERE topic_id = $1
	ORDER BY created_at DESC
	LIMIT $2
) recent
ORDER BY created_at ASC`, topicID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	msgs := make([]store.Message, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return msgs, nil
}

// AppendMessage inserts a message and bumps the topic's updated_at in one
// statement. A missing topic yields store.ErrNotFound.
func (s *Store) AppendMessage(ctx context.Context, msg store.Message) (store.Message, error) {
	if err := msg.Validate(); err != nil {
		return store.Message{}, err
	}
	row := s.pool.QueryRow(ctx, `
WITH touched AS (
	UPDATE chat_topics SET updated_at = GREATEST(updated_at, $5)
	WHERE id = $2
	RETURNING id
)
INSERT INTO chat_messages (id, topic_id, role, content, created_at)
SELECT $1, touched.id, $3, $4, $5 FROM touched
RETURNING id, topic_id, role, content, created_at`,
		msg.ID, msg.TopicID, string(msg.Role), msg.Content, msg.CreatedAt)
	stored, err := scanMessage(row)
	if err != nil {
		return store.Message{}, fmt.Errorf("append message: %w", notFound(err))
	}
	return stored, nil
}

func scanTopic(row pgx.Row) (store.Topic, error) {
	var t store.Topic
	if err := row.Scan(&t.ID, &t.VisitorID, &t.Title, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return store.Topic{}, err
	}
	return t, nil
}

func scanMessage(row pgx.Row) (store.Message, error) {
	var (
		m    store.Message
		role string
	)
	if err := row.Scan(&m.ID, &m.TopicID, &role, &m.Content, &m.CreatedAt); err != nil {
		return store.Message{}, err
	}
	m.Role = store.Role(role)
	return m, nil
}
