package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/visitmakkah/visitmakkah/internal/store"
)

const (
	defaultTopicLimit   = 50
	defaultMessageLimit = 200
)

// ListTopics returns the visitor's topics, most recently updated first.
func (c *Client) ListTopics(ctx context.Context, visitorID string, limit int) ([]store.Topic, error) {
	if limit <= 0 {
		limit = defaultTopicLimit
	}
	q := url.Values{
		"select":     {"*"},
		"visitor_id": {eq(visitorID)},
		"order":      {"updated_at.desc"},
		"limit":      {strconv.Itoa(limit)},
	}
	var rows []topicRow
	if err := c.do(ctx, http.MethodGet, tableTopics, q, nil, "", &rows); err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	out := make([]store.Topic, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.topic())
	}
	return out, nil
}

// CreateTopic inserts a topic.
func (c *Client) CreateTopic(ctx context.Context, topic store.Topic) (store.Topic, error) {
	var rows []topicRow
	if err := c.do(ctx, http.MethodPost, tableTopics, nil, topicToRow(topic), preferRepresentation, &rows); err != nil {
		return store.Topic{}, fmt.Errorf("insert topic: %w", err)
	}
	if len(rows) == 0 {
		return topic, nil
	}
	return rows[0].topic(), nil
}

// GetTopic loads a topic owned by visitorID.
func (c *Client) GetTopic(ctx context.Context, visitorID, topicID string) (store.Topic, error) {
	q := url.Values{
		"select":     {"*"},
		"id":         {eq(topicID)},
		"visitor_id": {eq(visitorID)},
		"limit":      {"1"},
	}
	var rows []topicRow
	if err := c.do(ctx, http.MethodGet, tableTopics, q, nil, "", &rows); err != nil {
		return store.Topic{}, fmt.Errorf("get topic: %w", err)
	}
	if len(rows) == 0 {
		return store.Topic{}, fmt.Errorf("get topic: %w", store.ErrNotFound)
	}
	return rows[0].topic(), nil
}

// RenameTopic updates the title of a topic owned by visitorID.
func (c *Client) RenameTopic(
	ctx context.Context,
	visitorID, topicID, title string,
	at time.Time,
) (store.Topic, error) {
	q := url.Values{"id": {eq(topicID)}, "visitor_id": {eq(visitorID)}}
	patch := map[string]any{"title": title, "updated_at": at}
	var rows []topicRow
	if err := c.do(ctx, http.MethodPatch, tableTopics, q, patch, preferRepresentation, &rows); err != nil {
		return store.Topic{}, fmt.Errorf("rename topic: %w", err)
	}
	if len(rows) == 0 {
		return store.Topic{}, fmt.Errorf("rename topic: %w", store.ErrNotFound)
	}
	return rows[0].topic(), nil
}

// DeleteTopic removes a topic; messages cascade in the database.
func (c *Client) DeleteTopic(ctx context.Context, visitorID, topicID string) error {
	q := url.Values{"id": {eq(topicID)}, "visitor_id": {eq(visitorID)}}
	var rows []topicRow
	if err := c.do(ctx, http.MethodDelete, tableTopics, q, nil, preferRepresentation, &rows); err != nil {
		return fmt.Errorf("delete topic: %w", err)
	}
	if len(rows) == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListMessages returns the newest limit messages of a topic, oldest first.
func (c *Client) ListMessages(ctx context.Context, topicID string, limit int) ([]store.Message, error) {
	if limit <= 0 {
		limit = defaultMessageLimit
	}
	q := url.Values{
		"select":   {"*"},
		"topic_id": {eq(topicID)},
		"order":    {"created_at.desc"},
		"limit":    {strconv.Itoa(limit)},
	}
	var rows []messageRow
	if err := c.do(ctx, http.MethodGet, tableMessages, q, nil, "", &rows); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	out := make([]store.Message, len(rows))
	for i, r := range rows {
		out[len(rows)-1-i] = r.message()
	}
	return out, nil
}

// AppendMessage bumps the topic's updated_at, which doubles as the existence
// check, and then inserts the message.
func (c *Client) AppendMessage(ctx context.Context, msg store.Message) (store.Message, error) {
	if err := msg.Validate(); err != nil {
		return store.Message{}, err
	}
	q := url.Values{"id": {eq(msg.TopicID)}}
	var topics []topicRow
	patch := map[string]any{"updated_at": msg.CreatedAt}
	if err := c.do(ctx, http.MethodPatch, tableTopics, q, patch, preferRepresentation, &topics); err != nil {
		return store.Message{}, fmt.Errorf("touch topic: %w", err)
	}
	if len(topics) == 0 {
		return store.Message{}, fmt.Errorf("append message: %w", store.ErrNotFound)
	}

	row := messageRow{
		ID:        msg.ID,
		TopicID:   msg.TopicID,
		Role:      string(msg.Role),
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
	var rows []messageRow
	if err := c.do(ctx, http.MethodPost, tableMessages, nil, row, preferRepresentation, &rows); err != nil {
		return store.Message{}, fmt.Errorf("insert message: %w", err)
	}
	if len(rows) == 0 {
		return msg, nil
	}
	return rows[0].message(), nil
}
