package supabase

import (
	"time"

	"github.com/visitmakkah/visitmakkah/internal/store"
)

const (
	tableTopics   = "chat_topics"
	tableMessages = "chat_messages"
	tableWidgets  = "saved_widgets"
	tableVisitors = "visitors"

	preferRepresentation = "return=representation"
)

type topicRow struct {
	ID        string    `json:"id"`
	VisitorID string    `json:"visitor_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func topicToRow(t store.Topic) topicRow {
	return topicRow(t)
}

func (r topicRow) topic() store.Topic {
	return store.Topic(r)
}

type messageRow struct {
	ID        string    `json:"id"`
	TopicID   string    `json:"topic_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func (r messageRow) message() store.Message {
	return store.Message{
		ID:        r.ID,
		TopicID:   r.TopicID,
		Role:      store.Role(r.Role),
		Content:   r.Content,
		CreatedAt: r.CreatedAt,
	}
}

type widgetRow struct {
	ID        string         `json:"id"`
	VisitorID string         `json:"visitor_id"`
	Kind      string         `json:"kind"`
	Key       string         `json:"key"`
	Title     string         `json:"title"`
	Config    map[string]any `json:"config"`
	Position  int            `json:"position"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func widgetToRow(w store.Widget) widgetRow {
	row := widgetRow(w)
	if row.Config == nil {
		row.Config = map[string]any{}
	}
	return row
}

func (r widgetRow) widget() store.Widget {
	w := store.Widget(r)
	if w.Config == nil {
		w.Config = map[string]any{}
	}
	return w
}

type visitorRow struct {
	ID         string    `json:"id"`
	FirstSeen  time.Time `json:"first_seen"`
	LastSeen   time.Time `json:"last_seen"`
	VisitCount int64     `json:"visit_count"`
	LastPath   string    `json:"last_path"`
	Referrer   string    `json:"referrer"`
	UserAgent  string    `json:"user_agent"`
	Country    string    `json:"country"`
	IPHash     string    `json:"ip_hash"`
}

func (r visitorRow) visitor() store.Visitor {
	return store.Visitor(r)
}
