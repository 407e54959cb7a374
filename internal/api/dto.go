package api

import (
	"time"

	"github.com/visitmakkah/visitmakkah/internal/store"
)

type topicResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newTopicResponse(t store.Topic) topicResponse {
	return topicResponse{ID: t.ID, Title: t.Title, CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt}
}

type messageResponse struct {
	ID        string    `json:"id"`
	TopicID   string    `json:"topic_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func newMessageResponse(m store.Message) messageResponse {
	return messageResponse{ID: m.ID, TopicID: m.TopicID, Role: string(m.Role), Content: m.Content, CreatedAt: m.CreatedAt}
}

type widgetResponse struct {
	ID        string         `json:"id"`
	Kind      string         `json:"kind"`
	Key       string         `json:"key"`
	Title     string         `json:"title"`
	Config    map[string]any `json:"config"`
	Position  int            `json:"position"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func newWidgetResponse(w store.Widget) widgetResponse {
	cfg := w.Config
	if cfg == nil {
		cfg = map[string]any{}
	}
	return widgetResponse{
		ID:        w.ID,
		Kind:      w.Kind,
		Key:       w.Key,
		Title:     w.Title,
		Config:    cfg,
		Position:  w.Position,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

type visitorResponse struct {
	VisitorID  string    `json:"visitor_id"`
	FirstSeen  time.Time `json:"first_seen"`
	LastSeen   time.Time `json:"last_seen"`
	VisitCount int64     `json:"visit_count"`
	Country    string    `json:"country,omitempty"`
}

func newVisitorResponse(v store.Visitor) visitorResponse {
	return visitorResponse{
		VisitorID:  v.ID,
		FirstSeen:  v.FirstSeen,
		LastSeen:   v.LastSeen,
		VisitCount: v.VisitCount,
		Country:    v.Country,
	}
}

type trackRequest struct {
	Path     string `json:"path" validate:"required,startswith=/,max=2048"`
	Referrer string `json:"referrer" validate:"omitempty,max=2048"`
}

type createTopicRequest struct {
	Title string `json:"title" validate:"omitempty,max=200"`
}

type renameTopicRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}

type appendMessageRequest struct {
	Role    string `json:"role" validate:"omitempty,oneof=user assistant"`
	Content string `json:"content" validate:"required,max=16000"`
}

type saveWidgetRequest struct {
	Kind     string         `json:"kind" validate:"required,max=64,slug"`
	Key      string         `json:"key" validate:"required,max=128"`
	Title    string         `json:"title" validate:"omitempty,max=200"`
	Config   map[string]any `json:"config"`
	Position int            `json:"position" validate:"gte=0,max=1000"`
}

type chatSessionResponse struct {
	ClientSecret string    `json:"client_secret"`
	ExpiresAt    time.Time `json:"expires_at"`
}
