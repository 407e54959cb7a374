// Package publisher defines the site event fanout contract.
package publisher

import (
	"context"
	"time"
)

// Event types emitted by the site.
const (
	EventVisitorSeen   = "visitor.seen"
	EventTopicCreated  = "chat.topic.created"
	EventWidgetSaved   = "widget.saved"
	EventWidgetDeleted = "widget.deleted"
	EventCachePurged   = "content.cache.purged"
	EventSitemapsBuilt = "seo.sitemaps.exported"
)

// Event is the JSON payload published for every site event.
type Event struct {
	Type       string            `json:"type"`
	VisitorID  string            `json:"visitor_id,omitempty"`
	ResourceID string            `json:"resource_id,omitempty"`
	Path       string            `json:"path,omitempty"`
	At         time.Time         `json:"at"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Publisher emits events; topic is the event type.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Discard drops every event. It is used when no broker is configured.
type Discard struct{}

// Publish implements Publisher.
func (Discard) Publish(context.Context, string, any) (string, error) { return "", nil }
