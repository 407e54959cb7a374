package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/visitmakkah/visitmakkah/internal/store"
)

// Repositories implements the chat, widget and visitor repositories on maps.
// It backs local development when no database is configured.
type Repositories struct {
	mu       sync.RWMutex
	topics   map[string]store.Topic
	messages map[string][]store.Message
	widgets  map[string]store.Widget
	visitors map[string]store.Visitor
}

// NewRepositories constructs empty in-memory repositories.
func NewRepositories() *Repositories {
	return &Repositories{
		topics:   make(map[string]store.Topic),
		messages: make(map[string][]store.Message),
		widgets:  make(map[string]store.Widget),
		visitors: make(map[string]store.Visitor),
	}
}

// Bundle exposes r through the store.Repositories aggregate.
func (r *Repositories) Bundle() store.Repositories {
	return store.Repositories{Chat: r, Widgets: r, Visitors: r}
}

// ListTopics returns the visitor's topics, most recently updated first.
func (r *Repositories) ListTopics(_ context.Context, visitorID string, limit int) ([]store.Topic, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]store.Topic, 0)
	for _, t := range r.topics {
		if t.VisitorID == visitorID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CreateTopic stores a topic.
func (r *Repositories) CreateTopic(_ context.Context, topic store.Topic) (store.Topic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics[topic.ID] = topic
	return topic, nil
}

// GetTopic loads a topic owned by visitorID.
func (r *Repositories) GetTopic(_ context.Context, visitorID, topicID string) (store.Topic, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.topics[topicID]
	if !ok || t.VisitorID != visitorID {
		return store.Topic{}, store.ErrNotFound
	}
	return t, nil
}

// RenameTopic updates a topic title.
func (r *Repositories) RenameTopic(
	_ context.Context,
	visitorID, topicID, title string,
	at time.Time,
) (store.Topic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.topics[topicID]
	if !ok || t.VisitorID != visitorID {
		return store.Topic{}, store.ErrNotFound
	}
	t.Title = title
	t.UpdatedAt = at
	r.topics[topicID] = t
	return t, nil
}

// DeleteTopic removes a topic and its messages.
func (r *Repositories) DeleteTopic(_ context.Context, visitorID, topicID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.topics[topicID]
	if !ok || t.VisitorID != visitorID {
		return store.ErrNotFound
	}
	delete(r.topics, topicID)
	delete(r.messages, topicID)
	return nil
}

// ListMessages returns a topic's messages oldest first.
func (r *Repositories) ListMessages(_ context.Context, topicID string, limit int) ([]store.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	msgs := r.messages[topicID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]store.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// AppendMessage stores a message and bumps the topic's updated_at.
func (r *Repositories) AppendMessage(_ context.Context, msg store.Message) (store.Message, error) {
	if err := msg.Validate(); err != nil {
		return store.Message{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.topics[msg.TopicID]
	if !ok {
		return store.Message{}, store.ErrNotFound
	}
	r.messages[msg.TopicID] = append(r.messages[msg.TopicID], msg)
	if msg.CreatedAt.After(t.UpdatedAt) {
		t.UpdatedAt = msg.CreatedAt
		r.topics[msg.TopicID] = t
	}
	return msg, nil
}

// ListWidgets returns the visitor's widgets ordered by position.
func (r *Repositories) ListWidgets(_ context.Context, visitorID string) ([]store.Widget, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]store.Widget, 0)
	for _, w := range r.widgets {
		if w.VisitorID == visitorID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// SaveWidget inserts or updates the widget keyed by (visitor, kind, key).
func (r *Repositories) SaveWidget(_ context.Context, widget store.Widget) (store.Widget, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, existing := range r.widgets {
		if existing.VisitorID == widget.VisitorID && existing.Kind == widget.Kind && existing.Key == widget.Key {
			widget.ID = id
			widget.CreatedAt = existing.CreatedAt
			break
		}
	}
	r.widgets[widget.ID] = widget
	return widget, nil
}

// DeleteWidget removes a widget owned by visitorID.
func (r *Repositories) DeleteWidget(_ context.Context, visitorID, widgetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.widgets[widgetID]
	if !ok || w.VisitorID != visitorID {
		return store.ErrNotFound
	}
	delete(r.widgets, widgetID)
	return nil
}

// TouchVisitor inserts or refreshes a visitor.
func (r *Repositories) TouchVisitor(_ context.Context, v store.Visitor) (store.Visitor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.visitors[v.ID]
	if !ok {
		v.FirstSeen = v.LastSeen
		v.VisitCount = 1
		r.visitors[v.ID] = v
		return v, nil
	}
	existing.LastSeen = v.LastSeen
	existing.VisitCount++
	existing.LastPath = v.LastPath
	if v.UserAgent != "" {
		existing.UserAgent = v.UserAgent
	}
	if v.Country != "" {
		existing.Country = v.Country
	}
	if v.IPHash != "" {
		existing.IPHash = v.IPHash
	}
	r.visitors[v.ID] = existing
	return existing, nil
}

// GetVisitor loads a visitor by ID.
func (r *Repositories) GetVisitor(_ context.Context, visitorID string) (store.Visitor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.visitors[visitorID]
	if !ok {
		return store.Visitor{}, store.ErrNotFound
	}
	return v, nil
}
