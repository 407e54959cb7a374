package store

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound signals that the requested record does not exist or belongs to
// another visitor.
var ErrNotFound = errors.New("record not found")

// ErrInvalid signals a record that fails basic field checks.
var ErrInvalid = errors.New("invalid record")

// Role identifies the author of a chat message.
type Role string

// Chat message roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	default:
		return false
	}
}

// DefaultTopicTitle is used when a topic is created without a title.
const DefaultTopicTitle = "New conversation"

// maxTitleRunes bounds derived topic titles.
const maxTitleRunes = 80

// Topic is one chat conversation owned by a visitor.
type Topic struct {
	ID        string
	VisitorID string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is one turn inside a Topic.
type Message struct {
	ID        string
	TopicID   string
	Role      Role
	Content   string
	CreatedAt time.Time
}

// Validate checks the message fields the database would otherwise reject.
func (m Message) Validate() error {
	if m.TopicID == "" {
		return errors.Join(ErrInvalid, errors.New("topic id is required"))
	}
	if !m.Role.Valid() {
		return errors.Join(ErrInvalid, errors.New("unknown role"))
	}
	if strings.TrimSpace(m.Content) == "" {
		return errors.Join(ErrInvalid, errors.New("content is required"))
	}
	return nil
}

// Widget is a dashboard widget a visitor saved (prayer times, weather,
// checklist, currency converter, countdown).
type Widget struct {
	ID        string
	VisitorID string
	Kind      string
	Key       string
	Title     string
	Config    map[string]any
	Position  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Visitor is an anonymous site visitor identified by a cookie.
type Visitor struct {
	ID         string
	FirstSeen  time.Time
	LastSeen   time.Time
	VisitCount int64
	LastPath   string
	Referrer   string
	UserAgent  string
	Country    string
	IPHash     string
}

// ChatRepository persists chat topics and their messages.
type ChatRepository interface {
	// ListTopics returns the visitor's topics, most recently updated first.
	ListTopics(ctx context.Context, visitorID string, limit int) ([]Topic, error)
	// CreateTopic inserts a topic and returns the stored row.
	CreateTopic(ctx context.Context, topic Topic) (Topic, error)
	// GetTopic loads a topic owned by visitorID.
	GetTopic(ctx context.Context, visitorID, topicID string) (Topic, error)
	// RenameTopic updates the title of a topic owned by visitorID.
	RenameTopic(ctx context.Context, visitorID, topicID, title string, at time.Time) (Topic, error)
	// DeleteTopic removes a topic owned by visitorID together with its messages.
	DeleteTopic(ctx context.Context, visitorID, topicID string) error
	// ListMessages returns a topic's messages oldest first.
	ListMessages(ctx context.Context, topicID string, limit int) ([]Message, error)
	// AppendMessage inserts a message and bumps the topic's updated_at.
	AppendMessage(ctx context.Context, msg Message) (Message, error)
}

// WidgetRepository persists saved widgets.
type WidgetRepository interface {
	// ListWidgets returns the visitor's widgets ordered by position.
	ListWidgets(ctx context.Context, visitorID string) ([]Widget, error)
	// SaveWidget inserts or updates the widget keyed by (visitor, kind, key).
	SaveWidget(ctx context.Context, widget Widget) (Widget, error)
	// DeleteWidget removes a widget owned by visitorID.
	DeleteWidget(ctx context.Context, visitorID, widgetID string) error
}

// VisitorRepository persists anonymous visitor identity.
type VisitorRepository interface {
	// TouchVisitor inserts the visitor on first sight, otherwise bumps
	// last_seen, visit_count and last_path. The stored row is returned.
	TouchVisitor(ctx context.Context, visitor Visitor) (Visitor, error)
	// GetVisitor loads a visitor by ID.
	GetVisitor(ctx context.Context, visitorID string) (Visitor, error)
}

// Repositories bundles the three repositories behind one backend.
type Repositories struct {
	Chat     ChatRepository
	Widgets  WidgetRepository
	Visitors VisitorRepository
}

// TitleFromContent derives a topic title from the first user message.
func TitleFromContent(content string) string {
	title := strings.Join(strings.Fields(content), " ")
	if title == "" {
		return DefaultTopicTitle
	}
	runes := []rune(title)
	if len(runes) > maxTitleRunes {
		title = strings.TrimSpace(string(runes[:maxTitleRunes-1])) + "…"
	}
	return title
}
