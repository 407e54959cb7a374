package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/visitmakkah/visitmakkah/internal/id/uuid"
	"github.com/visitmakkah/visitmakkah/internal/metrics"
	"github.com/visitmakkah/visitmakkah/internal/publisher"
	"github.com/visitmakkah/visitmakkah/internal/store"
)

const (
	defaultTopicLimit   = 50
	maxTopicLimit       = 100
	defaultMessageLimit = 200
	maxMessageLimit     = 500
)

func (s *Server) listTopics(w http.ResponseWriter, r *http.Request) {
	limit, err := limitParam(r, defaultTopicLimit, maxTopicLimit)
	if err != nil {
		fail(w, r, err)
		return
	}
	v := visitorFrom(r.Context())
	topics, err := s.deps.Repos.Chat.ListTopics(r.Context(), v.ID, limit)
	if err != nil {
		fail(w, r, err)
		return
	}
	out := make([]topicResponse, 0, len(topics))
	for _, t := range topics {
		out = append(out, newTopicResponse(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{"topics": out})
}

func (s *Server) createTopic(w http.ResponseWriter, r *http.Request) {
	var req createTopicRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = store.DefaultTopicTitle
	}
	id, err := s.deps.IDs.NewID()
	if err != nil {
		fail(w, r, err)
		return
	}
	v := visitorFrom(r.Context())
	now := s.deps.Clock.Now()
	topic, err := s.deps.Repos.Chat.CreateTopic(r.Context(), store.Topic{
		ID:        id,
		VisitorID: v.ID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	metrics.ObserveVisitorEvent("topic")
	s.publish(r, publisher.Event{
		Type:       publisher.EventTopicCreated,
		VisitorID:  v.ID,
		ResourceID: topic.ID,
		At:         now,
	})
	writeJSON(w, http.StatusCreated, newTopicResponse(topic))
}

func (s *Server) renameTopic(w http.ResponseWriter, r *http.Request) {
	topicID, err := pathID(r, "topic_id")
	if err != nil {
		fail(w, r, err)
		return
	}
	var req renameTopicRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		fail(w, r, badRequest("title is blank"))
		return
	}
	v := visitorFrom(r.Context())
	topic, err := s.deps.Repos.Chat.RenameTopic(r.Context(), v.ID, topicID, title, s.deps.Clock.Now())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTopicResponse(topic))
}

func (s *Server) deleteTopic(w http.ResponseWriter, r *http.Request) {
	topicID, err := pathID(r, "topic_id")
	if err != nil {
		fail(w, r, err)
		return
	}
	v := visitorFrom(r.Context())
	if err := s.deps.Repos.Chat.DeleteTopic(r.Context(), v.ID, topicID); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	topicID, err := pathID(r, "topic_id")
	if err != nil {
		fail(w, r, err)
		return
	}
	limit, err := limitParam(r, defaultMessageLimit, maxMessageLimit)
	if err != nil {
		fail(w, r, err)
		return
	}
	v := visitorFrom(r.Context())
	topic, err := s.deps.Repos.Chat.GetTopic(r.Context(), v.ID, topicID)
	if err != nil {
		fail(w, r, err)
		return
	}
	msgs, err := s.deps.Repos.Chat.ListMessages(r.Context(), topic.ID, limit)
	if err != nil {
		fail(w, r, err)
		return
	}
	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, newMessageResponse(m))
	}
	writeJSON(w, http.StatusOK, map[string]any{"topic": newTopicResponse(topic), "messages": out})
}

// appendMessage stores one turn. The first user message of an untitled topic
// becomes its title.
func (s *Server) appendMessage(w http.ResponseWriter, r *http.Request) {
	topicID, err := pathID(r, "topic_id")
	if err != nil {
		fail(w, r, err)
		return
	}
	var req appendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	role := store.Role(req.Role)
	if role == "" {
		role = store.RoleUser
	}
	v := visitorFrom(r.Context())
	topic, err := s.deps.Repos.Chat.GetTopic(r.Context(), v.ID, topicID)
	if err != nil {
		fail(w, r, err)
		return
	}
	id, err := s.deps.IDs.NewID()
	if err != nil {
		fail(w, r, err)
		return
	}
	now := s.deps.Clock.Now()
	msg, err := s.deps.Repos.Chat.AppendMessage(r.Context(), store.Message{
		ID:        id,
		TopicID:   topic.ID,
		Role:      role,
		Content:   req.Content,
		CreatedAt: now,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	if role == store.RoleUser && topic.Title == store.DefaultTopicTitle {
		if _, err := s.deps.Repos.Chat.RenameTopic(r.Context(), v.ID, topic.ID, store.TitleFromContent(req.Content), now); err != nil {
			fail(w, r, err)
			return
		}
	}
	metrics.ObserveVisitorEvent("message")
	writeJSON(w, http.StatusCreated, newMessageResponse(msg))
}

// pathID reads a UUID path parameter. Any other value cannot name a stored
// row and is reported as not found.
func pathID(r *http.Request, name string) (string, error) {
	id, ok := uuid.Normalize(chi.URLParam(r, name))
	if !ok {
		return "", store.ErrNotFound
	}
	return id, nil
}

// limitParam parses ?limit=, clamping it to [1, max].
func limitParam(r *http.Request, def, max int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest("limit must be an integer")
	}
	if n < 1 {
		n = 1
	}
	if n > max {
		n = max
	}
	return n, nil
}

// intParam parses an optional integer query parameter.
func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest("%s must be an integer", name)
	}
	return n, nil
}
