package api

import (
	"errors"
	"net/http"

	"github.com/visitmakkah/visitmakkah/internal/chatkit"
	"github.com/visitmakkah/visitmakkah/internal/metrics"
)

func (s *Server) createChatSession(w http.ResponseWriter, r *http.Request) {
	v := visitorFrom(r.Context())
	if s.deps.Sessions == nil {
		metrics.ObserveChatSession("unconfigured")
		fail(w, r, chatkit.ErrNotConfigured)
		return
	}
	if s.deps.SessionLimiter != nil && !s.deps.SessionLimiter.Allow(s.limitKey(r)) {
		metrics.ObserveChatSession("rate_limited")
		writeError(w, http.StatusTooManyRequests, "too many requests")
		return
	}
	session, err := s.deps.Sessions.CreateSession(r.Context(), v.ID)
	if err != nil {
		outcome := "error"
		if errors.Is(err, chatkit.ErrNotConfigured) {
			outcome = "unconfigured"
		}
		metrics.ObserveChatSession(outcome)
		fail(w, r, err)
		return
	}
	metrics.ObserveChatSession("created")
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, chatSessionResponse(session))
}
