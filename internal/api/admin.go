package api

import (
	"net/http"

	"github.com/visitmakkah/visitmakkah/internal/publisher"
)

func (s *Server) purgeCache(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Content.Purge(r.Context()); err != nil {
		fail(w, r, err)
		return
	}
	logFor(r).Info("content cache purged")
	s.publish(r, publisher.Event{Type: publisher.EventCachePurged, At: s.deps.Clock.Now()})
	writeJSON(w, http.StatusOK, map[string]string{"status": "purged"})
}
