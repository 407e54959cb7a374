package api

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/visitmakkah/visitmakkah/internal/metrics"
	"github.com/visitmakkah/visitmakkah/internal/publisher"
	"github.com/visitmakkah/visitmakkah/internal/store"
)

const maxUserAgentLen = 512

func (s *Server) trackVisitor(w http.ResponseWriter, r *http.Request) {
	v, err := s.resolveVisitor(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if s.deps.TrackLimiter != nil && !s.deps.TrackLimiter.Allow(s.limitKey(r)) {
		writeError(w, http.StatusTooManyRequests, "too many requests")
		return
	}
	var req trackRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}

	ua := truncateUTF8(r.UserAgent(), maxUserAgentLen)
	ipHash := ""
	if s.deps.IPHasher != nil {
		ipHash = s.deps.IPHasher.HashString(clientIP(r))
	}
	now := s.deps.Clock.Now()
	stored, err := s.deps.Repos.Visitors.TouchVisitor(r.Context(), store.Visitor{
		ID:        v.ID,
		LastSeen:  now,
		LastPath:  req.Path,
		Referrer:  strings.TrimSpace(req.Referrer),
		UserAgent: ua,
		Country:   clientCountry(r),
		IPHash:    ipHash,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	metrics.ObserveVisitorEvent("track")
	s.publish(r, publisher.Event{
		Type:      publisher.EventVisitorSeen,
		VisitorID: stored.ID,
		Path:      req.Path,
		At:        now,
		Attributes: map[string]string{
			"country":  stored.Country,
			"referrer": stored.Referrer,
		},
	})

	status := http.StatusOK
	if v.New || stored.VisitCount == 1 {
		status = http.StatusCreated
	}
	writeJSON(w, status, newVisitorResponse(stored))
}

func (s *Server) currentVisitor(w http.ResponseWriter, r *http.Request) {
	v := visitorFrom(r.Context())
	stored, err := s.deps.Repos.Visitors.GetVisitor(r.Context(), v.ID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newVisitorResponse(stored))
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// publish emits an event; failures are logged and never fail the request.
func (s *Server) publish(r *http.Request, ev publisher.Event) {
	if _, err := s.deps.Publisher.Publish(r.Context(), ev.Type, ev); err != nil {
		logFor(r).Warn("publish event failed", zap.String("event", ev.Type), zap.Error(err))
	}
}
