package api

import (
	"net/http"
	"strings"

	"github.com/visitmakkah/visitmakkah/internal/metrics"
	"github.com/visitmakkah/visitmakkah/internal/publisher"
	"github.com/visitmakkah/visitmakkah/internal/store"
)

func (s *Server) listWidgets(w http.ResponseWriter, r *http.Request) {
	v := visitorFrom(r.Context())
	widgets, err := s.deps.Repos.Widgets.ListWidgets(r.Context(), v.ID)
	if err != nil {
		fail(w, r, err)
		return
	}
	out := make([]widgetResponse, 0, len(widgets))
	for _, wd := range widgets {
		out = append(out, newWidgetResponse(wd))
	}
	writeJSON(w, http.StatusOK, map[string]any{"widgets": out})
}

func (s *Server) saveWidget(w http.ResponseWriter, r *http.Request) {
	var req saveWidgetRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	id, err := s.deps.IDs.NewID()
	if err != nil {
		fail(w, r, err)
		return
	}
	v := visitorFrom(r.Context())
	now := s.deps.Clock.Now()
	saved, err := s.deps.Repos.Widgets.SaveWidget(r.Context(), store.Widget{
		ID:        id,
		VisitorID: v.ID,
		Kind:      req.Kind,
		Key:       strings.TrimSpace(req.Key),
		Title:     strings.TrimSpace(req.Title),
		Config:    req.Config,
		Position:  req.Position,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	metrics.ObserveVisitorEvent("widget")
	s.publish(r, publisher.Event{
		Type:       publisher.EventWidgetSaved,
		VisitorID:  v.ID,
		ResourceID: saved.ID,
		At:         now,
		Attributes: map[string]string{"kind": saved.Kind},
	})
	status := http.StatusOK
	if saved.ID == id {
		status = http.StatusCreated
	}
	writeJSON(w, status, newWidgetResponse(saved))
}

func (s *Server) deleteWidget(w http.ResponseWriter, r *http.Request) {
	widgetID, err := pathID(r, "widget_id")
	if err != nil {
		fail(w, r, err)
		return
	}
	v := visitorFrom(r.Context())
	if err := s.deps.Repos.Widgets.DeleteWidget(r.Context(), v.ID, widgetID); err != nil {
		fail(w, r, err)
		return
	}
	s.publish(r, publisher.Event{
		Type:       publisher.EventWidgetDeleted,
		VisitorID:  v.ID,
		ResourceID: widgetID,
		At:         s.deps.Clock.Now(),
	})
	w.WriteHeader(http.StatusNoContent)
}
