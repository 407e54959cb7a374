package api

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/visitmakkah/visitmakkah/internal/id/uuid"
)

const visitorHeader = "X-Visitor-ID"

type visitorKey struct{}

// visitorIdentity is the resolved anonymous visitor of a request.
type visitorIdentity struct {
	ID  string
	New bool
}

// resolveVisitor reads the visitor ID from the X-Visitor-ID header or the
// visitor cookie. A malformed header is a client error; a malformed or
// missing cookie yields a freshly issued ID.
func (s *Server) resolveVisitor(w http.ResponseWriter, r *http.Request) (visitorIdentity, error) {
	if raw := r.Header.Get(visitorHeader); raw != "" {
		id, ok := uuid.Normalize(raw)
		if !ok {
			return visitorIdentity{}, badRequest("malformed %s header", visitorHeader)
		}
		return visitorIdentity{ID: id}, nil
	}
	if c, err := r.Cookie(s.cfg.Visitor.CookieName); err == nil {
		if id, ok := uuid.Normalize(c.Value); ok {
			return visitorIdentity{ID: id}, nil
		}
	}
	id, err := s.deps.IDs.NewID()
	if err != nil {
		return visitorIdentity{}, err
	}
	s.setVisitorCookie(w, id)
	return visitorIdentity{ID: id, New: true}, nil
}

func (s *Server) setVisitorCookie(w http.ResponseWriter, id string) {
	maxAge := s.cfg.Visitor.CookieMaxDays
	if maxAge <= 0 {
		maxAge = 365
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Visitor.CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int((time.Duration(maxAge) * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.Visitor.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) visitorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v, err := s.resolveVisitor(w, r)
		if err != nil {
			fail(w, r, err)
			return
		}
		logger := logFor(r).With(zap.String("visitor_id", v.ID))
		ctx := context.WithValue(r.Context(), visitorKey{}, v)
		next.ServeHTTP(w, r.WithContext(withLogger(ctx, logger)))
	})
}

func visitorFrom(ctx context.Context) visitorIdentity {
	v, _ := ctx.Value(visitorKey{}).(visitorIdentity)
	return v
}

// clientIP prefers the first X-Forwarded-For hop set by the load balancer.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first := strings.TrimSpace(strings.Split(fwd, ",")[0])
		if net.ParseIP(first) != nil {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// limitKey keys rate limits on the client address so that rotating or
// omitting the visitor ID does not reset a caller's budget.
func (s *Server) limitKey(r *http.Request) string {
	ip := clientIP(r)
	if s.deps.IPHasher != nil {
		return s.deps.IPHasher.HashString(ip)
	}
	return ip
}

// countryHeaders are set by common CDNs and load balancers.
var countryHeaders = []string{"CF-IPCountry", "X-Appengine-Country", "X-Country-Code"}

func clientCountry(r *http.Request) string {
	for _, h := range countryHeaders {
		v := strings.ToUpper(strings.TrimSpace(r.Header.Get(h)))
		if len(v) == 2 && v != "XX" {
			return v
		}
	}
	return ""
}
