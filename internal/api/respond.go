package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/visitmakkah/visitmakkah/internal/chatkit"
	"github.com/visitmakkah/visitmakkah/internal/content"
	"github.com/visitmakkah/visitmakkah/internal/seo"
	"github.com/visitmakkah/visitmakkah/internal/store"
)

const maxBodyBytes = 64 << 10

var (
	validate    = newValidator()
	slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	return v
}

// errorResponse is the uniform error body.
type errorResponse struct {
	Error   string            `json:"error"`
	Details []validationIssue `json:"details,omitempty"`
}

type validationIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// errBadRequest marks client input errors raised by the handlers themselves.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// fail logs err and writes the generic error JSON matching its class.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := classify(err)
	logger := logFor(r)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	default:
		logger.Info("request rejected", zap.Int("status", status), zap.Error(err))
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		writeJSON(w, status, errorResponse{Error: msg, Details: validationDetails(verrs)})
		return
	}
	writeError(w, status, msg)
}

func classify(err error) (int, string) {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs), errors.Is(err, errBadRequest), errors.Is(err, store.ErrInvalid):
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, content.ErrNotFound),
		errors.Is(err, seo.ErrPageOutOfRange),
		errors.Is(err, seo.ErrUnknownKeyword),
		errors.Is(err, seo.ErrUnknownCountry),
		errors.Is(err, seo.ErrUnknownSitemap):
		return http.StatusNotFound, "not found"
	case errors.Is(err, chatkit.ErrNotConfigured):
		return http.StatusServiceUnavailable, "service unavailable"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// decodeJSON reads a bounded JSON body into dst and validates it.
func decodeJSON(r *http.Request, dst any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return badRequest("decode body: %v", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return badRequest("body must contain a single JSON object")
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("validate body: %w", err)
	}
	return nil
}

func validationDetails(verrs validator.ValidationErrors) []validationIssue {
	out := make([]validationIssue, 0, len(verrs))
	for _, e := range verrs {
		out = append(out, validationIssue{Field: e.Field(), Message: validationMessage(e)})
	}
	return out
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "min", "gte":
		return "Must be at least " + e.Param()
	case "oneof":
		return "Must be one of: " + e.Param()
	case "slug":
		return "Must contain only lowercase letters, digits, '-' or '_'"
	default:
		return "Invalid value"
	}
}
