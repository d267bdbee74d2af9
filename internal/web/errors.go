package web

// errors.go turns any handler error into a response.
//
// The technical error is logged with the request ID, the client gets the
// user-facing message from core.MapError, and the status code follows from
// the error code. API callers and clients asking for JSON get an
// ErrorResponse; browsers get an error page.

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"github.com/JonMunkholm/moderation/internal/core"
	"github.com/JonMunkholm/moderation/internal/logging"
	"github.com/JonMunkholm/moderation/internal/web/templates"
)

// ErrorResponse is the JSON body of an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`

	// Missing lists absent required columns per uploaded file.
	Missing map[string][]string `json:"missing,omitempty"`

	status int
}

// Render implements render.Renderer.
func (e *ErrorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.status)
	return nil
}

// statusByCode maps user-facing codes to HTTP status codes.
var statusByCode = map[string]int{
	"VAL004":  http.StatusUnprocessableEntity,
	"VAL005":  http.StatusBadRequest,
	"VAL006":  http.StatusBadRequest,
	"FILE001": http.StatusRequestEntityTooLarge,
	"FILE002": http.StatusUnprocessableEntity,
	"FILE003": http.StatusUnprocessableEntity,
	"FILE004": http.StatusBadRequest,
	"FILE005": http.StatusUnprocessableEntity,
	"FILE006": http.StatusUnsupportedMediaType,
	"CLS001":  http.StatusBadGateway,
	"CLS002":  http.StatusServiceUnavailable,
	"UPL002":  http.StatusServiceUnavailable,
	"UPL004":  http.StatusRequestTimeout,
	"UPL005":  http.StatusGatewayTimeout,
	"RATE001": http.StatusTooManyRequests,
}

// statusFor returns the HTTP status for a user-facing code.
func statusFor(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes the mapped user message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	msg := core.MapError(err)
	status := statusFor(msg.Code)

	logger := logging.FromContext(r.Context())
	args := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", msg.Code,
		"error", err.Error(),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", args...)
	} else {
		logger.Warn("request rejected", args...)
	}

	if status == http.StatusServiceUnavailable && msg.Code == "UPL002" {
		w.Header().Set("Retry-After", "5")
	}

	if wantsJSON(r) {
		resp := &ErrorResponse{
			Error:   msg.Message,
			Message: msg.Message,
			Action:  msg.Action,
			Code:    msg.Code,
			status:  status,
		}
		var schemaErr *core.SchemaError
		if errors.As(err, &schemaErr) {
			resp.Missing = schemaErr.ByTable()
		}
		render.Render(w, r, resp)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.ErrorPage(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
		logger.Warn("render error page", "error", err)
	}
}

// wantsJSON reports whether the client should get JSON rather than HTML.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
