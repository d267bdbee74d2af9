package web

import (
	"net/http"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/moderation/internal/logging"
)

// parseIntParam parses a positive integer query parameter with a default.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// renderPage writes a full HTML page. templ buffers the output, so a render
// failure still produces a clean 500.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, c templ.Component) {
	templ.Handler(c, templ.WithErrorHandler(func(r *http.Request, err error) http.Handler {
		s.logRequestError(r, "render page", err)
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "An unexpected error occurred (ERR000)", http.StatusInternalServerError)
		})
	})).ServeHTTP(w, r)
}

// logRequestError logs an error that cannot be reported to the client.
func (s *Server) logRequestError(r *http.Request, msg string, err error) {
	logging.FromContext(r.Context()).Error(msg,
		"path", r.URL.Path,
		"error", err,
	)
}
