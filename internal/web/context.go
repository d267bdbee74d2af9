package web

import (
	"net/http"

	"github.com/JonMunkholm/moderation/internal/audit"
)

// clientMetadata stores the client IP and User-Agent on the request context
// for the run journal. It runs after TrustedRealIP, so RemoteAddr is already
// the client address.
func clientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := audit.ContextWithClient(r.Context(), r.RemoteAddr, r.UserAgent())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
