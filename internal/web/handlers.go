package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/JonMunkholm/moderation/internal/core"
	"github.com/JonMunkholm/moderation/internal/web/templates"
)

// healthTimeout bounds the database ping in /healthz.
const healthTimeout = 2 * time.Second

// handleIndex renders the upload page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, templates.Index(templates.IndexView{
		Profiles:       core.All(),
		DefaultProfile: s.cfg.Analysis.DefaultProfile,
		Categories:     s.classifier != nil,
		MaxFileSize:    s.cfg.Upload.MaxFileSize,
	}))
}

// handleListProfiles returns every registered profile, sorted by key.
func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, core.All())
}

type healthResponse struct {
	Status     string                     `json:"status"`
	Analyses   core.AnalysisLimiterStatus `json:"analyses"`
	Classifier string                     `json:"classifier"`
	Database   string                     `json:"database,omitempty"`
}

// handleHealth reports limiter occupancy and, when a database backs the
// journal, whether it answers. An unreachable database yields 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:     "ok",
		Analyses:   s.limiter.Status(),
		Classifier: "none",
	}
	if named, ok := s.classifier.(interface{ Name() string }); ok {
		resp.Classifier = named.Name()
	} else if s.classifier != nil {
		resp.Classifier = "custom"
	}

	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		resp.Database = "ok"
		if err := s.db.Ping(ctx); err != nil {
			s.logRequestError(r, "health: database ping", err)
			resp.Status = "degraded"
			resp.Database = "unreachable"
			render.Status(r, http.StatusServiceUnavailable)
		}
	}
	render.JSON(w, r, resp)
}
