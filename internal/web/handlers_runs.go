package web

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/render"

	"github.com/JonMunkholm/moderation/internal/audit"
)

// maxRunsLimit caps ?limit on the runs listing.
const maxRunsLimit = 500

// handleListRuns returns the most recent runs, newest first.
//
// Query: limit (default 50, max 500), format=csv for a download.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := min(parseIntParam(r, "limit", audit.DefaultRecentLimit), maxRunsLimit)

	runs, err := s.recorder.Recent(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("list runs: %w", err))
		return
	}
	if runs == nil {
		runs = []audit.Run{}
	}

	if r.URL.Query().Get("format") == "csv" {
		s.writeRunsCSV(w, r, runs)
		return
	}
	render.JSON(w, r, runs)
}

var runsCSVHeader = []string{
	"ID", "Timestamp", "Kind", "Profile", "Files", "Field", "IP Address",
	"Rows", "No Issue", "Has Issue", "Match", "Mismatch", "Coerced Cells",
	"Error Code", "Duration (ms)",
}

func (s *Server) writeRunsCSV(w http.ResponseWriter, r *http.Request, runs []audit.Run) {
	filename := fmt.Sprintf("analysis_runs_%s.csv", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	cw := csv.NewWriter(w)
	if err := cw.Write(runsCSVHeader); err != nil {
		return
	}
	for _, run := range runs {
		if err := cw.Write([]string{
			run.ID.String(),
			run.CreatedAt.Format("2006-01-02 15:04:05"),
			string(run.Kind),
			run.Profile,
			strings.Join(run.Files, "; "),
			run.Field,
			run.IPAddress,
			strconv.Itoa(run.Rows),
			strconv.Itoa(run.NoIssueCount),
			strconv.Itoa(run.HasIssueCount),
			strconv.Itoa(run.MatchCount),
			strconv.Itoa(run.MismatchCount),
			strconv.Itoa(run.CoercedCells),
			run.ErrorCode,
			strconv.FormatInt(run.Duration.Milliseconds(), 10),
		}); err != nil {
			break
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		// Headers are already sent.
		s.logRequestError(r, "write runs csv", err)
	}
}
