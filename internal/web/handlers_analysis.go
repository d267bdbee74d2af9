package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/moderation/internal/audit"
	"github.com/JonMunkholm/moderation/internal/core"
	"github.com/JonMunkholm/moderation/internal/logging"
	"github.com/JonMunkholm/moderation/internal/sheet"
	"github.com/JonMunkholm/moderation/internal/web/templates"
)

// analyzeResponse is the JSON body of POST /api/analyze.
type analyzeResponse struct {
	RunID   string        `json:"runId"`
	Profile string        `json:"profile"`
	Summary *core.Summary `json:"summary"`
}

// compareResponse is the JSON body of POST /api/compare.
type compareResponse struct {
	RunID   string                 `json:"runId"`
	Profile string                 `json:"profile"`
	Result  *core.ComparisonResult `json:"result"`
	Metrics []core.MetricRow       `json:"metrics"`
}

// handleAnalyze summarises one uploaded report.
//
// Form fields: file, profile, critical, categorize.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	run := audit.NewRun(r.Context(), audit.KindAnalyze, "")
	r = r.WithContext(logging.WithRunID(r.Context(), run.ID.String()))

	profile, summary, err := s.analyze(w, r, &run)
	s.finishRun(r.Context(), &run, err, start)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if wantsJSON(r) {
		render.JSON(w, r, analyzeResponse{
			RunID:   run.ID.String(),
			Profile: profile.Key,
			Summary: summary,
		})
		return
	}
	s.renderPage(w, r, templates.Analysis(templates.AnalysisView{
		RunID:   run.ID.String(),
		Profile: profile,
		Summary: summary,
	}))
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request, run *audit.Run) (core.Profile, *core.Summary, error) {
	ctx := r.Context()
	if err := s.limiter.Acquire(ctx); err != nil {
		return core.Profile{}, nil, err
	}
	defer s.limiter.Release()

	if err := s.parseForm(w, r, 1); err != nil {
		return core.Profile{}, nil, err
	}
	profile, err := s.resolveProfile(r)
	if err != nil {
		return core.Profile{}, nil, err
	}
	run.Profile = profile.Key

	up, err := s.openUpload(r, "file")
	if err != nil {
		return profile, nil, err
	}
	run.Files = []string{up.name}

	tbl, err := up.decode()
	if err != nil {
		return profile, nil, err
	}

	opts := core.SummaryOptions{
		Required:      profile.Required,
		CriticalCases: formBool(r, "critical"),
	}
	if formBool(r, "categorize") {
		if opts.Classifier, err = s.classifierFor(); err != nil {
			return profile, nil, err
		}
	}

	summary, err := core.Summarize(ctx, tbl, opts)
	if err != nil {
		return profile, nil, err
	}
	run.Succeed(summary)
	s.metrics.ObserveSummary(summary)
	return profile, summary, nil
}

// handleCompare joins two uploaded reports on a key column.
//
// Form fields: file1, file2, profile, field, join_key.
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	run := audit.NewRun(r.Context(), audit.KindCompare, "")
	r = r.WithContext(logging.WithRunID(r.Context(), run.ID.String()))

	profile, resp, err := s.compare(w, r, &run)
	s.finishRun(r.Context(), &run, err, start)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	resp.RunID = run.ID.String()
	resp.Profile = profile.Key
	if wantsJSON(r) {
		render.JSON(w, r, resp)
		return
	}
	s.renderPage(w, r, templates.Comparison(templates.ComparisonView{
		RunID:   resp.RunID,
		Profile: profile,
		Result:  resp.Result,
		Metrics: resp.Metrics,
	}))
}

func (s *Server) compare(w http.ResponseWriter, r *http.Request, run *audit.Run) (core.Profile, compareResponse, error) {
	var resp compareResponse

	ctx := r.Context()
	if err := s.limiter.Acquire(ctx); err != nil {
		return core.Profile{}, resp, err
	}
	defer s.limiter.Release()

	if err := s.parseForm(w, r, 2); err != nil {
		return core.Profile{}, resp, err
	}
	profile, err := s.resolveProfile(r)
	if err != nil {
		return core.Profile{}, resp, err
	}
	run.Profile = profile.Key

	field, err := core.ParseCompareField(r.FormValue("field"))
	if err != nil {
		return profile, resp, err
	}
	run.Field = string(field)

	left, right, err := s.decodePair(r, run)
	if err != nil {
		return profile, resp, err
	}

	opts := core.CompareOptions{
		Required: profile.Required,
		JoinKey:  r.FormValue("join_key"),
		Field:    field,
	}
	if field == core.FieldIssueCategory {
		if opts.Classifier, err = s.classifierFor(); err != nil {
			return profile, resp, err
		}
	}

	res, err := core.Compare(ctx, left, right, opts)
	if err != nil {
		return profile, resp, err
	}

	// Plain summaries feed the side-by-side metric table.
	ls, err := core.Summarize(ctx, left, core.SummaryOptions{})
	if err != nil {
		return profile, resp, err
	}
	rs, err := core.Summarize(ctx, right, core.SummaryOptions{})
	if err != nil {
		return profile, resp, err
	}

	run.SucceedCompare(res, ls, rs)
	s.metrics.ObserveSummary(ls)
	s.metrics.ObserveSummary(rs)
	s.metrics.ObserveComparison(res)

	resp.Result = res
	resp.Metrics = core.CompareMetrics(ls, rs)
	return profile, resp, nil
}

// decodePair decodes file1 and file2 concurrently.
func (s *Server) decodePair(r *http.Request, run *audit.Run) (*sheet.Table, *sheet.Table, error) {
	first, err := s.openUpload(r, "file1")
	if err != nil {
		return nil, nil, err
	}
	second, err := s.openUpload(r, "file2")
	if err != nil {
		first.file.Close()
		return nil, nil, err
	}
	run.Files = []string{first.name, second.name}

	var left, right *sheet.Table
	var g errgroup.Group
	g.Go(func() (err error) {
		left, err = first.decode()
		return err
	})
	g.Go(func() (err error) {
		right, err = second.decode()
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

// classifierFor returns the configured classifier, instrumented.
func (s *Server) classifierFor() (core.Classifier, error) {
	if s.classifier == nil {
		return nil, core.ErrNoClassifier
	}
	return s.metrics.Classifier(s.classifier), nil
}

// finishRun stamps, records and meters a finished run. Journal failures are
// logged and never fail the request.
func (s *Server) finishRun(ctx context.Context, run *audit.Run, err error, start time.Time) {
	run.Duration = time.Since(start)
	if err != nil {
		run.Fail(err)
	}
	s.metrics.ObserveAnalysis(string(run.Kind), err, run.Duration)

	logger := logging.FromContext(ctx)
	if recErr := s.recorder.Record(context.WithoutCancel(ctx), *run); recErr != nil {
		logger.Warn("run journal write failed", "error", recErr)
	}
	if err == nil {
		logger.Info("analysis complete",
			"kind", run.Kind,
			"profile", run.Profile,
			"files", fmt.Sprint(run.Files),
			"rows", run.Rows,
			"duration_ms", run.Duration.Milliseconds(),
		)
	}
}
