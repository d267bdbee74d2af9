package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/moderation/internal/audit"
	"github.com/JonMunkholm/moderation/internal/classifier"
	"github.com/JonMunkholm/moderation/internal/config"
	"github.com/JonMunkholm/moderation/internal/core"
	"github.com/JonMunkholm/moderation/internal/metrics"
)

const moderationCSV = "Module,Issues,Borderline Students,Failed Students\n" +
	"M1,None,1,0\n" +
	"M2,Late submission,2,1\n"

type testServer struct {
	*Server
	journal *audit.Memory
}

func newTestServer(t *testing.T, env map[string]string, mutate func(*Deps)) testServer {
	t.Helper()

	cfg, err := config.LoadFrom(func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	})
	require.NoError(t, err)

	journal := audit.NewMemory(10)
	deps := Deps{
		Config:   cfg,
		Recorder: journal,
		Metrics:  metrics.New(),
	}
	if mutate != nil {
		mutate(&deps)
	}

	s := NewServer(deps)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return testServer{Server: s, journal: journal}
}

type filePart struct {
	name    string
	content []byte
}

func multipartRequest(t *testing.T, path string, fields map[string]string, files map[string]filePart) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for field, f := range files {
		fw, err := mw.CreateFormFile(field, f.name)
		require.NoError(t, err)
		_, err = fw.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func (ts testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.Router().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func TestAnalyze_CSV(t *testing.T) {
	ts := newTestServer(t, nil, nil)

	rec := ts.do(multipartRequest(t, "/api/analyze", nil, map[string]filePart{
		"file": {"report.csv", []byte(moderationCSV)},
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp analyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, core.DefaultProfile, resp.Profile)
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, "report.csv", resp.Summary.Table)
	assert.Equal(t, 2, resp.Summary.TotalRows)
	assert.Equal(t, 1, resp.Summary.NoIssueCount)
	assert.Equal(t, 1, resp.Summary.HasIssueCount)
	assert.Equal(t, int64(3), resp.Summary.Borderline.Total)
	assert.Equal(t, int64(1), resp.Summary.Failed.Total)

	runs, err := ts.journal.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, resp.RunID, runs[0].ID.String())
	assert.Equal(t, []string{"report.csv"}, runs[0].Files)
	assert.Empty(t, runs[0].ErrorCode)
}

func TestAnalyze_XLSX(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Issues", "Borderline Students", "Failed Students"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"None", 4, 1}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{"Marking late", 2, 2}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	ts := newTestServer(t, nil, nil)
	rec := ts.do(multipartRequest(t, "/api/analyze", nil, map[string]filePart{
		"file": {"report.xlsx", buf.Bytes()},
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp analyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Summary.TotalRows)
	assert.Equal(t, int64(6), resp.Summary.Borderline.Total)
	assert.Equal(t, int64(3), resp.Summary.Failed.Total)
}

func TestAnalyze_HTML(t *testing.T) {
	ts := newTestServer(t, nil, nil)

	rec := ts.do(multipartRequest(t, "/analyze", map[string]string{"critical": "on"}, map[string]filePart{
		"file": {"report.csv", []byte(moderationCSV)},
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Issue status")
	assert.Contains(t, rec.Body.String(), "report.csv")
}

func TestAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name   string
		env    map[string]string
		fields map[string]string
		files  map[string]filePart
		status int
		code   string
	}{
		{
			name:   "missing required column",
			files:  map[string]filePart{"file": {"a.csv", []byte("Issues,Borderline Students\nNone,1\n")}},
			status: http.StatusUnprocessableEntity,
			code:   "VAL004",
		},
		{
			name:   "unknown profile",
			fields: map[string]string{"profile": "nope"},
			files:  map[string]filePart{"file": {"a.csv", []byte(moderationCSV)}},
			status: http.StatusBadRequest,
			code:   "VAL005",
		},
		{
			name:   "no file",
			fields: map[string]string{"profile": "moderation"},
			status: http.StatusBadRequest,
			code:   "FILE004",
		},
		{
			name:   "unsupported type",
			files:  map[string]filePart{"file": {"a.pdf", []byte("%PDF")}},
			status: http.StatusUnsupportedMediaType,
			code:   "FILE006",
		},
		{
			name:   "empty file",
			files:  map[string]filePart{"file": {"a.csv", nil}},
			status: http.StatusUnprocessableEntity,
			code:   "FILE005",
		},
		{
			name:   "file over limit",
			env:    map[string]string{"UPLOAD_MAX_FILE_SIZE": "32"},
			files:  map[string]filePart{"file": {"a.csv", []byte(moderationCSV)}},
			status: http.StatusRequestEntityTooLarge,
			code:   "FILE001",
		},
		{
			name:   "categories without classifier",
			fields: map[string]string{"categorize": "true"},
			files:  map[string]filePart{"file": {"a.csv", []byte(moderationCSV)}},
			status: http.StatusServiceUnavailable,
			code:   "CLS002",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, tt.env, nil)

			rec := ts.do(multipartRequest(t, "/api/analyze", tt.fields, tt.files))
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decodeError(t, rec).Code)

			runs, err := ts.journal.Recent(context.Background(), 10)
			require.NoError(t, err)
			require.Len(t, runs, 1)
			assert.Equal(t, tt.code, runs[0].ErrorCode)
		})
	}
}

func TestAnalyze_ErrorPageForBrowsers(t *testing.T) {
	ts := newTestServer(t, nil, nil)

	rec := ts.do(multipartRequest(t, "/analyze", nil, map[string]filePart{
		"file": {"a.csv", []byte("Issues\nNone\n")},
	}))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "VAL004")
	assert.Contains(t, rec.Body.String(), "Borderline Students, Failed Students")
}

func TestAnalyze_Categories(t *testing.T) {
	ts := newTestServer(t, nil, func(d *Deps) {
		d.Classifier = classifier.Static(classifier.BackendKeyword, classifier.NewKeyword(nil, ""))
	})

	rec := ts.do(multipartRequest(t, "/api/analyze", map[string]string{"categorize": "true"}, map[string]filePart{
		"file": {"report.csv", []byte(moderationCSV)},
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp analyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Summary.Categorized, 2)
	assert.Equal(t, core.NoIssueCategory, resp.Summary.Categorized[0].Category)
	assert.Equal(t, "Deadlines", resp.Summary.Categorized[1].Category)
}

func TestAnalyze_Busy(t *testing.T) {
	limiter := core.NewAnalysisLimiter(1, 10*time.Millisecond)
	require.NoError(t, limiter.Acquire(context.Background()))
	defer limiter.Release()

	ts := newTestServer(t, nil, func(d *Deps) { d.Limiter = limiter })

	rec := ts.do(multipartRequest(t, "/api/analyze", nil, map[string]filePart{
		"file": {"report.csv", []byte(moderationCSV)},
	}))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "UPL002", decodeError(t, rec).Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

const (
	compareLeftCSV = "Module,Issues,Borderline Students,Failed Students\n" +
		"M1,None,0,0\n" +
		"M2,Late,1,0\n"
	compareRightCSV = "Module,Issues,Borderline Students,Failed Students\n" +
		"M2,Missing rubric,0,1\n" +
		"M3,,0,0\n"
)

func TestCompare(t *testing.T) {
	ts := newTestServer(t, nil, nil)

	rec := ts.do(multipartRequest(t, "/api/compare", nil, map[string]filePart{
		"file1": {"a.csv", []byte(compareLeftCSV)},
		"file2": {"b.csv", []byte(compareRightCSV)},
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp compareResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Result.MatchCount)
	assert.Equal(t, 2, resp.Result.MismatchCount)
	require.Len(t, resp.Result.Rows, 3)
	assert.Equal(t, "M1", resp.Result.Rows[0].Key)
	assert.False(t, resp.Result.Rows[0].Right.Present)
	assert.Equal(t, core.Match, resp.Result.Rows[1].Outcome)
	assert.Equal(t, core.MetricRow{Metric: "No issues", Left: 1, Right: 1}, resp.Metrics[0])

	runs, err := ts.journal.Recent(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, audit.KindCompare, runs[0].Kind)
	assert.Equal(t, []string{"a.csv", "b.csv"}, runs[0].Files)
	assert.Equal(t, 1, runs[0].MatchCount)
}

func TestCompare_HTML(t *testing.T) {
	ts := newTestServer(t, nil, nil)

	rec := ts.do(multipartRequest(t, "/compare", nil, map[string]filePart{
		"file1": {"a.csv", []byte(compareLeftCSV)},
		"file2": {"b.csv", []byte(compareRightCSV)},
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "a.csv vs b.csv")
	assert.Contains(t, rec.Body.String(), "absent")
}

func TestCompare_MissingColumnsPerFile(t *testing.T) {
	ts := newTestServer(t, nil, nil)

	short := "Module,Issues,Borderline Students\nM1,None,0\n"
	rec := ts.do(multipartRequest(t, "/api/compare", nil, map[string]filePart{
		"file1": {"a.csv", []byte(short)},
		"file2": {"b.csv", []byte(short)},
	}))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	resp := decodeError(t, rec)
	assert.Equal(t, "VAL004", resp.Code)
	assert.Contains(t, resp.Message, "a.csv: Failed Students; b.csv: Failed Students")
	assert.Equal(t, map[string][]string{
		"a.csv": {"Failed Students"},
		"b.csv": {"Failed Students"},
	}, resp.Missing)
}

func TestCompare_Errors(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		files  map[string]filePart
		code   string
	}{
		{
			name:  "second file missing",
			files: map[string]filePart{"file1": {"a.csv", []byte(compareLeftCSV)}},
			code:  "FILE004",
		},
		{
			name:   "bad field",
			fields: map[string]string{"field": "grade"},
			files: map[string]filePart{
				"file1": {"a.csv", []byte(compareLeftCSV)},
				"file2": {"b.csv", []byte(compareRightCSV)},
			},
			code: "VAL006",
		},
		{
			name:   "join key absent",
			fields: map[string]string{"join_key": "Code"},
			files: map[string]filePart{
				"file1": {"a.csv", []byte(compareLeftCSV)},
				"file2": {"b.csv", []byte(compareRightCSV)},
			},
			code: "VAL004",
		},
		{
			name:   "category without classifier",
			fields: map[string]string{"field": "category"},
			files: map[string]filePart{
				"file1": {"a.csv", []byte(compareLeftCSV)},
				"file2": {"b.csv", []byte(compareRightCSV)},
			},
			code: "CLS002",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, nil, nil)
			rec := ts.do(multipartRequest(t, "/api/compare", tt.fields, tt.files))
			assert.Equal(t, tt.code, decodeError(t, rec).Code, rec.Body.String())
		})
	}
}

func TestIndex(t *testing.T) {
	ts := newTestServer(t, nil, nil)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<option value="moderation" selected>`)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestListProfiles(t *testing.T) {
	ts := newTestServer(t, nil, nil)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/profiles", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var profiles []core.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profiles))
	assert.Equal(t, core.All(), profiles)
}

func TestListRuns(t *testing.T) {
	ts := newTestServer(t, nil, nil)
	for i := 0; i < 3; i++ {
		ts.do(multipartRequest(t, "/api/analyze", nil, map[string]filePart{
			"file": {"report.csv", []byte(moderationCSV)},
		}))
	}

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/runs?limit=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []audit.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	assert.Len(t, runs, 2)

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/api/runs?format=csv", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "ID,Timestamp,Kind"))
}

func TestListRuns_Empty(t *testing.T) {
	ts := newTestServer(t, nil, nil)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	tests := []struct {
		name     string
		db       Pinger
		status   int
		database string
	}{
		{"no database", nil, http.StatusOK, ""},
		{"database up", pinger{}, http.StatusOK, "ok"},
		{"database down", pinger{errors.New("refused")}, http.StatusServiceUnavailable, "unreachable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, nil, func(d *Deps) { d.Database = tt.db })

			rec := ts.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
			assert.Equal(t, tt.status, rec.Code)

			var resp healthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.database, resp.Database)
			assert.Equal(t, "none", resp.Classifier)
			assert.Equal(t, core.DefaultMaxConcurrentAnalyses, resp.Analyses.MaxConcurrent)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, nil, nil)
	ts.do(multipartRequest(t, "/api/analyze", nil, map[string]filePart{
		"file": {"report.csv", []byte(moderationCSV)},
	}))

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `moderation_analyses_total{code="ok",kind="analyze"} 1`)
}

func TestAPIKeyRequired(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"REQUIRE_API_KEY": "true",
		"API_KEYS":        "secret",
	}, nil)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/profiles", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/profiles", nil)
	req.Header.Set("X-API-Key", "secret")
	assert.Equal(t, http.StatusOK, ts.do(req).Code)

	// Browser pages stay open.
	assert.Equal(t, http.StatusOK, ts.do(httptest.NewRequest(http.MethodGet, "/", nil)).Code)
}

func TestAnalyzeRateLimit(t *testing.T) {
	ts := newTestServer(t, map[string]string{"RATE_LIMIT_ANALYZE": "1"}, nil)

	send := func() int {
		return ts.do(multipartRequest(t, "/api/analyze", nil, map[string]filePart{
			"file": {"report.csv", []byte(moderationCSV)},
		})).Code
	}
	assert.Equal(t, http.StatusOK, send())
	assert.Equal(t, http.StatusTooManyRequests, send())

	// Other routes use the general limit.
	assert.Equal(t, http.StatusOK, ts.do(httptest.NewRequest(http.MethodGet, "/api/profiles", nil)).Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor("VAL004"))
	assert.Equal(t, http.StatusTooManyRequests, statusFor("RATE001"))
	assert.Equal(t, http.StatusInternalServerError, statusFor("ERR000"))
	assert.Equal(t, http.StatusInternalServerError, statusFor("nope"))
}
