package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/moderation/internal/core"
)

func TestObserveAnalysis(t *testing.T) {
	m := New()

	m.ObserveAnalysis(KindAnalyze, nil, 10*time.Millisecond)
	m.ObserveAnalysis(KindAnalyze, &core.SchemaError{Failures: []core.ValidationResult{{Missing: []string{"Issues"}}}}, time.Millisecond)
	m.ObserveAnalysis(KindCompare, nil, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.analyses.WithLabelValues(KindAnalyze, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.analyses.WithLabelValues(KindAnalyze, "VAL004")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.analyses.WithLabelValues(KindCompare, "ok")))
}

func TestObserveSummaryAndComparison(t *testing.T) {
	m := New()

	m.ObserveSummary(&core.Summary{TotalRows: 4, Failed: &core.NumericTotal{Coerced: 2}})
	m.ObserveComparison(&core.ComparisonResult{MatchCount: 3, MismatchCount: 1})

	assert.Equal(t, 4.0, testutil.ToFloat64(m.rows))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.coercedCells))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.comparisonRows.WithLabelValues("Match")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.comparisonRows.WithLabelValues("Mismatch")))
}

func TestClassifierWrapper(t *testing.T) {
	m := New()
	c := m.Classifier(core.ClassifierFunc(func(_ context.Context, text string) (string, error) {
		if text == "bad" {
			return "", errors.New("boom")
		}
		return "Other", nil
	}))

	label, err := c.Classify(context.Background(), "fine")
	require.NoError(t, err)
	assert.Equal(t, "Other", label)
	_, err = c.Classify(context.Background(), "bad")
	assert.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.classifications.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.classifications.WithLabelValues("error")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.RegisterLimiter(core.NewAnalysisLimiter(4, time.Second))
	m.ObserveAnalysis(KindAnalyze, nil, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `moderation_analyses_total{code="ok",kind="analyze"} 1`), body)
	assert.Contains(t, body, "moderation_analysis_slots 4")
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics

	m.ObserveAnalysis(KindAnalyze, nil, time.Millisecond)
	m.ObserveSummary(&core.Summary{})
	m.ObserveComparison(&core.ComparisonResult{})
	m.RegisterLimiter(core.NewAnalysisLimiter(1, time.Second))

	c := core.ClassifierFunc(func(context.Context, string) (string, error) { return "x", nil })
	assert.NotNil(t, m.Classifier(c))
	assert.Nil(t, m.Registry())
}
