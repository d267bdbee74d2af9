package audit

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/moderation/internal/core"
)

func TestNewRun_ReadsClientFromContext(t *testing.T) {
	ctx := ContextWithClient(context.Background(), "10.0.0.7", "curl/8.0")

	run := NewRun(ctx, KindCompare, "modules", "a.csv", "b.xlsx")

	assert.NotEqual(t, uuid.Nil, run.ID)
	assert.Equal(t, KindCompare, run.Kind)
	assert.Equal(t, []string{"a.csv", "b.xlsx"}, run.Files)
	assert.Equal(t, "10.0.0.7", run.IPAddress)
	assert.Equal(t, "curl/8.0", run.UserAgent)
	assert.WithinDuration(t, time.Now(), run.CreatedAt, time.Minute)
}

func TestContextHelpers_Empty(t *testing.T) {
	assert.Empty(t, IPAddressFromContext(context.Background()))
	assert.Empty(t, UserAgentFromContext(context.Background()))
}

func TestRun_SucceedAndFail(t *testing.T) {
	run := NewRun(context.Background(), KindAnalyze, "moderation", "a.csv")
	run.Succeed(&core.Summary{
		TotalRows:     5,
		NoIssueCount:  2,
		HasIssueCount: 3,
		Borderline:    &core.NumericTotal{Coerced: 1},
	})

	assert.Equal(t, 5, run.Rows)
	assert.Equal(t, 3, run.HasIssueCount)
	assert.Equal(t, 1, run.CoercedCells)
	assert.Empty(t, run.ErrorCode)

	run.Fail(errors.New("invalid csv a.csv: bad quote"))
	assert.Equal(t, "FILE002", run.ErrorCode)
}

func TestRun_SucceedCompare(t *testing.T) {
	run := NewRun(context.Background(), KindCompare, "modules", "a.csv", "b.csv")
	run.SucceedCompare(
		&core.ComparisonResult{Field: core.FieldIssueStatus, Rows: make([]core.ComparisonRow, 3), MatchCount: 1, MismatchCount: 2},
		&core.Summary{NoIssueCount: 1, HasIssueCount: 1},
		&core.Summary{NoIssueCount: 2},
	)

	assert.Equal(t, "status", run.Field)
	assert.Equal(t, 3, run.Rows)
	assert.Equal(t, 1, run.MatchCount)
	assert.Equal(t, 2, run.MismatchCount)
	assert.Equal(t, 3, run.NoIssueCount)
	assert.Equal(t, 1, run.HasIssueCount)
}

func TestMemory_RecentNewestFirst(t *testing.T) {
	m := NewMemory(3)
	ctx := context.Background()

	for _, p := range []string{"a", "b", "c", "d"} {
		require.NoError(t, m.Record(ctx, Run{Profile: p}))
	}

	runs, err := m.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "d", runs[0].Profile)
	assert.Equal(t, "c", runs[1].Profile)
	assert.Equal(t, "b", runs[2].Profile)

	runs, err = m.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "d", runs[0].Profile)
}

func TestMemory_Empty(t *testing.T) {
	runs, err := NewMemory(2).Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

// TestPGRecorder runs against a real database when TEST_DATABASE_URL is set.
func TestPGRecorder(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := Connect(ctx, url, PoolOptions{MaxConns: 2})
	require.NoError(t, err)
	defer pool.Close()

	rec := NewPGRecorder(pool)
	require.NoError(t, rec.EnsureSchema(ctx))

	run := NewRun(ctx, KindAnalyze, "moderation", "a.csv")
	run.Rows = 4
	run.Duration = 1500 * time.Millisecond
	run.ErrorCode = "VAL004"
	require.NoError(t, rec.Record(ctx, run))

	runs, err := rec.Recent(ctx, 50)
	require.NoError(t, err)

	var found *Run
	for i := range runs {
		if runs[i].ID == run.ID {
			found = &runs[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, []string{"a.csv"}, found.Files)
	assert.Equal(t, 4, found.Rows)
	assert.Equal(t, "VAL004", found.ErrorCode)
	assert.Equal(t, 1500*time.Millisecond, found.Duration)
	assert.Empty(t, found.Field)
}
