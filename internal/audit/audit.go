// Package audit keeps a journal of analysis runs.
//
// A run records who asked for what and the headline counts that came back.
// Uploaded spreadsheets themselves are never stored. The journal lives in
// PostgreSQL when a database is configured and in a bounded in-memory buffer
// otherwise.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/moderation/internal/core"
)

// Kind is the type of analysis a run performed.
type Kind string

const (
	KindAnalyze Kind = "analyze"
	KindCompare Kind = "compare"
)

// DefaultRecentLimit caps Recent when the caller passes no limit.
const DefaultRecentLimit = 50

// Run is one journal entry.
type Run struct {
	ID        uuid.UUID `json:"id"`
	Kind      Kind      `json:"kind"`
	Profile   string    `json:"profile"`
	Files     []string  `json:"files"`
	Field     string    `json:"field,omitempty"`
	IPAddress string    `json:"ipAddress,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`

	Rows          int `json:"rows"`
	NoIssueCount  int `json:"noIssueCount"`
	HasIssueCount int `json:"hasIssueCount"`
	MatchCount    int `json:"matchCount"`
	MismatchCount int `json:"mismatchCount"`
	CoercedCells  int `json:"coercedCells"`

	// ErrorCode is the user-facing code of a failed run, empty on success.
	ErrorCode string        `json:"errorCode,omitempty"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"createdAt"`
}

// NewRun starts a journal entry stamped with a fresh ID and the client
// details carried on ctx.
func NewRun(ctx context.Context, kind Kind, profile string, files ...string) Run {
	return Run{
		ID:        uuid.New(),
		Kind:      kind,
		Profile:   profile,
		Files:     files,
		IPAddress: IPAddressFromContext(ctx),
		UserAgent: UserAgentFromContext(ctx),
		CreatedAt: time.Now().UTC(),
	}
}

// Succeed fills in the counts of a finished single-table analysis.
func (r *Run) Succeed(s *core.Summary) {
	r.Rows = s.TotalRows
	r.NoIssueCount = s.NoIssueCount
	r.HasIssueCount = s.HasIssueCount
	r.CoercedCells = s.CoercedCells()
}

// SucceedCompare fills in the counts of a finished comparison.
func (r *Run) SucceedCompare(res *core.ComparisonResult, left, right *core.Summary) {
	r.Field = string(res.Field)
	r.Rows = len(res.Rows)
	r.MatchCount = res.MatchCount
	r.MismatchCount = res.MismatchCount
	for _, s := range []*core.Summary{left, right} {
		if s == nil {
			continue
		}
		r.NoIssueCount += s.NoIssueCount
		r.HasIssueCount += s.HasIssueCount
		r.CoercedCells += s.CoercedCells()
	}
}

// Fail marks the run failed with err's user-facing code.
func (r *Run) Fail(err error) {
	r.ErrorCode = core.MapError(err).Code
}

// Recorder persists runs.
type Recorder interface {
	Record(ctx context.Context, run Run) error
	Recent(ctx context.Context, limit int) ([]Run, error)
}

// Memory keeps the most recent runs in a ring buffer.
type Memory struct {
	mu   sync.Mutex
	runs []Run
	next int
	full bool
}

// NewMemory returns a Memory recorder holding at most capacity runs.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultRecentLimit
	}
	return &Memory{runs: make([]Run, capacity)}
}

// Record implements Recorder.
func (m *Memory) Record(_ context.Context, run Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.runs[m.next] = run
	m.next = (m.next + 1) % len(m.runs)
	if m.next == 0 {
		m.full = true
	}
	return nil
}

// Recent implements Recorder, newest first.
func (m *Memory) Recent(_ context.Context, limit int) ([]Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.next
	if m.full {
		n = len(m.runs)
	}
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]Run, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (m.next - i + len(m.runs)) % len(m.runs)
		out = append(out, m.runs[idx])
	}
	return out, nil
}
