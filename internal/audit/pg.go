package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS analysis_runs (
    id              uuid PRIMARY KEY,
    kind            text        NOT NULL,
    profile         text        NOT NULL,
    files           text[]      NOT NULL,
    field           text,
    ip_address      text,
    user_agent      text,
    row_count       integer     NOT NULL,
    no_issue_count  integer     NOT NULL,
    has_issue_count integer     NOT NULL,
    match_count     integer     NOT NULL,
    mismatch_count  integer     NOT NULL,
    coerced_cells   integer     NOT NULL,
    error_code      text,
    duration_ms     bigint      NOT NULL,
    created_at      timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS analysis_runs_created_at_idx ON analysis_runs (created_at DESC);
`

const insertRunSQL = `
INSERT INTO analysis_runs (
    id, kind, profile, files, field, ip_address, user_agent,
    row_count, no_issue_count, has_issue_count, match_count, mismatch_count, coerced_cells,
    error_code, duration_ms, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

const recentRunsSQL = `
SELECT id, kind, profile, files, field, ip_address, user_agent,
       row_count, no_issue_count, has_issue_count, match_count, mismatch_count, coerced_cells,
       error_code, duration_ms, created_at
FROM analysis_runs
ORDER BY created_at DESC
LIMIT $1`

// PoolOptions tunes the connection pool.
type PoolOptions struct {
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Connect opens and pings a connection pool.
func Connect(ctx context.Context, databaseURL string, opts PoolOptions) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	if opts.MaxConns > 0 {
		poolConfig.MaxConns = int32(opts.MaxConns)
	}
	if opts.MinConns > 0 {
		poolConfig.MinConns = int32(opts.MinConns)
	}
	if opts.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = opts.MaxConnLifetime
	}
	if opts.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = opts.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// PGRecorder stores runs in the analysis_runs table.
type PGRecorder struct {
	pool *pgxpool.Pool
}

// NewPGRecorder wraps an open pool. Call EnsureSchema before first use.
func NewPGRecorder(pool *pgxpool.Pool) *PGRecorder {
	return &PGRecorder{pool: pool}
}

// EnsureSchema creates the journal table if it does not exist.
func (r *PGRecorder) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create analysis_runs: %w", err)
	}
	return nil
}

// Record implements Recorder.
func (r *PGRecorder) Record(ctx context.Context, run Run) error {
	files := run.Files
	if files == nil {
		files = []string{}
	}

	_, err := r.pool.Exec(ctx, insertRunSQL,
		pgtype.UUID{Bytes: run.ID, Valid: true},
		string(run.Kind),
		run.Profile,
		files,
		toPgText(run.Field),
		toPgText(run.IPAddress),
		toPgText(run.UserAgent),
		run.Rows,
		run.NoIssueCount,
		run.HasIssueCount,
		run.MatchCount,
		run.MismatchCount,
		run.CoercedCells,
		toPgText(run.ErrorCode),
		run.Duration.Milliseconds(),
		pgtype.Timestamptz{Time: run.CreatedAt, Valid: true},
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}
	return nil
}

// Recent implements Recorder, newest first.
func (r *PGRecorder) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	rows, err := r.pool.Query(ctx, recentRunsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	runs, err := pgx.CollectRows(rows, scanRun)
	if err != nil {
		return nil, fmt.Errorf("scan runs: %w", err)
	}
	return runs, nil
}

func scanRun(row pgx.CollectableRow) (Run, error) {
	var (
		run        Run
		id         pgtype.UUID
		kind       string
		field      pgtype.Text
		ip         pgtype.Text
		userAgent  pgtype.Text
		errorCode  pgtype.Text
		durationMS int64
		createdAt  pgtype.Timestamptz
	)

	err := row.Scan(
		&id, &kind, &run.Profile, &run.Files, &field, &ip, &userAgent,
		&run.Rows, &run.NoIssueCount, &run.HasIssueCount, &run.MatchCount, &run.MismatchCount, &run.CoercedCells,
		&errorCode, &durationMS, &createdAt,
	)
	if err != nil {
		return Run{}, err
	}

	run.ID = uuid.UUID(id.Bytes)
	run.Kind = Kind(kind)
	run.Field = field.String
	run.IPAddress = ip.String
	run.UserAgent = userAgent.String
	run.ErrorCode = errorCode.String
	run.Duration = time.Duration(durationMS) * time.Millisecond
	run.CreatedAt = createdAt.Time
	return run, nil
}

func toPgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}
