package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"NewsScanner/internal/domain"
	"NewsScanner/internal/ports"
)

// ErrRunNotRunning is returned when Finish targets a run that is unknown
// or already in a terminal state.
var ErrRunNotRunning = errors.New("crawl run is not in running state")

// RunLogRepository brackets crawl invocations with durable audit records.
type RunLogRepository struct {
	db *sql.DB
}

var _ ports.RunLog = (*RunLogRepository)(nil)

// NewRunLogRepository wires a sql.DB implementation.
func NewRunLogRepository(db *sql.DB) *RunLogRepository {
	return &RunLogRepository{db: db}
}

// Start inserts a running record and returns its id.
func (r *RunLogRepository) Start(ctx context.Context, src domain.Source) (string, error) {
	runID := uuid.NewString()

	query, args, err := psql.
		Insert("crawl_logs").
		Columns("id", "source", "status", "started_at").
		Values(runID, src, domain.RunRunning, sq.Expr("NOW()")).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build run insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("insert crawl run: %w", err)
	}

	return runID, nil
}

// Finish moves the run into its terminal state. The status guard makes
// the transition happen at most once per run.
func (r *RunLogRepository) Finish(ctx context.Context, runID string, status domain.RunStatus, found, saved int, errMsg string) error {
	if status != domain.RunCompleted && status != domain.RunFailed {
		return fmt.Errorf("status %q is not terminal", status)
	}

	query, args, err := psql.
		Update("crawl_logs").
		Set("status", status).
		Set("completed_at", sq.Expr("NOW()")).
		Set("articles_found", found).
		Set("articles_filtered", saved).
		Set("error_message", errMsg).
		Where(sq.Eq{"id": runID, "status": domain.RunRunning}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build run update: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("finish crawl run: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run rows affected: %w", err)
	}
	if affected == 0 {
		return ErrRunNotRunning
	}

	return nil
}

// Recent returns the latest runs, optionally narrowed to one source.
func (r *RunLogRepository) Recent(ctx context.Context, src domain.Source, limit int) ([]domain.CrawlRun, error) {
	builder := psql.
		Select("id", "source", "status", "started_at", "completed_at",
			"articles_found", "articles_filtered", "error_message").
		From("crawl_logs").
		OrderBy("started_at DESC")

	if src != "" {
		builder = builder.Where(sq.Eq{"source": src})
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	builder = builder.Limit(uint64(limit))

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build runs query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query crawl runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.CrawlRun
	for rows.Next() {
		var run domain.CrawlRun
		var completedAt sql.NullTime
		var errMsg sql.NullString
		if err := rows.Scan(
			&run.ID, &run.Source, &run.Status, &run.StartedAt,
			&completedAt, &run.ArticlesFound, &run.ArticlesFiltered, &errMsg,
		); err != nil {
			return nil, fmt.Errorf("scan crawl run: %w", err)
		}
		if completedAt.Valid {
			run.CompletedAt = &completedAt.Time
		}
		run.ErrorMessage = errMsg.String
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return runs, nil
}
