package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/trendhijack/trendhijack-back/internal/domain"
)

// Archiver records terminal jobs for audit. Archiving is best-effort and
// never blocks the serving path; the in-memory store stays the source of
// truth for polling clients.
type Archiver interface {
	ArchiveTerminal(ctx context.Context, job domain.Job) error
	Close()
}

type PostgresArchive struct {
	pool *pgxpool.Pool
}

func NewPostgresArchive(ctx context.Context, databaseURL string) (*PostgresArchive, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pg pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping pg: %w", err)
	}
	return &PostgresArchive{pool: pool}, nil
}

func (a *PostgresArchive) Close() {
	a.pool.Close()
}

// ArchiveTerminal inserts one row per finished job. Replays of the same
// job id are ignored.
func (a *PostgresArchive) ArchiveTerminal(ctx context.Context, job domain.Job) error {
	_, err := a.pool.Exec(ctx, `
		INSERT INTO job_archive (
			id,
			status,
			brand,
			competitor,
			location,
			result,
			error_message,
			created_at,
			updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO NOTHING
	`,
		job.ID,
		string(job.Status),
		job.Input.Brand,
		job.Input.Competitor,
		job.Input.Location,
		job.Result,
		job.Error,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job archive row: %w", err)
	}
	return nil
}
