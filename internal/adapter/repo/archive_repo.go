// Package repo contains the PostgreSQL adapters. The live job pipeline runs
// entirely in memory; this package only persists terminal outcomes for later
// inspection.
package repo

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AyoubKhan990/teach-flow-lms/internal/domain"
)

// ArchivedJob is one persisted terminal outcome.
type ArchivedJob struct {
	ID         string           `json:"id"`
	Status     domain.JobStatus `json:"status"`
	Snapshot   json.RawMessage  `json:"snapshot"`
	Result     json.RawMessage  `json:"result,omitempty"`
	ArchivedAt string           `json:"archivedAt"`
}

// JobArchivePG writes terminal job snapshots to PostgreSQL.
type JobArchivePG struct {
	pool *pgxpool.Pool
}

// NewJobArchive creates a job archive backed by PostgreSQL.
func NewJobArchive(pool *pgxpool.Pool) *JobArchivePG {
	return &JobArchivePG{pool: pool}
}

// ArchiveJob upserts the terminal snapshot. Re-archiving after a recovery
// action replaces the earlier row for the same job.
func (r *JobArchivePG) ArchiveJob(ctx context.Context, snapshot domain.JobSnapshot, result *domain.JobResult) error {
	snapJSON, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	var resultJSON []byte
	if result != nil {
		if resultJSON, err = json.Marshal(result); err != nil {
			return err
		}
	}
	query := `
INSERT INTO job_archive (id, status, stage, percent, attempt, snapshot_json, result_json, archived_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
ON CONFLICT (id) DO UPDATE
SET status = EXCLUDED.status,
    stage = EXCLUDED.stage,
    percent = EXCLUDED.percent,
    attempt = EXCLUDED.attempt,
    snapshot_json = EXCLUDED.snapshot_json,
    result_json = COALESCE(EXCLUDED.result_json, job_archive.result_json),
    archived_at = NOW();
`
	_, err = r.pool.Exec(ctx, query,
		snapshot.ID,
		snapshot.Status,
		snapshot.Stage,
		snapshot.Percent,
		snapshot.Attempt,
		snapJSON,
		nullableBytes(resultJSON),
	)
	return err
}

// GetByID fetches one archived job.
func (r *JobArchivePG) GetByID(ctx context.Context, jobID string) (*ArchivedJob, error) {
	query := `
SELECT id, status, snapshot_json, result_json, archived_at::text
FROM job_archive
WHERE id = $1;
`
	row := r.pool.QueryRow(ctx, query, jobID)
	var job ArchivedJob
	if err := row.Scan(&job.ID, &job.Status, &job.Snapshot, &job.Result, &job.ArchivedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

// Recent lists the latest archived jobs, newest first.
func (r *JobArchivePG) Recent(ctx context.Context, limit int) ([]ArchivedJob, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `
SELECT id, status, snapshot_json, result_json, archived_at::text
FROM job_archive
ORDER BY archived_at DESC
LIMIT $1;
`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ArchivedJob
	for rows.Next() {
		var job ArchivedJob
		if err := rows.Scan(&job.ID, &job.Status, &job.Snapshot, &job.Result, &job.ArchivedAt); err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

func nullableBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}
