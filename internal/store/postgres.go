package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"scout.app/research/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS job_statuses (
	job_id       TEXT PRIMARY KEY,
	state        TEXT NOT NULL,
	progress     TEXT NOT NULL DEFAULT '',
	current_step TEXT NOT NULL DEFAULT '',
	inserted_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS job_results (
	job_id  TEXT PRIMARY KEY REFERENCES job_statuses(job_id),
	payload JSONB NOT NULL
);
`

// postgresRegistry backs the job registry with Postgres. Status rows are
// updated in place in a single UPDATE, results are written once as a JSONB
// payload.
type postgresRegistry struct {
	statuses *postgresStatusStore
	results  *postgresResultStore
}

// NewPostgres creates a Postgres-backed registry and ensures its schema.
func NewPostgres(ctx context.Context, pool *pgxpool.Pool) (Registry, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("ensuring registry schema: %w", err)
	}
	return &postgresRegistry{
		statuses: &postgresStatusStore{pool: pool},
		results:  &postgresResultStore{pool: pool},
	}, nil
}

func (r *postgresRegistry) Statuses() StatusStore { return r.statuses }
func (r *postgresRegistry) Results() ResultStore  { return r.results }

type postgresStatusStore struct {
	pool *pgxpool.Pool
}

func (s *postgresStatusStore) Insert(ctx context.Context, status *model.JobStatus) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO job_statuses (job_id, state, progress, current_step) VALUES ($1, $2, $3, $4)`,
		status.JobID, string(status.State), status.Progress, status.CurrentStep,
	)
	if err != nil {
		return fmt.Errorf("insert status: %w", err)
	}
	return nil
}

func (s *postgresStatusStore) Get(ctx context.Context, jobID string) (*model.JobStatus, error) {
	var status model.JobStatus
	var state string
	err := s.pool.QueryRow(ctx,
		`SELECT job_id, state, progress, current_step FROM job_statuses WHERE job_id = $1`,
		jobID,
	).Scan(&status.JobID, &state, &status.Progress, &status.CurrentStep)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get status: %w", err)
	}
	status.State = model.JobState(state)
	return &status, nil
}

func (s *postgresStatusStore) Update(ctx context.Context, status *model.JobStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE job_statuses SET state = $2, progress = $3, current_step = $4 WHERE job_id = $1`,
		status.JobID, string(status.State), status.Progress, status.CurrentStep,
	)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *postgresStatusStore) List(ctx context.Context) ([]model.JobStatus, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT job_id, state, progress, current_step FROM job_statuses ORDER BY inserted_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	defer rows.Close()

	var snapshot []model.JobStatus
	for rows.Next() {
		var status model.JobStatus
		var state string
		if err := rows.Scan(&status.JobID, &state, &status.Progress, &status.CurrentStep); err != nil {
			return nil, fmt.Errorf("scan status: %w", err)
		}
		status.State = model.JobState(state)
		snapshot = append(snapshot, status)
	}
	return snapshot, rows.Err()
}

type postgresResultStore struct {
	pool *pgxpool.Pool
}

func (s *postgresResultStore) Write(ctx context.Context, result *model.JobResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO job_results (job_id, payload) VALUES ($1, $2)`,
		result.JobID, payload,
	)
	if err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

func (s *postgresResultStore) Get(ctx context.Context, jobID string) (*model.JobResult, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM job_results WHERE job_id = $1`,
		jobID,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get result: %w", err)
	}

	var result model.JobResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return &result, nil
}
