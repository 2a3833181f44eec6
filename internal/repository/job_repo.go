package repository

import (
	"context"

	"tycoon_bot/internal/scheduler"

	"github.com/jackc/pgx/v5/pgxpool"
)

// JobRepository is the Postgres-backed scheduler.JobStore. Durable job rows
// survive restarts so pending task completions can be resumed.
type JobRepository struct {
	db *pgxpool.Pool
}

func NewJobRepository(db *pgxpool.Pool) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) Create(ctx context.Context, job *scheduler.Job) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO scheduled_jobs (id, kind, user_id, task_id, run_at, status, result)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at`,
		job.ID, job.Kind, job.UserID, job.TaskID, job.RunAt, job.Status, job.Result,
	).Scan(&job.CreatedAt)
	return mapErr(err)
}

func (r *JobRepository) Get(ctx context.Context, id string) (*scheduler.Job, error) {
	var job scheduler.Job
	err := r.db.QueryRow(ctx,
		`SELECT id, kind, user_id, task_id, run_at, status, result, created_at
		 FROM scheduled_jobs WHERE id = $1`, id,
	).Scan(&job.ID, &job.Kind, &job.UserID, &job.TaskID, &job.RunAt, &job.Status, &job.Result, &job.CreatedAt)
	if err != nil {
		if mapErr(err) == ErrNotFound {
			return nil, scheduler.ErrJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

func (r *JobRepository) SetStatus(ctx context.Context, id string, status scheduler.Status, result string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE scheduled_jobs SET status = $1, result = $2 WHERE id = $3`,
		status, result, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return scheduler.ErrJobNotFound
	}
	return nil
}

func (r *JobRepository) ListPending(ctx context.Context) ([]*scheduler.Job, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, kind, user_id, task_id, run_at, status, result, created_at
		 FROM scheduled_jobs WHERE status = 'pending' ORDER BY run_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*scheduler.Job
	for rows.Next() {
		var job scheduler.Job
		if err := rows.Scan(&job.ID, &job.Kind, &job.UserID, &job.TaskID, &job.RunAt, &job.Status, &job.Result, &job.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, &job)
	}
	return res, rows.Err()
}
