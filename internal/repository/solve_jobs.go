package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/shift-pairing/backend/internal/domain"
)

func (r *Repository) InsertSolveJob(job *domain.SolveJob) error {
	request, err := json.Marshal(job.Request)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO solve_jobs (id, status, request, notify_email, owner)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{job.ID, job.Status, request, job.NotifyEmail, job.Owner}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&job.CreatedAt, &job.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetSolveJob(id uuid.UUID) (*domain.SolveJob, error) {
	query := `
		SELECT status, request, outcome, error, notify_email, owner, created_at, started_at, finished_at, version
		FROM solve_jobs WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	job := &domain.SolveJob{
		ID: id,
	}

	var request, outcome []byte
	dst := []any{&job.Status, &request, &outcome, &job.Error, &job.NotifyEmail, &job.Owner, &job.CreatedAt, &job.StartedAt, &job.FinishedAt, &job.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(request, &job.Request); err != nil {
		return nil, err
	}
	// outcome 在任务完成之前为 NULL
	if outcome != nil {
		job.Outcome = &domain.SolveOutcome{}
		if err := json.Unmarshal(outcome, job.Outcome); err != nil {
			return nil, err
		}
	}

	return job, nil
}

// UpdateSolveJob 更新任务状态与结果，version 不一致时返回 sql.ErrNoRows
func (r *Repository) UpdateSolveJob(job *domain.SolveJob) error {
	// 没有结果时写入 NULL
	var outcome any
	if job.Outcome != nil {
		b, err := json.Marshal(job.Outcome)
		if err != nil {
			return err
		}
		outcome = b
	}

	query := `
		UPDATE solve_jobs
		SET
			status = $1,
			outcome = $2,
			error = $3,
			started_at = $4,
			finished_at = $5,
			version = version + 1
		WHERE id = $6 AND version = $7
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{job.Status, outcome, job.Error, job.StartedAt, job.FinishedAt, job.ID, job.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&job.Version); err != nil {
		return err
	}

	return nil
}
