package worker

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/shift-pairing/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-pairing/backend/internal/scheduler"
)

// JobStore 由 *repository.Repository 实现
type JobStore interface {
	GetSolveJob(id uuid.UUID) (*domain.SolveJob, error)
	UpdateSolveJob(job *domain.SolveJob) error
}

// Solver 由 *service.Service 实现
type Solver interface {
	Solve(ctx context.Context, req domain.SolveRequest) (*domain.SolveOutcome, error)
}

type Notifier interface {
	NotifySolveJobFinished(ctx context.Context, job *domain.SolveJob) error
}

// Message 由 amqp.Delivery 实现
type Message interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// Processor 从求解队列中取出任务，求解后写回结果并发送通知
type Processor struct {
	store    JobStore
	solver   Solver
	notifier Notifier // 为 nil 时不发送通知

	now func() time.Time
}

func NewProcessor(store JobStore, solver Solver, notifier Notifier) *Processor {
	return &Processor{
		store:    store,
		solver:   solver,
		notifier: notifier,
		now:      time.Now,
	}
}

// Handle 处理一条消息并负责确认。
// 求解失败不会重试，失败原因写入任务；只有存储出错时消息才会重新入队。
func (p *Processor) Handle(ctx context.Context, body []byte, msg Message) {
	var m domain.SolveJobMessage
	if err := json.Unmarshal(body, &m); err != nil {
		slog.Error("求解任务消息反序列化失败", "error", err)
		_ = msg.Nack(false, false)
		return
	}

	job, err := p.store.GetSolveJob(m.JobID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			slog.Error("求解任务不存在", "job", m.JobID)
			_ = msg.Nack(false, false)
		default:
			slog.Error("无法读取求解任务", "job", m.JobID, "error", err)
			_ = msg.Nack(false, true)
		}
		return
	}

	// 重复投递的消息
	if job.Finished() {
		slog.Info("求解任务已结束，跳过", "job", job.ID, "status", job.Status)
		_ = msg.Ack(false)
		return
	}

	startedAt := p.now()
	job.Status = domain.SolveJobRunning
	job.StartedAt = &startedAt
	if err := p.store.UpdateSolveJob(job); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			// 版本号不一致，任务已被其他 worker 处理
			slog.Info("求解任务已被其他 worker 处理，跳过", "job", job.ID)
			_ = msg.Ack(false)
		default:
			slog.Error("无法更新求解任务状态", "job", job.ID, "error", err)
			_ = msg.Nack(false, true)
		}
		return
	}

	out, err := p.solver.Solve(ctx, job.Request)
	if err != nil && ctx.Err() != nil {
		// worker 正在退出，任务交给下一个 worker 重新求解
		slog.Warn("求解被中断，任务重新入队", "job", job.ID, "error", err)
		_ = msg.Nack(false, true)
		return
	}
	finishedAt := p.now()
	job.FinishedAt = &finishedAt
	if err != nil {
		slog.Warn("求解任务失败", "job", job.ID, "error", err)
		job.Status = domain.SolveJobFailed
		job.Error = failureMessage(err)
	} else {
		job.Status = domain.SolveJobSucceeded
		job.Outcome = out
	}

	if err := p.store.UpdateSolveJob(job); err != nil {
		slog.Error("无法保存求解结果", "job", job.ID, "error", err)
		_ = msg.Nack(false, true)
		return
	}
	slog.Info("求解任务已结束", "job", job.ID, "status", job.Status, "duration", finishedAt.Sub(startedAt))

	// 通知失败不影响任务结果
	if p.notifier != nil && job.NotifyEmail != "" {
		if err := p.notifier.NotifySolveJobFinished(ctx, job); err != nil {
			slog.Error("求解任务通知发送失败", "job", job.ID, "email", job.NotifyEmail, "error", err)
		}
	}

	_ = msg.Ack(false)
}

// failureMessage 把求解错误转换为写入任务的说明
func failureMessage(err error) string {
	switch {
	case errors.Is(err, scheduler.ErrInfeasible):
		return "无可行解"
	case errors.Is(err, context.DeadlineExceeded):
		return "求解超时"
	case errors.Is(err, scheduler.ErrInvalidProblem), errors.Is(err, scheduler.ErrInvalidConfig):
		return err.Error()
	default:
		return "求解器内部错误"
	}
}
