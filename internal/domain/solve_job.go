package domain

import (
	"time"

	"github.com/google/uuid"
)

type SolveJobStatus string

const (
	SolveJobPending   SolveJobStatus = "pending"
	SolveJobRunning   SolveJobStatus = "running"
	SolveJobSucceeded SolveJobStatus = "succeeded"
	SolveJobFailed    SolveJobStatus = "failed"
)

// SolveJob 是一次异步求解，由 API 创建、由 worker 执行
type SolveJob struct {
	ID          uuid.UUID      `json:"id"`
	Status      SolveJobStatus `json:"status"`
	Request     SolveRequest   `json:"request"`
	Outcome     *SolveOutcome  `json:"outcome"`
	Error       string         `json:"error,omitempty"`
	NotifyEmail string         `json:"notifyEmail,omitempty"`
	Owner       string         `json:"owner"`
	CreatedAt   time.Time      `json:"createdAt"`
	StartedAt   *time.Time     `json:"startedAt"`
	FinishedAt  *time.Time     `json:"finishedAt"`
	Version     int32          `json:"-"`
}

// Finished 表示任务已经结束，不会再被 worker 处理
func (j *SolveJob) Finished() bool {
	return j.Status == SolveJobSucceeded || j.Status == SolveJobFailed
}

// SolveJobMessage 是发送到求解队列中的消息
type SolveJobMessage struct {
	JobID uuid.UUID `json:"jobID"`
}
