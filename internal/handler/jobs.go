package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/shift-pairing/backend/internal/domain"
)

func (h *Handler) CreateSolveJob(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Request     domain.SolveRequest `json:"request"`
		NotifyEmail string              `json:"notifyEmail" validate:"omitempty,email"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 先检查问题本身能否构造，避免把注定失败的任务放进队列
	if _, err := h.service.Problem(req.Request); err != nil {
		h.solveError(w, r, err)
		return
	}
	if _, err := h.service.Backend(req.Request); err != nil {
		h.solveError(w, r, err)
		return
	}

	job := &domain.SolveJob{
		ID:          uuid.New(),
		Status:      domain.SolveJobPending,
		Request:     req.Request,
		NotifyEmail: req.NotifyEmail,
		Owner:       r.Context().Value(SubCtxKey).(string),
	}

	if err := h.repository.InsertSolveJob(job); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	body, err := json.Marshal(domain.SolveJobMessage{JobID: job.ID})
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 发送到求解队列中
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	if err := h.solveChannel.PublishWithContext(
		ctx,
		"",
		h.config.RabbitMQ.Queue,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    job.ID.String(),
			Body:         body,
		},
	); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "创建求解任务成功", job)
}

func (h *Handler) GetSolveJob(w http.ResponseWriter, r *http.Request) {
	job := r.Context().Value(SolveJobCtx).(*domain.SolveJob)

	h.successResponse(w, r, "获取求解任务成功", job)
}
