package handler

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/shift-pairing/backend/internal/config"
	"github.com/sysu-ecnc-dev/shift-pairing/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-pairing/backend/internal/service"
)

// JobRepository 是 handler 需要的求解任务存储，由 *repository.Repository 实现
type JobRepository interface {
	InsertSolveJob(job *domain.SolveJob) error
	GetSolveJob(id uuid.UUID) (*domain.SolveJob, error)
}

// Publisher 由 *amqp.Channel 实现
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Handler struct {
	validate     *validator.Validate
	config       *config.Config
	service      *service.Service
	repository   JobRepository
	translator   ut.Translator
	solveChannel Publisher
	redisClient  redis.Cmdable // 为 nil 时不缓存求解结果

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, svc *service.Service, repo JobRepository, solveCh Publisher, rdb redis.Cmdable) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:     validate,
		config:       cfg,
		service:      svc,
		repository:   repo,
		translator:   trans,
		solveChannel: solveCh,
		redisClient:  rdb,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/token", h.IssueToken)
	})

	// 以下 API 必须携带有效的令牌
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Route("/schedules", func(r chi.Router) {
			r.Post("/solve", h.Solve)
			r.Post("/evaluate", h.Evaluate)
			r.Get("/combinations", h.GetCombinations)
			r.Route("/jobs", func(r chi.Router) {
				r.Post("/", h.CreateSolveJob)
				r.With(h.solveJob).Get("/{id}", h.GetSolveJob)
			})
		})
	})
}
