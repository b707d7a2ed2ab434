package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/shift-pairing/backend/internal/config"
	"github.com/sysu-ecnc-dev/shift-pairing/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-pairing/backend/internal/oracle/anneal"
	"github.com/sysu-ecnc-dev/shift-pairing/backend/internal/oracle/pbsolver"
	"github.com/sysu-ecnc-dev/shift-pairing/backend/internal/service"
	"golang.org/x/crypto/bcrypt"
)

const (
	testClientID     = "scheduler"
	testClientSecret = "s3cret"
)

type fakeJobRepository struct {
	jobs map[uuid.UUID]*domain.SolveJob
}

func (f *fakeJobRepository) InsertSolveJob(job *domain.SolveJob) error {
	job.Version = 1
	stored := *job
	f.jobs[job.ID] = &stored
	return nil
}

func (f *fakeJobRepository) GetSolveJob(id uuid.UUID) (*domain.SolveJob, error) {
	job, ok := f.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *job
	return &copied, nil
}

type publishedMessage struct {
	key string
	msg amqp.Publishing
}

type fakePublisher struct {
	published []publishedMessage
}

func (f *fakePublisher) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	f.published = append(f.published, publishedMessage{key: key, msg: msg})
	return nil
}

type testResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestHandler(t *testing.T) (*Handler, *fakeJobRepository, *fakePublisher) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testClientSecret), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.Expiration = 3600
	cfg.APIClient.ID = testClientID
	cfg.APIClient.SecretHash = string(hash)
	cfg.RabbitMQ.Queue = "solve_queue"
	cfg.RabbitMQ.PublishTimeout = 1

	defaults := service.DefaultDefaults()
	defaults.Metaheuristic.Generations = 10
	defaults.Annealing.Sweeps = 50
	svc := service.New(defaults, pbsolver.New(), anneal.New(0))

	repo := &fakeJobRepository{jobs: make(map[uuid.UUID]*domain.SolveJob)}
	pub := &fakePublisher{}

	h, err := NewHandler(cfg, svc, repo, pub, nil)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	h.RegisterRoutes()
	return h, repo, pub
}

func do(t *testing.T, h *Handler, method, path string, body any, token string) testResponse {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.Mux.ServeHTTP(rec, req)

	var resp testResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("%s %s: decode response: %v", method, path, err)
	}
	return resp
}

func issueToken(t *testing.T, h *Handler) string {
	t.Helper()

	resp := do(t, h, http.MethodPost, "/auth/token", map[string]string{"clientID": testClientID, "clientSecret": testClientSecret}, "")
	if !resp.Success {
		t.Fatalf("issue token: %s", resp.Message)
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("decode token: %v", err)
	}
	return data.Token
}

func TestIssueToken(t *testing.T) {
	h, _, _ := newTestHandler(t)

	if token := issueToken(t, h); token == "" {
		t.Error("empty token")
	}

	resp := do(t, h, http.MethodPost, "/auth/token", map[string]string{"clientID": testClientID, "clientSecret": "wrong"}, "")
	if resp.Success || resp.Message != "客户端不存在或密钥错误" {
		t.Errorf("wrong secret: %+v", resp)
	}

	resp = do(t, h, http.MethodPost, "/auth/token", map[string]string{"clientID": testClientID}, "")
	if resp.Success {
		t.Error("missing secret: want failure")
	}
}

func TestAuthRequired(t *testing.T) {
	h, _, _ := newTestHandler(t)

	resp := do(t, h, http.MethodGet, "/schedules/combinations?employees=3", nil, "")
	if resp.Success || resp.Message != "未提供令牌" {
		t.Errorf("no token: %+v", resp)
	}

	resp = do(t, h, http.MethodGet, "/schedules/combinations?employees=3", nil, "not-a-jwt")
	if resp.Success || resp.Message != "无效的令牌" {
		t.Errorf("bad token: %+v", resp)
	}
}

func TestSolve(t *testing.T) {
	h, _, _ := newTestHandler(t)
	token := issueToken(t, h)

	resp := do(t, h, http.MethodPost, "/schedules/solve", domain.SolveRequest{
		EmployeeCount:  5,
		DayCount:       2,
		TargetStaffing: 2,
		Backend:        "enumeration",
	}, token)
	if !resp.Success {
		t.Fatalf("solve: %s", resp.Message)
	}

	var out domain.SolveOutcome
	if err := json.Unmarshal(resp.Data, &out); err != nil {
		t.Fatalf("decode outcome: %v", err)
	}
	want := []domain.DayRoster{
		{Day: 0, Employees: []string{"A", "B"}},
		{Day: 1, Employees: []string{"A", "C"}},
	}
	if diff := cmp.Diff(want, out.Rosters); diff != "" {
		t.Errorf("rosters mismatch (-want +got):\n%s", diff)
	}
}

func TestSolveErrors(t *testing.T) {
	h, _, _ := newTestHandler(t)
	token := issueToken(t, h)

	resp := do(t, h, http.MethodPost, "/schedules/solve", domain.SolveRequest{EmployeeCount: 2, DayCount: 2, TargetStaffing: 3, Backend: "exact"}, token)
	if resp.Success || resp.Message != "无可行解" {
		t.Errorf("infeasible: %+v", resp)
	}

	resp = do(t, h, http.MethodPost, "/schedules/solve", domain.SolveRequest{EmployeeCount: 2, DayCount: 2, Backend: "quantum"}, token)
	if resp.Success || resp.Message == "" {
		t.Errorf("unknown backend: %+v", resp)
	}

	resp = do(t, h, http.MethodPost, "/schedules/solve", map[string]any{"backend": "exact", "colour": "blue"}, token)
	if resp.Success {
		t.Errorf("unknown field: %+v", resp)
	}

	resp = do(t, h, http.MethodPost, "/schedules/solve", domain.SolveRequest{EmployeeCount: 21, DayCount: 10, TargetStaffing: 2, Backend: "annealing"}, token)
	if resp.Success {
		t.Errorf("too many employees: %+v", resp)
	}
	resp = do(t, h, http.MethodPost, "/schedules/solve", domain.SolveRequest{EmployeeCount: 5, DayCount: 21, TargetStaffing: 2, Backend: "annealing"}, token)
	if resp.Success {
		t.Errorf("too many days: %+v", resp)
	}
}

func TestEvaluate(t *testing.T) {
	h, _, _ := newTestHandler(t)
	token := issueToken(t, h)

	resp := do(t, h, http.MethodPost, "/schedules/evaluate", domain.EvaluateRequest{
		Employees:      []string{"A", "B", "C"},
		TargetStaffing: 2,
		Rosters:        [][]string{{"A", "B"}, {"A", "C"}, {"B", "C"}},
	}, token)
	if !resp.Success {
		t.Fatalf("evaluate: %s", resp.Message)
	}

	var out domain.EvaluateOutcome
	if err := json.Unmarshal(resp.Data, &out); err != nil {
		t.Fatalf("decode outcome: %v", err)
	}
	if !out.Feasible {
		t.Errorf("Feasible = false, penalty = %+v", out.Penalty)
	}

	resp = do(t, h, http.MethodPost, "/schedules/evaluate", domain.EvaluateRequest{
		Employees: []string{"A", "B"},
		Rosters:   [][]string{{"A", "A"}},
	}, token)
	if resp.Success {
		t.Error("duplicate employee in a day: want failure")
	}
}

func TestGetCombinations(t *testing.T) {
	h, _, _ := newTestHandler(t)
	token := issueToken(t, h)

	resp := do(t, h, http.MethodGet, "/schedules/combinations?employees=4&size=2&limit=3", nil, token)
	if !resp.Success {
		t.Fatalf("combinations: %s", resp.Message)
	}
	var got [][]string
	if err := json.Unmarshal(resp.Data, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff([][]string{{"A", "B"}, {"A", "C"}, {"A", "D"}}, got); diff != "" {
		t.Errorf("combinations mismatch (-want +got):\n%s", diff)
	}

	resp = do(t, h, http.MethodGet, "/schedules/combinations?employees=4&limit=0", nil, token)
	if resp.Success {
		t.Error("zero limit: want failure")
	}
}

func TestSolveJobs(t *testing.T) {
	h, repo, pub := newTestHandler(t)
	token := issueToken(t, h)

	resp := do(t, h, http.MethodPost, "/schedules/jobs", map[string]any{
		"request":     domain.SolveRequest{EmployeeCount: 4, DayCount: 6, TargetStaffing: 2, Backend: "exact"},
		"notifyEmail": "ops@example.com",
	}, token)
	if !resp.Success {
		t.Fatalf("create job: %s", resp.Message)
	}

	var job domain.SolveJob
	if err := json.Unmarshal(resp.Data, &job); err != nil {
		t.Fatalf("decode job: %v", err)
	}
	if job.Status != domain.SolveJobPending || job.Owner != testClientID {
		t.Errorf("job = %+v", job)
	}
	if _, ok := repo.jobs[job.ID]; !ok {
		t.Error("job was not stored")
	}

	if len(pub.published) != 1 {
		t.Fatalf("published %d messages, want 1", len(pub.published))
	}
	if pub.published[0].key != "solve_queue" {
		t.Errorf("routing key = %q", pub.published[0].key)
	}
	var msg domain.SolveJobMessage
	if err := json.Unmarshal(pub.published[0].msg.Body, &msg); err != nil || msg.JobID != job.ID {
		t.Errorf("message = %s, %v", pub.published[0].msg.Body, err)
	}

	resp = do(t, h, http.MethodGet, "/schedules/jobs/"+job.ID.String(), nil, token)
	if !resp.Success {
		t.Errorf("get job: %s", resp.Message)
	}

	resp = do(t, h, http.MethodGet, "/schedules/jobs/not-a-uuid", nil, token)
	if resp.Success || resp.Message != "任务ID无效" {
		t.Errorf("invalid id: %+v", resp)
	}

	resp = do(t, h, http.MethodGet, "/schedules/jobs/"+uuid.NewString(), nil, token)
	if resp.Success || resp.Message != "任务不存在" {
		t.Errorf("unknown id: %+v", resp)
	}

	repo.jobs[job.ID].Owner = "someone-else"
	resp = do(t, h, http.MethodGet, "/schedules/jobs/"+job.ID.String(), nil, token)
	if resp.Success {
		t.Error("foreign job: want failure")
	}
}

func TestCreateSolveJobRejectsInvalidProblem(t *testing.T) {
	h, repo, pub := newTestHandler(t)
	token := issueToken(t, h)

	resp := do(t, h, http.MethodPost, "/schedules/jobs", map[string]any{
		"request": domain.SolveRequest{EmployeeCount: 3, Employees: []string{"A", "B"}, DayCount: 2, Backend: "enumeration"},
	}, token)
	if resp.Success {
		t.Error("mismatched employee count: want failure")
	}
	if len(repo.jobs) != 0 || len(pub.published) != 0 {
		t.Errorf("stored %d jobs, published %d messages", len(repo.jobs), len(pub.published))
	}
}

// fakeRedis 只实现求解缓存用到的 Get 与 Set
type fakeRedis struct {
	redis.Cmdable
	data map[string]string
	ttl  map[string]time.Duration
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	f.data[key] = string(value.([]byte))
	f.ttl[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func TestSolveCache(t *testing.T) {
	h, _, _ := newTestHandler(t)
	h.config.Redis.ResultTTL = 60
	rdb := &fakeRedis{data: map[string]string{}, ttl: map[string]time.Duration{}}
	h.redisClient = rdb
	token := issueToken(t, h)

	req := domain.SolveRequest{EmployeeCount: 3, DayCount: 3, TargetStaffing: 2, Backend: "metaheuristic"}
	key, err := solveCacheKey(req)
	if err != nil {
		t.Fatalf("solveCacheKey() error = %v", err)
	}

	resp := do(t, h, http.MethodPost, "/schedules/solve", req, token)
	if !resp.Success {
		t.Fatalf("solve: %s", resp.Message)
	}
	if _, ok := rdb.data[key]; !ok {
		t.Fatal("outcome was not cached")
	}
	if rdb.ttl[key] != time.Minute {
		t.Errorf("ttl = %v, want 1m", rdb.ttl[key])
	}

	// 命中缓存时直接返回缓存中的结果
	rdb.data[key] = `{"backend":"metaheuristic","durationMs":42}`
	resp = do(t, h, http.MethodPost, "/schedules/solve", req, token)
	var out domain.SolveOutcome
	if err := json.Unmarshal(resp.Data, &out); err != nil {
		t.Fatalf("decode outcome: %v", err)
	}
	if out.DurationMs != 42 {
		t.Errorf("DurationMs = %d, want the cached 42", out.DurationMs)
	}
}
