package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"github.com/sysu-ecnc-dev/shift-pairing/backend/internal/config"
	"github.com/sysu-ecnc-dev/shift-pairing/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-pairing/backend/internal/oracle/anneal"
	"github.com/sysu-ecnc-dev/shift-pairing/backend/internal/oracle/pbsolver"
	"github.com/sysu-ecnc-dev/shift-pairing/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/shift-pairing/backend/internal/utils"
)

// Defaults 是各个求解策略的默认参数，请求中的参数逐字段覆盖它们
type Defaults struct {
	Exact         scheduler.ExactConfig
	Metaheuristic scheduler.MetaheuristicConfig
	Annealing     scheduler.AnnealingConfig
	Timeout       time.Duration // <=0 表示不限制
}

func DefaultDefaults() Defaults {
	return Defaults{
		Exact:         scheduler.DefaultExactConfig(),
		Metaheuristic: scheduler.DefaultMetaheuristicConfig(),
		Annealing:     scheduler.DefaultAnnealingConfig(),
	}
}

func DefaultsFromConfig(cfg *config.Config) Defaults {
	mh := cfg.Solver.Metaheuristic
	an := cfg.Solver.Annealing

	return Defaults{
		Exact: scheduler.ExactConfig{MinimizeStaff: cfg.Solver.Exact.MinimizeStaff},
		Metaheuristic: scheduler.MetaheuristicConfig{
			PopulationSize:     mh.PopulationSize,
			Generations:        mh.Generations,
			TournamentSize:     mh.TournamentSize,
			CrossoverRate:      mh.CrossoverRate,
			CrossoverPoint:     scheduler.CrossoverPoint(mh.CrossoverPoint),
			MutationRate:       mh.MutationRate,
			BitFlipProbability: mh.BitFlipProbability,
			Objective:          scheduler.ObjectiveMode(mh.Objective),
			Weights:            scheduler.Weights{Staffing: mh.StaffingWeight, PairRepeat: mh.PairRepeatWeight},
			Seed:               mh.Seed,
			Workers:            cfg.Solver.Workers,
		},
		Annealing: scheduler.AnnealingConfig{
			BetaRange: [2]float64{an.BetaMin, an.BetaMax},
			Reads:     an.Reads,
			Sweeps:    an.Sweeps,
			Schedule:  scheduler.Schedule(an.Schedule),
			WeightA:   an.WeightA,
			WeightB:   an.WeightB,
			Strength:  an.Strength,
			Seed:      an.Seed,
		},
		Timeout: time.Duration(cfg.Solver.Timeout) * time.Second,
	}
}

// Service 根据请求选择求解策略、运行求解并用评估器审核结果
type Service struct {
	defaults Defaults
	linear   scheduler.LinearSolver
	sampler  scheduler.IsingSampler
}

func New(defaults Defaults, linear scheduler.LinearSolver, sampler scheduler.IsingSampler) *Service {
	return &Service{
		defaults: defaults,
		linear:   linear,
		sampler:  sampler,
	}
}

// NewFromConfig 使用默认的外部求解器：gophersat 与内置的退火采样器
func NewFromConfig(cfg *config.Config) *Service {
	return New(DefaultsFromConfig(cfg), pbsolver.New(), anneal.New(cfg.Solver.Workers))
}

// Problem 根据请求构造排班问题
func (s *Service) Problem(req domain.SolveRequest) (*scheduler.Problem, error) {
	if len(req.Employees) == 0 {
		return scheduler.NewProblem(req.EmployeeCount, req.DayCount, req.TargetStaffing)
	}
	if req.EmployeeCount != 0 && req.EmployeeCount != len(req.Employees) {
		return nil, fmt.Errorf("%w: 员工数 %d 与员工列表长度 %d 不一致", scheduler.ErrInvalidProblem, req.EmployeeCount, len(req.Employees))
	}
	return scheduler.NewNamedProblem(req.Employees, req.DayCount, req.TargetStaffing)
}

// Backend 根据请求中的策略名与参数构造求解后端
func (s *Service) Backend(req domain.SolveRequest) (scheduler.Backend, error) {
	kind, err := scheduler.ParseKind(req.Backend)
	if err != nil {
		return nil, err
	}

	switch kind {
	case scheduler.KindEnumeration:
		return scheduler.Enumeration{}, nil
	case scheduler.KindExact:
		return scheduler.NewExact(exactConfig(s.defaults.Exact, req.Exact), s.linear)
	case scheduler.KindMetaheuristic:
		return scheduler.NewMetaheuristic(metaheuristicConfig(s.defaults.Metaheuristic, req.Metaheuristic))
	case scheduler.KindAnnealing:
		return scheduler.NewAnnealing(annealingConfig(s.defaults.Annealing, req.Annealing), s.sampler)
	default:
		return nil, fmt.Errorf("%w: 未知的求解策略 %q", scheduler.ErrInvalidConfig, kind)
	}
}

func (s *Service) Solve(ctx context.Context, req domain.SolveRequest) (*domain.SolveOutcome, error) {
	p, err := s.Problem(req)
	if err != nil {
		return nil, err
	}
	backend, err := s.Backend(req)
	if err != nil {
		return nil, err
	}

	if s.defaults.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.defaults.Timeout)
		defer cancel()
	}

	res, err := backend.Solve(ctx, p)
	if err != nil {
		slog.Warn("求解失败", "backend", backend.Kind(), "employees", p.EmployeeCount(), "days", p.DayCount(), "target", p.Target(), "error", err)
		return nil, err
	}

	out := toOutcome(p, res)

	// 枚举策略不保证质量，不做评估
	if res.Kind != scheduler.KindEnumeration {
		penalty := scheduler.NewEvaluator(p).Evaluate(res.Assignment)
		feasible := penalty.Zero()
		out.Penalty = toPenalty(penalty)
		out.Feasible = &feasible
	}

	slog.Info("求解完成",
		"backend", res.Kind,
		"employees", p.EmployeeCount(),
		"days", p.DayCount(),
		"target", p.Target(),
		"duration", res.Duration,
		"feasible", lo.FromPtrOr(out.Feasible, false),
		"penalty", lo.FromPtr(out.Penalty),
	)

	return out, nil
}

// Evaluate 对手工给出的排班计算惩罚
func (s *Service) Evaluate(req domain.EvaluateRequest) (*domain.EvaluateOutcome, error) {
	if err := utils.ValidateRosters(req.Employees, req.Rosters); err != nil {
		return nil, fmt.Errorf("%w: %w", scheduler.ErrInvalidProblem, err)
	}

	p, err := scheduler.NewNamedProblem(req.Employees, len(req.Rosters), req.TargetStaffing)
	if err != nil {
		return nil, err
	}

	rosters := lo.Map(req.Rosters, func(labels []string, _ int) []int {
		return lo.Map(labels, func(label string, _ int) int {
			e, _ := p.EmployeeIndex(label)
			return e
		})
	})
	a, err := scheduler.AssignmentFromRosters(p, rosters)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", scheduler.ErrInvalidProblem, err)
	}

	penalty := scheduler.NewEvaluator(p).Evaluate(a)
	return &domain.EvaluateOutcome{
		Penalty:  *toPenalty(penalty),
		Feasible: penalty.Zero(),
		Rosters:  toRosters(p, a),
	}, nil
}

// Combinations 按字典序列出 size 元组合的前 limit 个，cycle 为 true 时用尽后从头循环
func (s *Service) Combinations(employees, size, limit int, cycle bool) ([][]string, error) {
	if employees < 0 || size < 0 {
		return nil, fmt.Errorf("%w: 员工数和组合大小不能为负数", scheduler.ErrInvalidProblem)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit 必须 > 0（得到 %d）", scheduler.ErrInvalidConfig, limit)
	}

	seq := scheduler.Combinations(employees, size)
	if cycle {
		seq = scheduler.CyclicCombinations(employees, size)
	}

	out := [][]string{}
	for c := range seq {
		out = append(out, lo.Map(c, func(e int, _ int) string { return scheduler.EmployeeLabel(e) }))
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
