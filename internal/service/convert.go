package service

import (
	"github.com/samber/lo"
	"github.com/sysu-ecnc-dev/shift-pairing/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-pairing/backend/internal/scheduler"
)

func toPenalty(p scheduler.Penalty) *domain.Penalty {
	return &domain.Penalty{Staffing: p.Staffing, PairRepeat: p.PairRepeat}
}

func toRosters(p *scheduler.Problem, a *scheduler.Assignment) []domain.DayRoster {
	return lo.Map(a.Labels(p), func(labels []string, d int) domain.DayRoster {
		return domain.DayRoster{Day: d, Employees: labels}
	})
}

func toOutcome(p *scheduler.Problem, res *scheduler.Result) *domain.SolveOutcome {
	out := &domain.SolveOutcome{
		Backend:           string(res.Kind),
		EmployeeCount:     p.EmployeeCount(),
		DayCount:          p.DayCount(),
		TargetStaffing:    p.Target(),
		Employees:         p.Employees(),
		Rosters:           toRosters(p, res.Assignment),
		DurationMs:        res.Duration.Milliseconds(),
		Status:            string(res.Status),
		Objective:         res.Objective,
		Evaluations:       res.Evaluations,
		Generations:       res.Generations,
		Energy:            res.Energy,
		BrokenConstraints: res.Broken,
	}
	if res.Fitness != nil {
		out.Fitness = toPenalty(*res.Fitness)
	}
	return out
}

func exactConfig(cfg scheduler.ExactConfig, params *domain.ExactParams) scheduler.ExactConfig {
	if params != nil && params.MinimizeStaff != nil {
		cfg.MinimizeStaff = *params.MinimizeStaff
	}
	return cfg
}

func metaheuristicConfig(cfg scheduler.MetaheuristicConfig, params *domain.MetaheuristicParams) scheduler.MetaheuristicConfig {
	if params == nil {
		return cfg
	}
	cfg.PopulationSize = lo.FromPtrOr(params.PopulationSize, cfg.PopulationSize)
	cfg.Generations = lo.FromPtrOr(params.Generations, cfg.Generations)
	cfg.TournamentSize = lo.FromPtrOr(params.TournamentSize, cfg.TournamentSize)
	cfg.CrossoverRate = lo.FromPtrOr(params.CrossoverRate, cfg.CrossoverRate)
	if params.CrossoverPoint != nil {
		cfg.CrossoverPoint = scheduler.CrossoverPoint(*params.CrossoverPoint)
	}
	cfg.MutationRate = lo.FromPtrOr(params.MutationRate, cfg.MutationRate)
	cfg.BitFlipProbability = lo.FromPtrOr(params.BitFlipProbability, cfg.BitFlipProbability)
	if params.Objective != nil {
		cfg.Objective = scheduler.ObjectiveMode(*params.Objective)
	}
	cfg.Weights.Staffing = lo.FromPtrOr(params.StaffingWeight, cfg.Weights.Staffing)
	cfg.Weights.PairRepeat = lo.FromPtrOr(params.PairRepeatWeight, cfg.Weights.PairRepeat)
	cfg.Seed = lo.FromPtrOr(params.Seed, cfg.Seed)
	return cfg
}

func annealingConfig(cfg scheduler.AnnealingConfig, params *domain.AnnealingParams) scheduler.AnnealingConfig {
	if params == nil {
		return cfg
	}
	cfg.BetaRange[0] = lo.FromPtrOr(params.BetaMin, cfg.BetaRange[0])
	cfg.BetaRange[1] = lo.FromPtrOr(params.BetaMax, cfg.BetaRange[1])
	cfg.Reads = lo.FromPtrOr(params.Reads, cfg.Reads)
	cfg.Sweeps = lo.FromPtrOr(params.Sweeps, cfg.Sweeps)
	if params.Schedule != nil {
		cfg.Schedule = scheduler.Schedule(*params.Schedule)
	}
	cfg.WeightA = lo.FromPtrOr(params.WeightA, cfg.WeightA)
	cfg.WeightB = lo.FromPtrOr(params.WeightB, cfg.WeightB)
	cfg.Strength = lo.FromPtrOr(params.Strength, cfg.Strength)
	cfg.Seed = lo.FromPtrOr(params.Seed, cfg.Seed)
	return cfg
}
