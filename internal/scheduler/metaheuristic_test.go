package scheduler

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func smallMetaheuristicConfig() MetaheuristicConfig {
	cfg := DefaultMetaheuristicConfig()
	cfg.PopulationSize = 30
	cfg.Generations = 40
	cfg.Seed = 7
	return cfg
}

func TestMetaheuristicDeterministic(t *testing.T) {
	p, _ := NewProblem(5, 10, 2)

	run := func(workers int) *Result {
		cfg := smallMetaheuristicConfig()
		cfg.Workers = workers
		s, err := NewMetaheuristic(cfg)
		if err != nil {
			t.Fatalf("NewMetaheuristic() error = %v", err)
		}
		res, err := s.Solve(context.Background(), p)
		if err != nil {
			t.Fatalf("Solve() error = %v", err)
		}
		return res
	}

	first, second, serial := run(0), run(0), run(1)
	if diff := cmp.Diff(first.Assignment.Bits(), second.Assignment.Bits()); diff != "" {
		t.Errorf("same seed produced different assignments (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(first.Assignment.Bits(), serial.Assignment.Bits()); diff != "" {
		t.Errorf("worker count changed the result (-parallel +serial):\n%s", diff)
	}
	if diff := cmp.Diff(*first.Fitness, *serial.Fitness); diff != "" {
		t.Errorf("fitness mismatch (-parallel +serial):\n%s", diff)
	}
}

func TestMetaheuristicFitnessMatchesEvaluator(t *testing.T) {
	p, _ := NewProblem(5, 10, 2)
	s, _ := NewMetaheuristic(smallMetaheuristicConfig())

	res, err := s.Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if diff := cmp.Diff(NewEvaluator(p).Evaluate(res.Assignment), *res.Fitness); diff != "" {
		t.Errorf("reported fitness differs from evaluator (-evaluator +reported):\n%s", diff)
	}
	if res.Generations != 40 || res.Evaluations != 30*41 {
		t.Errorf("Generations = %d, Evaluations = %d", res.Generations, res.Evaluations)
	}
}

func TestMetaheuristicImprovesOnInitialPopulation(t *testing.T) {
	p, _ := NewProblem(5, 10, 2)
	cfg := smallMetaheuristicConfig()

	cfg.Generations = 0
	s, _ := NewMetaheuristic(cfg)
	initial, err := s.Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}

	cfg.Generations = 40
	s, _ = NewMetaheuristic(cfg)
	evolved, err := s.Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}

	if cfg.better(*initial.Fitness, *evolved.Fitness) {
		t.Errorf("evolved fitness %+v is worse than initial %+v", *evolved.Fitness, *initial.Fitness)
	}
}

func TestMetaheuristicEmptyProblem(t *testing.T) {
	p, _ := NewProblem(0, 10, 2)
	s, _ := NewMetaheuristic(DefaultMetaheuristicConfig())

	res, err := s.Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if !res.Fitness.Zero() || res.Assignment.DayCount() != 10 {
		t.Errorf("Fitness = %+v, days = %d", *res.Fitness, res.Assignment.DayCount())
	}
}

func TestMetaheuristicCanceled(t *testing.T) {
	p, _ := NewProblem(5, 10, 2)
	s, _ := NewMetaheuristic(smallMetaheuristicConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Solve(ctx, p); !errors.Is(err, context.Canceled) {
		t.Errorf("Solve() error = %v, want context.Canceled", err)
	}
}

func TestMetaheuristicConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*MetaheuristicConfig)
	}{
		{"population too small", func(c *MetaheuristicConfig) { c.PopulationSize = 1 }},
		{"negative generations", func(c *MetaheuristicConfig) { c.Generations = -1 }},
		{"zero tournament", func(c *MetaheuristicConfig) { c.TournamentSize = 0 }},
		{"crossover rate above one", func(c *MetaheuristicConfig) { c.CrossoverRate = 1.5 }},
		{"negative mutation rate", func(c *MetaheuristicConfig) { c.MutationRate = -0.1 }},
		{"unknown crossover point", func(c *MetaheuristicConfig) { c.CrossoverPoint = "random" }},
		{"unknown objective", func(c *MetaheuristicConfig) { c.Objective = "pareto" }},
		{"negative weight", func(c *MetaheuristicConfig) { c.Weights.PairRepeat = -1 }},
	}

	if err := DefaultMetaheuristicConfig().Validate(); err != nil {
		t.Fatalf("default config: %v", err)
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := DefaultMetaheuristicConfig()
			test.modify(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestBetter(t *testing.T) {
	lex := DefaultMetaheuristicConfig()
	if !lex.better(Penalty{Staffing: 0, PairRepeat: 9}, Penalty{Staffing: 1, PairRepeat: 0}) {
		t.Error("lexicographic: lower staffing penalty should win")
	}
	if lex.better(Penalty{Staffing: 1, PairRepeat: 2}, Penalty{Staffing: 1, PairRepeat: 2}) {
		t.Error("equal penalties must not be strictly better")
	}

	weighted := DefaultMetaheuristicConfig()
	weighted.Objective = ObjectiveWeighted
	// 1·0 + 0.5·9 = 4.5 > 1·1 + 0.5·0 = 1
	if weighted.better(Penalty{Staffing: 0, PairRepeat: 9}, Penalty{Staffing: 1, PairRepeat: 0}) {
		t.Error("weighted: higher weighted sum should lose")
	}
}

func TestSinglePointCrossover(t *testing.T) {
	a := []uint8{0, 0, 0, 0, 0}
	b := []uint8{1, 1, 1, 1, 1}
	singlePointCrossover(a, b, 2)

	if diff := cmp.Diff([]uint8{0, 0, 1, 1, 1}, a); diff != "" {
		t.Errorf("first child mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]uint8{1, 1, 0, 0, 0}, b); diff != "" {
		t.Errorf("second child mismatch (-want +got):\n%s", diff)
	}
}

func TestCrossoverPoint(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	mid := &Metaheuristic{Cfg: DefaultMetaheuristicConfig()}
	mid.Cfg.CrossoverPoint = CrossoverMidpoint
	if got := mid.crossoverPoint(11, rng); got != 5 {
		t.Errorf("midpoint crossover = %d, want 5", got)
	}

	uni := &Metaheuristic{Cfg: DefaultMetaheuristicConfig()}
	for i := 0; i < 200; i++ {
		if got := uni.crossoverPoint(6, rng); got < 1 || got > 5 {
			t.Fatalf("uniform crossover point %d outside [1,5]", got)
		}
	}
}

func TestTournamentSelectPrefersBetter(t *testing.T) {
	scores := []Penalty{{Staffing: 5}, {Staffing: 0}, {Staffing: 5}}
	rng := rand.New(rand.NewSource(3))
	better := DefaultMetaheuristicConfig().better

	// 锦标赛规模远大于种群时几乎必然抽到最优个体
	for i := 0; i < 20; i++ {
		if got := tournamentSelect(scores, 50, rng, better); got != 1 {
			t.Fatalf("tournamentSelect() = %d, want 1", got)
		}
	}
}
