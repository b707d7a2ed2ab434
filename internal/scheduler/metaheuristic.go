package scheduler

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"
)

// Metaheuristic 是基于种群的遗传算法后端。
// 染色体是长度为 M·D 的 0/1 序列，展开顺序与精确求解后端相同。
type Metaheuristic struct {
	Cfg MetaheuristicConfig
}

func NewMetaheuristic(cfg MetaheuristicConfig) (*Metaheuristic, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Metaheuristic{Cfg: cfg}, nil
}

func (s *Metaheuristic) Kind() Kind { return KindMetaheuristic }

func (s *Metaheuristic) Solve(ctx context.Context, p *Problem) (*Result, error) {
	start := time.Now()

	if err := s.Cfg.Validate(); err != nil {
		return nil, err
	}

	if p.Empty() {
		fitness := Penalty{}
		return &Result{
			Kind:       KindMetaheuristic,
			Assignment: EmptyAssignment(p),
			Duration:   time.Since(start),
			Fitness:    &fitness,
		}, nil
	}

	// 每次求解都使用自己的随机数生成器，保证相同种子的结果可复现
	rng := rand.New(rand.NewSource(s.Cfg.Seed))
	eval := NewEvaluator(p)

	n := p.VariableCount()
	popSize := s.Cfg.PopulationSize

	makeChromosomes := func() [][]uint8 {
		backing := make([]uint8, popSize*n)
		chs := make([][]uint8, popSize)
		for i := 0; i < popSize; i++ {
			chs[i] = backing[i*n : (i+1)*n]
		}
		return chs
	}

	// 两代种群：当前代 (A) 和下一代 (B)
	popA := makeChromosomes()
	popB := makeChromosomes()
	scoresA := make([]Penalty, popSize)
	scoresB := make([]Penalty, popSize)

	// 随机初始化
	for i := range popA {
		for j := range popA[i] {
			popA[i][j] = uint8(rng.Intn(2))
		}
	}
	if err := s.score(ctx, eval, popA, scoresA); err != nil {
		return nil, err
	}
	evaluations := popSize

	// 最优个体，适应度相同时保留最早发现的
	best := make([]uint8, n)
	bestScore := scoresA[0]
	copy(best, popA[0])
	for i := 1; i < popSize; i++ {
		if s.Cfg.better(scoresA[i], bestScore) {
			bestScore = scoresA[i]
			copy(best, popA[i])
		}
	}

	for gen := 0; gen < s.Cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// 锦标赛选择出下一代的父本
		for i := 0; i < popSize; i++ {
			copy(popB[i], popA[tournamentSelect(scoresA, s.Cfg.TournamentSize, rng, s.Cfg.better)])
		}

		// 相邻的两个个体为一对，按概率进行单点交叉
		for i := 1; i < popSize; i += 2 {
			if rng.Float64() < s.Cfg.CrossoverRate {
				singlePointCrossover(popB[i-1], popB[i], s.crossoverPoint(n, rng))
			}
		}

		// 变异
		for i := 0; i < popSize; i++ {
			if rng.Float64() < s.Cfg.MutationRate {
				flipBits(popB[i], s.Cfg.BitFlipProbability, rng)
			}
		}

		// 评估所有子代
		if err := s.score(ctx, eval, popB, scoresB); err != nil {
			return nil, err
		}
		evaluations += popSize

		for i := 0; i < popSize; i++ {
			if s.Cfg.better(scoresB[i], bestScore) {
				bestScore = scoresB[i]
				copy(best, popB[i])
			}
		}

		// 新一代整体替换旧一代
		popA, popB = popB, popA
		scoresA, scoresB = scoresB, scoresA
	}

	a, err := AssignmentFromBits(p, best)
	if err != nil {
		return nil, err
	}

	return &Result{
		Kind:        KindMetaheuristic,
		Assignment:  a,
		Duration:    time.Since(start),
		Fitness:     &bestScore,
		Evaluations: evaluations,
		Generations: s.Cfg.Generations,
	}, nil
}

// score 并行计算每个个体的适应度，结果按下标写回，因此与并行度无关
func (s *Metaheuristic) score(ctx context.Context, eval *Evaluator, pop [][]uint8, scores []Penalty) error {
	g, _ := errgroup.WithContext(ctx)
	if s.Cfg.Workers > 0 {
		g.SetLimit(s.Cfg.Workers)
	}
	for i := range pop {
		g.Go(func() error {
			scores[i] = eval.EvaluateBits(pop[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("评估种群失败: %w", err)
	}
	return nil
}

func (s *Metaheuristic) crossoverPoint(n int, rng *rand.Rand) int {
	if n < 2 {
		return 0
	}
	if s.Cfg.CrossoverPoint == CrossoverMidpoint {
		return n / 2
	}
	return 1 + rng.Intn(n-1)
}

// tournamentSelect 随机抽取 size 个个体，返回其中最优者的下标
func tournamentSelect(scores []Penalty, size int, rng *rand.Rand, better func(a, b Penalty) bool) int {
	best := rng.Intn(len(scores))
	for i := 1; i < size; i++ {
		cand := rng.Intn(len(scores))
		if better(scores[cand], scores[best]) {
			best = cand
		}
	}
	return best
}

// singlePointCrossover 交换两个染色体在 point 之后的片段
func singlePointCrossover(ch1, ch2 []uint8, point int) {
	for i := point; i < len(ch1); i++ {
		ch1[i], ch2[i] = ch2[i], ch1[i]
	}
}

// flipBits 以概率 p 独立翻转每一位
func flipBits(ch []uint8, p float64, rng *rand.Rand) {
	for i := range ch {
		if rng.Float64() < p {
			ch[i] ^= 1
		}
	}
}
