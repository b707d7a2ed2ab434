package scheduler

import "fmt"

// CrossoverPoint 决定单点交叉的切点如何选取
type CrossoverPoint string

const (
	// CrossoverUniform 在 [1, n-1] 中均匀随机选取切点
	CrossoverUniform CrossoverPoint = "uniform"
	// CrossoverMidpoint 固定在 n/2 处切开
	CrossoverMidpoint CrossoverPoint = "midpoint"
)

// ObjectiveMode 决定两个惩罚分量如何比较
type ObjectiveMode string

const (
	// ObjectiveLexicographic 按加权后的 (人数惩罚, 重复惩罚) 逐项比较
	ObjectiveLexicographic ObjectiveMode = "lexicographic"
	// ObjectiveWeighted 按加权和比较
	ObjectiveWeighted ObjectiveMode = "weighted"
)

// MetaheuristicConfig 是遗传算法的参数
type MetaheuristicConfig struct {
	PopulationSize int
	Generations    int
	TournamentSize int

	CrossoverRate      float64 // 每对父本进行交叉的概率
	CrossoverPoint     CrossoverPoint
	MutationRate       float64 // 每个子代发生变异的概率
	BitFlipProbability float64 // 变异时每一位独立翻转的概率

	Objective ObjectiveMode
	Weights   Weights

	Seed    int64
	Workers int // 并行评估子代的 goroutine 数，<=0 表示不限制
}

func DefaultMetaheuristicConfig() MetaheuristicConfig {
	return MetaheuristicConfig{
		PopulationSize: 100,
		Generations:    300,
		TournamentSize: 3,

		CrossoverRate:      0.5,
		CrossoverPoint:     CrossoverUniform,
		MutationRate:       0.2,
		BitFlipProbability: 0.05,

		Objective: ObjectiveLexicographic,
		Weights:   Weights{Staffing: 1.0, PairRepeat: 0.5},

		Seed:    1,
		Workers: 0,
	}
}

func (c MetaheuristicConfig) Validate() error {
	if c.PopulationSize <= 1 {
		return fmt.Errorf("%w: 种群大小必须 > 1（得到 %d）", ErrInvalidConfig, c.PopulationSize)
	}
	if c.Generations < 0 {
		return fmt.Errorf("%w: 迭代代数不能为负数（得到 %d）", ErrInvalidConfig, c.Generations)
	}
	if c.TournamentSize <= 0 {
		return fmt.Errorf("%w: 锦标赛规模必须 > 0（得到 %d）", ErrInvalidConfig, c.TournamentSize)
	}
	for name, v := range map[string]float64{
		"交叉概率":   c.CrossoverRate,
		"变异概率":   c.MutationRate,
		"位翻转概率": c.BitFlipProbability,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %s必须在 [0,1] 内（得到 %f）", ErrInvalidConfig, name, v)
		}
	}
	switch c.CrossoverPoint {
	case CrossoverUniform, CrossoverMidpoint:
	default:
		return fmt.Errorf("%w: 未知的交叉切点策略 %q", ErrInvalidConfig, c.CrossoverPoint)
	}
	switch c.Objective {
	case ObjectiveLexicographic, ObjectiveWeighted:
	default:
		return fmt.Errorf("%w: 未知的目标比较方式 %q", ErrInvalidConfig, c.Objective)
	}
	if c.Weights.Staffing < 0 || c.Weights.PairRepeat < 0 {
		return fmt.Errorf("%w: 惩罚权重不能为负数", ErrInvalidConfig)
	}
	return nil
}

// better 表示在该配置下适应度 a 是否严格优于 b（惩罚越小越好）
func (c MetaheuristicConfig) better(a, b Penalty) bool {
	if c.Objective == ObjectiveWeighted {
		return a.Weighted(c.Weights) < b.Weighted(c.Weights)
	}
	as, bs := c.Weights.Staffing*float64(a.Staffing), c.Weights.Staffing*float64(b.Staffing)
	if as != bs {
		return as < bs
	}
	return c.Weights.PairRepeat*float64(a.PairRepeat) < c.Weights.PairRepeat*float64(b.PairRepeat)
}
