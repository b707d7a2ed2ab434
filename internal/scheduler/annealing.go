package scheduler

import (
	"context"
	"fmt"
	"time"
)

// Schedule 是逆温度 beta 在各次扫描之间的变化方式
type Schedule string

const (
	ScheduleLinear    Schedule = "linear"
	ScheduleGeometric Schedule = "geometric"
)

// SampleParams 是传给退火采样器的参数，全部来自配置
type SampleParams struct {
	BetaRange [2]float64
	Reads     int
	Sweeps    int
	Schedule  Schedule
	Seed      int64
}

// Sample 是一次独立退火得到的自旋取值以及采样器报告的能量
type Sample struct {
	Spins  []int8
	Energy float64
}

// IsingSampler 是退火后端调用的外部采样器。
// 调用是阻塞的一次性操作；返回的样本顺序即读取顺序。
type IsingSampler interface {
	SampleIsing(ctx context.Context, model *Ising, params SampleParams) ([]Sample, error)
}

// AnnealingConfig 是退火后端的配置
type AnnealingConfig struct {
	BetaRange [2]float64
	Reads     int
	Sweeps    int
	Schedule  Schedule

	WeightA  float64 // 人数约束的权重
	WeightB  float64 // 重复同伴约束的权重
	Strength float64 // 降阶时辅助变量约束的强度

	Seed int64
}

func DefaultAnnealingConfig() AnnealingConfig {
	return AnnealingConfig{
		BetaRange: [2]float64{5, 100},
		Reads:     10,
		Sweeps:    1000,
		Schedule:  ScheduleLinear,

		WeightA:  2.0,
		WeightB:  1.0,
		Strength: 5.0,

		Seed: 1,
	}
}

func (c AnnealingConfig) Validate() error {
	if c.BetaRange[0] <= 0 || c.BetaRange[1] < c.BetaRange[0] {
		return fmt.Errorf("%w: 逆温度范围必须满足 0 < 起点 <= 终点（得到 %v）", ErrInvalidConfig, c.BetaRange)
	}
	if c.Reads <= 0 {
		return fmt.Errorf("%w: 读取次数必须 > 0（得到 %d）", ErrInvalidConfig, c.Reads)
	}
	if c.Sweeps <= 0 {
		return fmt.Errorf("%w: 扫描次数必须 > 0（得到 %d）", ErrInvalidConfig, c.Sweeps)
	}
	switch c.Schedule {
	case ScheduleLinear, ScheduleGeometric:
	default:
		return fmt.Errorf("%w: 未知的温度变化方式 %q", ErrInvalidConfig, c.Schedule)
	}
	if c.WeightA < 0 || c.WeightB < 0 {
		return fmt.Errorf("%w: 约束权重不能为负数", ErrInvalidConfig)
	}
	if c.Strength <= 0 {
		return fmt.Errorf("%w: 降阶强度必须 > 0（得到 %f）", ErrInvalidConfig, c.Strength)
	}
	return nil
}

func (c AnnealingConfig) sampleParams() SampleParams {
	return SampleParams{
		BetaRange: c.BetaRange,
		Reads:     c.Reads,
		Sweeps:    c.Sweeps,
		Schedule:  c.Schedule,
		Seed:      c.Seed,
	}
}

// QUBOModel 是编码后的退火问题
type QUBOModel struct {
	Objective *Polynomial // 原始的四次目标
	Quadratic *Polynomial // 降阶后的二次目标
	Aux       []AuxVar
	Ising     *Ising
	Variables int // 包括辅助变量在内的变量总数
}

// EncodeQUBO 构造目标函数
//
//	A·Σ_d (Σ_e x[e,d] − T)² + B·Σ x[e1,d1]·x[e2,d1]·x[e1,d2]·x[e2,d2]
func EncodeQUBO(p *Problem, weightA, weightB float64) *Polynomial {
	h := NewPolynomial()

	for d := 0; d < p.DayCount(); d++ {
		vars := make([]int, p.EmployeeCount())
		for e := range vars {
			vars[e] = p.Variable(e, d)
		}
		dev := Linear(vars, -float64(p.Target()))
		h.Add(dev.Mul(dev), weightA)
	}

	m, days := p.EmployeeCount(), p.DayCount()
	for e1 := 0; e1 < m; e1++ {
		for e2 := e1 + 1; e2 < m; e2++ {
			for d1 := 0; d1 < days; d1++ {
				for d2 := d1 + 1; d2 < days; d2++ {
					h.AddTerm(weightB, p.Variable(e1, d1), p.Variable(e2, d1), p.Variable(e1, d2), p.Variable(e2, d2))
				}
			}
		}
	}

	return h
}

// CompileQUBO 编码、降阶并转换为 Ising 模型
func CompileQUBO(ctx context.Context, p *Problem, cfg AnnealingConfig) (*QUBOModel, error) {
	objective := EncodeQUBO(p, cfg.WeightA, cfg.WeightB)
	quadratic, aux, err := Quadratize(ctx, objective, p.VariableCount(), cfg.Strength)
	if err != nil {
		return nil, err
	}
	n := p.VariableCount() + len(aux)

	ising, err := ToIsing(quadratic, n)
	if err != nil {
		return nil, err
	}

	return &QUBOModel{
		Objective: objective,
		Quadratic: quadratic,
		Aux:       aux,
		Ising:     ising,
		Variables: n,
	}, nil
}

// EncodeSpins 把排班表示为自旋，辅助变量取与原变量一致的值
func (m *QUBOModel) EncodeSpins(a *Assignment) []int8 {
	x := make([]uint8, m.Variables)
	copy(x, a.cells)
	// 辅助变量按创建顺序计算，后创建的辅助变量可能依赖先创建的
	for _, v := range m.Aux {
		x[v.Var] = x[v.Left] & x[v.Right]
	}
	spins := make([]int8, m.Variables)
	for i, b := range x {
		spins[i] = int8(2*int(b) - 1)
	}
	return spins
}

// DecodeSpins 把自旋映射回二值变量和排班，并给出被违反的具名约束以及残余能量
func (m *QUBOModel) DecodeSpins(p *Problem, spins []int8) (*Assignment, []string, float64, error) {
	if len(spins) != m.Variables {
		return nil, nil, 0, fmt.Errorf("自旋个数应为 %d（得到 %d）", m.Variables, len(spins))
	}

	x := make([]uint8, len(spins))
	for i, s := range spins {
		if s > 0 {
			x[i] = 1
		}
	}

	a, err := AssignmentFromBits(p, x[:p.VariableCount()])
	if err != nil {
		return nil, nil, 0, err
	}

	broken := []string{}
	for d := 0; d < p.DayCount(); d++ {
		if a.Count(d) != p.Target() {
			broken = append(broken, fmt.Sprintf("day-%d", d))
		}
	}

	return a, broken, m.Quadratic.Value(x), nil
}

// Annealing 把问题编码为 QUBO，转换为 Ising 模型后交给外部采样器
type Annealing struct {
	Cfg     AnnealingConfig
	Sampler IsingSampler
}

func NewAnnealing(cfg AnnealingConfig, sampler IsingSampler) (*Annealing, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sampler == nil {
		return nil, fmt.Errorf("%w: 退火采样器未初始化 (nil)", ErrInvalidConfig)
	}
	return &Annealing{Cfg: cfg, Sampler: sampler}, nil
}

func (s *Annealing) Kind() Kind { return KindAnnealing }

func (s *Annealing) Solve(ctx context.Context, p *Problem) (*Result, error) {
	start := time.Now()

	if err := s.Cfg.Validate(); err != nil {
		return nil, err
	}
	if s.Sampler == nil {
		return nil, fmt.Errorf("%w: 退火采样器未初始化 (nil)", ErrInvalidConfig)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if p.Empty() {
		energy := 0.0
		return &Result{
			Kind:       KindAnnealing,
			Assignment: EmptyAssignment(p),
			Duration:   time.Since(start),
			Energy:     &energy,
			Broken:     []string{},
		}, nil
	}

	model, err := CompileQUBO(ctx, p, s.Cfg)
	if err != nil {
		return nil, err
	}

	samples, err := s.Sampler.SampleIsing(ctx, model.Ising, s.Cfg.sampleParams())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOracleFailure, err)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: 采样器没有返回任何样本", ErrOracleFailure)
	}

	// 能量最低的样本，能量相同时取最先读取的
	chosen := 0
	for i := 1; i < len(samples); i++ {
		if samples[i].Energy < samples[chosen].Energy {
			chosen = i
		}
	}

	a, broken, energy, err := model.DecodeSpins(p, samples[chosen].Spins)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOracleFailure, err)
	}

	return &Result{
		Kind:       KindAnnealing,
		Assignment: a,
		Duration:   time.Since(start),
		Energy:     &energy,
		Broken:     broken,
	}, nil
}
