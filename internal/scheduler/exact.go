package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Sense 是线性约束的方向
type Sense int

const (
	GreaterEqual Sense = iota
	LessEqual
)

func (s Sense) String() string {
	if s == LessEqual {
		return "<="
	}
	return ">="
}

// LinearTerm 是 Coeff·x[Var]
type LinearTerm struct {
	Var   int
	Coeff int
}

type LinearConstraint struct {
	Name  string
	Terms []LinearTerm
	Sense Sense
	RHS   int
}

// LinearProgram 是 0-1 整数规划：所有变量都是二值的，目标为最小化 Objective
type LinearProgram struct {
	Variables   int
	Names       []string
	Constraints []LinearConstraint
	Objective   []LinearTerm
	// ObjectiveBound 是 Objective 的已知下界，nil 表示未知。
	// 求解器可以先寻找取到该下界的解，找到即为最优。
	ObjectiveBound *int
}

// OPB 以 OPB 文本格式输出整个模型，便于调试
func (lp *LinearProgram) OPB() string {
	var b strings.Builder
	fmt.Fprintf(&b, "* #variable= %d #constraint= %d\n", lp.Variables, len(lp.Constraints))
	if len(lp.Objective) > 0 {
		b.WriteString("min:")
		writeOPBTerms(&b, lp.Objective)
		b.WriteString(" ;\n")
	}
	for _, c := range lp.Constraints {
		writeOPBTerms(&b, c.Terms)
		fmt.Fprintf(&b, " %s %d ;\n", c.Sense, c.RHS)
	}
	return b.String()
}

func writeOPBTerms(b *strings.Builder, terms []LinearTerm) {
	for _, t := range terms {
		fmt.Fprintf(b, " %+d x%d", t.Coeff, t.Var+1)
	}
}

// Status 是精确求解器报告的状态
type Status string

const (
	StatusOptimal    Status = "Optimal"
	StatusFeasible   Status = "Feasible"
	StatusInfeasible Status = "Infeasible"
	StatusUnbounded  Status = "Unbounded"
	StatusNotSolved  Status = "Not Solved"
)

// LinearSolution 是外部求解器的原始输出
type LinearSolution struct {
	Status    Status
	Values    []int
	Objective int
}

// LinearSolver 是精确求解后端调用的外部求解器。
// 调用是阻塞的一次性操作，没有部分结果。
type LinearSolver interface {
	SolveLinear(ctx context.Context, lp *LinearProgram) (*LinearSolution, error)
}

// ExactConfig 是精确求解后端的配置
type ExactConfig struct {
	// MinimizeStaff 为 true 时目标为最小化总上班人次，否则只求可行解
	MinimizeStaff bool
}

func DefaultExactConfig() ExactConfig {
	return ExactConfig{MinimizeStaff: false}
}

// EncodeLinear 为每个 (员工, 天) 生成一个二值变量，并生成两类约束：
//   - 每天 Σ_e x[e,d] >= T
//   - 对每个 e1<e2、d1<d2：x[e1,d1] + x[e2,d1] + x[e1,d2] + x[e2,d2] <= 3
//
// 第二类约束只禁止四个变量同时为 1，与其他后端的四次惩罚项并不完全等价，这里保留这一差异。
func EncodeLinear(p *Problem, cfg ExactConfig) *LinearProgram {
	m, days := p.EmployeeCount(), p.DayCount()

	lp := &LinearProgram{
		Variables: p.VariableCount(),
		Names:     make([]string, p.VariableCount()),
	}
	for v := range lp.Names {
		lp.Names[v] = p.VariableName(v)
	}

	for d := 0; d < days; d++ {
		terms := make([]LinearTerm, m)
		for e := 0; e < m; e++ {
			terms[e] = LinearTerm{Var: p.Variable(e, d), Coeff: 1}
		}
		lp.Constraints = append(lp.Constraints, LinearConstraint{
			Name:  fmt.Sprintf("day-%d", d),
			Terms: terms,
			Sense: GreaterEqual,
			RHS:   p.Target(),
		})
	}

	for e1 := 0; e1 < m; e1++ {
		for e2 := e1 + 1; e2 < m; e2++ {
			for d1 := 0; d1 < days; d1++ {
				for d2 := d1 + 1; d2 < days; d2++ {
					lp.Constraints = append(lp.Constraints, LinearConstraint{
						Name: fmt.Sprintf("pair-%d-%d-%d-%d", e1, e2, d1, d2),
						Terms: []LinearTerm{
							{Var: p.Variable(e1, d1), Coeff: 1},
							{Var: p.Variable(e2, d1), Coeff: 1},
							{Var: p.Variable(e1, d2), Coeff: 1},
							{Var: p.Variable(e2, d2), Coeff: 1},
						},
						Sense: LessEqual,
						RHS:   3,
					})
				}
			}
		}
	}

	if cfg.MinimizeStaff {
		lp.Objective = make([]LinearTerm, p.VariableCount())
		for v := range lp.Objective {
			lp.Objective[v] = LinearTerm{Var: v, Coeff: 1}
		}
		// 每天至少 T 人，总人次不少于 D·T
		bound := days * p.Target()
		lp.ObjectiveBound = &bound
	}

	return lp
}

// EncodeLinearSolution 把一个排班表示成求解器的输出形式，主要用于测试编码与解码的往返
func EncodeLinearSolution(a *Assignment) *LinearSolution {
	values := make([]int, len(a.cells))
	objective := 0
	for i, b := range a.cells {
		values[i] = int(b)
		objective += int(b)
	}
	return &LinearSolution{Status: StatusFeasible, Values: values, Objective: objective}
}

// DecodeLinear 读取每个变量的 0/1 取值。
// 状态为不可行或无界时返回 ErrInfeasible，而不是返回一个部分排班。
func DecodeLinear(p *Problem, sol *LinearSolution) (*Assignment, error) {
	switch sol.Status {
	case StatusOptimal, StatusFeasible:
	case StatusInfeasible, StatusUnbounded:
		return nil, fmt.Errorf("%w: 求解状态为 %s", ErrInfeasible, sol.Status)
	default:
		return nil, fmt.Errorf("%w: 求解器未给出解（状态 %s）", ErrOracleFailure, sol.Status)
	}

	if len(sol.Values) != p.VariableCount() {
		return nil, fmt.Errorf("%w: 变量个数应为 %d（得到 %d）", ErrOracleFailure, p.VariableCount(), len(sol.Values))
	}

	bits := make([]uint8, len(sol.Values))
	for i, v := range sol.Values {
		if v != 0 {
			bits[i] = 1
		}
	}
	return AssignmentFromBits(p, bits)
}

// Exact 把问题编码为 0-1 整数规划并交给外部求解器
type Exact struct {
	Cfg    ExactConfig
	Solver LinearSolver
}

func NewExact(cfg ExactConfig, solver LinearSolver) (*Exact, error) {
	if solver == nil {
		return nil, fmt.Errorf("%w: 精确求解器未初始化 (nil)", ErrInvalidConfig)
	}
	return &Exact{Cfg: cfg, Solver: solver}, nil
}

func (x *Exact) Kind() Kind { return KindExact }

func (x *Exact) Solve(ctx context.Context, p *Problem) (*Result, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if x.Solver == nil {
		return nil, fmt.Errorf("%w: 精确求解器未初始化 (nil)", ErrInvalidConfig)
	}

	if p.Empty() {
		objective := 0
		return &Result{
			Kind:       KindExact,
			Assignment: EmptyAssignment(p),
			Duration:   time.Since(start),
			Status:     StatusOptimal,
			Objective:  &objective,
		}, nil
	}

	lp := EncodeLinear(p, x.Cfg)

	sol, err := x.Solver.SolveLinear(ctx, lp)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOracleFailure, err)
	}

	a, err := DecodeLinear(p, sol)
	if err != nil {
		return nil, err
	}

	objective := sol.Objective
	return &Result{
		Kind:       KindExact,
		Assignment: a,
		Duration:   time.Since(start),
		Status:     sol.Status,
		Objective:  &objective,
	}, nil
}
