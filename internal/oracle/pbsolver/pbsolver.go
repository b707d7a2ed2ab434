// Package pbsolver 用 gophersat 的伪布尔 MAXSAT 求解器实现 scheduler.LinearSolver。
//
// 硬约束对应线性约束，目标函数中的每一项对应一个带权软子句，
// gophersat 给出的代价即目标函数值。
package pbsolver

import (
	"context"
	"fmt"
	"slices"

	"github.com/crillab/gophersat/maxsat"
	"github.com/sysu-ecnc-dev/shift-pairing/backend/internal/scheduler"
)

type Solver struct {
	// Verbose 为 true 时 gophersat 会在标准输出打印求解过程
	Verbose bool
}

func New() *Solver {
	return &Solver{}
}

// SolveLinear 求解 0-1 整数规划。
// 给出目标下界时先求解"目标不超过下界"的判定问题，命中即为最优解；否则做完整的优化。
// gophersat 不支持中断，ctx 结束时立即返回，后台的求解在完成后被丢弃。
func (s *Solver) SolveLinear(ctx context.Context, lp *scheduler.LinearProgram) (*scheduler.LinearSolution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if lp.ObjectiveBound != nil && len(lp.Objective) > 0 {
		sol, err := s.solve(ctx, withObjectiveBound(lp))
		if err != nil {
			return nil, err
		}
		if sol.Status == scheduler.StatusOptimal {
			sol.Objective = objectiveValue(lp, sol.Values)
			return sol, nil
		}
	}

	return s.solve(ctx, lp)
}

type outcome struct {
	sol *scheduler.LinearSolution
	err error
}

func (s *Solver) solve(ctx context.Context, lp *scheduler.LinearProgram) (*scheduler.LinearSolution, error) {
	done := make(chan outcome, 1)
	go func() {
		sol, err := s.solveBlocking(lp)
		done <- outcome{sol: sol, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case o := <-done:
		return o.sol, o.err
	}
}

// solveBlocking 调用 gophersat，panic 会被转换为错误返回
func (s *Solver) solveBlocking(lp *scheduler.LinearProgram) (sol *scheduler.LinearSolution, err error) {
	defer func() {
		if r := recover(); r != nil {
			sol = nil
			err = fmt.Errorf("gophersat panic: %v", r)
		}
	}()

	constrs, offset, err := Translate(lp)
	if err != nil {
		return nil, err
	}

	pb := maxsat.New(constrs...)
	pb.SetVerbose(s.Verbose)

	model, cost := pb.Solve()
	if model == nil {
		return &scheduler.LinearSolution{Status: scheduler.StatusInfeasible}, nil
	}

	values := make([]int, lp.Variables)
	for v := range values {
		// 没有出现在任何约束中的变量不在模型里，取 0
		if model[varName(v)] {
			values[v] = 1
		}
	}

	return &scheduler.LinearSolution{
		Status:    scheduler.StatusOptimal,
		Values:    values,
		Objective: cost + offset,
	}, nil
}

// withObjectiveBound 把"目标不超过下界"作为硬约束加入，并去掉目标函数
func withObjectiveBound(lp *scheduler.LinearProgram) *scheduler.LinearProgram {
	bounded := *lp
	bounded.Constraints = append(slices.Clone(lp.Constraints), scheduler.LinearConstraint{
		Name:  "objective-bound",
		Terms: lp.Objective,
		Sense: scheduler.LessEqual,
		RHS:   *lp.ObjectiveBound,
	})
	bounded.Objective = nil
	bounded.ObjectiveBound = nil
	return &bounded
}

func objectiveValue(lp *scheduler.LinearProgram, values []int) int {
	v := 0
	for _, t := range lp.Objective {
		v += t.Coeff * values[t.Var]
	}
	return v
}

func varName(v int) string { return fmt.Sprintf("x%d", v) }

// Translate 把线性规划转换为 gophersat 的约束列表。
// 返回的 offset 是目标函数中负系数项带来的常数，需要加回到代价上。
func Translate(lp *scheduler.LinearProgram) ([]maxsat.Constr, int, error) {
	constrs := make([]maxsat.Constr, 0, len(lp.Constraints)+len(lp.Objective))

	for _, c := range lp.Constraints {
		lits := make([]maxsat.Lit, len(c.Terms))
		coeffs := make([]int, len(c.Terms))
		sum := 0
		for i, t := range c.Terms {
			if t.Var < 0 || t.Var >= lp.Variables {
				return nil, 0, fmt.Errorf("约束 %s 中的变量 %d 超出范围", c.Name, t.Var)
			}
			lits[i] = maxsat.Var(varName(t.Var))
			coeffs[i] = t.Coeff
			sum += t.Coeff
		}

		switch c.Sense {
		case scheduler.GreaterEqual:
			constrs = append(constrs, maxsat.HardPBConstr(lits, coeffs, c.RHS))
		case scheduler.LessEqual:
			// Σ c·x <= r  等价于  Σ c·¬x >= Σ c − r
			for i := range lits {
				lits[i] = lits[i].Negation()
			}
			constrs = append(constrs, maxsat.HardPBConstr(lits, coeffs, sum-c.RHS))
		default:
			return nil, 0, fmt.Errorf("约束 %s 的方向未知", c.Name)
		}
	}

	offset := 0
	for _, t := range lp.Objective {
		switch {
		case t.Coeff > 0:
			// x 为真时付出代价 Coeff
			constrs = append(constrs, maxsat.WeightedClause([]maxsat.Lit{maxsat.Not(varName(t.Var))}, t.Coeff))
		case t.Coeff < 0:
			// Coeff·x = Coeff + |Coeff|·¬x
			offset += t.Coeff
			constrs = append(constrs, maxsat.WeightedClause([]maxsat.Lit{maxsat.Var(varName(t.Var))}, -t.Coeff))
		}
	}

	return constrs, offset, nil
}
