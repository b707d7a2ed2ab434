package scheduler

// Penalty 是两个相互独立的惩罚分量。
// 只有在某个后端需要标量目标时才会把它们合成一个数。
type Penalty struct {
	Staffing   int `json:"staffing"`
	PairRepeat int `json:"pairRepeat"`
}

func (p Penalty) Zero() bool { return p.Staffing == 0 && p.PairRepeat == 0 }

// Weighted 返回加权和
func (p Penalty) Weighted(w Weights) float64 {
	return w.Staffing*float64(p.Staffing) + w.PairRepeat*float64(p.PairRepeat)
}

// Weights 是两个惩罚分量的权重
type Weights struct {
	Staffing   float64
	PairRepeat float64
}

// Evaluator 计算任意排班的惩罚值，不关心排班是由哪个后端产生的。
// 它没有可变状态，可以被多个 goroutine 同时调用。
type Evaluator struct {
	problem *Problem
}

func NewEvaluator(p *Problem) *Evaluator {
	return &Evaluator{problem: p}
}

// Evaluate 计算排班的两个惩罚分量
func (ev *Evaluator) Evaluate(a *Assignment) Penalty {
	return ev.EvaluateBits(a.cells)
}

// IsFeasible 当且仅当两个惩罚分量均为 0
func (ev *Evaluator) IsFeasible(a *Assignment) bool {
	return ev.Evaluate(a).Zero()
}

// EvaluateBits 直接在按员工优先展开的 0/1 序列上计算惩罚，供遗传算法使用
func (ev *Evaluator) EvaluateBits(bits []uint8) Penalty {
	p := ev.problem
	if p.Empty() {
		// 没有任何 (员工, 天) 组合时，两个约束都是空的
		return Penalty{}
	}
	return Penalty{
		Staffing:   staffingPenalty(p, bits),
		PairRepeat: pairRepeatPenalty(p, bits),
	}
}

// staffingPenalty = Σ_d |count(d) − T|
func staffingPenalty(p *Problem, bits []uint8) int {
	result := 0
	for d := 0; d < p.days; d++ {
		count := 0
		for e := range p.employees {
			count += int(bits[p.Variable(e, d)])
		}
		diff := count - p.target
		if diff < 0 {
			diff = -diff
		}
		result += diff
	}
	return result
}

// pairRepeatPenalty 统计满足 e1<e2、d1<d2 且四个变量全为 1 的组合数
func pairRepeatPenalty(p *Problem, bits []uint8) int {
	m, days := len(p.employees), p.days
	result := 0
	for e1 := 0; e1 < m; e1++ {
		for e2 := e1 + 1; e2 < m; e2++ {
			for d1 := 0; d1 < days; d1++ {
				if bits[e1*days+d1]&bits[e2*days+d1] == 0 {
					continue
				}
				for d2 := d1 + 1; d2 < days; d2++ {
					result += int(bits[e1*days+d2] & bits[e2*days+d2])
				}
			}
		}
	}
	return result
}
