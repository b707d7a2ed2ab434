package scheduler

import (
	"container/heap"
	"context"
	"fmt"
	"slices"
	"strconv"
)

// Term 是 Coeff·∏ x[v]，Vars 严格递增且不重复
type Term struct {
	Coeff float64
	Vars  []int
}

// Polynomial 是二值变量上的多项式：常数项加上一组项。
// 因为变量取值为 0/1，x·x = x，所以每一项中的变量都是一个集合。
type Polynomial struct {
	Constant float64
	terms    []Term
	index    map[string]int
}

func NewPolynomial() *Polynomial {
	return &Polynomial{index: make(map[string]int)}
}

// Linear 返回 Σ x[v] + constant
func Linear(vars []int, constant float64) *Polynomial {
	p := NewPolynomial()
	p.Constant = constant
	for _, v := range vars {
		p.AddTerm(1, v)
	}
	return p
}

func termKey(vars []int) string {
	b := make([]byte, 0, 4*len(vars))
	for i, v := range vars {
		if i > 0 {
			b = append(b, ',')
		}
		b = strconv.AppendInt(b, int64(v), 10)
	}
	return string(b)
}

// AddTerm 累加一项，变量会被排序去重；没有变量时累加到常数项
func (p *Polynomial) AddTerm(coeff float64, vars ...int) {
	if coeff == 0 {
		return
	}
	vs := slices.Clone(vars)
	slices.Sort(vs)
	vs = slices.Compact(vs)
	if len(vs) == 0 {
		p.Constant += coeff
		return
	}
	key := termKey(vs)
	if i, ok := p.index[key]; ok {
		p.terms[i].Coeff += coeff
		return
	}
	p.index[key] = len(p.terms)
	p.terms = append(p.terms, Term{Coeff: coeff, Vars: vs})
}

// Add 累加 scale·q
func (p *Polynomial) Add(q *Polynomial, scale float64) {
	p.Constant += scale * q.Constant
	for _, t := range q.terms {
		p.AddTerm(scale*t.Coeff, t.Vars...)
	}
}

// Mul 返回 p·q
func (p *Polynomial) Mul(q *Polynomial) *Polynomial {
	r := NewPolynomial()
	r.Constant = p.Constant * q.Constant
	for _, t := range p.terms {
		r.AddTerm(t.Coeff*q.Constant, t.Vars...)
	}
	for _, u := range q.terms {
		r.AddTerm(u.Coeff*p.Constant, u.Vars...)
	}
	for _, t := range p.terms {
		for _, u := range q.terms {
			r.AddTerm(t.Coeff*u.Coeff, append(slices.Clone(t.Vars), u.Vars...)...)
		}
	}
	return r
}

// Terms 返回所有系数非零的项，顺序为首次加入的顺序
func (p *Polynomial) Terms() []Term {
	out := make([]Term, 0, len(p.terms))
	for _, t := range p.terms {
		if t.Coeff != 0 {
			out = append(out, Term{Coeff: t.Coeff, Vars: slices.Clone(t.Vars)})
		}
	}
	return out
}

func (p *Polynomial) Degree() int {
	deg := 0
	for _, t := range p.terms {
		if t.Coeff != 0 {
			deg = max(deg, len(t.Vars))
		}
	}
	return deg
}

// Value 计算多项式在给定 0/1 取值下的值
func (p *Polynomial) Value(x []uint8) float64 {
	v := p.Constant
	for _, t := range p.terms {
		prod := t.Coeff
		for _, i := range t.Vars {
			if x[i] == 0 {
				prod = 0
				break
			}
		}
		v += prod
	}
	return v
}

// AuxVar 记录降阶时引入的辅助变量：Var 应等于 x[Left]·x[Right]
type AuxVar struct {
	Var   int
	Left  int
	Right int
}

// Quadratize 通过贪心的变量对替换把多项式降为二次。
// 每一轮在所有高于二次的项中找出现次数最多的变量对（次数相同时取下标最小者），
// 用新的辅助变量 y 替换它，并加上惩罚 strength·(x_i x_j − 2 x_i y − 2 x_j y + 3 y)。
// 新变量的下标从 next 开始分配，next 必须大于 p 中所有变量的下标。
// 每一轮开始前检查 ctx，被取消时返回 ctx.Err()。
func Quadratize(ctx context.Context, p *Polynomial, next int, strength float64) (*Polynomial, []AuxVar, error) {
	r := newReducer()
	r.poly.Constant = p.Constant
	for _, t := range p.terms {
		r.add(t.Coeff, t.Vars...)
	}

	var aux []AuxVar
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		pair, ok := r.popPair()
		if !ok {
			return r.poly, aux, nil
		}

		y := next
		next++
		aux = append(aux, AuxVar{Var: y, Left: pair[0], Right: pair[1]})

		ids := make([]int, 0, len(r.pairs[pair]))
		for id := range r.pairs[pair] {
			ids = append(ids, id)
		}
		slices.Sort(ids)

		for _, id := range ids {
			t := r.poly.terms[id]
			vars := make([]int, 0, len(t.Vars)-1)
			for _, v := range t.Vars {
				if v != pair[0] && v != pair[1] {
					vars = append(vars, v)
				}
			}
			vars = append(vars, y)
			r.remove(id)
			r.add(t.Coeff, vars...)
		}

		r.add(strength, pair[0], pair[1])
		r.add(-2*strength, pair[0], y)
		r.add(-2*strength, pair[1], y)
		r.add(3*strength, y)
	}
}

// reducer 维护高次项中每个变量对出现在哪些项里，使每一轮替换只触及相关的项
type reducer struct {
	poly    *Polynomial
	pairs   map[[2]int]map[int]struct{}
	indexed []bool
	queue   pairQueue
}

func newReducer() *reducer {
	return &reducer{
		poly:  NewPolynomial(),
		pairs: make(map[[2]int]map[int]struct{}),
	}
}

func (r *reducer) add(coeff float64, vars ...int) {
	if coeff == 0 {
		return
	}
	r.poly.AddTerm(coeff, vars...)
	vs := slices.Clone(vars)
	slices.Sort(vs)
	vs = slices.Compact(vs)
	if len(vs) <= 2 {
		return
	}
	r.sync(r.poly.index[termKey(vs)])
}

// remove 把第 id 项清零并从索引中删除，之后同样变量的项会占用新的位置
func (r *reducer) remove(id int) {
	t := &r.poly.terms[id]
	t.Coeff = 0
	r.sync(id)
	delete(r.poly.index, termKey(t.Vars))
}

// sync 使第 id 项是否在变量对索引中与"系数非零且高于二次"保持一致
func (r *reducer) sync(id int) {
	for len(r.indexed) <= id {
		r.indexed = append(r.indexed, false)
	}
	t := r.poly.terms[id]
	want := t.Coeff != 0 && len(t.Vars) > 2
	if want == r.indexed[id] {
		return
	}
	r.indexed[id] = want

	for i := 0; i < len(t.Vars); i++ {
		for j := i + 1; j < len(t.Vars); j++ {
			pair := [2]int{t.Vars[i], t.Vars[j]}
			set := r.pairs[pair]
			if want {
				if set == nil {
					set = make(map[int]struct{})
					r.pairs[pair] = set
				}
				set[id] = struct{}{}
			} else {
				delete(set, id)
				if len(set) == 0 {
					delete(r.pairs, pair)
				}
			}
			if n := len(set); n > 0 {
				heap.Push(&r.queue, pairCount{pair: pair, count: n})
			}
		}
	}
}

// popPair 取出当前出现次数最多的变量对，队列中与当前次数不符的旧记录直接丢弃
func (r *reducer) popPair() ([2]int, bool) {
	for r.queue.Len() > 0 {
		top := heap.Pop(&r.queue).(pairCount)
		if len(r.pairs[top.pair]) == top.count {
			return top.pair, true
		}
	}
	return [2]int{}, false
}

type pairCount struct {
	pair  [2]int
	count int
}

// pairQueue 按次数从大到小、次数相同时按变量对从小到大排列
type pairQueue []pairCount

func (q pairQueue) Len() int { return len(q) }

func (q pairQueue) Less(i, j int) bool {
	if q[i].count != q[j].count {
		return q[i].count > q[j].count
	}
	if q[i].pair[0] != q[j].pair[0] {
		return q[i].pair[0] < q[j].pair[0]
	}
	return q[i].pair[1] < q[j].pair[1]
}

func (q pairQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *pairQueue) Push(x any) { *q = append(*q, x.(pairCount)) }

func (q *pairQueue) Pop() any {
	old := *q
	n := len(old)
	x := old[n-1]
	*q = old[:n-1]
	return x
}

// Coupling 是 Ising 模型中 s[I]·s[J] 的系数，I < J
type Coupling struct {
	I, J  int
	Value float64
}

// Ising 是 ±1 自旋形式的模型：E(s) = Σ H[i] s[i] + Σ J s[I] s[J] + Offset
type Ising struct {
	Spins     int
	H         []float64
	Couplings []Coupling
	Offset    float64
}

// ToIsing 用 x = (1+s)/2 把最多二次的多项式转换为 Ising 模型
func ToIsing(q *Polynomial, spins int) (*Ising, error) {
	m := &Ising{Spins: spins, H: make([]float64, spins), Offset: q.Constant}
	couplings := make(map[[2]int]float64)

	for _, t := range q.terms {
		if t.Coeff == 0 {
			continue
		}
		for _, v := range t.Vars {
			if v >= spins {
				return nil, fmt.Errorf("变量 %d 超出自旋个数 %d", v, spins)
			}
		}
		switch len(t.Vars) {
		case 1:
			m.H[t.Vars[0]] += t.Coeff / 2
			m.Offset += t.Coeff / 2
		case 2:
			i, j := t.Vars[0], t.Vars[1]
			couplings[[2]int{i, j}] += t.Coeff / 4
			m.H[i] += t.Coeff / 4
			m.H[j] += t.Coeff / 4
			m.Offset += t.Coeff / 4
		default:
			return nil, fmt.Errorf("多项式中存在 %d 次项，需要先降为二次", len(t.Vars))
		}
	}

	for k, v := range couplings {
		if v != 0 {
			m.Couplings = append(m.Couplings, Coupling{I: k[0], J: k[1], Value: v})
		}
	}
	slices.SortFunc(m.Couplings, func(a, b Coupling) int {
		if a.I != b.I {
			return a.I - b.I
		}
		return a.J - b.J
	})

	return m, nil
}

// Energy 计算给定自旋取值下的能量
func (m *Ising) Energy(spins []int8) float64 {
	e := m.Offset
	for i, h := range m.H {
		e += h * float64(spins[i])
	}
	for _, c := range m.Couplings {
		e += c.Value * float64(spins[c.I]) * float64(spins[c.J])
	}
	return e
}
