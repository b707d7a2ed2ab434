package scheduler

import (
	"context"
	"iter"
	"slices"
	"time"
)

// Combinations 按字典序惰性地产生 {0..n-1} 的所有 k 元组合。
// 返回的序列可以被多次 range，每次都从头开始。
func Combinations(n, k int) iter.Seq[[]int] {
	return func(yield func([]int) bool) {
		if k < 0 || k > n {
			return
		}
		idx := make([]int, k)
		for i := range idx {
			idx[i] = i
		}
		for {
			if !yield(slices.Clone(idx)) {
				return
			}
			// 找到最右边还能增加的位置
			i := k - 1
			for i >= 0 && idx[i] == n-k+i {
				i--
			}
			if i < 0 {
				return
			}
			idx[i]++
			for j := i + 1; j < k; j++ {
				idx[j] = idx[j-1] + 1
			}
		}
	}
}

// CyclicCombinations 与 Combinations 相同，但在用尽之后从头循环，是一个无限序列。
// 如果组合的集合为空，则什么都不产生。
func CyclicCombinations(n, k int) iter.Seq[[]int] {
	return func(yield func([]int) bool) {
		for {
			produced := false
			for c := range Combinations(n, k) {
				produced = true
				if !yield(c) {
					return
				}
			}
			if !produced {
				return
			}
		}
	}
}

// Enumeration 逐天取下一个 T 元组合作为当天的上班员工。
// 它不做任何优化，只是快速给出一个形状正确的排班，其质量也不经过 Evaluator 评分。
type Enumeration struct{}

func (Enumeration) Kind() Kind { return KindEnumeration }

func (Enumeration) Solve(ctx context.Context, p *Problem) (*Result, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rosters := make([][]int, p.DayCount())
	if p.DayCount() > 0 {
		d := 0
		for c := range CyclicCombinations(p.EmployeeCount(), p.Target()) {
			rosters[d] = c
			d++
			if d == p.DayCount() {
				break
			}
		}
	}

	a, err := AssignmentFromRosters(p, rosters)
	if err != nil {
		return nil, err
	}

	return &Result{
		Kind:       KindEnumeration,
		Assignment: a,
		Duration:   time.Since(start),
	}, nil
}
