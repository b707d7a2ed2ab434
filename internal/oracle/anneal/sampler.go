// Package anneal 实现 scheduler.IsingSampler：
// 对 Ising 模型做多次独立的模拟退火，每次读取从随机自旋出发，
// 按给定的逆温度序列逐次扫描所有自旋并用 Metropolis 准则决定是否翻转。
package anneal

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/sysu-ecnc-dev/shift-pairing/backend/internal/scheduler"
	"golang.org/x/sync/errgroup"
)

type Sampler struct {
	// Workers 是并行读取的 goroutine 数，<=0 表示不限制
	Workers int
}

func New(workers int) *Sampler {
	return &Sampler{Workers: workers}
}

// neighbors 是按自旋分组的耦合表
type neighbors struct {
	start []int
	idx   []int
	val   []float64
}

func buildNeighbors(m *scheduler.Ising) neighbors {
	deg := make([]int, m.Spins+1)
	for _, c := range m.Couplings {
		deg[c.I+1]++
		deg[c.J+1]++
	}
	for i := 1; i <= m.Spins; i++ {
		deg[i] += deg[i-1]
	}
	nb := neighbors{
		start: deg,
		idx:   make([]int, deg[m.Spins]),
		val:   make([]float64, deg[m.Spins]),
	}
	fill := make([]int, m.Spins)
	copy(fill, deg[:m.Spins])
	for _, c := range m.Couplings {
		nb.idx[fill[c.I]], nb.val[fill[c.I]] = c.J, c.Value
		fill[c.I]++
		nb.idx[fill[c.J]], nb.val[fill[c.J]] = c.I, c.Value
		fill[c.J]++
	}
	return nb
}

// SampleIsing 返回 params.Reads 个样本，顺序即读取顺序。
// 第 r 次读取使用种子 params.Seed + r，因此结果与并行度无关。
func (s *Sampler) SampleIsing(ctx context.Context, m *scheduler.Ising, params scheduler.SampleParams) ([]scheduler.Sample, error) {
	if m == nil {
		return nil, fmt.Errorf("Ising 模型为 nil")
	}
	if err := validate(params); err != nil {
		return nil, err
	}
	if len(m.H) != m.Spins {
		return nil, fmt.Errorf("线性项个数应为 %d（得到 %d）", m.Spins, len(m.H))
	}

	nb := buildNeighbors(m)
	betas := Betas(params)
	samples := make([]scheduler.Sample, params.Reads)

	g, ctx := errgroup.WithContext(ctx)
	if s.Workers > 0 {
		g.SetLimit(s.Workers)
	}
	for r := 0; r < params.Reads; r++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(params.Seed + int64(r)))
			spins := anneal(m, nb, betas, rng)
			samples[r] = scheduler.Sample{Spins: spins, Energy: m.Energy(spins)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return samples, nil
}

func anneal(m *scheduler.Ising, nb neighbors, betas []float64, rng *rand.Rand) []int8 {
	spins := make([]int8, m.Spins)
	for i := range spins {
		if rng.Intn(2) == 0 {
			spins[i] = -1
		} else {
			spins[i] = 1
		}
	}

	for _, beta := range betas {
		for i := range spins {
			field := m.H[i]
			for k := nb.start[i]; k < nb.start[i+1]; k++ {
				field += nb.val[k] * float64(spins[nb.idx[k]])
			}
			// 翻转 s[i] 引起的能量变化
			delta := -2 * float64(spins[i]) * field
			if delta <= 0 || rng.Float64() < math.Exp(-beta*delta) {
				spins[i] = -spins[i]
			}
		}
	}

	return spins
}
