package scheduler

import (
	"context"
	"fmt"
	"time"
)

// Kind 是求解策略的种类
type Kind string

const (
	KindEnumeration   Kind = "enumeration"
	KindExact         Kind = "exact"
	KindMetaheuristic Kind = "metaheuristic"
	KindAnnealing     Kind = "annealing"
)

// Kinds 返回所有支持的求解策略
func Kinds() []Kind {
	return []Kind{KindEnumeration, KindExact, KindMetaheuristic, KindAnnealing}
}

func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: 未知的求解策略 %q", ErrInvalidConfig, s)
}

// Backend 消费一个 Problem，产生一个解码后的排班以及该策略自己的质量信号。
// 每个实现各自编码问题，后端之间不共享可变状态。
type Backend interface {
	Kind() Kind
	Solve(ctx context.Context, p *Problem) (*Result, error)
}

// Result 是所有后端统一的输出
type Result struct {
	Kind       Kind
	Assignment *Assignment
	Duration   time.Duration

	// 精确求解：求解状态与目标函数值
	Status    Status
	Objective *int

	// 遗传算法：最优个体的适应度
	Fitness     *Penalty
	Evaluations int
	Generations int

	// 退火：所选样本的残余能量，以及被违反的具名约束
	Energy *float64
	Broken []string
}
