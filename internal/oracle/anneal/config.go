package anneal

import (
	"fmt"
	"math"

	"github.com/sysu-ecnc-dev/shift-pairing/backend/internal/scheduler"
)

func validate(params scheduler.SampleParams) error {
	if params.Reads <= 0 {
		return fmt.Errorf("读取次数必须 > 0（得到 %d）", params.Reads)
	}
	if params.Sweeps <= 0 {
		return fmt.Errorf("扫描次数必须 > 0（得到 %d）", params.Sweeps)
	}
	if params.BetaRange[0] <= 0 || params.BetaRange[1] < params.BetaRange[0] {
		return fmt.Errorf("逆温度范围不合法: %v", params.BetaRange)
	}
	switch params.Schedule {
	case scheduler.ScheduleLinear, scheduler.ScheduleGeometric:
	default:
		return fmt.Errorf("未知的温度变化方式 %q", params.Schedule)
	}
	return nil
}

// Betas 返回每次扫描使用的逆温度，从 BetaRange[0] 变化到 BetaRange[1]
func Betas(params scheduler.SampleParams) []float64 {
	n := params.Sweeps
	lo, hi := params.BetaRange[0], params.BetaRange[1]
	betas := make([]float64, n)
	if n == 1 {
		betas[0] = hi
		return betas
	}
	for i := range betas {
		t := float64(i) / float64(n-1)
		switch params.Schedule {
		case scheduler.ScheduleGeometric:
			betas[i] = lo * math.Pow(hi/lo, t)
		default:
			betas[i] = lo + (hi-lo)*t
		}
	}
	return betas
}
