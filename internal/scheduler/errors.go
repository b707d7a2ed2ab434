package scheduler

import "errors"

var (
	// ErrInvalidProblem 表示员工数、天数或目标人数不合法（例如为负数）
	ErrInvalidProblem = errors.New("排班问题参数不合法")
	// ErrInvalidConfig 表示后端的调参配置不合法
	ErrInvalidConfig = errors.New("求解器配置不合法")
	// ErrInfeasible 表示精确求解器报告不存在可行解
	ErrInfeasible = errors.New("不存在可行解")
	// ErrOracleFailure 表示外部求解器或采样器调用失败
	ErrOracleFailure = errors.New("外部求解器调用失败")
)
