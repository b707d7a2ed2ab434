package domain

// SolveJobFinishedMailData 是求解任务结束通知邮件的模板数据
type SolveJobFinishedMailData struct {
	JobID          string
	Status         SolveJobStatus
	Backend        string
	EmployeeCount  int
	DayCount       int
	TargetStaffing int
	Audited        bool // 枚举策略的结果不做评估
	Feasible       bool
	Penalty        Penalty
	Error          string
	Rosters        []DayRoster
}
