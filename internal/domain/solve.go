package domain

// MetaheuristicParams 覆盖遗传算法的默认参数，未给出的字段使用服务端配置
type MetaheuristicParams struct {
	PopulationSize     *int     `json:"populationSize" validate:"omitnil,gt=1,lte=10000"`
	Generations        *int     `json:"generations" validate:"omitnil,gte=0,lte=100000"`
	TournamentSize     *int     `json:"tournamentSize" validate:"omitnil,gt=0"`
	CrossoverRate      *float64 `json:"crossoverRate" validate:"omitnil,gte=0,lte=1"`
	CrossoverPoint     *string  `json:"crossoverPoint" validate:"omitnil,oneof=uniform midpoint"`
	MutationRate       *float64 `json:"mutationRate" validate:"omitnil,gte=0,lte=1"`
	BitFlipProbability *float64 `json:"bitFlipProbability" validate:"omitnil,gte=0,lte=1"`
	Objective          *string  `json:"objective" validate:"omitnil,oneof=lexicographic weighted"`
	StaffingWeight     *float64 `json:"staffingWeight" validate:"omitnil,gte=0"`
	PairRepeatWeight   *float64 `json:"pairRepeatWeight" validate:"omitnil,gte=0"`
	Seed               *int64   `json:"seed"`
}

// AnnealingParams 覆盖退火的默认参数
type AnnealingParams struct {
	BetaMin  *float64 `json:"betaMin" validate:"omitnil,gt=0"`
	BetaMax  *float64 `json:"betaMax" validate:"omitnil,gt=0"`
	Reads    *int     `json:"reads" validate:"omitnil,gt=0,lte=1000"`
	Sweeps   *int     `json:"sweeps" validate:"omitnil,gt=0,lte=1000000"`
	Schedule *string  `json:"schedule" validate:"omitnil,oneof=linear geometric"`
	WeightA  *float64 `json:"weightA" validate:"omitnil,gte=0"`
	WeightB  *float64 `json:"weightB" validate:"omitnil,gte=0"`
	Strength *float64 `json:"strength" validate:"omitnil,gt=0"`
	Seed     *int64   `json:"seed"`
}

type ExactParams struct {
	MinimizeStaff *bool `json:"minimizeStaff"`
}

// SolveRequest 描述一次求解。
// 给出 Employees 时以其长度为员工数，EmployeeCount 可以省略或必须与之相等。
type SolveRequest struct {
	EmployeeCount  int      `json:"employeeCount" validate:"gte=0,lte=20"`
	Employees      []string `json:"employees,omitempty" validate:"omitempty,max=20,unique,dive,required,max=32"`
	DayCount       int      `json:"dayCount" validate:"gte=0,lte=20"`
	TargetStaffing int      `json:"targetStaffing" validate:"gte=0"`
	Backend        string   `json:"backend" validate:"required,oneof=enumeration exact metaheuristic annealing"`

	Metaheuristic *MetaheuristicParams `json:"metaheuristic,omitempty"`
	Annealing     *AnnealingParams     `json:"annealing,omitempty"`
	Exact         *ExactParams         `json:"exact,omitempty"`
}

type Penalty struct {
	Staffing   int `json:"staffing"`
	PairRepeat int `json:"pairRepeat"`
}

type DayRoster struct {
	Day       int      `json:"day"`
	Employees []string `json:"employees"`
}

// SolveOutcome 是一次求解的结果。
// Penalty 与 Feasible 由独立的评估器给出，枚举策略不做评估，因此两者为空。
type SolveOutcome struct {
	Backend        string      `json:"backend"`
	EmployeeCount  int         `json:"employeeCount"`
	DayCount       int         `json:"dayCount"`
	TargetStaffing int         `json:"targetStaffing"`
	Employees      []string    `json:"employees"`
	Rosters        []DayRoster `json:"rosters"`
	Penalty        *Penalty    `json:"penalty"`
	Feasible       *bool       `json:"feasible"`
	DurationMs     int64       `json:"durationMs"`

	// 精确求解
	Status    string `json:"status,omitempty"`
	Objective *int   `json:"objective,omitempty"`

	// 遗传算法
	Fitness     *Penalty `json:"fitness,omitempty"`
	Evaluations int      `json:"evaluations,omitempty"`
	Generations int      `json:"generations,omitempty"`

	// 退火
	Energy            *float64 `json:"energy,omitempty"`
	BrokenConstraints []string `json:"brokenConstraints,omitempty"`
}

// EvaluateRequest 对一个手工给出的排班打分，Rosters[d] 是第 d 天上班的员工
type EvaluateRequest struct {
	Employees      []string   `json:"employees" validate:"required,max=100,unique,dive,required,max=32"`
	TargetStaffing int        `json:"targetStaffing" validate:"gte=0"`
	Rosters        [][]string `json:"rosters" validate:"required,max=100"`
}

type EvaluateOutcome struct {
	Penalty  Penalty     `json:"penalty"`
	Feasible bool        `json:"feasible"`
	Rosters  []DayRoster `json:"rosters"`
}
