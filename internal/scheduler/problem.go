package scheduler

import (
	"fmt"
	"slices"
)

// Problem 是排班问题的规范表示：M 个员工、D 天、每天的目标人数 T。
// 构造之后不可修改，所有后端读取同一个对象。
type Problem struct {
	employees []string
	days      int
	target    int
}

// NewProblem 使用默认标签（A, B, ..., Z, AA, AB, ...）构造问题
func NewProblem(employeeCount, dayCount, target int) (*Problem, error) {
	if employeeCount < 0 {
		return nil, fmt.Errorf("%w: 员工数不能为负数（得到 %d）", ErrInvalidProblem, employeeCount)
	}

	labels := make([]string, employeeCount)
	for i := range labels {
		labels[i] = EmployeeLabel(i)
	}

	return NewNamedProblem(labels, dayCount, target)
}

// NewNamedProblem 使用调用方给定的员工标签构造问题，标签的顺序即员工 ID 的顺序
func NewNamedProblem(employees []string, dayCount, target int) (*Problem, error) {
	if dayCount < 0 {
		return nil, fmt.Errorf("%w: 天数不能为负数（得到 %d）", ErrInvalidProblem, dayCount)
	}
	if target < 0 {
		return nil, fmt.Errorf("%w: 每天目标人数不能为负数（得到 %d）", ErrInvalidProblem, target)
	}

	seen := make(map[string]struct{}, len(employees))
	for i, name := range employees {
		if name == "" {
			return nil, fmt.Errorf("%w: 第 %d 个员工的标签为空", ErrInvalidProblem, i)
		}
		if _, exists := seen[name]; exists {
			return nil, fmt.Errorf("%w: 员工标签 %q 重复", ErrInvalidProblem, name)
		}
		seen[name] = struct{}{}
	}

	return &Problem{
		employees: slices.Clone(employees),
		days:      dayCount,
		target:    target,
	}, nil
}

// EmployeeLabel 返回第 i 个员工的默认标签，与电子表格的列名规则相同
func EmployeeLabel(i int) string {
	label := ""
	for n := i + 1; n > 0; n = (n - 1) / 26 {
		label = string(rune('A'+(n-1)%26)) + label
	}
	return label
}

func (p *Problem) EmployeeCount() int { return len(p.employees) }

func (p *Problem) DayCount() int { return p.days }

func (p *Problem) Target() int { return p.target }

// Employees 返回员工标签的副本
func (p *Problem) Employees() []string { return slices.Clone(p.employees) }

func (p *Problem) Employee(e int) string { return p.employees[e] }

// EmployeeIndex 根据标签查找员工 ID
func (p *Problem) EmployeeIndex(label string) (int, bool) {
	i := slices.Index(p.employees, label)
	return i, i >= 0
}

// Days 返回按升序排列的所有天的 ID
func (p *Problem) Days() []int {
	days := make([]int, p.days)
	for d := range days {
		days[d] = d
	}
	return days
}

// VariableCount 是决策变量 x[e,d] 的个数，即 M·D
func (p *Problem) VariableCount() int { return len(p.employees) * p.days }

// Variable 返回 (e, d) 对应的变量下标，员工优先、天次之。
// 精确求解、遗传算法和退火三个后端共享这一展开顺序。
func (p *Problem) Variable(e, d int) int { return e*p.days + d }

// Empty 表示问题没有任何 (员工, 天) 组合
func (p *Problem) Empty() bool { return len(p.employees) == 0 || p.days == 0 }

// VariableName 返回变量的可读名称，例如 x[A][3]
func (p *Problem) VariableName(v int) string {
	return fmt.Sprintf("x[%s][%d]", p.employees[v/p.days], v%p.days)
}
