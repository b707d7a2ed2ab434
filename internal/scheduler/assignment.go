package scheduler

import (
	"fmt"
	"slices"

	"github.com/samber/lo"
)

// Assignment 是一个 M×D 的 0/1 矩阵，按员工优先的顺序展开存储。
// 各后端在解码时创建新的 Assignment，之后不再修改。
type Assignment struct {
	employees int
	days      int
	cells     []uint8
}

// NewAssignment 根据 works(e, d) 构造排班
func NewAssignment(p *Problem, works func(e, d int) bool) *Assignment {
	a := &Assignment{
		employees: p.EmployeeCount(),
		days:      p.DayCount(),
		cells:     make([]uint8, p.VariableCount()),
	}
	for e := 0; e < a.employees; e++ {
		for d := 0; d < a.days; d++ {
			if works(e, d) {
				a.cells[p.Variable(e, d)] = 1
			}
		}
	}
	return a
}

// EmptyAssignment 返回所有人都不上班的排班
func EmptyAssignment(p *Problem) *Assignment {
	return NewAssignment(p, func(int, int) bool { return false })
}

// AssignmentFromBits 从长度为 M·D 的 0/1 序列构造排班，bits 会被复制
func AssignmentFromBits(p *Problem, bits []uint8) (*Assignment, error) {
	if len(bits) != p.VariableCount() {
		return nil, fmt.Errorf("比特序列长度应为 %d（得到 %d）", p.VariableCount(), len(bits))
	}
	cells := make([]uint8, len(bits))
	for i, b := range bits {
		switch b {
		case 0, 1:
			cells[i] = b
		default:
			return nil, fmt.Errorf("bits[%d]=%d 不是 0 或 1", i, b)
		}
	}
	return &Assignment{employees: p.EmployeeCount(), days: p.DayCount(), cells: cells}, nil
}

// AssignmentFromRosters 根据每天上班的员工 ID 列表构造排班
func AssignmentFromRosters(p *Problem, rosters [][]int) (*Assignment, error) {
	if len(rosters) != p.DayCount() {
		return nil, fmt.Errorf("排班天数应为 %d（得到 %d）", p.DayCount(), len(rosters))
	}
	cells := make([]uint8, p.VariableCount())
	for d, staff := range rosters {
		for _, e := range staff {
			if e < 0 || e >= p.EmployeeCount() {
				return nil, fmt.Errorf("第 %d 天的员工 ID %d 超出范围 [0,%d)", d, e, p.EmployeeCount())
			}
			cells[p.Variable(e, d)] = 1
		}
	}
	return &Assignment{employees: p.EmployeeCount(), days: p.DayCount(), cells: cells}, nil
}

func (a *Assignment) EmployeeCount() int { return a.employees }

func (a *Assignment) DayCount() int { return a.days }

// Works 表示员工 e 在第 d 天是否上班
func (a *Assignment) Works(e, d int) bool { return a.cells[e*a.days+d] == 1 }

// Bits 返回展开后的 0/1 序列的副本
func (a *Assignment) Bits() []uint8 { return slices.Clone(a.cells) }

// Count 返回第 d 天上班的人数
func (a *Assignment) Count(d int) int {
	n := 0
	for e := 0; e < a.employees; e++ {
		n += int(a.cells[e*a.days+d])
	}
	return n
}

// Staff 返回第 d 天上班的员工 ID，按员工 ID 升序
func (a *Assignment) Staff(d int) []int {
	return lo.Filter(lo.Range(a.employees), func(e int, _ int) bool {
		return a.Works(e, d)
	})
}

// Rosters 返回每一天上班的员工 ID 列表，天按升序排列
func (a *Assignment) Rosters() [][]int {
	return lo.Map(lo.Range(a.days), func(d int, _ int) []int {
		return a.Staff(d)
	})
}

// Labels 与 Rosters 相同，但返回员工标签
func (a *Assignment) Labels(p *Problem) [][]string {
	return lo.Map(a.Rosters(), func(staff []int, _ int) []string {
		return lo.Map(staff, func(e int, _ int) string { return p.Employee(e) })
	})
}

func (a *Assignment) Equal(b *Assignment) bool {
	return a.employees == b.employees && a.days == b.days && slices.Equal(a.cells, b.cells)
}
