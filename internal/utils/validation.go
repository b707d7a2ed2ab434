package utils

import (
	"fmt"
	"slices"
)

// ValidateRosters 检查手工排班中的每一天：员工必须在员工列表中，且同一天不能重复出现
func ValidateRosters(employees []string, rosters [][]string) error {
	for d, roster := range rosters {
		seen := make(map[string]bool, len(roster))
		for _, label := range roster {
			if !slices.Contains(employees, label) {
				return fmt.Errorf("第 %d 天的员工 %q 不在员工列表中", d, label)
			}
			if seen[label] {
				return fmt.Errorf("第 %d 天中员工 %q 重复", d, label)
			}
			seen[label] = true
		}
	}

	return nil
}
