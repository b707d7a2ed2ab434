package utils

import "testing"

func TestValidateRosters(t *testing.T) {
	employees := []string{"A", "B", "C"}

	tests := []struct {
		name    string
		rosters [][]string
		wantErr bool
	}{
		{"valid", [][]string{{"A", "B"}, {"C"}, {}}, false},
		{"no days", nil, false},
		{"unknown employee", [][]string{{"A", "D"}}, true},
		{"duplicate in a day", [][]string{{"B", "B"}}, true},
		{"same employee on different days", [][]string{{"A"}, {"A"}}, false},
		{"empty label", [][]string{{""}}, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := ValidateRosters(employees, test.rosters)
			if (err != nil) != test.wantErr {
				t.Errorf("ValidateRosters() error = %v, wantErr %v", err, test.wantErr)
			}
		})
	}
}
