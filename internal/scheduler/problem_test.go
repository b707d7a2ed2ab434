package scheduler

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewProblemRejectsNegativeParameters(t *testing.T) {
	tests := []struct {
		name             string
		m, d, target int
	}{
		{"negative employees", -1, 10, 2},
		{"negative days", 5, -1, 2},
		{"negative target", 5, 10, -2},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := NewProblem(test.m, test.d, test.target); !errors.Is(err, ErrInvalidProblem) {
				t.Errorf("NewProblem(%d, %d, %d) error = %v, want ErrInvalidProblem", test.m, test.d, test.target, err)
			}
		})
	}
}

func TestNewProblemAllowsTargetAboveEmployeeCount(t *testing.T) {
	p, err := NewProblem(2, 3, 5)
	if err != nil {
		t.Fatalf("NewProblem() error = %v", err)
	}
	if p.Target() != 5 {
		t.Errorf("Target() = %d, want 5", p.Target())
	}
}

func TestEmployeeLabels(t *testing.T) {
	p, err := NewProblem(5, 10, 2)
	if err != nil {
		t.Fatalf("NewProblem() error = %v", err)
	}
	if diff := cmp.Diff([]string{"A", "B", "C", "D", "E"}, p.Employees()); diff != "" {
		t.Errorf("Employees() mismatch (-want +got):\n%s", diff)
	}

	for i, want := range map[int]string{0: "A", 25: "Z", 26: "AA", 27: "AB", 51: "AZ", 52: "BA", 701: "ZZ", 702: "AAA"} {
		if got := EmployeeLabel(i); got != want {
			t.Errorf("EmployeeLabel(%d) = %q, want %q", i, got, want)
		}
	}
}

func TestNewNamedProblem(t *testing.T) {
	if _, err := NewNamedProblem([]string{"王伟", "李娜", "王伟"}, 3, 1); !errors.Is(err, ErrInvalidProblem) {
		t.Errorf("duplicate labels: error = %v, want ErrInvalidProblem", err)
	}
	if _, err := NewNamedProblem([]string{"王伟", ""}, 3, 1); !errors.Is(err, ErrInvalidProblem) {
		t.Errorf("empty label: error = %v, want ErrInvalidProblem", err)
	}

	names := []string{"王伟", "李娜"}
	p, err := NewNamedProblem(names, 3, 1)
	if err != nil {
		t.Fatalf("NewNamedProblem() error = %v", err)
	}
	names[0] = "changed"
	if p.Employee(0) != "王伟" {
		t.Errorf("problem shares the caller's slice: Employee(0) = %q", p.Employee(0))
	}
	if i, ok := p.EmployeeIndex("李娜"); !ok || i != 1 {
		t.Errorf("EmployeeIndex(李娜) = %d, %v", i, ok)
	}
}

func TestVariableOrderIsEmployeeMajor(t *testing.T) {
	p, _ := NewProblem(3, 4, 1)
	if got := p.Variable(2, 1); got != 9 {
		t.Errorf("Variable(2, 1) = %d, want 9", got)
	}
	if got := p.VariableName(9); got != "x[C][1]" {
		t.Errorf("VariableName(9) = %q, want x[C][1]", got)
	}
}
