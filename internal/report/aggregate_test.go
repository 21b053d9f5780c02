package report

import (
	"strings"
	"testing"

	"github.com/hpcops/slurmacc/internal/model"
)

func TestGroupDims(t *testing.T) {
	tests := []struct {
		name                             string
		faculty, department, user, month bool
		want                             string
	}{
		{"none", false, false, false, false, ""},
		{"user only", false, false, true, false, ""},
		{"faculty", true, false, false, false, "Account,Faculty"},
		{"department", false, true, false, false, "Account,Department"},
		{"both org", true, true, false, false, "Account,Faculty,Department"},
		{"org and user", true, true, true, false, "Account,Faculty,Department,User,Name"},
		{"department and user", false, true, true, false, "Account,Department,User,Name"},
		{"monthly default", false, false, false, true, "Account,User,Name,Faculty,Department"},
		{"monthly with faculty", true, false, false, true, "Account,Faculty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := strings.Join(GroupDims(tt.faculty, tt.department, tt.user, tt.month), ",")
			if got != tt.want {
				t.Errorf("GroupDims(%v,%v,%v,%v) = %q, want %q",
					tt.faculty, tt.department, tt.user, tt.month, got, tt.want)
			}
		})
	}
}

func combinedRows() []model.CombinedRecord {
	return []model.CombinedRecord{
		{Login: "carol", Account: "courses", Used: 30, Name: "Carol C", Department: "Dept B", Faculty: "Fac B"},
		{Login: "alice", Account: "research", Used: 100, Name: "Alice A", Department: "Dept A", Faculty: "Fac A"},
		{Login: "alice", Account: "courses", Used: 20, Name: "Alice A", Department: "Dept A", Faculty: "Fac A"},
		{Login: "bob", Account: "research", Used: 50, Name: "Bob B", Department: "Dept B", Faculty: "Fac A"},
	}
}

func TestAggregate_SumsWithinGroups(t *testing.T) {
	table := Aggregate(combinedRows(), []string{DimAccount}, false)

	if len(table.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2 accounts", len(table.Rows))
	}
	// Ascending key order: courses before research.
	if table.Rows[0].Key[0] != "courses" || table.Rows[0].Used != 50 {
		t.Errorf("Rows[0] = %+v, want courses with 50", table.Rows[0])
	}
	if table.Rows[1].Key[0] != "research" || table.Rows[1].Used != 150 {
		t.Errorf("Rows[1] = %+v, want research with 150", table.Rows[1])
	}
}

func TestAggregate_ConservesTotal(t *testing.T) {
	rows := combinedRows()
	var want float64
	for _, r := range rows {
		want += r.Used
	}

	groupings := map[string][]string{
		"simple":       nil,
		"account":      {DimAccount},
		"org":          {DimAccount, DimFaculty, DimDepartment},
		"org and user": {DimAccount, DimFaculty, DimDepartment, DimUser, DimName},
		"monthly dims": {DimAccount, DimUser, DimName, DimFaculty, DimDepartment},
	}
	for name, dims := range groupings {
		t.Run(name, func(t *testing.T) {
			if got := Aggregate(rows, dims, false).Total(); got != want {
				t.Errorf("Total() = %v, want %v", got, want)
			}
		})
	}
}

func TestAggregate_SortByValueDescending(t *testing.T) {
	table := Aggregate(combinedRows(), []string{DimAccount, DimDepartment}, true)

	for i := 1; i < len(table.Rows); i++ {
		if table.Rows[i].Used > table.Rows[i-1].Used {
			t.Fatalf("Rows[%d].Used = %v after %v, want non-increasing", i, table.Rows[i].Used, table.Rows[i-1].Used)
		}
	}
}

func TestAggregate_SortTiesKeepKeyOrder(t *testing.T) {
	rows := []model.CombinedRecord{
		{Login: "x", Account: "zeta", Used: 10},
		{Login: "y", Account: "alpha", Used: 10},
	}

	table := Aggregate(rows, []string{DimAccount}, true)

	if table.Rows[0].Key[0] != "alpha" || table.Rows[1].Key[0] != "zeta" {
		t.Errorf("tie order = [%s %s], want [alpha zeta] (key order kept)", table.Rows[0].Key[0], table.Rows[1].Key[0])
	}
}

func TestAggregate_SimpleKeepsInputOrder(t *testing.T) {
	table := Aggregate(combinedRows(), nil, false)

	if len(table.Rows) != 4 {
		t.Fatalf("len(Rows) = %d, want 4 (no grouping)", len(table.Rows))
	}
	if got := strings.Join(table.Dims, ","); got != "User,Account,Name,Department,Faculty" {
		t.Errorf("Dims = %q, want the simple column set", got)
	}
	wantOrder := []string{"carol", "alice", "alice", "bob"}
	for i, w := range wantOrder {
		if table.Rows[i].Key[0] != w {
			t.Errorf("Rows[%d] user = %q, want %q", i, table.Rows[i].Key[0], w)
		}
	}
}

func TestAggregate_SimpleSortByValue(t *testing.T) {
	table := Aggregate(combinedRows(), nil, true)

	want := []float64{100, 50, 30, 20}
	for i, w := range want {
		if table.Rows[i].Used != w {
			t.Errorf("Rows[%d].Used = %v, want %v", i, table.Rows[i].Used, w)
		}
	}
}

func TestAggregate_EmptyInput(t *testing.T) {
	if table := Aggregate(nil, []string{DimAccount}, false); len(table.Rows) != 0 {
		t.Errorf("grouped empty input: Rows = %v, want none", table.Rows)
	}
	if table := Aggregate(nil, nil, true); len(table.Rows) != 0 {
		t.Errorf("simple empty input: Rows = %v, want none", table.Rows)
	}
}
