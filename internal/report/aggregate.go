package report

import (
	"slices"
	"sort"
	"strings"

	"github.com/hpcops/slurmacc/internal/model"
)

// Dimension column names as they appear in rendered tables.
const (
	DimAccount    = "Account"
	DimFaculty    = "Faculty"
	DimDepartment = "Department"
	DimUser       = "User"
	DimName       = "Name"
)

// simpleDims is the column set of the ungrouped per-user report.
var simpleDims = []string{DimUser, DimAccount, DimName, DimDepartment, DimFaculty}

// GroupDims derives the grouping dimensions from the requested report
// shape. Faculty and department reports group on Account plus the requested
// organization columns; User and Name join the key together or not at all.
// A monthly report without organization flags groups on every identity
// column so the month tables merge on a stable key. Nil means no grouping,
// the simple per-user report.
func GroupDims(faculty, department, user, monthly bool) []string {
	switch {
	case faculty || department:
		dims := []string{DimAccount}
		if faculty {
			dims = append(dims, DimFaculty)
		}
		if department {
			dims = append(dims, DimDepartment)
		}
		if user {
			dims = append(dims, DimUser, DimName)
		}
		return dims
	case monthly:
		return []string{DimAccount, DimUser, DimName, DimFaculty, DimDepartment}
	default:
		return nil
	}
}

// Aggregate groups the combined rows by dims and sums Used within each
// group. Rows come out in ascending key order, or by summed value
// descending when sortByValue is set; equal values keep key order. Nil dims
// produces the simple report: one output row per input row, input order
// kept. An empty input yields an empty table.
func Aggregate(rows []model.CombinedRecord, dims []string, sortByValue bool) *model.ReportTable {
	if len(dims) == 0 {
		return simpleTable(rows, sortByValue)
	}

	type group struct {
		key  []string
		used float64
	}
	groups := make(map[string]*group)

	for _, rec := range rows {
		key := make([]string, len(dims))
		for i, d := range dims {
			key[i] = dimValue(rec, d)
		}
		id := strings.Join(key, "\x00")
		g, ok := groups[id]
		if !ok {
			g = &group{key: key}
			groups[id] = g
		}
		g.used += rec.Used
	}

	table := &model.ReportTable{Dims: dims, Rows: make([]model.ReportRow, 0, len(groups))}
	for _, g := range groups {
		table.Rows = append(table.Rows, model.ReportRow{Key: g.key, Used: g.used})
	}

	sort.Slice(table.Rows, func(i, j int) bool {
		return slices.Compare(table.Rows[i].Key, table.Rows[j].Key) < 0
	})
	if sortByValue {
		sort.SliceStable(table.Rows, func(i, j int) bool {
			return table.Rows[i].Used > table.Rows[j].Used
		})
	}

	return table
}

func simpleTable(rows []model.CombinedRecord, sortByValue bool) *model.ReportTable {
	table := &model.ReportTable{Dims: simpleDims, Rows: make([]model.ReportRow, 0, len(rows))}
	for _, rec := range rows {
		table.Rows = append(table.Rows, model.ReportRow{
			Key:  []string{rec.Login, rec.Account, rec.Name, rec.Department, rec.Faculty},
			Used: rec.Used,
		})
	}
	if sortByValue {
		sort.SliceStable(table.Rows, func(i, j int) bool {
			return table.Rows[i].Used > table.Rows[j].Used
		})
	}
	return table
}

// dimValue reads the record column named by dim.
func dimValue(rec model.CombinedRecord, dim string) string {
	switch dim {
	case DimAccount:
		return rec.Account
	case DimFaculty:
		return rec.Faculty
	case DimDepartment:
		return rec.Department
	case DimUser:
		return rec.Login
	case DimName:
		return rec.Name
	}
	return ""
}
