package model

// ReportTable is a single-period report: one row per grouping key with the
// summed usage. Dims names the key columns in display order. For the simple
// ungrouped report Dims covers all identity columns and rows appear once per
// source row.
type ReportTable struct {
	Dims []string
	Rows []ReportRow
}

// ReportRow pairs one grouping key with its summed usage. Key is parallel
// to the table's Dims.
type ReportRow struct {
	Key  []string
	Used float64
}

// Total returns the sum of Used over all rows.
func (t *ReportTable) Total() float64 {
	var sum float64
	for _, r := range t.Rows {
		sum += r.Used
	}
	return sum
}

// MonthlyTable is a merged monthly report: one numeric column per calendar
// month plus a Total column. Months holds "YYYY-MM" labels in chronological
// order.
type MonthlyTable struct {
	Dims   []string
	Months []string
	Rows   []MonthlyRow
}

// MonthlyRow holds one grouping key with its per-month values. Values is
// parallel to the table's Months; Total is the row-wise sum.
type MonthlyRow struct {
	Key    []string
	Values []int64
	Total  int64
}

// Total returns the sum of the Total column over all rows.
func (t *MonthlyTable) Total() int64 {
	var sum int64
	for _, r := range t.Rows {
		sum += r.Total
	}
	return sum
}

// RawTable is an sreport table kept exactly as parsed: the header line and
// the data rows. The jobs metric is presented this way, untouched.
type RawTable struct {
	Columns []string
	Rows    [][]string
}
