package report

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/hpcops/slurmacc/internal/model"
)

// ErrNoCompleteMonths is returned when a monthly range covers no complete
// calendar month.
var ErrNoCompleteMonths = errors.New("period contains no complete calendar month")

const monthLabel = "2006-01"

// Monthly runs the single-period pipeline once per calendar month within
// [req.Start, req.End) and merges the results into one wide table. Every
// sub-period gets its own Request value; req itself is never modified. Any
// sub-period failure, including an empty month, aborts the whole report.
func (r *Runner) Monthly(ctx context.Context, req model.Request, opts Options) (*model.MonthlyTable, error) {
	months := monthStarts(req.Start, req.End)
	if len(months) == 0 {
		return nil, fmt.Errorf("%w: %s to %s", ErrNoCompleteMonths,
			req.Start.Format("2006-01-02"), req.End.Format("2006-01-02"))
	}

	dims := GroupDims(opts.Faculty, opts.Department, opts.User, true)

	labels := make([]string, 0, len(months))
	tables := make([]*model.ReportTable, 0, len(months))
	for _, m := range months {
		sub := req.WithPeriod(m, m.AddDate(0, 1, 0))
		r.Log.Debug().Str("month", m.Format(monthLabel)).Msg("computing sub-period")

		table, err := r.single(ctx, sub, dims, false)
		if err != nil {
			return nil, fmt.Errorf("month %s: %w", m.Format(monthLabel), err)
		}
		labels = append(labels, m.Format(monthLabel))
		tables = append(tables, table)
	}

	return mergeMonths(labels, tables, opts.SortByValue), nil
}

// monthStarts enumerates the first days of the calendar months covered by
// [start, end): the first month is start's month, and a month is included
// only while it ends on or before the first day of end's month. The last
// full month strictly before end's month is the last one included.
func monthStarts(start, end time.Time) []time.Time {
	endMonth := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)
	cur := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)

	var months []time.Time
	for !cur.AddDate(0, 1, 0).After(endMonth) {
		months = append(months, cur)
		cur = cur.AddDate(0, 1, 0)
	}
	return months
}

// mergeMonths outer-joins per-month tables on their grouping key. The key
// set is the union across months; missing cells become 0. Cell values are
// truncated to integers after filling, so fractional cpu time is cut off
// the same way on every run. Total sums the month columns per row. Rows
// come out in ascending key order, or by Total descending when requested.
func mergeMonths(labels []string, tables []*model.ReportTable, sortByValue bool) *model.MonthlyTable {
	type entry struct {
		key    []string
		values []int64
	}
	merged := make(map[string]*entry)

	for i, t := range tables {
		for _, row := range t.Rows {
			id := strings.Join(row.Key, "\x00")
			e, ok := merged[id]
			if !ok {
				e = &entry{key: row.Key, values: make([]int64, len(tables))}
				merged[id] = e
			}
			e.values[i] = int64(row.Used)
		}
	}

	table := &model.MonthlyTable{
		Dims:   tables[0].Dims,
		Months: labels,
		Rows:   make([]model.MonthlyRow, 0, len(merged)),
	}
	for _, e := range merged {
		var total int64
		for _, v := range e.values {
			total += v
		}
		table.Rows = append(table.Rows, model.MonthlyRow{Key: e.key, Values: e.values, Total: total})
	}

	sort.Slice(table.Rows, func(i, j int) bool {
		return slices.Compare(table.Rows[i].Key, table.Rows[j].Key) < 0
	})
	if sortByValue {
		sort.SliceStable(table.Rows, func(i, j int) bool {
			return table.Rows[i].Total > table.Rows[j].Total
		})
	}

	return table
}
