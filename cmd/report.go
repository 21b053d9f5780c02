package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hpcops/slurmacc/internal/cli"
	"github.com/hpcops/slurmacc/internal/config"
	"github.com/hpcops/slurmacc/internal/directory"
	"github.com/hpcops/slurmacc/internal/model"
	"github.com/hpcops/slurmacc/internal/report"
	"github.com/hpcops/slurmacc/internal/source"
	"github.com/hpcops/slurmacc/internal/store"
)

// reportOutput carries both renditions of a computed report: the boxed table
// for the terminal and the raw header+rows for csv export.
type reportOutput struct {
	view   cli.Table
	header []string
	rows   [][]string
}

func runReport(cmd *cobra.Command, args []string) error {
	log := newLogger()

	req, err := buildRequest(log)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	view, csvOut := flagView, flagCSV
	if !view && !csvOut {
		log.Debug().Msg("no output argument provided, printing to screen")
		view = true
	}

	ctx := context.Background()
	out, err := computeReport(ctx, req, cfg, log)
	if err != nil {
		return err
	}

	if view {
		fmt.Println()
		fmt.Println(cli.RenderTitle(reportTitle(req)))
		fmt.Println()
		fmt.Print(cli.RenderTable(out.view))
	}
	if csvOut {
		name := cli.CSVFileName(req.Metric, req.TimeUnit, flagMonthly, req.Start, req.End)
		log.Debug().Str("file", name).Msg("writing csv report")
		if err := cli.WriteCSV(name, out.header, out.rows); err != nil {
			return err
		}
		fmt.Printf("  Report written to %s\n", name)
	}
	return nil
}

// computeReport runs the requested report end to end and shapes the result
// for both output paths.
func computeReport(ctx context.Context, req model.Request, cfg config.Config, log zerolog.Logger) (reportOutput, error) {
	client := source.NewClient(log.With().Str("component", "sreport").Logger())

	if req.Metric == model.MetricJobs {
		table, err := client.Jobs(ctx, req)
		if err != nil {
			return reportOutput{}, err
		}
		return jobsReportOutput(table), nil
	}

	src, closeSrc := cachedSource(client, log)
	defer closeSrc()

	dir, err := directory.Open(cfg.Database, log.With().Str("component", "directory").Logger())
	if err != nil {
		return reportOutput{}, err
	}
	defer func() { _ = dir.Close() }()

	runner := report.Runner{
		Source: src,
		Dir:    dir,
		Log:    log.With().Str("component", "report").Logger(),
	}
	opts := report.Options{
		Faculty:     flagFaculty,
		Department:  flagDepartment,
		User:        flagUser,
		SortByValue: flagSort,
	}

	if flagMonthly {
		table, err := runner.Monthly(ctx, req, opts)
		if err != nil {
			return reportOutput{}, err
		}
		return monthlyReportOutput(table), nil
	}

	table, err := runner.Single(ctx, req, opts)
	if err != nil {
		return reportOutput{}, err
	}
	return singleReportOutput(table), nil
}

// cachedSource wraps the sreport client with the sqlite usage cache. A cache
// that cannot be opened only costs us the speedup, never the report.
func cachedSource(client *source.Client, log zerolog.Logger) (report.UsageSource, func()) {
	if flagNoCache {
		return client, func() {}
	}

	cache, err := store.Open(store.CachePath())
	if err != nil {
		log.Debug().Err(err).Msg("usage cache unavailable, running without it")
		return client, func() {}
	}

	src := store.NewCachingSource(client, cache, log.With().Str("component", "cache").Logger())
	return src, func() { _ = cache.Close() }
}

func singleReportOutput(t *model.ReportTable) reportOutput {
	header := append(append([]string{}, t.Dims...), "Used")

	rows := make([][]string, 0, len(t.Rows))
	viewRows := make([][]string, 0, len(t.Rows)+2)
	for _, r := range t.Rows {
		raw := append(append([]string{}, r.Key...), strconv.FormatFloat(r.Used, 'f', -1, 64))
		rows = append(rows, raw)
		view := append(append([]string{}, r.Key...), cli.FormatUsage(r.Used))
		viewRows = append(viewRows, view)
	}
	viewRows = append(viewRows, []string{"---"})
	viewRows = append(viewRows, append(totalKey(len(t.Dims)), cli.FormatUsage(t.Total())))

	return reportOutput{
		view:   cli.Table{Headers: header, Rows: viewRows, KeyCols: len(t.Dims)},
		header: header,
		rows:   rows,
	}
}

func monthlyReportOutput(t *model.MonthlyTable) reportOutput {
	header := append(append([]string{}, t.Dims...), t.Months...)
	header = append(header, "Total")

	monthTotals := make([]int64, len(t.Months))
	rows := make([][]string, 0, len(t.Rows))
	viewRows := make([][]string, 0, len(t.Rows)+2)
	for _, r := range t.Rows {
		raw := append([]string{}, r.Key...)
		view := append([]string{}, r.Key...)
		for i, v := range r.Values {
			monthTotals[i] += v
			raw = append(raw, strconv.FormatInt(v, 10))
			view = append(view, cli.FormatNumber(v))
		}
		rows = append(rows, append(raw, strconv.FormatInt(r.Total, 10)))
		viewRows = append(viewRows, append(view, cli.FormatNumber(r.Total)))
	}

	totalRow := totalKey(len(t.Dims))
	for _, v := range monthTotals {
		totalRow = append(totalRow, cli.FormatNumber(v))
	}
	totalRow = append(totalRow, cli.FormatNumber(t.Total()))
	viewRows = append(viewRows, []string{"---"})
	viewRows = append(viewRows, totalRow)

	return reportOutput{
		view:   cli.Table{Headers: header, Rows: viewRows, KeyCols: len(t.Dims)},
		header: header,
		rows:   rows,
	}
}

func jobsReportOutput(t *model.RawTable) reportOutput {
	// sreport job tables lead with Cluster and Account.
	return reportOutput{
		view:   cli.Table{Headers: t.Columns, Rows: t.Rows, KeyCols: 2},
		header: t.Columns,
		rows:   t.Rows,
	}
}

// totalKey labels the summary row: TOTAL in the first key column, the rest
// blank so the row lines up under the group keys.
func totalKey(n int) []string {
	key := make([]string, n)
	if n > 0 {
		key[0] = "TOTAL"
	}
	return key
}

var unitNames = map[model.TimeUnit]string{
	model.UnitHours:   "hours",
	model.UnitMinutes: "minutes",
	model.UnitSeconds: "seconds",
	model.UnitPercent: "percent",
}

func reportTitle(req model.Request) string {
	period := fmt.Sprintf("%s to %s", req.Start.Format("2006-01-02"), req.End.Format("2006-01-02"))
	if req.Metric == model.MetricJobs {
		return fmt.Sprintf("JOB COUNTS  %s", period)
	}
	return fmt.Sprintf("CPU USAGE IN %s  %s", strings.ToUpper(unitNames[req.TimeUnit]), period)
}
