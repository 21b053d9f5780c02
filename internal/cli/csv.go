package cli

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/hpcops/slurmacc/internal/model"
)

// CSVFileName builds the export file name from the report parameters. The
// dates are always the ones the user requested, even when a monthly report
// trimmed the effective window to whole months.
func CSVFileName(metric model.Metric, unit model.TimeUnit, monthly bool, start, end time.Time) string {
	name := "usage"
	if metric == model.MetricCPU {
		name += "_cpu_" + string(unit)
	} else {
		name += "_jobs"
	}
	if monthly {
		name += "_monthly"
	}
	return name + "_" + start.Format("2006-01-02") + "_" + end.Format("2006-01-02") + ".csv"
}

// WriteCSV writes a header and rows to path as comma-separated values.
func WriteCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			_ = f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
