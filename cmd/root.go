package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hpcops/slurmacc/internal/config"
	"github.com/hpcops/slurmacc/internal/model"
)

var (
	flagDebug      bool
	flagConfig     string
	flagStart      string
	flagEnd        string
	flagAccounts   string
	flagCPU        bool
	flagJobs       bool
	flagTimeUnit   string
	flagMonthly    bool
	flagUser       bool
	flagDepartment bool
	flagFaculty    bool
	flagSort       bool
	flagView       bool
	flagCSV        bool
	flagNoCache    bool
)

var rootCmd = &cobra.Command{
	Use:   "slurmacc",
	Short: "Cluster usage accounting reports",
	Long: "Report cluster usage from the SLURM accounting system, joined with\n" +
		"user affiliations from the user-administration database.",
	SilenceUsage: true,
	RunE:         runReport,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	today := time.Now()
	defaultStart := today.AddDate(-1, 0, 0).Format("2006-01-02")
	defaultEnd := today.Format("2006-01-02")

	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&flagDebug, "debug", "b", false, "Show extra information about the progression of the program")
	pf.StringVarP(&flagConfig, "config", "g", config.ConfigPath(), "Path to the config file")
	pf.StringVarP(&flagStart, "start", "s", defaultStart, "Include accounting records from this date on (yyyy-mm-dd)")
	pf.StringVarP(&flagEnd, "end", "e", defaultEnd, "Include accounting records up to, and not including, this date (yyyy-mm-dd)")
	pf.StringVarP(&flagAccounts, "accounts", "a", "", "Only query the given accounts, comma separated without spaces")
	pf.BoolVarP(&flagCPU, "cpu", "c", false, "Report used cpu time, the default metric (units set by -t)")
	pf.BoolVarP(&flagJobs, "jobs", "j", false, "Report number of jobs run, mutually exclusive with -c and -m")
	pf.StringVarP(&flagTimeUnit, "time", "t", "m", "Output time unit for -c: one of h, m, s, p (p is percent of cluster)")
	pf.BoolVarP(&flagMonthly, "monthly", "m", false, "One column per full month between the start and end dates")
	pf.BoolVarP(&flagUser, "user", "u", false, "Break the report down by individual user")
	pf.BoolVarP(&flagDepartment, "department", "d", false, "Break the report down by department")
	pf.BoolVarP(&flagFaculty, "faculty", "f", false, "Break the report down by faculty")
	pf.BoolVarP(&flagSort, "sort", "o", false, "Sort by usage instead of by group key")
	pf.BoolVarP(&flagView, "view", "v", false, "Print the report to the screen, the default output")
	pf.BoolVarP(&flagCSV, "csv", "x", false, "Write the report to a csv file named after the metric and period")
	pf.BoolVar(&flagNoCache, "no-cache", false, "Skip the usage cache, always run sreport")
}

// newLogger builds the root logger. Warnings and errors always print; -b
// lowers the level to include the debug trail.
func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if flagDebug {
		level = zerolog.DebugLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// buildRequest validates the report flags and returns the resulting request.
// The checks run in a fixed order so error messages are predictable.
func buildRequest(log zerolog.Logger) (model.Request, error) {
	var req model.Request

	if info, err := os.Stat(flagConfig); err == nil && info.IsDir() {
		return req, fmt.Errorf("config path %s points to a directory", flagConfig)
	}

	start, err := time.Parse("2006-01-02", flagStart)
	if err != nil {
		return req, fmt.Errorf("wrong date %q for -s, use the format yyyy-mm-dd", flagStart)
	}
	end, err := time.Parse("2006-01-02", flagEnd)
	if err != nil {
		return req, fmt.Errorf("wrong date %q for -e, use the format yyyy-mm-dd", flagEnd)
	}
	if start.After(end) {
		return req, errors.New("start date cannot be after end date")
	}

	if flagCPU && flagJobs {
		return req, errors.New("options -c and -j are mutually exclusive")
	}
	metric := model.MetricCPU
	if flagJobs {
		metric = model.MetricJobs
	} else if !flagCPU {
		log.Debug().Msg("no metric argument provided, using cpu time")
	}

	unit := model.TimeUnit(flagTimeUnit)
	if !model.ValidTimeUnit(unit) {
		return req, fmt.Errorf("invalid time unit %q, must be one of h, m, s, p", flagTimeUnit)
	}

	if flagJobs && flagMonthly {
		return req, errors.New("options -j and -m are mutually exclusive")
	}

	req = model.Request{
		Metric:   metric,
		TimeUnit: unit,
		Start:    start,
		End:      end,
	}
	if flagAccounts != "" {
		req.Accounts = strings.Split(flagAccounts, ",")
	}
	return req, nil
}

// loadConfig reads the TOML config. When the file does not exist yet it
// writes a skeleton and fails, so the operator can fill in credentials and
// run again. The environment password override is applied before validation.
func loadConfig(log zerolog.Logger) (config.Config, error) {
	log.Debug().Str("path", flagConfig).Msg("reading config file")

	cfg, err := config.Load(flagConfig)
	if errors.Is(err, os.ErrNotExist) {
		log.Debug().Msg("config file does not exist, creating it with default values")
		if err := config.Save(flagConfig, config.DefaultConfig()); err != nil {
			return cfg, fmt.Errorf("creating config skeleton: %w", err)
		}
		return cfg, fmt.Errorf("config file has been created at %s, provide database credentials in it and run again", flagConfig)
	}
	if err != nil {
		return cfg, err
	}

	cfg.Database.Password = config.DatabasePassword(cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
