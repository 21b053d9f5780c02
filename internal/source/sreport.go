// Package source fetches usage data from the SLURM accounting system by
// running sreport and parsing its pipe-delimited report output.
package source

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hpcops/slurmacc/internal/model"
)

// ErrEmptyResult is returned when sreport produced no usage rows for the
// requested period.
var ErrEmptyResult = errors.New("sreport returned no entries for the given period")

// CommandRunner executes an external command and returns its stdout.
type CommandRunner interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Client fetches usage tables from sreport.
type Client struct {
	run CommandRunner
	log zerolog.Logger
}

// NewClient returns a Client that runs the real sreport binary.
func NewClient(log zerolog.Logger) *Client {
	return &Client{run: execRunner{}, log: log}
}

// NewClientWithRunner returns a Client backed by run instead of the sreport
// binary. Tests use this to substitute canned report output.
func NewClientWithRunner(run CommandRunner, log zerolog.Logger) *Client {
	return &Client{run: run, log: log}
}

// Usage runs the cluster utilization report for [req.Start, req.End) and
// returns one record per login and account. Cluster and per-account rollup
// rows carry no login and are dropped. Zero remaining rows is an
// ErrEmptyResult, not a valid empty report.
func (c *Client) Usage(ctx context.Context, req model.Request) ([]model.UsageRecord, error) {
	table, err := c.fetch(ctx, usageArgs(req))
	if err != nil {
		return nil, err
	}

	records, err := usageFromTable(table)
	if err != nil {
		return nil, fmt.Errorf("reading sreport output: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s to %s", ErrEmptyResult,
			req.Start.Format("2006-01-02"), req.End.Format("2006-01-02"))
	}

	c.log.Debug().Int("rows", len(records)).Msg("parsed usage records")
	return records, nil
}

// Jobs runs the per-account job count report and returns the table as is.
func (c *Client) Jobs(ctx context.Context, req model.Request) (*model.RawTable, error) {
	table, err := c.fetch(ctx, jobsArgs(req))
	if err != nil {
		return nil, err
	}
	if len(table.Rows) == 0 {
		return nil, fmt.Errorf("%w: %s to %s", ErrEmptyResult,
			req.Start.Format("2006-01-02"), req.End.Format("2006-01-02"))
	}

	c.log.Debug().Int("rows", len(table.Rows)).Msg("parsed job count table")
	return table, nil
}

func (c *Client) fetch(ctx context.Context, args []string) (*model.RawTable, error) {
	c.log.Debug().Str("command", "sreport "+strings.Join(args, " ")).Msg("running sreport")

	out, err := c.run.Output(ctx, "sreport", args...)
	if err != nil {
		return nil, fmt.Errorf("running sreport %s: %w", strings.Join(args, " "), err)
	}

	table, err := parseTable(out)
	if err != nil {
		return nil, fmt.Errorf("reading sreport output: %w", err)
	}
	return table, nil
}

func usageArgs(req model.Request) []string {
	args := []string{
		"-P", "cluster", "AccountUtilizationByUser",
		"-t" + string(req.TimeUnit),
		"format=Login,Account,Used",
	}
	return append(args, periodArgs(req)...)
}

func jobsArgs(req model.Request) []string {
	args := []string{"-P", "job", "SizesByAccount", "PrintJobCount", "FlatView"}
	return append(args, periodArgs(req)...)
}

func periodArgs(req model.Request) []string {
	args := []string{
		"start=" + req.Start.Format("2006-01-02"),
		"end=" + req.End.Format("2006-01-02"),
	}
	if len(req.Accounts) > 0 {
		args = append(args, "Accounts="+strings.Join(req.Accounts, ","))
	}
	return args
}
