package source

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hpcops/slurmacc/internal/model"
)

// fakeRunner returns canned output and records the command it was given.
type fakeRunner struct {
	out  []byte
	err  error
	name string
	args []string
}

func (f *fakeRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.name = name
	f.args = args
	return f.out, f.err
}

func cpuRequest() model.Request {
	return model.Request{
		Metric:   model.MetricCPU,
		TimeUnit: model.UnitMinutes,
		Start:    time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		End:      time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestUsage_CommandLine(t *testing.T) {
	run := &fakeRunner{out: report("Login|Account|Used", "alice|research|10")}
	c := NewClientWithRunner(run, zerolog.Nop())

	req := cpuRequest()
	req.Accounts = []string{"research", "courses"}

	if _, err := c.Usage(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if run.name != "sreport" {
		t.Errorf("command = %q, want sreport", run.name)
	}
	want := "-P cluster AccountUtilizationByUser -tm format=Login,Account,Used " +
		"start=2023-01-01 end=2023-02-01 Accounts=research,courses"
	if got := strings.Join(run.args, " "); got != want {
		t.Errorf("args = %q, want %q", got, want)
	}
}

func TestUsage_NoAccountFilter(t *testing.T) {
	run := &fakeRunner{out: report("Login|Account|Used", "alice|research|10")}
	c := NewClientWithRunner(run, zerolog.Nop())

	if _, err := c.Usage(context.Background(), cpuRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, arg := range run.args {
		if strings.HasPrefix(arg, "Accounts=") {
			t.Errorf("args contain %q, want no account filter", arg)
		}
	}
}

func TestUsage_EmptyResult(t *testing.T) {
	// Only rollup rows: nothing remains after dropping them.
	run := &fakeRunner{out: report("Login|Account|Used", "|root|44640", "|research|31200")}
	c := NewClientWithRunner(run, zerolog.Nop())

	_, err := c.Usage(context.Background(), cpuRequest())
	if !errors.Is(err, ErrEmptyResult) {
		t.Fatalf("error = %v, want ErrEmptyResult", err)
	}
	if !strings.Contains(err.Error(), "2023-01-01") || !strings.Contains(err.Error(), "2023-02-01") {
		t.Errorf("error %q does not name the period", err)
	}
}

func TestUsage_RunnerError(t *testing.T) {
	run := &fakeRunner{err: errors.New("exec: \"sreport\": executable file not found in $PATH")}
	c := NewClientWithRunner(run, zerolog.Nop())

	_, err := c.Usage(context.Background(), cpuRequest())
	if err == nil {
		t.Fatal("Usage() = nil error, want failure")
	}
	if !strings.Contains(err.Error(), "running sreport") {
		t.Errorf("error %q does not mention the command", err)
	}
}

func TestJobs_CommandLineAndPassthrough(t *testing.T) {
	run := &fakeRunner{out: report(
		"Account|0-49 CPUs|50-249 CPUs|Total Jobs",
		"research|120|14|134",
		"courses|77|0|77",
	)}
	c := NewClientWithRunner(run, zerolog.Nop())

	req := cpuRequest()
	req.Metric = model.MetricJobs

	table, err := c.Jobs(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "-P job SizesByAccount PrintJobCount FlatView start=2023-01-01 end=2023-02-01"
	if got := strings.Join(run.args, " "); got != want {
		t.Errorf("args = %q, want %q", got, want)
	}
	if len(table.Columns) != 4 || table.Columns[3] != "Total Jobs" {
		t.Errorf("Columns = %v, want the sreport header kept as is", table.Columns)
	}
	if len(table.Rows) != 2 || table.Rows[0][0] != "research" {
		t.Errorf("Rows = %v, want both account rows untouched", table.Rows)
	}
}

func TestJobs_EmptyResult(t *testing.T) {
	run := &fakeRunner{out: report("Account|Total Jobs")}
	c := NewClientWithRunner(run, zerolog.Nop())

	req := cpuRequest()
	req.Metric = model.MetricJobs

	if _, err := c.Jobs(context.Background(), req); !errors.Is(err, ErrEmptyResult) {
		t.Fatalf("error = %v, want ErrEmptyResult", err)
	}
}
