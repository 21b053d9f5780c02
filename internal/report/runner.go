package report

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/hpcops/slurmacc/internal/directory"
	"github.com/hpcops/slurmacc/internal/model"
)

// UsageSource yields usage records for one request period.
type UsageSource interface {
	Usage(ctx context.Context, req model.Request) ([]model.UsageRecord, error)
}

// Directory yields affiliation rows for a set of logins within a period.
type Directory interface {
	Affiliations(ctx context.Context, logins []string, start, end time.Time) ([]model.OrgRecord, error)
}

// Options selects the report shape.
type Options struct {
	Faculty     bool
	Department  bool
	User        bool
	SortByValue bool
}

// Runner drives the report pipeline against a usage source and a user
// directory.
type Runner struct {
	Source UsageSource
	Dir    Directory
	Log    zerolog.Logger
}

// Single produces the report for one period: fetch usage, resolve
// affiliations, join, aggregate.
func (r *Runner) Single(ctx context.Context, req model.Request, opts Options) (*model.ReportTable, error) {
	dims := GroupDims(opts.Faculty, opts.Department, opts.User, false)
	return r.single(ctx, req, dims, opts.SortByValue)
}

func (r *Runner) single(ctx context.Context, req model.Request, dims []string, sortByValue bool) (*model.ReportTable, error) {
	usage, err := r.Source.Usage(ctx, req)
	if err != nil {
		return nil, err
	}

	logins := make([]string, 0, len(usage))
	for _, u := range usage {
		logins = append(logins, u.Login)
	}

	rows, err := r.Dir.Affiliations(ctx, logins, req.Start, req.End)
	if err != nil {
		return nil, err
	}

	resolved := directory.Resolve(rows, r.Log)
	combined := Join(usage, resolved, r.Log)
	return Aggregate(combined, dims, sortByValue), nil
}
