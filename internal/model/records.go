// Package model defines domain types for slurmacc usage reports.
package model

import (
	"strings"
	"time"
)

// Sentinels substituted when the directory has no affiliation data for a user.
const (
	UnknownDepartment = "Unknown Department"
	UnknownFaculty    = "Unknown Faculty"
)

// Metric selects the quantity being reported.
type Metric string

const (
	MetricCPU  Metric = "cpu"
	MetricJobs Metric = "jobs"
)

// TimeUnit is the sreport output unit for the cpu metric.
type TimeUnit string

const (
	UnitHours   TimeUnit = "h"
	UnitMinutes TimeUnit = "m"
	UnitSeconds TimeUnit = "s"
	UnitPercent TimeUnit = "p"
)

// ValidTimeUnit reports whether u is one of the units sreport accepts.
func ValidTimeUnit(u TimeUnit) bool {
	switch u {
	case UnitHours, UnitMinutes, UnitSeconds, UnitPercent:
		return true
	}
	return false
}

// Request identifies one usage fetch: metric, time unit, period and account
// filter. The period is the half-open interval [Start, End). Requests are
// values and are never mutated; monthly reports build a fresh Request per
// sub-period.
type Request struct {
	Metric   Metric
	TimeUnit TimeUnit
	Start    time.Time
	End      time.Time
	Accounts []string
}

// WithPeriod returns a copy of r covering [start, end).
func (r Request) WithPeriod(start, end time.Time) Request {
	r.Start = start
	r.End = end
	return r
}

// CacheKey identifies the fetch for the usage cache.
func (r Request) CacheKey() string {
	return strings.Join([]string{
		string(r.Metric),
		string(r.TimeUnit),
		strings.Join(r.Accounts, ","),
		r.Start.Format("2006-01-02"),
		r.End.Format("2006-01-02"),
	}, "|")
}

// UsageRecord is one sreport data row: resource consumption for a login
// under one account.
type UsageRecord struct {
	Login   string
	Account string
	Used    float64
}

// OrgRecord is one directory affiliation row for a login. Start is the
// affiliation start date; the zero time means the directory had none.
type OrgRecord struct {
	Login      string
	Name       string
	Department string
	Faculty    string
	Start      time.Time
}

// CombinedRecord is a UsageRecord joined with the resolved OrgRecord for
// its login.
type CombinedRecord struct {
	Login      string
	Account    string
	Used       float64
	Name       string
	Department string
	Faculty    string
}
