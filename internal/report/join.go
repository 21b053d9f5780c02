// Package report builds usage accounting tables: it joins usage records to
// directory records, aggregates them along the requested dimensions and
// merges monthly sub-periods into wide tables.
package report

import (
	"github.com/rs/zerolog"

	"github.com/hpcops/slurmacc/internal/model"
)

// Join left-joins usage records onto resolved directory records by login.
// The output has exactly one row per usage record, in input order; nothing
// is coalesced here. Logins the directory does not know keep their usage
// fields and get the Unknown sentinels for department and faculty.
func Join(usage []model.UsageRecord, org map[string]model.OrgRecord, log zerolog.Logger) []model.CombinedRecord {
	combined := make([]model.CombinedRecord, 0, len(usage))
	unmatched := make(map[string]struct{})

	for _, u := range usage {
		rec := model.CombinedRecord{
			Login:   u.Login,
			Account: u.Account,
			Used:    u.Used,
		}
		if o, ok := org[u.Login]; ok {
			rec.Name = o.Name
			rec.Department = o.Department
			rec.Faculty = o.Faculty
		} else {
			rec.Department = model.UnknownDepartment
			rec.Faculty = model.UnknownFaculty
			unmatched[u.Login] = struct{}{}
		}
		combined = append(combined, rec)
	}

	if len(unmatched) > 0 {
		log.Warn().Int("logins", len(unmatched)).Msg("logins with usage but no directory entry, marked with Unknown sentinels")
	}

	return combined
}
