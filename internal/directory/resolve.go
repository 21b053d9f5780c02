package directory

import (
	"github.com/rs/zerolog"

	"github.com/hpcops/slurmacc/internal/model"
)

// Resolve reduces affiliation rows to exactly one record per login: the one
// with the latest start date. Ties keep the record seen first, so resolution
// is deterministic for a given row order. Missing department or faculty
// names are replaced with the Unknown sentinels; affected user counts are
// surfaced as warnings, never as errors.
func Resolve(rows []model.OrgRecord, log zerolog.Logger) map[string]model.OrgRecord {
	resolved := make(map[string]model.OrgRecord, len(rows))
	for _, r := range rows {
		cur, ok := resolved[r.Login]
		if !ok || r.Start.After(cur.Start) {
			resolved[r.Login] = r
		}
	}

	var noDepartment, noFaculty int
	for login, r := range resolved {
		if r.Department == "" {
			r.Department = model.UnknownDepartment
			noDepartment++
		}
		if r.Faculty == "" {
			r.Faculty = model.UnknownFaculty
			noFaculty++
		}
		resolved[login] = r
	}

	if noDepartment > 0 {
		log.Warn().Int("users", noDepartment).Msg("users without a department affiliation, marked as Unknown Department")
	}
	if noFaculty > 0 {
		log.Warn().Int("users", noFaculty).Msg("users without a faculty affiliation, marked as Unknown Faculty")
	}

	return resolved
}
