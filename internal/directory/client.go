// Package directory looks up organizational metadata for cluster users in
// the user-administration database.
package directory

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"

	"github.com/hpcops/slurmacc/internal/config"
	"github.com/hpcops/slurmacc/internal/model"
)

// The query is hardcoded here rather than shared with the user-management
// service so this tool has no dependency on its schema migrations. Every
// joined table is restricted to rows whose validity window overlaps the
// report period.
const affiliationQuery = `
SELECT
    users.username,
    users.name,
    departments.name,
    faculties.name,
    affiliations.start_date
FROM users
LEFT JOIN affiliations
    ON users.id = affiliations.user_id
LEFT JOIN departments
    ON affiliations.department_id = departments.id
LEFT JOIN faculties
    ON departments.faculty_id = faculties.id
WHERE users.username IN (%s)
  AND users.start_date < ?
  AND (users.end_date >= ? OR users.end_date IS NULL)
  AND affiliations.start_date < ?
  AND (affiliations.end_date >= ? OR affiliations.end_date IS NULL)
  AND departments.date_added < ?
  AND (departments.date_removed >= ? OR departments.date_removed IS NULL)
  AND faculties.date_added < ?
  AND (faculties.date_removed >= ? OR faculties.date_removed IS NULL)
`

// Client queries the user-administration database.
type Client struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open prepares a connection pool for the configured database. The server
// is not contacted until the first query.
func Open(cfg config.Database, log zerolog.Logger) (*Client, error) {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = cfg.Host
	mc.DBName = cfg.Name
	mc.ParseTime = true

	db, err := sql.Open("mysql", mc.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("opening database %s on %s: %w", cfg.Name, cfg.Host, err)
	}
	return &Client{db: db, log: log}, nil
}

// Close closes the connection pool.
func (c *Client) Close() error {
	return c.db.Close()
}

// Affiliations returns every affiliation row for the given logins that is
// valid somewhere within [start, end). Logins are deduplicated before the
// query; logins unknown to the directory simply yield no rows. Multiple
// rows per login are expected, one per affiliation; Resolve picks one.
func (c *Client) Affiliations(ctx context.Context, logins []string, start, end time.Time) ([]model.OrgRecord, error) {
	logins = dedupe(logins)
	if len(logins) == 0 {
		return nil, nil
	}

	s := start.Format("2006-01-02")
	e := end.Format("2006-01-02")

	args := make([]any, 0, len(logins)+8)
	for _, l := range logins {
		args = append(args, l)
	}
	for i := 0; i < 4; i++ {
		args = append(args, e, s)
	}

	c.log.Debug().Int("logins", len(logins)).Str("start", s).Str("end", e).Msg("querying user directory")

	query := fmt.Sprintf(affiliationQuery, inPlaceholders(len(logins)))
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying user directory: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.OrgRecord
	for rows.Next() {
		var (
			rec        model.OrgRecord
			name       sql.NullString
			department sql.NullString
			faculty    sql.NullString
			startDate  sql.NullTime
		)
		if err := rows.Scan(&rec.Login, &name, &department, &faculty, &startDate); err != nil {
			return nil, fmt.Errorf("scanning directory row: %w", err)
		}
		rec.Name = name.String
		rec.Department = department.String
		rec.Faculty = faculty.String
		if startDate.Valid {
			rec.Start = startDate.Time
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading directory rows: %w", err)
	}

	c.log.Debug().Int("rows", len(records)).Msg("directory query finished")
	return records, nil
}

// inPlaceholders returns n comma-separated parameter markers.
func inPlaceholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func dedupe(logins []string) []string {
	seen := make(map[string]struct{}, len(logins))
	var out []string
	for _, l := range logins {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
