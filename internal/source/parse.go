package source

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hpcops/slurmacc/internal/model"
)

// sreport prefixes every report with a four-line banner before the header.
const bannerLines = 4

// parseTable splits pipe-delimited sreport output into a header and data
// rows, skipping the banner. Every data row must have the header's width.
func parseTable(out []byte) (*model.RawTable, error) {
	lines := strings.Split(strings.ReplaceAll(string(out), "\r\n", "\n"), "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) <= bannerLines {
		return nil, fmt.Errorf("output has %d lines, want a header after the %d banner lines", len(lines), bannerLines)
	}

	lines = lines[bannerLines:]
	columns := strings.Split(lines[0], "|")

	table := &model.RawTable{Columns: columns}
	for i, line := range lines[1:] {
		fields := strings.Split(line, "|")
		if len(fields) != len(columns) {
			return nil, fmt.Errorf("row %d has %d fields, want %d", i+1, len(fields), len(columns))
		}
		table.Rows = append(table.Rows, fields)
	}
	return table, nil
}

// usageFromTable converts a cluster utilization table into usage records,
// dropping rollup rows that have no login.
func usageFromTable(table *model.RawTable) ([]model.UsageRecord, error) {
	login, account, used := -1, -1, -1
	for i, name := range table.Columns {
		switch name {
		case "Login":
			login = i
		case "Account":
			account = i
		case "Used":
			used = i
		}
	}
	if login < 0 || account < 0 || used < 0 {
		return nil, fmt.Errorf("header %q is missing Login, Account or Used", strings.Join(table.Columns, "|"))
	}

	var records []model.UsageRecord
	for i, row := range table.Rows {
		if row[login] == "" {
			continue
		}
		// The percent time unit suffixes values with %.
		v, err := strconv.ParseFloat(strings.TrimSuffix(row[used], "%"), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing Used value %q: %w", i+1, row[used], err)
		}
		records = append(records, model.UsageRecord{
			Login:   row[login],
			Account: row[account],
			Used:    v,
		})
	}
	return records, nil
}
