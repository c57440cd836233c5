package journal

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Filter narrows a run listing. Zero values mean "no constraint".
type Filter struct {
	Driver string
	Status string
	Since  time.Time
	Limit  int
}

// compile turns a Filter into a parameterized WHERE/LIMIT tail. Values
// are always parameterized, never interpolated, and every listing query
// carries an ORDER BY for deterministic results.
func (f Filter) compile() (string, []any) {
	var clauses []string
	var params []any

	if f.Driver != "" {
		clauses = append(clauses, "driver = ?")
		params = append(params, f.Driver)
	}
	if f.Status != "" {
		clauses = append(clauses, "status = ?")
		params = append(params, f.Status)
	}
	if !f.Since.IsZero() {
		clauses = append(clauses, "created_at >= ?")
		params = append(params, f.Since.UTC().Format(time.RFC3339Nano))
	}

	var sql strings.Builder
	if len(clauses) > 0 {
		sql.WriteString(" WHERE ")
		sql.WriteString(strings.Join(clauses, " AND "))
	}
	sql.WriteString(" ORDER BY created_at DESC, id DESC")
	if f.Limit > 0 {
		sql.WriteString(" LIMIT ?")
		params = append(params, f.Limit)
	}
	return sql.String(), params
}

// List returns runs matching the filter, newest first. Returns an empty
// slice, not nil, when nothing matches.
func (j *Journal) List(ctx context.Context, filter Filter) ([]Run, error) {
	tail, params := filter.compile()
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, created_at, driver, source, payload, commands_total, commands_dispatched, status, error
		FROM runs`+tail, params...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
