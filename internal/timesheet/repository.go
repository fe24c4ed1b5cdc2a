package timesheet

import (
	"context"
	"database/sql"
)

// PostgresRepo persists committed timesheet records.
//
// NOTE: This repository assumes a timesheets table with a uniqueness
// constraint for finalize retries:
// UNIQUE (call_id, seq)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Insert(ctx context.Context, rec Record) error {
	// ON CONFLICT DO NOTHING: a retried finalize that lost the session
	// marker re-inserts the same (call_id, seq) and must not duplicate.
	const q = `
INSERT INTO timesheets (
  id, tenant_id, user_id, site_id, call_id, seq, work_date,
  start_time, end_time, hours_worked, work_description, plans_for_tomorrow,
  created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14
)
ON CONFLICT (call_id, seq) DO NOTHING
`
	_, err := r.db.ExecContext(ctx, q,
		rec.ID,
		rec.TenantID,
		rec.WorkerID,
		rec.SiteID,
		rec.CallID,
		rec.Seq,
		rec.WorkDate,
		rec.StartTime,
		rec.EndTime,
		rec.Hours,
		rec.WorkDescription,
		rec.PlansForTomorrow,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	return err
}

func (r *PostgresRepo) ListByTenant(ctx context.Context, tenantID, fromDate, toDate string) ([]Record, error) {
	const q = `
SELECT id, tenant_id, user_id, site_id, call_id, seq, work_date,
       start_time, end_time, hours_worked, work_description,
       COALESCE(plans_for_tomorrow, ''), created_at, updated_at
FROM timesheets
WHERE tenant_id = $1
  AND ($2 = '' OR work_date >= $2)
  AND ($3 = '' OR work_date <= $3)
ORDER BY work_date DESC, created_at DESC
`
	rows, err := r.db.QueryContext(ctx, q, tenantID, fromDate, toDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID,
			&rec.TenantID,
			&rec.WorkerID,
			&rec.SiteID,
			&rec.CallID,
			&rec.Seq,
			&rec.WorkDate,
			&rec.StartTime,
			&rec.EndTime,
			&rec.Hours,
			&rec.WorkDescription,
			&rec.PlansForTomorrow,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
