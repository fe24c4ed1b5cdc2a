package identity

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresRepo reads workers, tenants, sites and tenant skills.
//
// NOTE: This repository assumes the following tables exist:
// - tenants (id, name, timezone)
// - users (id, tenant_id, first_name, last_name, phone, is_active)
// - entities (id, tenant_id, entity_type, name, identifier, address, is_active)
// - tenant_skills (tenant_id, skill_key, is_active)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) FindActiveWorkerByPhone(ctx context.Context, phone string) (Worker, bool, error) {
	const q = `
SELECT u.id, u.tenant_id, u.first_name, u.last_name, u.phone, u.is_active,
       t.name, COALESCE(t.timezone, ''), u.created_at
FROM users u
JOIN tenants t ON t.id = u.tenant_id
WHERE u.phone = $1 AND u.is_active = true
LIMIT 1
`
	var w Worker
	if err := r.db.QueryRowContext(ctx, q, phone).Scan(
		&w.ID,
		&w.TenantID,
		&w.FirstName,
		&w.LastName,
		&w.Phone,
		&w.IsActive,
		&w.TenantName,
		&w.Timezone,
		&w.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Worker{}, false, nil
		}
		return Worker{}, false, err
	}
	return w, true, nil
}

func (r *PostgresRepo) ListActiveSites(ctx context.Context, tenantID string) ([]Site, error) {
	const q = `
SELECT id, name, COALESCE(identifier, ''), COALESCE(address, '')
FROM entities
WHERE tenant_id = $1 AND entity_type = 'sites' AND is_active = true
ORDER BY name
`
	rows, err := r.db.QueryContext(ctx, q, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Site, 0)
	for rows.Next() {
		var s Site
		if err := rows.Scan(&s.ID, &s.Name, &s.Identifier, &s.Address); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) ListEnabledCapabilities(ctx context.Context, tenantID string) ([]string, error) {
	const q = `
SELECT skill_key
FROM tenant_skills
WHERE tenant_id = $1 AND is_active = true
ORDER BY skill_key
`
	rows, err := r.db.QueryContext(ctx, q, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}
