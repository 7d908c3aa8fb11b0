package authz

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// OverrideRepository loads role-level permission overrides from postgres.
type OverrideRepository interface {
	LoadRoleOverrides(ctx context.Context) (map[Role]map[Permission]bool, error)
}

type pgOverrideRepository struct {
	pool *pgxpool.Pool
}

// NewOverrideRepository constructs the postgres-backed repository.
func NewOverrideRepository(pool *pgxpool.Pool) OverrideRepository {
	return &pgOverrideRepository{pool: pool}
}

// LoadRoleOverrides reads every configured override. Rows referencing keys
// outside the catalog are skipped; the resolver would ignore them anyway.
func (r *pgOverrideRepository) LoadRoleOverrides(ctx context.Context) (map[Role]map[Permission]bool, error) {
	const query = `SELECT role, permission, granted FROM role_permission_overrides`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("authz: load role overrides: %w", err)
	}
	defer rows.Close()

	overrides := make(map[Role]map[Permission]bool)
	for rows.Next() {
		var (
			role    string
			perm    string
			granted bool
		)
		if err := rows.Scan(&role, &perm, &granted); err != nil {
			return nil, fmt.Errorf("authz: scan role override: %w", err)
		}
		if !KnownPermission(Permission(perm)) {
			continue
		}
		if overrides[Role(role)] == nil {
			overrides[Role(role)] = make(map[Permission]bool)
		}
		overrides[Role(role)][Permission(perm)] = granted
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("authz: load role overrides: %w", err)
	}
	return overrides, nil
}
