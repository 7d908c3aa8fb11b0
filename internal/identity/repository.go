package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wasteops/wasteops/internal/authz"
	"github.com/wasteops/wasteops/internal/shared"
)

// Repository defines persistence operations for the identity module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	DistrictAccess(ctx context.Context, userID int64) ([]int64, error)
	PermissionOverrides(ctx context.Context, userID int64) (map[authz.Permission]bool, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, email, password_hash, role, company_id, is_active, created_at, updated_at`

// FindByEmail fetches a user by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, email))
}

// FindByID fetches a user by ID.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

// DistrictAccess returns the district IDs the user may operate in.
func (r *PGRepository) DistrictAccess(ctx context.Context, userID int64) ([]int64, error) {
	const query = `SELECT district_id FROM user_district_access WHERE user_id = $1 ORDER BY district_id`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("identity: district access: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("identity: scan district access: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// PermissionOverrides returns user-specific permission grants.
func (r *PGRepository) PermissionOverrides(ctx context.Context, userID int64) (map[authz.Permission]bool, error) {
	const query = `SELECT permission, granted FROM user_permission_overrides WHERE user_id = $1`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("identity: permission overrides: %w", err)
	}
	defer rows.Close()

	overrides := make(map[authz.Permission]bool)
	for rows.Next() {
		var (
			perm    string
			granted bool
		)
		if err := rows.Scan(&perm, &granted); err != nil {
			return nil, fmt.Errorf("identity: scan permission override: %w", err)
		}
		overrides[authz.Permission(perm)] = granted
	}
	return overrides, rows.Err()
}

func (r *PGRepository) scanUser(row pgx.Row) (*User, error) {
	var (
		user      User
		companyID pgtype.Int8
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
		role      string
	)
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &role, &companyID, &user.IsActive, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("identity: scan user: %w", err)
	}
	user.Role = authz.Role(role)
	if companyID.Valid {
		id := companyID.Int64
		user.CompanyID = &id
	}
	if createdAt.Valid {
		user.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		user.UpdatedAt = updatedAt.Time
	}
	return &user, nil
}

var _ Repository = (*PGRepository)(nil)
