package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wasteops/wasteops/internal/platform/httpx"
)

// Repository defines read access to the organizational hierarchy.
type Repository interface {
	ListCompanies(ctx context.Context, limit int) ([]Company, error)
	ListDistricts(ctx context.Context, companyID int64, limit int) ([]District, error)
	ListNeighborhoods(ctx context.Context, districtID int64, limit int) ([]Neighborhood, error)
	GetCompany(ctx context.Context, id int64) (Company, error)
	GetDistrict(ctx context.Context, id int64) (District, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a postgres-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) ListCompanies(ctx context.Context, limit int) ([]Company, error) {
	const query = `SELECT id, code, name FROM companies ORDER BY name LIMIT $1`
	rows, err := r.pool.Query(ctx, query, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("directory: list companies: %w", mapError(err))
	}
	defer rows.Close()

	var companies []Company
	for rows.Next() {
		var c Company
		if err := rows.Scan(&c.ID, &c.Code, &c.Name); err != nil {
			return nil, fmt.Errorf("directory: scan company: %w", err)
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

func (r *repository) ListDistricts(ctx context.Context, companyID int64, limit int) ([]District, error) {
	const query = `SELECT id, code, name, company_id FROM districts WHERE company_id = $1 ORDER BY name LIMIT $2`
	rows, err := r.pool.Query(ctx, query, companyID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("directory: list districts: %w", mapError(err))
	}
	defer rows.Close()

	var districts []District
	for rows.Next() {
		var d District
		if err := rows.Scan(&d.ID, &d.Code, &d.Name, &d.CompanyID); err != nil {
			return nil, fmt.Errorf("directory: scan district: %w", err)
		}
		districts = append(districts, d)
	}
	return districts, rows.Err()
}

func (r *repository) ListNeighborhoods(ctx context.Context, districtID int64, limit int) ([]Neighborhood, error) {
	const query = `SELECT id, code, name, district_id FROM neighborhoods WHERE district_id = $1 ORDER BY name LIMIT $2`
	rows, err := r.pool.Query(ctx, query, districtID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("directory: list neighborhoods: %w", mapError(err))
	}
	defer rows.Close()

	var neighborhoods []Neighborhood
	for rows.Next() {
		var n Neighborhood
		if err := rows.Scan(&n.ID, &n.Code, &n.Name, &n.DistrictID); err != nil {
			return nil, fmt.Errorf("directory: scan neighborhood: %w", err)
		}
		neighborhoods = append(neighborhoods, n)
	}
	return neighborhoods, rows.Err()
}

func (r *repository) GetCompany(ctx context.Context, id int64) (Company, error) {
	const query = `SELECT id, code, name FROM companies WHERE id = $1`
	var c Company
	if err := r.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.Code, &c.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Company{}, httpx.ErrNotFound
		}
		return Company{}, fmt.Errorf("directory: get company: %w", err)
	}
	return c, nil
}

func (r *repository) GetDistrict(ctx context.Context, id int64) (District, error) {
	const query = `SELECT id, code, name, company_id FROM districts WHERE id = $1`
	var d District
	if err := r.pool.QueryRow(ctx, query, id).Scan(&d.ID, &d.Code, &d.Name, &d.CompanyID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return District{}, httpx.ErrNotFound
		}
		return District{}, fmt.Errorf("directory: get district: %w", err)
	}
	return d, nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > DefaultListLimit {
		return DefaultListLimit
	}
	return limit
}

func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return httpx.ErrDuplicate
	}
	return err
}
