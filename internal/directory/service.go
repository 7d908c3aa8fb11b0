package directory

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/singleflight"
)

// Service serves directory lists with caching and in-flight deduplication.
// Concurrent identical fetches (several sessions loading the same company's
// districts) collapse into one repository call.
type Service struct {
	repo  Repository
	cache *Cache
	group singleflight.Group
}

// NewService constructs a Service. cache may be nil.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// ListCompanies returns up to limit companies ordered by name.
func (s *Service) ListCompanies(ctx context.Context, limit int) ([]Company, error) {
	key := "directory:companies:" + strconv.Itoa(clampLimit(limit))
	var companies []Company
	err := s.cache.FetchJSON(ctx, key, &companies, func(ctx context.Context) (any, error) {
		return s.listCompaniesOnce(ctx, limit)
	})
	if err != nil {
		return nil, err
	}
	return companies, nil
}

// ListDistricts returns up to limit districts belonging to the company.
func (s *Service) ListDistricts(ctx context.Context, companyID int64, limit int) ([]District, error) {
	key := fmt.Sprintf("directory:districts:%d:%d", companyID, clampLimit(limit))
	var districts []District
	err := s.cache.FetchJSON(ctx, key, &districts, func(ctx context.Context) (any, error) {
		return s.listDistrictsOnce(ctx, companyID, limit)
	})
	if err != nil {
		return nil, err
	}
	return districts, nil
}

// ListNeighborhoods returns up to limit neighborhoods inside the district.
func (s *Service) ListNeighborhoods(ctx context.Context, districtID int64, limit int) ([]Neighborhood, error) {
	key := fmt.Sprintf("directory:neighborhoods:%d:%d", districtID, clampLimit(limit))
	var neighborhoods []Neighborhood
	err := s.cache.FetchJSON(ctx, key, &neighborhoods, func(ctx context.Context) (any, error) {
		return s.repo.ListNeighborhoods(ctx, districtID, limit)
	})
	if err != nil {
		return nil, err
	}
	return neighborhoods, nil
}

// GetCompany fetches one company.
func (s *Service) GetCompany(ctx context.Context, id int64) (Company, error) {
	return s.repo.GetCompany(ctx, id)
}

// GetDistrict fetches one district.
func (s *Service) GetDistrict(ctx context.Context, id int64) (District, error) {
	return s.repo.GetDistrict(ctx, id)
}

// WarmCompany preloads the cache for one company and its districts. Used by
// the background warmup job.
func (s *Service) WarmCompany(ctx context.Context, companyID int64) error {
	districts, err := s.ListDistricts(ctx, companyID, DefaultListLimit)
	if err != nil {
		return err
	}
	for _, d := range districts {
		if _, err := s.ListNeighborhoods(ctx, d.ID, DefaultListLimit); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) listCompaniesOnce(ctx context.Context, limit int) ([]Company, error) {
	key := "companies:" + strconv.Itoa(clampLimit(limit))
	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.repo.ListCompanies(ctx, limit)
	})
	if err != nil {
		return nil, err
	}
	return v.([]Company), nil
}

func (s *Service) listDistrictsOnce(ctx context.Context, companyID int64, limit int) ([]District, error) {
	key := fmt.Sprintf("districts:%d:%d", companyID, clampLimit(limit))
	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.repo.ListDistricts(ctx, companyID, limit)
	})
	if err != nil {
		return nil, err
	}
	return v.([]District), nil
}
