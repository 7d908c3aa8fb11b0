package scope

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasteops/wasteops/internal/authz"
	"github.com/wasteops/wasteops/internal/directory"
	"github.com/wasteops/wasteops/internal/identity"
)

type stubDirectory struct {
	companies []directory.Company
	districts map[int64][]directory.District

	listDistrictCalls int
	onListDistricts   func()
}

func (s *stubDirectory) ListCompanies(ctx context.Context, limit int) ([]directory.Company, error) {
	return append([]directory.Company(nil), s.companies...), nil
}

func (s *stubDirectory) ListDistricts(ctx context.Context, companyID int64, limit int) ([]directory.District, error) {
	s.listDistrictCalls++
	if s.onListDistricts != nil {
		s.onListDistricts()
	}
	return append([]directory.District(nil), s.districts[companyID]...), nil
}

func (s *stubDirectory) GetCompany(ctx context.Context, id int64) (directory.Company, error) {
	for _, c := range s.companies {
		if c.ID == id {
			return c, nil
		}
	}
	return directory.Company{}, ErrCompanyNotAvailable
}

func superAdmin() *identity.Principal {
	return &identity.Principal{UserID: 1, Role: authz.RoleSuperAdmin}
}

func districtManager(companyID int64, access ...int64) *identity.Principal {
	return &identity.Principal{
		UserID:         2,
		Role:           authz.RoleDistrictManager,
		CompanyID:      &companyID,
		DistrictAccess: access,
	}
}

func twoCompanyDirectory() *stubDirectory {
	return &stubDirectory{
		companies: []directory.Company{
			{ID: 1, Code: "NORTH", Name: "Northside Sanitation"},
			{ID: 2, Code: "SOUTH", Name: "Southside Sanitation"},
		},
		districts: map[int64][]directory.District{
			1: {
				{ID: 10, Code: "N-A", Name: "North A", CompanyID: 1},
				{ID: 11, Code: "N-B", Name: "North B", CompanyID: 1},
			},
			2: {
				{ID: 20, Code: "S-A", Name: "South A", CompanyID: 2},
			},
		},
	}
}

func seedKV(t *testing.T, kv KV, key string, value any) {
	t.Helper()
	data, err := json.Marshal(value)
	require.NoError(t, err)
	require.NoError(t, kv.Set(context.Background(), key, data))
}

func TestRestoreIsIdempotent(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	seedKV(t, kv, "scope:user:1:company", directory.Company{ID: 1, Code: "NORTH", Name: "Northside Sanitation"})
	seedKV(t, kv, "scope:user:1:district", directory.District{ID: 10, Code: "N-A", Name: "North A", CompanyID: 1})

	store := NewStore(twoCompanyDirectory(), kv, nil, 1)
	store.Restore(ctx)
	first := store.Selected()

	store.Restore(ctx)
	second := store.Selected()

	require.Equal(t, first, second)
	require.NotNil(t, second.Company)
	require.EqualValues(t, 1, second.Company.ID)
	require.NotNil(t, second.District)
	require.EqualValues(t, 10, second.District.ID)
}

func TestRestoreDiscardsCorruptPayload(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(ctx, "scope:user:1:company", []byte(`{"id":`)))

	store := NewStore(twoCompanyDirectory(), kv, nil, 1)
	store.Restore(ctx)

	sel := store.Selected()
	require.Nil(t, sel.Company)
	require.Nil(t, sel.District)
}

func TestRestoreDropsDistrictOfAnotherCompany(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	seedKV(t, kv, "scope:user:1:company", directory.Company{ID: 1, Code: "NORTH", Name: "Northside Sanitation"})
	seedKV(t, kv, "scope:user:1:district", directory.District{ID: 20, Code: "S-A", Name: "South A", CompanyID: 2})

	store := NewStore(twoCompanyDirectory(), kv, nil, 1)
	store.Restore(ctx)

	sel := store.Selected()
	require.NotNil(t, sel.Company)
	require.Nil(t, sel.District, "a district persisted under a different company must not be restored")
}

func TestLoadCompaniesScopesNonSuperAdminToOwnCompany(t *testing.T) {
	ctx := context.Background()
	dir := twoCompanyDirectory()
	store := NewStore(dir, NewMemoryKV(), nil, 2)

	require.NoError(t, store.LoadCompanies(ctx, districtManager(2, 20)))

	companies := store.Companies()
	require.Len(t, companies, 1)
	require.EqualValues(t, 2, companies[0].ID)
	sel := store.Selected()
	require.NotNil(t, sel.Company)
	require.EqualValues(t, 2, sel.Company.ID)
	require.True(t, store.CompanyLocked(districtManager(2, 20)))
}

func TestLoadCompaniesKeepsRestoredSelection(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	seedKV(t, kv, "scope:user:1:company", directory.Company{ID: 2, Code: "SOUTH", Name: "Southside Sanitation"})

	store := NewStore(twoCompanyDirectory(), kv, nil, 1)
	store.Restore(ctx)
	require.NoError(t, store.LoadCompanies(ctx, superAdmin()))

	sel := store.Selected()
	require.NotNil(t, sel.Company)
	require.EqualValues(t, 2, sel.Company.ID, "restored selection still available, must survive the load")
	require.False(t, store.CompanyLocked(superAdmin()))
}

func TestLoadCompaniesFallsBackWhenRestoredCompanyGone(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	seedKV(t, kv, "scope:user:1:company", directory.Company{ID: 99, Code: "GONE", Name: "Defunct Hauling"})

	store := NewStore(twoCompanyDirectory(), kv, nil, 1)
	store.Restore(ctx)
	require.NoError(t, store.LoadCompanies(ctx, superAdmin()))

	sel := store.Selected()
	require.NotNil(t, sel.Company)
	require.EqualValues(t, 1, sel.Company.ID)

	payload, err := kv.Get(ctx, "scope:user:1:company")
	require.NoError(t, err)
	var persisted directory.Company
	require.NoError(t, json.Unmarshal(payload, &persisted))
	require.EqualValues(t, 1, persisted.ID, "fallback selection must be persisted")
}

func TestSelectCompanyClearsDistrictImmediately(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	store := NewStore(twoCompanyDirectory(), kv, nil, 1)
	p := superAdmin()

	require.NoError(t, store.LoadCompanies(ctx, p))
	require.NoError(t, store.LoadDistricts(ctx, p))
	ten := int64(10)
	require.NoError(t, store.SelectDistrict(ctx, &ten))

	require.NoError(t, store.SelectCompany(ctx, 2))

	sel := store.Selected()
	require.EqualValues(t, 2, sel.Company.ID)
	require.Nil(t, sel.District, "district never survives a company switch")
	require.Empty(t, store.Districts())

	payload, err := kv.Get(ctx, "scope:user:1:district")
	require.NoError(t, err)
	require.Nil(t, payload, "persisted district must be removed on company switch")
}

func TestSelectCompanySameIDKeepsDistrict(t *testing.T) {
	ctx := context.Background()
	store := NewStore(twoCompanyDirectory(), NewMemoryKV(), nil, 1)
	p := superAdmin()

	require.NoError(t, store.LoadCompanies(ctx, p))
	require.NoError(t, store.LoadDistricts(ctx, p))
	ten := int64(10)
	require.NoError(t, store.SelectDistrict(ctx, &ten))

	require.NoError(t, store.SelectCompany(ctx, 1))

	sel := store.Selected()
	require.NotNil(t, sel.District)
	require.EqualValues(t, 10, sel.District.ID)
}

func TestSelectCompanyOutsideLoadedSet(t *testing.T) {
	ctx := context.Background()
	store := NewStore(twoCompanyDirectory(), NewMemoryKV(), nil, 2)

	require.NoError(t, store.LoadCompanies(ctx, districtManager(2, 20)))
	require.ErrorIs(t, store.SelectCompany(ctx, 1), ErrCompanyNotAvailable)
}

func TestLoadDistrictsFiltersByAccess(t *testing.T) {
	ctx := context.Background()
	store := NewStore(twoCompanyDirectory(), NewMemoryKV(), nil, 2)
	p := districtManager(1, 10)

	require.NoError(t, store.LoadCompanies(ctx, p))
	require.NoError(t, store.LoadDistricts(ctx, p))

	districts := store.Districts()
	require.Len(t, districts, 1)
	require.EqualValues(t, 10, districts[0].ID)
}

func TestLoadDistrictsClearsStalePersistedSelection(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	seedKV(t, kv, "scope:user:2:company", directory.Company{ID: 1, Code: "NORTH", Name: "Northside Sanitation"})
	seedKV(t, kv, "scope:user:2:district", directory.District{ID: 11, Code: "N-B", Name: "North B", CompanyID: 1})

	store := NewStore(twoCompanyDirectory(), kv, nil, 2)
	store.Restore(ctx)
	// Access was revoked since the selection was persisted.
	p := districtManager(1, 10)

	require.NoError(t, store.LoadCompanies(ctx, p))
	require.NoError(t, store.LoadDistricts(ctx, p))

	sel := store.Selected()
	require.Nil(t, sel.District, "a selected district missing from the fresh set must be cleared")
	payload, err := kv.Get(ctx, "scope:user:2:district")
	require.NoError(t, err)
	require.Nil(t, payload)
}

func TestLoadDistrictsDiscardsStaleFetch(t *testing.T) {
	ctx := context.Background()
	dir := twoCompanyDirectory()
	store := NewStore(dir, NewMemoryKV(), nil, 1)
	p := superAdmin()

	require.NoError(t, store.LoadCompanies(ctx, p))

	// The company switches while the district fetch for the previous company
	// is in flight; the late response must not be applied.
	switched := false
	dir.onListDistricts = func() {
		if !switched {
			switched = true
			require.NoError(t, store.SelectCompany(ctx, 2))
		}
	}
	require.NoError(t, store.LoadDistricts(ctx, p))
	require.Empty(t, store.Districts(), "stale fetch result must be discarded")

	dir.onListDistricts = nil
	require.NoError(t, store.LoadDistricts(ctx, p))
	districts := store.Districts()
	require.Len(t, districts, 1)
	require.EqualValues(t, 20, districts[0].ID)
}

func TestSelectDistrictValidation(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	store := NewStore(twoCompanyDirectory(), kv, nil, 1)
	p := superAdmin()

	ten := int64(10)
	require.ErrorIs(t, store.SelectDistrict(ctx, &ten), ErrNoCompanySelected)

	require.NoError(t, store.LoadCompanies(ctx, p))
	require.NoError(t, store.LoadDistricts(ctx, p))

	ninety := int64(90)
	require.ErrorIs(t, store.SelectDistrict(ctx, &ninety), ErrDistrictNotAvailable)

	require.NoError(t, store.SelectDistrict(ctx, &ten))
	payload, err := kv.Get(ctx, "scope:user:1:district")
	require.NoError(t, err)
	require.NotNil(t, payload)

	require.NoError(t, store.SelectDistrict(ctx, nil))
	require.Nil(t, store.Selected().District)
	payload, err = kv.Get(ctx, "scope:user:1:district")
	require.NoError(t, err)
	require.Nil(t, payload, "clearing the district must remove the persisted key")
}
