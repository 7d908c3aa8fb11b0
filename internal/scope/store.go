// Package scope owns the session's organizational scope selection: which
// company and which district the principal's view and mutations are confined
// to. The selection is a strict pair; a district is only ever valid under the
// currently selected company and, for non-super-admins, inside the
// principal's district access list. Any operation that would break that
// invariant clears the district instead of leaving an invalid pairing.
package scope

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/wasteops/wasteops/internal/authz"
	"github.com/wasteops/wasteops/internal/directory"
	"github.com/wasteops/wasteops/internal/identity"
)

var (
	// ErrCompanyNotAvailable rejects selecting a company outside the loaded set.
	ErrCompanyNotAvailable = errors.New("scope: company not available")
	// ErrDistrictNotAvailable rejects selecting a district outside the valid set.
	ErrDistrictNotAvailable = errors.New("scope: district not available")
	// ErrNoCompanySelected rejects district operations without a company.
	ErrNoCompanySelected = errors.New("scope: no company selected")
)

// Directory is the data-access collaborator the store fetches lists from.
type Directory interface {
	ListCompanies(ctx context.Context, limit int) ([]directory.Company, error)
	ListDistricts(ctx context.Context, companyID int64, limit int) ([]directory.District, error)
	GetCompany(ctx context.Context, id int64) (directory.Company, error)
}

// Selection is the externally visible scope state.
type Selection struct {
	Company  *directory.Company  `json:"company,omitempty"`
	District *directory.District `json:"district,omitempty"`
}

// Store holds one principal's scope selection. It is an explicit service
// object constructed per user (never a package-level singleton) so tests can
// substitute the directory and the KV freely.
type Store struct {
	mu        sync.Mutex
	directory Directory
	kv        KV
	logger    *slog.Logger

	keyCompany  string
	keyDistrict string

	selectedCompany  *directory.Company
	selectedDistrict *directory.District
	companies        []directory.Company
	districts        []directory.District

	// fetchGen tags in-flight district fetches; a response is applied only
	// if the generation still matches, so a slow fetch for a previously
	// selected company can never overwrite newer state.
	fetchGen uint64
}

// NewStore constructs a Store persisting under the given user's keys.
func NewStore(dir Directory, kv KV, logger *slog.Logger, userID int64) *Store {
	return &Store{
		directory:   dir,
		kv:          kv,
		logger:      logger,
		keyCompany:  fmt.Sprintf("scope:user:%d:company", userID),
		keyDistrict: fmt.Sprintf("scope:user:%d:district", userID),
	}
}

// Restore reads the persisted selection. A missing or corrupt value leaves
// the corresponding leg empty; Restore never fails. Calling it again with the
// same persisted content yields the same selection.
func (s *Store) Restore(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selectedCompany = nil
	s.selectedDistrict = nil

	if payload, err := s.kv.Get(ctx, s.keyCompany); err == nil && payload != nil {
		var company directory.Company
		if jsonErr := json.Unmarshal(payload, &company); jsonErr == nil && company.ID != 0 {
			s.selectedCompany = &company
		} else if s.logger != nil {
			s.logger.Warn("discard corrupt persisted company selection")
		}
	}
	if s.selectedCompany == nil {
		return
	}
	if payload, err := s.kv.Get(ctx, s.keyDistrict); err == nil && payload != nil {
		var district directory.District
		if jsonErr := json.Unmarshal(payload, &district); jsonErr == nil && district.ID != 0 {
			if district.CompanyID == s.selectedCompany.ID {
				s.selectedDistrict = &district
			}
		} else if s.logger != nil {
			s.logger.Warn("discard corrupt persisted district selection")
		}
	}
}

// LoadCompanies fetches the set of companies available to the principal and
// ensures a company is selected afterwards. super_admin sees the directory
// list; everyone else sees exactly their own company. A fetch failure leaves
// the prior state untouched.
func (s *Store) LoadCompanies(ctx context.Context, principal *identity.Principal) error {
	if principal == nil {
		return ErrCompanyNotAvailable
	}

	var (
		companies []directory.Company
		err       error
	)
	if principal.Role == authz.RoleSuperAdmin {
		companies, err = s.directory.ListCompanies(ctx, directory.DefaultListLimit)
		if err != nil {
			return fmt.Errorf("scope: load companies: %w", err)
		}
	} else {
		if principal.CompanyID == nil {
			return ErrCompanyNotAvailable
		}
		company, getErr := s.directory.GetCompany(ctx, *principal.CompanyID)
		if getErr != nil {
			return fmt.Errorf("scope: load own company: %w", getErr)
		}
		companies = []directory.Company{company}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.companies = companies
	if len(companies) == 0 {
		return nil
	}

	// Keep the restored selection when it is still available, otherwise fall
	// back to the first loaded company (the principal's own one for
	// non-super-admins, since their set has exactly one element).
	if s.selectedCompany != nil {
		if current, ok := findCompany(companies, s.selectedCompany.ID); ok {
			s.selectedCompany = &current
			return nil
		}
	}
	first := companies[0]
	s.applyCompanyLocked(ctx, &first)
	return nil
}

// SelectCompany sets the selected company and unconditionally clears the
// selected district; districts never survive a company switch.
func (s *Store) SelectCompany(ctx context.Context, companyID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	company, ok := findCompany(s.companies, companyID)
	if !ok {
		return ErrCompanyNotAvailable
	}
	if s.selectedCompany != nil && s.selectedCompany.ID == company.ID {
		return nil
	}
	s.applyCompanyLocked(ctx, &company)
	return nil
}

// LoadDistricts fetches the district list for the selected company, filtered
// to the principal's district access for non-super-admins. A selected
// district missing from the fresh set is cleared. A response whose triggering
// selection no longer matches the current state is discarded.
func (s *Store) LoadDistricts(ctx context.Context, principal *identity.Principal) error {
	s.mu.Lock()
	if s.selectedCompany == nil {
		s.districts = nil
		s.mu.Unlock()
		return nil
	}
	companyID := s.selectedCompany.ID
	gen := s.fetchGen
	s.mu.Unlock()

	fetched, err := s.directory.ListDistricts(ctx, companyID, directory.DefaultListLimit)
	if err != nil {
		return fmt.Errorf("scope: load districts: %w", err)
	}

	districts := make([]directory.District, 0, len(fetched))
	for _, d := range fetched {
		if principal != nil && !principal.CanAccessDistrict(d.ID) {
			continue
		}
		districts = append(districts, d)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fetchGen != gen || s.selectedCompany == nil || s.selectedCompany.ID != companyID {
		// Stale response; a newer selection owns the state now.
		return nil
	}

	s.districts = districts
	if s.selectedDistrict != nil {
		if _, ok := findDistrict(districts, s.selectedDistrict.ID); !ok {
			s.selectedDistrict = nil
			s.removeKey(ctx, s.keyDistrict)
		}
	}
	return nil
}

// SelectDistrict sets or clears the selected district. A non-nil selection
// must be a member of the currently valid district set.
func (s *Store) SelectDistrict(ctx context.Context, districtID *int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if districtID == nil {
		s.selectedDistrict = nil
		s.removeKey(ctx, s.keyDistrict)
		return nil
	}
	if s.selectedCompany == nil {
		return ErrNoCompanySelected
	}
	district, ok := findDistrict(s.districts, *districtID)
	if !ok {
		return ErrDistrictNotAvailable
	}
	s.selectedDistrict = &district
	s.persistKey(ctx, s.keyDistrict, district)
	return nil
}

// Selected returns the current selection.
func (s *Store) Selected() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Selection{
		Company:  copyCompany(s.selectedCompany),
		District: copyDistrict(s.selectedDistrict),
	}
}

// Companies returns the loaded company set.
func (s *Store) Companies() []directory.Company {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]directory.Company(nil), s.companies...)
}

// Districts returns the loaded, access-filtered district set.
func (s *Store) Districts() []directory.District {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]directory.District(nil), s.districts...)
}

// CompanyLocked reports whether the company picker should be disabled: a
// single available company combined with a non-super-admin principal.
func (s *Store) CompanyLocked(principal *identity.Principal) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.companies) == 1 && (principal == nil || principal.Role != authz.RoleSuperAdmin)
}

// applyCompanyLocked switches the company, clears the district and persists
// both changes. Callers hold the mutex.
func (s *Store) applyCompanyLocked(ctx context.Context, company *directory.Company) {
	s.selectedCompany = company
	s.selectedDistrict = nil
	s.districts = nil
	s.fetchGen++
	s.persistKey(ctx, s.keyCompany, company)
	s.removeKey(ctx, s.keyDistrict)
}

func (s *Store) persistKey(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.kv.Set(ctx, key, data); err != nil && s.logger != nil {
		s.logger.Warn("persist scope selection", slog.String("key", key), slog.Any("error", err))
	}
}

func (s *Store) removeKey(ctx context.Context, key string) {
	if err := s.kv.Remove(ctx, key); err != nil && s.logger != nil {
		s.logger.Warn("remove scope selection", slog.String("key", key), slog.Any("error", err))
	}
}

func findCompany(companies []directory.Company, id int64) (directory.Company, bool) {
	for _, c := range companies {
		if c.ID == id {
			return c, true
		}
	}
	return directory.Company{}, false
}

func findDistrict(districts []directory.District, id int64) (directory.District, bool) {
	for _, d := range districts {
		if d.ID == id {
			return d, true
		}
	}
	return directory.District{}, false
}

func copyCompany(c *directory.Company) *directory.Company {
	if c == nil {
		return nil
	}
	out := *c
	return &out
}

func copyDistrict(d *directory.District) *directory.District {
	if d == nil {
		return nil
	}
	out := *d
	return &out
}
