package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/wasteops/wasteops/internal/authz"
	"github.com/wasteops/wasteops/internal/shared"
)

type stubRepo struct {
	users     map[string]*User
	access    map[int64][]int64
	overrides map[int64]map[authz.Permission]bool
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	user, ok := s.users[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id int64) (*User, error) {
	for _, user := range s.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *stubRepo) DistrictAccess(ctx context.Context, userID int64) ([]int64, error) {
	return s.access[userID], nil
}

func (s *stubRepo) PermissionOverrides(ctx context.Context, userID int64) (map[authz.Permission]bool, error) {
	return s.overrides[userID], nil
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hashed)
}

func TestAuthenticateBuildsFullPrincipal(t *testing.T) {
	companyID := int64(1)
	repo := &stubRepo{
		users: map[string]*User{
			"manager@northside.test": {
				ID:           7,
				Email:        "manager@northside.test",
				PasswordHash: hashPassword(t, "orange-truck-42"),
				Role:         authz.RoleDistrictManager,
				CompanyID:    &companyID,
				IsActive:     true,
			},
		},
		access:    map[int64][]int64{7: {10, 11}},
		overrides: map[int64]map[authz.Permission]bool{7: {authz.PermManageUsers: true}},
	}
	svc := NewService(repo)

	principal, err := svc.Authenticate(context.Background(), "manager@northside.test", "orange-truck-42")
	require.NoError(t, err)
	require.EqualValues(t, 7, principal.UserID)
	require.Equal(t, authz.RoleDistrictManager, principal.Role)
	require.Equal(t, []int64{10, 11}, principal.DistrictAccess)
	require.True(t, principal.GetOverrides()[authz.PermManageUsers])
	require.NotNil(t, principal.CompanyID)
	require.EqualValues(t, 1, *principal.CompanyID)
}

func TestAuthenticateRejectsWrongPassword(t *testing.T) {
	repo := &stubRepo{
		users: map[string]*User{
			"driver@northside.test": {
				ID:           3,
				Email:        "driver@northside.test",
				PasswordHash: hashPassword(t, "correct-password"),
				Role:         authz.RoleDriver,
				IsActive:     true,
			},
		},
	}
	svc := NewService(repo)

	_, err := svc.Authenticate(context.Background(), "driver@northside.test", "wrong-password")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateRejectsUnknownAndInactiveAccounts(t *testing.T) {
	repo := &stubRepo{
		users: map[string]*User{
			"gone@northside.test": {
				ID:           4,
				Email:        "gone@northside.test",
				PasswordHash: hashPassword(t, "still-the-password"),
				Role:         authz.RoleOperator,
				IsActive:     false,
			},
		},
	}
	svc := NewService(repo)

	_, err := svc.Authenticate(context.Background(), "nobody@northside.test", "whatever-pass")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "gone@northside.test", "still-the-password")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestResolvePrincipalRejectsInactiveUser(t *testing.T) {
	repo := &stubRepo{
		users: map[string]*User{
			"gone@northside.test": {ID: 4, IsActive: false},
		},
	}
	svc := NewService(repo)

	_, err := svc.ResolvePrincipal(context.Background(), 4)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCanAccessDistrict(t *testing.T) {
	p := &Principal{Role: authz.RoleDistrictManager, DistrictAccess: []int64{10}}
	require.True(t, p.CanAccessDistrict(10))
	require.False(t, p.CanAccessDistrict(11))

	admin := &Principal{Role: authz.RoleSuperAdmin}
	require.True(t, admin.CanAccessDistrict(999))

	var missing *Principal
	require.False(t, missing.CanAccessDistrict(10))
}
