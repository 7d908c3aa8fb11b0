package identity

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/wasteops/wasteops/internal/shared"
)

// Service wraps identity business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates email/password credentials and returns the full
// principal on success.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Principal, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return s.buildPrincipal(ctx, user)
}

// ResolvePrincipal rebuilds the principal for an already-established session.
func (s *Service) ResolvePrincipal(ctx context.Context, userID int64) (*Principal, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, shared.ErrNotFound
	}
	return s.buildPrincipal(ctx, user)
}

func (s *Service) buildPrincipal(ctx context.Context, user *User) (*Principal, error) {
	access, err := s.repo.DistrictAccess(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	overrides, err := s.repo.PermissionOverrides(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &Principal{
		UserID:         user.ID,
		Email:          user.Email,
		Role:           user.Role,
		CompanyID:      user.CompanyID,
		DistrictAccess: access,
		Overrides:      overrides,
	}, nil
}
