package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/fluxhq/flux-api/internal/constants"
	"github.com/fluxhq/flux-api/internal/models"
	"github.com/fluxhq/flux-api/internal/repository"
	"github.com/fluxhq/flux-api/internal/sso"
	"github.com/fluxhq/flux-api/internal/utils"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrCannotDeleteAdmin = errors.New("cannot delete an organization admin account")
)

// AuthService handles SSO login resolution and account lifecycle
type AuthService struct {
	userRepo    repository.UserRepository
	ghostUserID string
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo repository.UserRepository, ghostUserID string) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		ghostUserID: ghostUserID,
	}
}

// ResolveProfile maps an SSO profile onto a local user. The identity
// wins over the email, and a fresh user gets a unique handle derived
// from the profile.
func (s *AuthService) ResolveProfile(provider string, profile *sso.Profile) (*models.User, error) {
	identity, err := s.userRepo.FindIdentity(provider, profile.ProviderID)
	if err == nil {
		return s.userRepo.FindByID(identity.UserID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if profile.Email != "" {
		user, err := s.userRepo.FindByEmail(profile.Email)
		if err == nil {
			if err := s.linkIdentity(user.ID, provider, profile.ProviderID); err != nil {
				return nil, err
			}
			return user, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	user, err := s.createUser(profile)
	if err != nil {
		return nil, err
	}
	if err := s.linkIdentity(user.ID, provider, profile.ProviderID); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUser returns the user with their org and team memberships
func (s *AuthService) GetUser(userID string) (*models.User, error) {
	user, err := s.userRepo.FindByID(userID, "Memberships.Org", "TeamMemberships.Team")
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteAccount removes the user and all dependent rows. Users still
// holding an org ADMIN role must hand the role off or delete the org
// first.
func (s *AuthService) DeleteAccount(userID string) error {
	count, err := s.userRepo.CountAdminMemberships(userID)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrCannotDeleteAdmin
	}

	err = s.userRepo.DeleteCascade(userID, s.ghostUserID)
	if errors.Is(err, repository.ErrAdminAccount) {
		return ErrCannotDeleteAdmin
	}
	return err
}

func (s *AuthService) createUser(profile *sso.Profile) (*models.User, error) {
	name := profile.DisplayName
	base := profile.DisplayName
	if profile.Email != "" {
		local, _, _ := strings.Cut(profile.Email, "@")
		base = local
		if name == "" {
			name = local
		}
	}

	handle, err := s.uniqueHandle(base)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:   name,
		Handle: handle,
	}
	if profile.Email != "" {
		email := profile.Email
		user.Email = &email
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) uniqueHandle(base string) (string, error) {
	slug := utils.SlugifyHandle(base)
	if len(slug) > constants.MaxHandleLength {
		slug = slug[:constants.MaxHandleLength]
	}
	if len(slug) < constants.MinHandleLength {
		slug = utils.RandomHandleSuffix("user")
	}

	candidate := slug
	for i := 2; i <= 50; i++ {
		_, err := s.userRepo.FindByHandle(candidate)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = fmt.Sprintf("%s%d", slug, i)
	}
	return utils.RandomHandleSuffix(slug + "-"), nil
}

func (s *AuthService) linkIdentity(userID, provider, providerID string) error {
	identity := &models.Identity{
		UserID:     userID,
		Provider:   provider,
		ProviderID: providerID,
	}
	return s.userRepo.CreateIdentity(identity)
}
