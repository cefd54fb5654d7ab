package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/fluxhq/flux-api/internal/models"
	"github.com/fluxhq/flux-api/internal/permissions"
	"github.com/fluxhq/flux-api/internal/repository"
	"github.com/fluxhq/flux-api/internal/utils"
)

var (
	ErrOrgNotFound       = errors.New("organization not found")
	ErrMemberNotFound    = errors.New("member not found")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrInvalidName       = errors.New("invalid name")
	ErrInvalidRole       = errors.New("invalid role")
	ErrCannotRemoveAdmin = errors.New("cannot remove an admin")
	ErrCannotLeaveAdmin  = errors.New("an admin cannot leave the organization")
	ErrJoinCodeNotFound  = errors.New("no active join code")
	ErrJoinCodeInvalid   = errors.New("join code is invalid")
	ErrJoinCodeExpired   = errors.New("join code has expired")
	ErrJoinCodeExhausted = errors.New("join code has no uses left")
)

// OrgSummary is an organization together with the caller's view of it
type OrgSummary struct {
	Org         *models.Organization
	Role        models.OrgRole
	MemberCount int64
}

// OrgDetails adds the member list and team roster to the summary
type OrgDetails struct {
	OrgSummary
	Members []models.OrgMembership
	Teams   []models.Team
}

// OrganizationService handles org lifecycle, memberships and join codes
type OrganizationService struct {
	orgRepo  repository.OrganizationRepository
	teamRepo repository.TeamRepository
	perms    *permissions.Evaluator
}

// NewOrganizationService creates a new OrganizationService
func NewOrganizationService(orgRepo repository.OrganizationRepository, teamRepo repository.TeamRepository, perms *permissions.Evaluator) *OrganizationService {
	return &OrganizationService{
		orgRepo:  orgRepo,
		teamRepo: teamRepo,
		perms:    perms,
	}
}

// CreateOrganization creates an org with the caller as founding ADMIN
func (s *OrganizationService) CreateOrganization(name, founderID string) (*models.Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}

	org := &models.Organization{Name: name, CreatedBy: founderID}
	if err := s.orgRepo.Create(org, founderID); err != nil {
		return nil, err
	}
	return org, nil
}

// ListOrganizations lists the orgs the caller belongs to
func (s *OrganizationService) ListOrganizations(userID string) ([]models.Organization, error) {
	return s.orgRepo.ListForUser(userID)
}

// GetOrganization returns the org summary for a member
func (s *OrganizationService) GetOrganization(orgID, userID string) (*OrgSummary, error) {
	org, role, err := s.requireMember(orgID, userID)
	if err != nil {
		return nil, err
	}

	count, err := s.orgRepo.CountMembers(orgID)
	if err != nil {
		return nil, err
	}
	return &OrgSummary{Org: org, Role: role, MemberCount: count}, nil
}

// GetOrganizationDetails returns the summary plus members and the full
// team roster, ADMIN only
func (s *OrganizationService) GetOrganizationDetails(orgID, userID string) (*OrgDetails, error) {
	org, err := s.requireAdmin(orgID, userID)
	if err != nil {
		return nil, err
	}

	count, err := s.orgRepo.CountMembers(orgID)
	if err != nil {
		return nil, err
	}
	members, err := s.orgRepo.ListMembers(orgID)
	if err != nil {
		return nil, err
	}
	teams, err := s.teamRepo.ListByOrgWithMembers(orgID)
	if err != nil {
		return nil, err
	}

	summary := OrgSummary{Org: org, Role: models.OrgRoleAdmin, MemberCount: count}
	return &OrgDetails{OrgSummary: summary, Members: members, Teams: teams}, nil
}

// RenameOrganization sets a new org name, ADMIN only
func (s *OrganizationService) RenameOrganization(orgID, userID, name string) (*models.Organization, error) {
	org, err := s.requireAdmin(orgID, userID)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}

	org.Name = name
	if err := s.orgRepo.Update(org); err != nil {
		return nil, err
	}
	return org, nil
}

// DeleteOrganization removes the org and everything under it, ADMIN only
func (s *OrganizationService) DeleteOrganization(orgID, userID string) error {
	if _, err := s.requireAdmin(orgID, userID); err != nil {
		return err
	}
	return s.orgRepo.DeleteCascade(orgID)
}

// ListMembers lists org memberships, ADMIN only
func (s *OrganizationService) ListMembers(orgID, userID string) ([]models.OrgMembership, error) {
	if _, err := s.requireAdmin(orgID, userID); err != nil {
		return nil, err
	}
	return s.orgRepo.ListMembers(orgID)
}

// UpdateMemberRole changes a member's org role, ADMIN only. Demoting
// the only remaining ADMIN is rejected so every org keeps at least one.
func (s *OrganizationService) UpdateMemberRole(orgID, actorID, targetID string, role models.OrgRole) (*models.OrgMembership, error) {
	if _, err := s.requireAdmin(orgID, actorID); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	member, err := s.orgRepo.UpdateMemberRole(orgID, targetID, role)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrMemberNotFound
	case errors.Is(err, repository.ErrLastAdmin):
		return nil, ErrCannotRemoveAdmin
	case err != nil:
		return nil, err
	}
	return member, nil
}

// RemoveMember removes a MEMBER from the org, ADMIN only. Admins must
// be demoted before they can be removed.
func (s *OrganizationService) RemoveMember(orgID, actorID, targetID string) error {
	if _, err := s.requireAdmin(orgID, actorID); err != nil {
		return err
	}

	member, err := s.orgRepo.FindMember(orgID, targetID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrMemberNotFound
	}
	if err != nil {
		return err
	}
	if member.Role == models.OrgRoleAdmin {
		return ErrCannotRemoveAdmin
	}

	return s.orgRepo.RemoveMemberCascade(orgID, targetID)
}

// Leave removes the caller's own membership. Admins must hand the role
// off first.
func (s *OrganizationService) Leave(orgID, userID string) error {
	member, err := s.orgRepo.FindMember(orgID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrOrgNotFound
	}
	if err != nil {
		return err
	}
	if member.Role == models.OrgRoleAdmin {
		return ErrCannotLeaveAdmin
	}

	return s.orgRepo.LeaveCascade(orgID, userID)
}

// RotateJoinCode replaces the org's join code, ADMIN only
func (s *OrganizationService) RotateJoinCode(orgID, userID string, expiresAt *time.Time, maxUses *int) (*models.OrgJoinCode, error) {
	if _, err := s.requireAdmin(orgID, userID); err != nil {
		return nil, err
	}

	code, err := utils.GenerateJoinCode()
	if err != nil {
		return nil, err
	}
	return s.orgRepo.RotateJoinCode(orgID, code, expiresAt, maxUses)
}

// GetJoinCode returns the current join code, ADMIN only
func (s *OrganizationService) GetJoinCode(orgID, userID string) (*models.OrgJoinCode, error) {
	if _, err := s.requireAdmin(orgID, userID); err != nil {
		return nil, err
	}

	joinCode, err := s.orgRepo.CurrentJoinCode(orgID)
	if err != nil {
		return nil, err
	}
	if joinCode == nil {
		return nil, ErrJoinCodeNotFound
	}
	return joinCode, nil
}

// RedeemJoinCode joins the caller to the code's org as MEMBER
func (s *OrganizationService) RedeemJoinCode(code, userID string) (*models.Organization, error) {
	orgID, err := s.orgRepo.RedeemJoinCode(code, userID)
	switch {
	case errors.Is(err, repository.ErrJoinCodeInvalid):
		return nil, ErrJoinCodeInvalid
	case errors.Is(err, repository.ErrJoinCodeExpired):
		return nil, ErrJoinCodeExpired
	case errors.Is(err, repository.ErrJoinCodeExhausted):
		return nil, ErrJoinCodeExhausted
	case err != nil:
		return nil, err
	}

	return s.orgRepo.FindByID(orgID)
}

func (s *OrganizationService) requireMember(orgID, userID string) (*models.Organization, models.OrgRole, error) {
	org, err := s.orgRepo.FindByID(orgID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", ErrOrgNotFound
	}
	if err != nil {
		return nil, "", err
	}

	role, err := s.perms.RoleInOrg(orgID, userID)
	if err != nil {
		return nil, "", err
	}
	if role == "" {
		return nil, "", ErrPermissionDenied
	}
	return org, role, nil
}

func (s *OrganizationService) requireAdmin(orgID, userID string) (*models.Organization, error) {
	org, role, err := s.requireMember(orgID, userID)
	if err != nil {
		return nil, err
	}
	if role != models.OrgRoleAdmin {
		return nil, ErrPermissionDenied
	}
	return org, nil
}
