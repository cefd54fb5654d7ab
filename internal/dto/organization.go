package dto

import (
	"time"

	"github.com/fluxhq/flux-api/internal/models"
	"github.com/fluxhq/flux-api/internal/services"
)

// OrganizationDTO represents an organization in API responses
type OrganizationDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// OrganizationSummaryDTO is an organization with the caller's role and
// the member count
type OrganizationSummaryDTO struct {
	OrganizationDTO
	YourRole    models.OrgRole `json:"your_role"`
	MemberCount int64          `json:"member_count"`
}

// OrganizationMemberDTO represents a member in an organization
type OrganizationMemberDTO struct {
	User     UserDTO        `json:"user"`
	Role     models.OrgRole `json:"role"`
	JoinedAt time.Time      `json:"joined_at"`
}

// OrganizationDetailDTO is the summary plus members and teams
type OrganizationDetailDTO struct {
	OrganizationSummaryDTO
	Members []OrganizationMemberDTO `json:"members"`
	Teams   []TeamDTO               `json:"teams"`
}

// JoinCodeDTO represents an org join code in API responses
type JoinCodeDTO struct {
	Code      string     `json:"code"`
	ExpiresAt *time.Time `json:"expires_at"`
	MaxUses   *int       `json:"max_uses"`
	Uses      int        `json:"uses"`
}

// ToOrganizationDTO converts an Organization model to OrganizationDTO
func ToOrganizationDTO(org models.Organization) OrganizationDTO {
	return OrganizationDTO{
		ID:        org.ID,
		Name:      org.Name,
		CreatedAt: org.CreatedAt,
	}
}

// ToOrganizationSummaryDTO converts an org summary to DTO
func ToOrganizationSummaryDTO(summary services.OrgSummary) OrganizationSummaryDTO {
	return OrganizationSummaryDTO{
		OrganizationDTO: ToOrganizationDTO(*summary.Org),
		YourRole:        summary.Role,
		MemberCount:     summary.MemberCount,
	}
}

// ToOrganizationMemberDTO converts a membership to DTO
func ToOrganizationMemberDTO(member models.OrgMembership) OrganizationMemberDTO {
	return OrganizationMemberDTO{
		User:     ToPublicUserDTO(member.User),
		Role:     member.Role,
		JoinedAt: member.CreatedAt,
	}
}

// ToOrganizationDetailDTO converts org details to DTO
func ToOrganizationDetailDTO(details services.OrgDetails) OrganizationDetailDTO {
	members := make([]OrganizationMemberDTO, len(details.Members))
	for i, member := range details.Members {
		members[i] = ToOrganizationMemberDTO(member)
	}

	teams := make([]TeamDTO, len(details.Teams))
	for i, team := range details.Teams {
		teams[i] = ToTeamDTO(team, true)
	}

	return OrganizationDetailDTO{
		OrganizationSummaryDTO: ToOrganizationSummaryDTO(details.OrgSummary),
		Members:                members,
		Teams:                  teams,
	}
}

// ToJoinCodeDTO converts a join code to DTO
func ToJoinCodeDTO(code models.OrgJoinCode) JoinCodeDTO {
	return JoinCodeDTO{
		Code:      code.Code,
		ExpiresAt: code.ExpiresAt,
		MaxUses:   code.MaxUses,
		Uses:      code.Uses,
	}
}
