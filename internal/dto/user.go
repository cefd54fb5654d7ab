package dto

import "github.com/fluxhq/flux-api/internal/models"

// UserDTO represents a user in API responses
type UserDTO struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Handle string  `json:"handle"`
	Email  *string `json:"email,omitempty"`
}

// ProfileDTO is the caller's own user row with org and team memberships
type ProfileDTO struct {
	UserDTO
	Memberships     []ProfileOrgMembershipDTO  `json:"memberships"`
	TeamMemberships []ProfileTeamMembershipDTO `json:"team_memberships"`
}

// ProfileOrgMembershipDTO is an org membership on the caller's profile
type ProfileOrgMembershipDTO struct {
	OrgID string          `json:"org_id"`
	Role  models.OrgRole  `json:"role"`
	Org   OrganizationDTO `json:"org"`
}

// ProfileTeamMembershipDTO is a team membership on the caller's profile
type ProfileTeamMembershipDTO struct {
	TeamID string          `json:"team_id"`
	Role   models.TeamRole `json:"role"`
	Team   TeamDTO         `json:"team"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:     user.ID,
		Name:   user.Name,
		Handle: user.Handle,
		Email:  user.Email,
	}
}

// ToPublicUserDTO converts a User model to UserDTO without the email
func ToPublicUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:     user.ID,
		Name:   user.Name,
		Handle: user.Handle,
	}
}

// ToProfileDTO converts a user with preloaded memberships to ProfileDTO
func ToProfileDTO(user models.User) ProfileDTO {
	profile := ProfileDTO{
		UserDTO:         ToUserDTO(user),
		Memberships:     []ProfileOrgMembershipDTO{},
		TeamMemberships: []ProfileTeamMembershipDTO{},
	}
	for _, m := range user.Memberships {
		profile.Memberships = append(profile.Memberships, ProfileOrgMembershipDTO{
			OrgID: m.OrgID,
			Role:  m.Role,
			Org:   ToOrganizationDTO(m.Org),
		})
	}
	for _, m := range user.TeamMemberships {
		profile.TeamMemberships = append(profile.TeamMemberships, ProfileTeamMembershipDTO{
			TeamID: m.TeamID,
			Role:   m.Role,
			Team:   ToTeamDTO(m.Team, false),
		})
	}
	return profile
}
