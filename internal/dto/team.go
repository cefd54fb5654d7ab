package dto

import (
	"time"

	"github.com/fluxhq/flux-api/internal/models"
)

// TeamDTO represents a team in API responses
type TeamDTO struct {
	ID        string          `json:"id"`
	OrgID     string          `json:"org_id"`
	Name      string          `json:"name"`
	Info      string          `json:"info"`
	CreatedAt time.Time       `json:"created_at"`
	Members   []TeamMemberDTO `json:"members,omitempty"`
	Links     []TeamLinkDTO   `json:"links,omitempty"`
}

// TeamMemberDTO represents a member on a team roster
type TeamMemberDTO struct {
	User UserDTO         `json:"user"`
	Role models.TeamRole `json:"role"`
}

// TeamLinkDTO represents a pinned team link
type TeamLinkDTO struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	URL     string `json:"url"`
	Ordinal int    `json:"ordinal"`
}

// CalendarEventDTO represents a calendar entry in API responses
type CalendarEventDTO struct {
	ID            string                   `json:"id"`
	TeamID        string                   `json:"team_id"`
	Title         string                   `json:"title"`
	Description   string                   `json:"description"`
	StartAt       time.Time                `json:"start_at"`
	EndAt         time.Time                `json:"end_at"`
	Type          models.CalendarEventType `json:"type"`
	RelatedTaskID *string                  `json:"related_task_id,omitempty"`
}

// ToTeamDTO converts a Team model to TeamDTO
func ToTeamDTO(team models.Team, includeMembers bool) TeamDTO {
	dto := TeamDTO{
		ID:        team.ID,
		OrgID:     team.OrgID,
		Name:      team.Name,
		Info:      team.Info,
		CreatedAt: team.CreatedAt,
	}
	if includeMembers {
		dto.Members = make([]TeamMemberDTO, len(team.Memberships))
		for i, member := range team.Memberships {
			dto.Members[i] = ToTeamMemberDTO(member)
		}
	}
	for _, link := range team.Links {
		dto.Links = append(dto.Links, ToTeamLinkDTO(link))
	}
	return dto
}

// ToTeamMemberDTO converts a team membership to DTO
func ToTeamMemberDTO(member models.TeamMembership) TeamMemberDTO {
	return TeamMemberDTO{
		User: ToPublicUserDTO(member.User),
		Role: member.Role,
	}
}

// ToTeamLinkDTO converts a team link to DTO
func ToTeamLinkDTO(link models.TeamLink) TeamLinkDTO {
	return TeamLinkDTO{
		ID:      link.ID,
		Label:   link.Label,
		URL:     link.URL,
		Ordinal: link.Ordinal,
	}
}

// ToCalendarEventDTO converts a calendar event to DTO
func ToCalendarEventDTO(event models.CalendarEvent) CalendarEventDTO {
	return CalendarEventDTO{
		ID:            event.ID,
		TeamID:        event.TeamID,
		Title:         event.Title,
		Description:   event.Description,
		StartAt:       event.StartAt,
		EndAt:         event.EndAt,
		Type:          event.Type,
		RelatedTaskID: event.RelatedTaskID,
	}
}
