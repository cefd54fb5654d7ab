package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/fluxhq/flux-api/internal/models"
	"github.com/fluxhq/flux-api/internal/permissions"
	"github.com/fluxhq/flux-api/internal/repository"
)

var (
	ErrTeamNotFound         = errors.New("team not found")
	ErrLinkNotFound         = errors.New("link not found")
	ErrEventNotFound        = errors.New("event not found")
	ErrLabelAndURLRequired  = errors.New("label and url are required")
	ErrInvalidEventType     = errors.New("invalid event type")
	ErrInvalidEventInterval = errors.New("event interval is invalid")
)

const defaultEventDuration = 60 * time.Minute

// TeamPermissions is the caller's effective capability set on a team
type TeamPermissions struct {
	Role           string `json:"role"`
	CanCreateTasks bool   `json:"can_create_tasks"`
	CanAssign      bool   `json:"can_assign"`
	CanWriteAll    bool   `json:"can_write_all"`
}

// CreateEventInput carries a calendar event creation request. EndAt
// wins over DurationMinutes when both are given.
type CreateEventInput struct {
	Title           string
	Description     string
	StartAt         time.Time
	EndAt           *time.Time
	Type            models.CalendarEventType
	DurationMinutes int
	RelatedTaskID   *string
}

// UpdateEventInput carries a partial calendar event update. EndAt wins
// over DurationMinutes when both are given.
type UpdateEventInput struct {
	Title           *string
	Description     *string
	StartAt         *time.Time
	EndAt           *time.Time
	DurationMinutes *int
}

// TeamService handles team lifecycle, rosters, links and the calendar
type TeamService struct {
	teamRepo repository.TeamRepository
	orgRepo  repository.OrganizationRepository
	userRepo repository.UserRepository
	perms    *permissions.Evaluator
}

// NewTeamService creates a new TeamService
func NewTeamService(teamRepo repository.TeamRepository, orgRepo repository.OrganizationRepository, userRepo repository.UserRepository, perms *permissions.Evaluator) *TeamService {
	return &TeamService{
		teamRepo: teamRepo,
		orgRepo:  orgRepo,
		userRepo: userRepo,
		perms:    perms,
	}
}

// CreateTeam creates a team with the caller as founding LEADER, org
// ADMIN only
func (s *TeamService) CreateTeam(orgID, userID, name string) (*models.Team, error) {
	if _, err := s.orgRepo.FindByID(orgID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrgNotFound
		}
		return nil, err
	}
	admin, err := s.perms.IsOrgAdmin(orgID, userID)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, ErrPermissionDenied
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}

	team := &models.Team{
		OrgID:     orgID,
		Name:      name,
		CreatedBy: userID,
	}
	if err := s.teamRepo.Create(team, userID); err != nil {
		return nil, err
	}
	return team, nil
}

// ListTeams lists the org's teams visible to the caller. Admins see
// every team, members only the teams they belong to.
func (s *TeamService) ListTeams(orgID, userID string) ([]models.Team, error) {
	if _, err := s.orgRepo.FindByID(orgID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrgNotFound
		}
		return nil, err
	}
	role, err := s.perms.RoleInOrg(orgID, userID)
	if err != nil {
		return nil, err
	}
	switch role {
	case models.OrgRoleAdmin:
		return s.teamRepo.ListByOrg(orgID)
	case models.OrgRoleMember:
		return s.teamRepo.ListByOrgForUser(orgID, userID)
	default:
		return nil, ErrPermissionDenied
	}
}

// GetTeam returns the team with its roster and links
func (s *TeamService) GetTeam(teamID, userID string) (*models.Team, error) {
	if _, err := s.requireRead(teamID, userID); err != nil {
		return nil, err
	}
	return s.teamRepo.FindByID(teamID, "Memberships.User", "Links")
}

// GetInfo returns the team with its info text and ordered links
func (s *TeamService) GetInfo(teamID, userID string) (*models.Team, error) {
	if _, err := s.requireRead(teamID, userID); err != nil {
		return nil, err
	}
	return s.teamRepo.FindByID(teamID, "Links")
}

// RenameTeam sets a new team name, org ADMIN or team LEADER only
func (s *TeamService) RenameTeam(teamID, userID, name string) (*models.Team, error) {
	team, err := s.requireWrite(teamID, userID)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}

	team.Name = name
	if err := s.teamRepo.Update(team); err != nil {
		return nil, err
	}
	return team, nil
}

// UpdateInfo replaces the team's free-form info text
func (s *TeamService) UpdateInfo(teamID, userID, info string) (*models.Team, error) {
	team, err := s.requireWrite(teamID, userID)
	if err != nil {
		return nil, err
	}

	team.Info = info
	if err := s.teamRepo.Update(team); err != nil {
		return nil, err
	}
	return team, nil
}

// DeleteTeam removes the team and everything under it, org ADMIN only
func (s *TeamService) DeleteTeam(teamID, userID string) error {
	if _, err := s.requireOrgAdmin(teamID, userID); err != nil {
		return err
	}
	return s.teamRepo.DeleteCascade(teamID)
}

// ListMembers lists the team roster
func (s *TeamService) ListMembers(teamID, userID string) ([]models.TeamMembership, error) {
	if _, err := s.requireRead(teamID, userID); err != nil {
		return nil, err
	}
	return s.teamRepo.ListMembers(teamID)
}

// AddMember puts a user on the team with the given role, org ADMIN
// only. Users outside the org are joined to it as MEMBER in the same
// transaction, so the gate stays at the org level.
func (s *TeamService) AddMember(teamID, actorID, targetID string, role models.TeamRole) (*models.TeamMembership, error) {
	team, err := s.requireOrgAdmin(teamID, actorID)
	if err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	if _, err := s.userRepo.FindByID(targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return s.teamRepo.UpsertMember(team.OrgID, teamID, targetID, role)
}

// RemoveMember takes a user off the team roster. Removing a user who
// is not on it succeeds without effect.
func (s *TeamService) RemoveMember(teamID, actorID, targetID string) error {
	if _, err := s.requireWrite(teamID, actorID); err != nil {
		return err
	}
	return s.teamRepo.RemoveMember(teamID, targetID)
}

// Leave removes the caller's own team membership
func (s *TeamService) Leave(teamID, userID string) error {
	if _, err := s.findTeam(teamID); err != nil {
		return err
	}

	role, err := s.perms.RoleInTeam(teamID, userID)
	if err != nil {
		return err
	}
	if role == "" {
		return ErrMemberNotFound
	}
	return s.teamRepo.RemoveMember(teamID, userID)
}

// Permissions reports the caller's effective role and capabilities
func (s *TeamService) Permissions(teamID, userID string) (*TeamPermissions, error) {
	team, err := s.findTeam(teamID)
	if err != nil {
		return nil, err
	}

	orgRole, err := s.perms.RoleInOrg(team.OrgID, userID)
	if err != nil {
		return nil, err
	}
	teamRole, err := s.perms.RoleInTeam(teamID, userID)
	if err != nil {
		return nil, err
	}

	var role string
	switch {
	case orgRole == models.OrgRoleAdmin:
		role = string(models.OrgRoleAdmin)
	case teamRole != "":
		role = string(teamRole)
	default:
		return nil, ErrPermissionDenied
	}

	canWrite := orgRole == models.OrgRoleAdmin || teamRole == models.TeamRoleLeader
	return &TeamPermissions{
		Role:           role,
		CanCreateTasks: canWrite,
		CanAssign:      canWrite,
		CanWriteAll:    canWrite,
	}, nil
}

// ListLinks lists the team's pinned links
func (s *TeamService) ListLinks(teamID, userID string) ([]models.TeamLink, error) {
	if _, err := s.requireRead(teamID, userID); err != nil {
		return nil, err
	}
	return s.teamRepo.ListLinks(teamID)
}

// CreateLink pins a new link at the end of the list
func (s *TeamService) CreateLink(teamID, userID, label, url string) (*models.TeamLink, error) {
	if _, err := s.requireWrite(teamID, userID); err != nil {
		return nil, err
	}

	label = strings.TrimSpace(label)
	url = strings.TrimSpace(url)
	if label == "" || url == "" {
		return nil, ErrLabelAndURLRequired
	}

	link := &models.TeamLink{
		TeamID: teamID,
		Label:  label,
		URL:    url,
	}
	if err := s.teamRepo.CreateLink(link); err != nil {
		return nil, err
	}
	return link, nil
}

// UpdateLink edits a pinned link's label or URL
func (s *TeamService) UpdateLink(teamID, userID, linkID string, label, url *string) (*models.TeamLink, error) {
	if _, err := s.requireWrite(teamID, userID); err != nil {
		return nil, err
	}

	link, err := s.teamRepo.FindLink(teamID, linkID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLinkNotFound
	}
	if err != nil {
		return nil, err
	}

	if label != nil {
		if strings.TrimSpace(*label) == "" {
			return nil, ErrLabelAndURLRequired
		}
		link.Label = strings.TrimSpace(*label)
	}
	if url != nil {
		if strings.TrimSpace(*url) == "" {
			return nil, ErrLabelAndURLRequired
		}
		link.URL = strings.TrimSpace(*url)
	}

	if err := s.teamRepo.UpdateLink(link); err != nil {
		return nil, err
	}
	return link, nil
}

// DeleteLink removes a pinned link
func (s *TeamService) DeleteLink(teamID, userID, linkID string) error {
	if _, err := s.requireWrite(teamID, userID); err != nil {
		return err
	}

	if _, err := s.teamRepo.FindLink(teamID, linkID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLinkNotFound
		}
		return err
	}
	return s.teamRepo.DeleteLink(teamID, linkID)
}

// ListEvents lists the team calendar
func (s *TeamService) ListEvents(teamID, userID string) ([]models.CalendarEvent, error) {
	if _, err := s.requireRead(teamID, userID); err != nil {
		return nil, err
	}
	return s.teamRepo.ListEvents(teamID)
}

// CreateEvent adds a calendar entry, org ADMIN or team LEADER only.
// TASK entries snap to the full day of their start, EVENT entries run
// for the requested duration.
func (s *TeamService) CreateEvent(teamID, userID string, input CreateEventInput) (*models.CalendarEvent, error) {
	if _, err := s.requireWrite(teamID, userID); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	event := &models.CalendarEvent{
		TeamID:        teamID,
		Title:         title,
		Description:   input.Description,
		Type:          input.Type,
		RelatedTaskID: input.RelatedTaskID,
	}

	switch input.Type {
	case models.CalendarEventTypeTask:
		start := input.StartAt.Truncate(24 * time.Hour)
		event.StartAt = start
		event.EndAt = start.Add(24 * time.Hour)
	case models.CalendarEventTypeEvent:
		event.StartAt = input.StartAt
		switch {
		case input.EndAt != nil:
			if !input.EndAt.After(input.StartAt) {
				return nil, ErrInvalidEventInterval
			}
			event.EndAt = *input.EndAt
		case input.DurationMinutes > 0:
			event.EndAt = input.StartAt.Add(time.Duration(input.DurationMinutes) * time.Minute)
		default:
			event.EndAt = input.StartAt.Add(defaultEventDuration)
		}
	default:
		return nil, ErrInvalidEventType
	}

	if err := s.teamRepo.CreateEvent(event); err != nil {
		return nil, err
	}
	return event, nil
}

// UpdateEvent edits a calendar entry. TASK entries keep their full-day
// shape when moved.
func (s *TeamService) UpdateEvent(teamID, userID, eventID string, input UpdateEventInput) (*models.CalendarEvent, error) {
	if _, err := s.requireWrite(teamID, userID); err != nil {
		return nil, err
	}

	event, err := s.teamRepo.FindEvent(teamID, eventID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		event.Title = title
	}
	if input.Description != nil {
		event.Description = *input.Description
	}
	if input.StartAt != nil || input.EndAt != nil || input.DurationMinutes != nil {
		start := event.StartAt
		if input.StartAt != nil {
			start = *input.StartAt
		}
		if event.Type == models.CalendarEventTypeTask {
			start = start.Truncate(24 * time.Hour)
			event.StartAt = start
			event.EndAt = start.Add(24 * time.Hour)
		} else {
			duration := event.EndAt.Sub(event.StartAt)
			if input.DurationMinutes != nil {
				if *input.DurationMinutes <= 0 {
					return nil, ErrInvalidEventInterval
				}
				duration = time.Duration(*input.DurationMinutes) * time.Minute
			}
			end := start.Add(duration)
			if input.EndAt != nil {
				end = *input.EndAt
			}
			if !end.After(start) {
				return nil, ErrInvalidEventInterval
			}
			event.StartAt = start
			event.EndAt = end
		}
	}

	if err := s.teamRepo.UpdateEvent(event); err != nil {
		return nil, err
	}
	return event, nil
}

// DeleteEvent removes a calendar entry, org ADMIN or team LEADER only
func (s *TeamService) DeleteEvent(teamID, userID, eventID string) error {
	if _, err := s.requireWrite(teamID, userID); err != nil {
		return err
	}

	if _, err := s.teamRepo.FindEvent(teamID, eventID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEventNotFound
		}
		return err
	}
	return s.teamRepo.DeleteEvent(teamID, eventID)
}

func (s *TeamService) findTeam(teamID string) (*models.Team, error) {
	team, err := s.teamRepo.FindByID(teamID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, err
	}
	return team, nil
}

func (s *TeamService) requireRead(teamID, userID string) (*models.Team, error) {
	team, err := s.findTeam(teamID)
	if err != nil {
		return nil, err
	}

	ok, err := s.perms.CanReadTeam(teamID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPermissionDenied
	}
	return team, nil
}

func (s *TeamService) requireOrgAdmin(teamID, userID string) (*models.Team, error) {
	team, err := s.findTeam(teamID)
	if err != nil {
		return nil, err
	}

	admin, err := s.perms.IsOrgAdmin(team.OrgID, userID)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, ErrPermissionDenied
	}
	return team, nil
}

func (s *TeamService) requireWrite(teamID, userID string) (*models.Team, error) {
	team, err := s.findTeam(teamID)
	if err != nil {
		return nil, err
	}

	ok, err := s.perms.CanWriteTeam(teamID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPermissionDenied
	}
	return team, nil
}
