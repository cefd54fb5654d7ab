package repository

import (
	"github.com/fluxhq/flux-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTeamRepository is a GORM implementation of TeamRepository
type GormTeamRepository struct {
	db *gorm.DB
}

// NewTeamRepository creates a new TeamRepository
func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &GormTeamRepository{db: db}
}

// Create creates a team and its founding LEADER membership
func (r *GormTeamRepository) Create(team *models.Team, founderID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(team).Error; err != nil {
			return err
		}
		member := &models.TeamMembership{
			TeamID: team.ID,
			UserID: founderID,
			Role:   models.TeamRoleLeader,
		}
		return tx.Create(member).Error
	})
}

// FindByID finds a team by ID with optional preloading
func (r *GormTeamRepository) FindByID(id string, preload ...string) (*models.Team, error) {
	var team models.Team
	query := r.db
	for _, p := range preload {
		if p == "Links" {
			query = query.Preload("Links", func(db *gorm.DB) *gorm.DB {
				return db.Order("ordinal ASC")
			})
			continue
		}
		query = query.Preload(p)
	}
	if err := query.Where("id = ?", id).First(&team).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

// Update updates a team
func (r *GormTeamRepository) Update(team *models.Team) error {
	return r.db.Save(team).Error
}

// DeleteCascade removes the team and its full dependent graph, with the
// delete set fixed by the id reads at the start of the transaction.
func (r *GormTeamRepository) DeleteCascade(teamID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var taskIDs []string
		if err := tx.Model(&models.Task{}).Where("team_id = ?", teamID).
			Pluck("id", &taskIDs).Error; err != nil {
			return err
		}

		var noteIDs []string
		if len(taskIDs) > 0 {
			if err := tx.Model(&models.TaskNote{}).Where("task_id IN ?", taskIDs).
				Pluck("id", &noteIDs).Error; err != nil {
				return err
			}
		}

		if len(noteIDs) > 0 {
			if err := tx.Where("note_id IN ?", noteIDs).Delete(&models.TaskNoteMention{}).Error; err != nil {
				return err
			}
		}
		if len(taskIDs) > 0 {
			if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.TaskNote{}).Error; err != nil {
				return err
			}
			if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.TaskAssignment{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("team_id = ?", teamID).Delete(&models.TaskStatusLog{}).Error; err != nil {
			return err
		}
		if err := tx.Where("team_id = ?", teamID).Delete(&models.CalendarEvent{}).Error; err != nil {
			return err
		}
		if err := tx.Where("team_id = ?", teamID).Delete(&models.Task{}).Error; err != nil {
			return err
		}
		if err := tx.Where("team_id = ?", teamID).Delete(&models.Goal{}).Error; err != nil {
			return err
		}
		if err := tx.Where("team_id = ?", teamID).Delete(&models.TeamLink{}).Error; err != nil {
			return err
		}
		if err := tx.Where("team_id = ?", teamID).Delete(&models.TeamJoinCode{}).Error; err != nil {
			return err
		}
		if err := tx.Where("team_id = ?", teamID).Delete(&models.TeamMembership{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", teamID).Delete(&models.Team{}).Error
	})
}

// ListByOrg lists all teams in an org
func (r *GormTeamRepository) ListByOrg(orgID string) ([]models.Team, error) {
	var teams []models.Team
	if err := r.db.Where("org_id = ?", orgID).Order("name ASC").Find(&teams).Error; err != nil {
		return nil, err
	}
	return teams, nil
}

// ListByOrgForUser lists org teams where the user is a member
func (r *GormTeamRepository) ListByOrgForUser(orgID, userID string) ([]models.Team, error) {
	var teams []models.Team
	err := r.db.
		Joins("JOIN team_memberships ON team_memberships.team_id = teams.id").
		Where("teams.org_id = ? AND team_memberships.user_id = ?", orgID, userID).
		Order("teams.name ASC").
		Find(&teams).Error
	if err != nil {
		return nil, err
	}
	return teams, nil
}

// ListByOrgWithMembers lists org teams with memberships and users
func (r *GormTeamRepository) ListByOrgWithMembers(orgID string) ([]models.Team, error) {
	var teams []models.Team
	err := r.db.Preload("Memberships").Preload("Memberships.User").
		Where("org_id = ?", orgID).
		Order("name ASC").
		Find(&teams).Error
	if err != nil {
		return nil, err
	}
	return teams, nil
}

// ListMembers lists team memberships with users, role desc
func (r *GormTeamRepository) ListMembers(teamID string) ([]models.TeamMembership, error) {
	var members []models.TeamMembership
	if err := r.db.Preload("User").
		Where("team_id = ?", teamID).
		Order("role DESC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// UpsertMember ensures org membership exists before the team membership
// is written: a team member must always also be an org member. Both
// upserts commit together.
func (r *GormTeamRepository) UpsertMember(orgID, teamID, userID string, role models.TeamRole) (*models.TeamMembership, error) {
	member := &models.TeamMembership{
		TeamID: teamID,
		UserID: userID,
		Role:   role,
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		orgMember := models.OrgMembership{
			OrgID:  orgID,
			UserID: userID,
			Role:   models.OrgRoleMember,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "org_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).Create(&orgMember).Error; err != nil {
			return err
		}

		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "team_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"role": role}),
		}).Create(member).Error
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// RemoveMember deletes a team membership; missing rows are not an error
func (r *GormTeamRepository) RemoveMember(teamID, userID string) error {
	return r.db.Where("team_id = ? AND user_id = ?", teamID, userID).
		Delete(&models.TeamMembership{}).Error
}

// ListLinks lists team links ordered by ordinal
func (r *GormTeamRepository) ListLinks(teamID string) ([]models.TeamLink, error) {
	var links []models.TeamLink
	if err := r.db.Where("team_id = ?", teamID).Order("ordinal ASC").Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

// CreateLink appends a link after the current highest ordinal
func (r *GormTeamRepository) CreateLink(link *models.TeamLink) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var maxOrdinal int
		if err := tx.Model(&models.TeamLink{}).Where("team_id = ?", link.TeamID).
			Select("COALESCE(MAX(ordinal), 0)").Scan(&maxOrdinal).Error; err != nil {
			return err
		}
		link.Ordinal = maxOrdinal + 1
		return tx.Create(link).Error
	})
}

// FindLink finds a link scoped to a team
func (r *GormTeamRepository) FindLink(teamID, linkID string) (*models.TeamLink, error) {
	var link models.TeamLink
	if err := r.db.Where("team_id = ? AND id = ?", teamID, linkID).First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

// UpdateLink updates a link
func (r *GormTeamRepository) UpdateLink(link *models.TeamLink) error {
	return r.db.Save(link).Error
}

// DeleteLink deletes a link
func (r *GormTeamRepository) DeleteLink(teamID, linkID string) error {
	return r.db.Where("team_id = ? AND id = ?", teamID, linkID).Delete(&models.TeamLink{}).Error
}

// ListEvents lists the team's calendar events
func (r *GormTeamRepository) ListEvents(teamID string) ([]models.CalendarEvent, error) {
	var events []models.CalendarEvent
	if err := r.db.Where("team_id = ?", teamID).Order("start_at ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// CreateEvent creates a calendar event
func (r *GormTeamRepository) CreateEvent(event *models.CalendarEvent) error {
	return r.db.Create(event).Error
}

// FindEvent finds an event scoped to a team
func (r *GormTeamRepository) FindEvent(teamID, eventID string) (*models.CalendarEvent, error) {
	var event models.CalendarEvent
	if err := r.db.Where("team_id = ? AND id = ?", teamID, eventID).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// UpdateEvent updates a calendar event
func (r *GormTeamRepository) UpdateEvent(event *models.CalendarEvent) error {
	return r.db.Save(event).Error
}

// DeleteEvent deletes a calendar event
func (r *GormTeamRepository) DeleteEvent(teamID, eventID string) error {
	return r.db.Where("team_id = ? AND id = ?", teamID, eventID).Delete(&models.CalendarEvent{}).Error
}
