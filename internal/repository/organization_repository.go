package repository

import (
	"errors"
	"time"

	"github.com/fluxhq/flux-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrJoinCodeInvalid is returned when a join code does not exist.
	ErrJoinCodeInvalid = errors.New("organization repository: join code invalid")
	// ErrJoinCodeExpired is returned when a join code is past its expiry.
	ErrJoinCodeExpired = errors.New("organization repository: join code expired")
	// ErrJoinCodeExhausted is returned when a join code has no uses left.
	ErrJoinCodeExhausted = errors.New("organization repository: join code exhausted")
	// ErrLastAdmin is returned when a role change would leave the org
	// without an ADMIN.
	ErrLastAdmin = errors.New("organization repository: last admin")
)

// GormOrganizationRepository is a GORM implementation of OrganizationRepository
type GormOrganizationRepository struct {
	db *gorm.DB
}

// NewOrganizationRepository creates a new OrganizationRepository
func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &GormOrganizationRepository{db: db}
}

// Create creates an organization and its founding ADMIN membership
func (r *GormOrganizationRepository) Create(org *models.Organization, founderID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(org).Error; err != nil {
			return err
		}
		member := &models.OrgMembership{
			OrgID:  org.ID,
			UserID: founderID,
			Role:   models.OrgRoleAdmin,
		}
		return tx.Create(member).Error
	})
}

// FindByID finds an organization by ID
func (r *GormOrganizationRepository) FindByID(id string) (*models.Organization, error) {
	var org models.Organization
	if err := r.db.Where("id = ?", id).First(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// Update updates an organization
func (r *GormOrganizationRepository) Update(org *models.Organization) error {
	return r.db.Save(org).Error
}

// DeleteCascade removes the org and its full dependent graph. The
// delete set is captured by the id reads at the top of the transaction;
// later steps only ever reference those ids.
func (r *GormOrganizationRepository) DeleteCascade(orgID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var teamIDs []string
		if err := tx.Model(&models.Team{}).Where("org_id = ?", orgID).
			Pluck("id", &teamIDs).Error; err != nil {
			return err
		}

		var taskIDs []string
		if len(teamIDs) > 0 {
			if err := tx.Model(&models.Task{}).Where("team_id IN ?", teamIDs).
				Pluck("id", &taskIDs).Error; err != nil {
				return err
			}
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
			if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.TaskStatusLog{}).Error; err != nil {
				return err
			}
		}
		if len(teamIDs) > 0 {
			if err := tx.Where("team_id IN ?", teamIDs).Delete(&models.CalendarEvent{}).Error; err != nil {
				return err
			}
		}
		if len(taskIDs) > 0 {
			if err := tx.Where("id IN ?", taskIDs).Delete(&models.Task{}).Error; err != nil {
				return err
			}
		}
		if len(teamIDs) > 0 {
			if err := tx.Where("team_id IN ?", teamIDs).Delete(&models.Goal{}).Error; err != nil {
				return err
			}
			if err := tx.Where("team_id IN ?", teamIDs).Delete(&models.TeamLink{}).Error; err != nil {
				return err
			}
			if err := tx.Where("team_id IN ?", teamIDs).Delete(&models.TeamJoinCode{}).Error; err != nil {
				return err
			}
			if err := tx.Where("team_id IN ?", teamIDs).Delete(&models.TeamMembership{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", teamIDs).Delete(&models.Team{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("org_id = ?", orgID).Delete(&models.OrgJoinCode{}).Error; err != nil {
			return err
		}
		if err := tx.Where("org_id = ?", orgID).Delete(&models.OrgMembership{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", orgID).Delete(&models.Organization{}).Error
	})
}

// ListForUser lists organizations the user belongs to
func (r *GormOrganizationRepository) ListForUser(userID string) ([]models.Organization, error) {
	var orgs []models.Organization
	err := r.db.
		Joins("JOIN org_memberships ON org_memberships.org_id = organizations.id").
		Where("org_memberships.user_id = ?", userID).
		Find(&orgs).Error
	if err != nil {
		return nil, err
	}
	return orgs, nil
}

// FindMember finds a specific org membership
func (r *GormOrganizationRepository) FindMember(orgID, userID string) (*models.OrgMembership, error) {
	var member models.OrgMembership
	if err := r.db.Where("org_id = ? AND user_id = ?", orgID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// ListMembers lists org memberships with users, role desc
func (r *GormOrganizationRepository) ListMembers(orgID string) ([]models.OrgMembership, error) {
	var members []models.OrgMembership
	if err := r.db.Preload("User").
		Where("org_id = ?", orgID).
		Order("role DESC").Order("user_id ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// CountMembers counts all memberships in the org
func (r *GormOrganizationRepository) CountMembers(orgID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.OrgMembership{}).Where("org_id = ?", orgID).Count(&count).Error
	return count, err
}

// CountAdmins counts ADMIN memberships in the org
func (r *GormOrganizationRepository) CountAdmins(orgID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.OrgMembership{}).
		Where("org_id = ? AND role = ?", orgID, models.OrgRoleAdmin).
		Count(&count).Error
	return count, err
}

// UpdateMemberRole sets the role on an existing membership. The admin
// count is re-read inside the transaction so concurrent demotions
// cannot both slip past the last-admin check.
func (r *GormOrganizationRepository) UpdateMemberRole(orgID, userID string, role models.OrgRole) (*models.OrgMembership, error) {
	var member models.OrgMembership
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("org_id = ? AND user_id = ?", orgID, userID).
			First(&member).Error; err != nil {
			return err
		}
		if member.Role == models.OrgRoleAdmin && role != models.OrgRoleAdmin {
			var admins int64
			if err := tx.Model(&models.OrgMembership{}).
				Where("org_id = ? AND role = ?", orgID, models.OrgRoleAdmin).
				Count(&admins).Error; err != nil {
				return err
			}
			if admins <= 1 {
				return ErrLastAdmin
			}
		}
		member.Role = role
		return tx.Save(&member).Error
	})
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// RemoveMemberCascade deletes a membership plus the member's team
// memberships, task assignments and note mentions inside the org
func (r *GormOrganizationRepository) RemoveMemberCascade(orgID, userID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		teamIDs := tx.Model(&models.Team{}).Select("id").Where("org_id = ?", orgID)

		if err := tx.Where("user_id = ? AND team_id IN (?)", userID, teamIDs).
			Delete(&models.TeamMembership{}).Error; err != nil {
			return err
		}

		taskIDs := tx.Model(&models.Task{}).Select("id").
			Where("team_id IN (?)", tx.Model(&models.Team{}).Select("id").Where("org_id = ?", orgID))
		if err := tx.Where("user_id = ? AND task_id IN (?)", userID, taskIDs).
			Delete(&models.TaskAssignment{}).Error; err != nil {
			return err
		}

		noteIDs := tx.Model(&models.TaskNote{}).Select("id").
			Where("task_id IN (?)", tx.Model(&models.Task{}).Select("id").
				Where("team_id IN (?)", tx.Model(&models.Team{}).Select("id").Where("org_id = ?", orgID)))
		if err := tx.Where("user_id = ? AND note_id IN (?)", userID, noteIDs).
			Delete(&models.TaskNoteMention{}).Error; err != nil {
			return err
		}

		return tx.Where("org_id = ? AND user_id = ?", orgID, userID).
			Delete(&models.OrgMembership{}).Error
	})
}

// LeaveCascade removes the caller's own membership and their team
// memberships within the org
func (r *GormOrganizationRepository) LeaveCascade(orgID, userID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		teamIDs := tx.Model(&models.Team{}).Select("id").Where("org_id = ?", orgID)
		if err := tx.Where("user_id = ? AND team_id IN (?)", userID, teamIDs).
			Delete(&models.TeamMembership{}).Error; err != nil {
			return err
		}
		return tx.Where("org_id = ? AND user_id = ?", orgID, userID).
			Delete(&models.OrgMembership{}).Error
	})
}

// RotateJoinCode atomically replaces the org's join codes. Deleting the
// old codes and inserting the new one commit together, keeping the
// at-most-one-active-code invariant.
func (r *GormOrganizationRepository) RotateJoinCode(orgID, code string, expiresAt *time.Time, maxUses *int) (*models.OrgJoinCode, error) {
	joinCode := &models.OrgJoinCode{
		OrgID:     orgID,
		Code:      code,
		ExpiresAt: expiresAt,
		MaxUses:   maxUses,
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("org_id = ?", orgID).Delete(&models.OrgJoinCode{}).Error; err != nil {
			return err
		}
		return tx.Create(joinCode).Error
	})
	if err != nil {
		return nil, err
	}
	return joinCode, nil
}

// CurrentJoinCode returns the newest join code, if any
func (r *GormOrganizationRepository) CurrentJoinCode(orgID string) (*models.OrgJoinCode, error) {
	var joinCode models.OrgJoinCode
	err := r.db.Where("org_id = ?", orgID).
		Order("created_at DESC").
		First(&joinCode).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &joinCode, nil
}

// RedeemJoinCode validates a code and joins the user as MEMBER in one
// transaction. The membership upsert is idempotent; the use counter
// increments at the SQL level. Concurrent redemptions at the max-uses
// boundary may overshoot slightly, which is accepted.
func (r *GormOrganizationRepository) RedeemJoinCode(code, userID string) (string, error) {
	var orgID string

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var joinCode models.OrgJoinCode
		if err := tx.Where("code = ?", code).First(&joinCode).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrJoinCodeInvalid
			}
			return err
		}
		if joinCode.ExpiresAt != nil && time.Now().After(*joinCode.ExpiresAt) {
			return ErrJoinCodeExpired
		}
		if joinCode.MaxUses != nil && joinCode.Uses >= *joinCode.MaxUses {
			return ErrJoinCodeExhausted
		}

		member := models.OrgMembership{
			OrgID:  joinCode.OrgID,
			UserID: userID,
			Role:   models.OrgRoleMember,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "org_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).Create(&member).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.OrgJoinCode{}).Where("id = ?", joinCode.ID).
			Update("uses", gorm.Expr("uses + 1")).Error; err != nil {
			return err
		}

		orgID = joinCode.OrgID
		return nil
	})
	if err != nil {
		return "", err
	}
	return orgID, nil
}
