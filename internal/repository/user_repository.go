package repository

import (
	"errors"

	"github.com/fluxhq/flux-api/internal/models"
	"gorm.io/gorm"
)

// ErrAdminAccount is returned when a cascade delete is attempted for a
// user who still administers an organization.
var ErrAdminAccount = errors.New("user repository: account holds an admin membership")

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// FindByID finds a user by ID with optional preloading
func (r *GormUserRepository) FindByID(id string, preload ...string) (*models.User, error) {
	var user models.User
	query := r.db
	for _, p := range preload {
		query = query.Preload(p)
	}
	if err := query.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByHandle finds a user by handle
func (r *GormUserRepository) FindByHandle(handle string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("handle = ?", handle).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByHandles returns the users whose handles appear in the list
func (r *GormUserRepository) FindByHandles(handles []string) ([]models.User, error) {
	if len(handles) == 0 {
		return nil, nil
	}
	var users []models.User
	if err := r.db.Where("handle IN ?", handles).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// FindIdentity finds an SSO identity by provider pair
func (r *GormUserRepository) FindIdentity(provider, providerID string) (*models.Identity, error) {
	var identity models.Identity
	if err := r.db.Where("provider = ? AND provider_id = ?", provider, providerID).
		First(&identity).Error; err != nil {
		return nil, err
	}
	return &identity, nil
}

// CreateIdentity links an SSO identity to a user
func (r *GormUserRepository) CreateIdentity(identity *models.Identity) error {
	return r.db.Create(identity).Error
}

// CountAdminMemberships counts orgs where the user is an ADMIN
func (r *GormUserRepository) CountAdminMemberships(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.OrgMembership{}).
		Where("user_id = ? AND role = ?", userID, models.OrgRoleAdmin).
		Count(&count).Error
	return count, err
}

// DeleteCascade removes the user and every dependent row in one
// transaction. Admin accounts are rejected before any deletion: org
// ownership must be transferred first.
func (r *GormUserRepository) DeleteCascade(userID, ghostUserID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var adminCount int64
		if err := tx.Model(&models.OrgMembership{}).
			Where("user_id = ? AND role = ?", userID, models.OrgRoleAdmin).
			Count(&adminCount).Error; err != nil {
			return err
		}
		if adminCount > 0 {
			return ErrAdminAccount
		}

		if err := tx.Where("user_id = ?", userID).Delete(&models.Identity{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.TaskNoteMention{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.TaskAssignment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.TeamMembership{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.OrgMembership{}).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", userID).Delete(&models.TaskNote{}).Error; err != nil {
			return err
		}

		if ghostUserID != "" {
			if err := tx.Model(&models.Task{}).Where("created_by = ?", userID).
				Update("created_by", ghostUserID).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Team{}).Where("created_by = ?", userID).
				Update("created_by", ghostUserID).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Organization{}).Where("created_by = ?", userID).
				Update("created_by", ghostUserID).Error; err != nil {
				return err
			}
		}

		return tx.Where("id = ?", userID).Delete(&models.User{}).Error
	})
}
