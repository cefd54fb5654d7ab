package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID        string    `gorm:"type:varchar(36);primarykey" json:"id"`
	Email     *string   `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	Handle    string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"handle"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Identities      []Identity       `gorm:"foreignKey:UserID" json:"-"`
	Memberships     []OrgMembership  `gorm:"foreignKey:UserID" json:"memberships,omitempty"`
	TeamMemberships []TeamMembership `gorm:"foreignKey:UserID" json:"team_memberships,omitempty"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Identity links a user to an external SSO provider account.
type Identity struct {
	ID         string    `gorm:"type:varchar(36);primarykey" json:"id"`
	Provider   string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_identities_provider_pair" json:"provider"`
	ProviderID string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_identities_provider_pair" json:"provider_id"`
	UserID     string    `gorm:"type:varchar(36);not null;index" json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (i *Identity) BeforeCreate(*gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
