package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Organization struct {
	ID        string    `gorm:"type:varchar(36);primarykey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	CreatedBy string    `gorm:"type:varchar(36);not null" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Memberships []OrgMembership `gorm:"foreignKey:OrgID" json:"memberships,omitempty"`
	Teams       []Team          `gorm:"foreignKey:OrgID" json:"teams,omitempty"`
}

func (o *Organization) BeforeCreate(*gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// OrgJoinCode grants MEMBER-level access on redemption. At most one
// active code exists per org; rotation deletes the previous codes.
type OrgJoinCode struct {
	ID        string     `gorm:"type:varchar(36);primarykey" json:"id"`
	OrgID     string     `gorm:"type:varchar(36);not null;index" json:"org_id"`
	Code      string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	ExpiresAt *time.Time `json:"expires_at"`
	MaxUses   *int       `json:"max_uses"`
	Uses      int        `gorm:"not null;default:0" json:"uses"`
	CreatedAt time.Time  `json:"created_at"`

	Org Organization `gorm:"foreignKey:OrgID" json:"-"`
}

func (jc *OrgJoinCode) BeforeCreate(*gorm.DB) error {
	if jc.ID == "" {
		jc.ID = uuid.NewString()
	}
	return nil
}
