package models

import "time"

type OrgRole string

const (
	OrgRoleAdmin  OrgRole = "ADMIN"
	OrgRoleMember OrgRole = "MEMBER"
)

func (r OrgRole) Valid() bool {
	return r == OrgRoleAdmin || r == OrgRoleMember
}

type OrgMembership struct {
	OrgID     string    `gorm:"type:varchar(36);primarykey" json:"org_id"`
	UserID    string    `gorm:"type:varchar(36);primarykey" json:"user_id"`
	Role      OrgRole   `gorm:"type:varchar(20);not null" json:"role"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Org  Organization `gorm:"foreignKey:OrgID" json:"org,omitempty"`
	User User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
