package models

import "time"

type TeamRole string

const (
	TeamRoleLeader TeamRole = "LEADER"
	TeamRoleMember TeamRole = "MEMBER"
)

func (r TeamRole) Valid() bool {
	return r == TeamRoleLeader || r == TeamRoleMember
}

type TeamMembership struct {
	TeamID    string    `gorm:"type:varchar(36);primarykey" json:"team_id"`
	UserID    string    `gorm:"type:varchar(36);primarykey" json:"user_id"`
	Role      TeamRole  `gorm:"type:varchar(20);not null" json:"role"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Team Team `gorm:"foreignKey:TeamID" json:"team,omitempty"`
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
