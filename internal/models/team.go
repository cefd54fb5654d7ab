package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Team struct {
	ID        string    `gorm:"type:varchar(36);primarykey" json:"id"`
	OrgID     string    `gorm:"type:varchar(36);not null;index" json:"org_id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Info      string    `gorm:"type:text" json:"info"`
	CreatedBy string    `gorm:"type:varchar(36);not null" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Org         Organization     `gorm:"foreignKey:OrgID" json:"-"`
	Memberships []TeamMembership `gorm:"foreignKey:TeamID" json:"memberships,omitempty"`
	Links       []TeamLink       `gorm:"foreignKey:TeamID" json:"links,omitempty"`
}

func (t *Team) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// TeamLink is an ordered pinned link on the team info page.
type TeamLink struct {
	ID        string    `gorm:"type:varchar(36);primarykey" json:"id"`
	TeamID    string    `gorm:"type:varchar(36);not null;index" json:"team_id"`
	Label     string    `gorm:"type:varchar(255);not null" json:"label"`
	URL       string    `gorm:"type:varchar(2048);not null" json:"url"`
	Ordinal   int       `gorm:"not null;default:0" json:"ordinal"`
	CreatedAt time.Time `json:"created_at"`
}

func (l *TeamLink) BeforeCreate(*gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// TeamJoinCode exists for schema parity with org join codes; it has no
// redemption endpoint yet but participates in team/org cascades.
type TeamJoinCode struct {
	ID        string    `gorm:"type:varchar(36);primarykey" json:"id"`
	TeamID    string    `gorm:"type:varchar(36);not null;index" json:"team_id"`
	Code      string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	CreatedAt time.Time `json:"created_at"`
}

func (jc *TeamJoinCode) BeforeCreate(*gorm.DB) error {
	if jc.ID == "" {
		jc.ID = uuid.NewString()
	}
	return nil
}

// Goal is a team-scoped objective; removed with its team.
type Goal struct {
	ID        string    `gorm:"type:varchar(36);primarykey" json:"id"`
	TeamID    string    `gorm:"type:varchar(36);not null;index" json:"team_id"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (g *Goal) BeforeCreate(*gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}
