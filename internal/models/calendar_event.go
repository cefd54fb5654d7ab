package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CalendarEventType string

const (
	CalendarEventTypeEvent CalendarEventType = "EVENT"
	CalendarEventTypeTask  CalendarEventType = "TASK"
)

type CalendarEvent struct {
	ID            string            `gorm:"type:varchar(36);primarykey" json:"id"`
	TeamID        string            `gorm:"type:varchar(36);not null;index" json:"team_id"`
	Title         string            `gorm:"type:varchar(255);not null" json:"title"`
	Description   string            `gorm:"type:text" json:"description"`
	StartAt       time.Time         `gorm:"not null" json:"start_at"`
	EndAt         time.Time         `gorm:"not null" json:"end_at"`
	Type          CalendarEventType `gorm:"type:varchar(20);not null;default:'EVENT'" json:"type"`
	RelatedTaskID *string           `gorm:"type:varchar(36);index" json:"related_task_id"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

func (e *CalendarEvent) BeforeCreate(*gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
