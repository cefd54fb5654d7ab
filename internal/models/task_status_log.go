package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaskStatusLog is an append-only audit row recorded whenever a task's
// status actually changes value. Rows are never updated; they are only
// removed when their task or team is cascaded away.
type TaskStatusLog struct {
	ID        string     `gorm:"type:varchar(36);primarykey" json:"id"`
	TaskID    string     `gorm:"type:varchar(36);not null;index" json:"task_id"`
	TeamID    string     `gorm:"type:varchar(36);not null;index" json:"team_id"`
	OldStatus TaskStatus `gorm:"type:varchar(20);not null" json:"old_status"`
	NewStatus TaskStatus `gorm:"type:varchar(20);not null" json:"new_status"`
	ChangedBy string     `gorm:"type:varchar(36);not null" json:"changed_by"`
	ChangedAt time.Time  `gorm:"not null" json:"changed_at"`
}

func (l *TaskStatusLog) BeforeCreate(*gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.ChangedAt.IsZero() {
		l.ChangedAt = time.Now()
	}
	return nil
}
