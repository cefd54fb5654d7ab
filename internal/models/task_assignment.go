package models

import "time"

type TaskAssignment struct {
	TaskID    string    `gorm:"type:varchar(36);primarykey" json:"task_id"`
	UserID    string    `gorm:"type:varchar(36);primarykey" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Task Task `gorm:"foreignKey:TaskID" json:"-"`
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
