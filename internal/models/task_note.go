package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskNote struct {
	ID        string    `gorm:"type:varchar(36);primarykey" json:"id"`
	TaskID    string    `gorm:"type:varchar(36);not null;index" json:"task_id"`
	AuthorID  string    `gorm:"type:varchar(36);not null" json:"author_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Mentions []TaskNoteMention `gorm:"foreignKey:NoteID" json:"mentions,omitempty"`
}

func (n *TaskNote) BeforeCreate(*gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

// TaskNoteMention is a resolved @handle reference inside a note,
// derived from the content at creation time.
type TaskNoteMention struct {
	NoteID    string    `gorm:"type:varchar(36);primarykey" json:"note_id"`
	UserID    string    `gorm:"type:varchar(36);primarykey" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}
