package dto

import (
	"time"

	"github.com/fluxhq/flux-api/internal/models"
	"github.com/fluxhq/flux-api/internal/services"
)

// TaskAssigneeDTO represents a task assignment in API responses
type TaskAssigneeDTO struct {
	User UserDTO `json:"user"`
}

// TaskNoteDTO represents a note on a task
type TaskNoteDTO struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	Mentions  []string  `json:"mentions,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID          string              `json:"id"`
	TeamID      string              `json:"team_id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	DueDate     *time.Time          `json:"due_date"`
	Priority    models.TaskPriority `json:"priority"`
	Status      models.TaskStatus   `json:"status"`
	CreatedBy   string              `json:"created_by"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	Assignees   []TaskAssigneeDTO   `json:"assignees,omitempty"`
	Notes       []TaskNoteDTO       `json:"notes,omitempty"`
}

// ActivityEntryDTO represents a status change in the audit feed
type ActivityEntryDTO struct {
	ID        string            `json:"id"`
	TaskID    string            `json:"task_id"`
	TeamID    string            `json:"team_id"`
	OldStatus models.TaskStatus `json:"old_status"`
	NewStatus models.TaskStatus `json:"new_status"`
	ChangedAt time.Time         `json:"changed_at"`
	TaskTitle string            `json:"task_title"`
	ChangedBy *UserDTO          `json:"changed_by,omitempty"`
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:          task.ID,
		TeamID:      task.TeamID,
		Title:       task.Title,
		Description: task.Description,
		DueDate:     task.DueDate,
		Priority:    task.Priority,
		Status:      task.Status,
		CreatedBy:   task.CreatedBy,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
	for _, assignment := range task.Assignees {
		dto.Assignees = append(dto.Assignees, TaskAssigneeDTO{User: ToPublicUserDTO(assignment.User)})
	}
	for _, note := range task.Notes {
		dto.Notes = append(dto.Notes, ToTaskNoteDTO(note))
	}
	return dto
}

// ToTaskNoteDTO converts a note to DTO
func ToTaskNoteDTO(note models.TaskNote) TaskNoteDTO {
	dto := TaskNoteDTO{
		ID:        note.ID,
		AuthorID:  note.AuthorID,
		Content:   note.Content,
		CreatedAt: note.CreatedAt,
	}
	for _, mention := range note.Mentions {
		dto.Mentions = append(dto.Mentions, mention.UserID)
	}
	return dto
}

// ToActivityEntryDTO converts an enriched status-log entry to DTO
func ToActivityEntryDTO(entry services.ActivityEntry) ActivityEntryDTO {
	dto := ActivityEntryDTO{
		ID:        entry.Log.ID,
		TaskID:    entry.Log.TaskID,
		TeamID:    entry.Log.TeamID,
		OldStatus: entry.Log.OldStatus,
		NewStatus: entry.Log.NewStatus,
		ChangedAt: entry.Log.ChangedAt,
		TaskTitle: entry.TaskTitle,
	}
	if entry.Actor != nil {
		user := ToPublicUserDTO(*entry.Actor)
		dto.ChangedBy = &user
	}
	return dto
}
