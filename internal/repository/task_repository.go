package repository

import (
	"github.com/fluxhq/flux-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id string, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db
	for _, p := range preload {
		if p == "Notes" {
			query = query.Preload("Notes", func(db *gorm.DB) *gorm.DB {
				return db.Order("created_at ASC")
			})
			continue
		}
		query = query.Preload(p)
	}
	if err := query.Where("id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// ListByTeam lists a team's tasks with assignees and notes
func (r *GormTaskRepository) ListByTeam(teamID string) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.
		Preload("Assignees.User").
		Preload("Notes", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("team_id = ?", teamID).
		Order("created_at DESC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update saves the task and, when logEntry is non-nil, appends the
// status-log row in the same transaction. A failed log write rolls the
// task update back.
func (r *GormTaskRepository) Update(task *models.Task, logEntry *models.TaskStatusLog) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(task).Error; err != nil {
			return err
		}
		if logEntry != nil {
			return tx.Create(logEntry).Error
		}
		return nil
	})
}

// DeleteCascade removes the task and its dependent rows
func (r *GormTaskRepository) DeleteCascade(taskID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var noteIDs []string
		if err := tx.Model(&models.TaskNote{}).Where("task_id = ?", taskID).
			Pluck("id", &noteIDs).Error; err != nil {
			return err
		}

		if len(noteIDs) > 0 {
			if err := tx.Where("note_id IN ?", noteIDs).Delete(&models.TaskNoteMention{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("task_id = ?", taskID).Delete(&models.TaskNote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", taskID).Delete(&models.TaskAssignment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", taskID).Delete(&models.TaskStatusLog{}).Error; err != nil {
			return err
		}
		if err := tx.Where("related_task_id = ?", taskID).Delete(&models.CalendarEvent{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", taskID).Delete(&models.Task{}).Error
	})
}

// FindAssignment finds a specific task assignment
func (r *GormTaskRepository) FindAssignment(taskID, userID string) (*models.TaskAssignment, error) {
	var assignment models.TaskAssignment
	err := r.db.Where("task_id = ? AND user_id = ?", taskID, userID).First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

// UpsertAssignment idempotently assigns a user to a task
func (r *GormTaskRepository) UpsertAssignment(taskID, userID string) (*models.TaskAssignment, error) {
	assignment := &models.TaskAssignment{
		TaskID: taskID,
		UserID: userID,
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "task_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(assignment).Error
	if err != nil {
		return nil, err
	}
	return assignment, nil
}

// RemoveAssignment deletes an assignment; missing rows are not an error
func (r *GormTaskRepository) RemoveAssignment(taskID, userID string) error {
	return r.db.Where("task_id = ? AND user_id = ?", taskID, userID).
		Delete(&models.TaskAssignment{}).Error
}

// CreateNote creates a note and its resolved mentions atomically
func (r *GormTaskRepository) CreateNote(note *models.TaskNote, mentionUserIDs []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(note).Error; err != nil {
			return err
		}
		for _, userID := range mentionUserIDs {
			mention := models.TaskNoteMention{
				NoteID: note.ID,
				UserID: userID,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "note_id"}, {Name: "user_id"}},
				DoNothing: true,
			}).Create(&mention).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ListStatusLogs returns audit rows ordered (changed_at desc, id desc)
func (r *GormTaskRepository) ListStatusLogs(filter ActivityFilter) ([]models.TaskStatusLog, error) {
	query := r.db.Where("team_id = ?", filter.TeamID)
	if filter.From != nil {
		query = query.Where("changed_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("changed_at <= ?", *filter.To)
	}
	if filter.UserID != "" {
		query = query.Where("changed_by = ?", filter.UserID)
	}

	var logs []models.TaskStatusLog
	err := query.Order("changed_at DESC").Order("id DESC").
		Limit(filter.Limit).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

// FindTitles maps task IDs to current titles
func (r *GormTaskRepository) FindTitles(taskIDs []string) (map[string]string, error) {
	titles := make(map[string]string, len(taskIDs))
	if len(taskIDs) == 0 {
		return titles, nil
	}

	var tasks []models.Task
	if err := r.db.Select("id", "title").Where("id IN ?", taskIDs).Find(&tasks).Error; err != nil {
		return nil, err
	}
	for _, t := range tasks {
		titles[t.ID] = t.Title
	}
	return titles, nil
}

// FindUsers maps user IDs to user rows
func (r *GormTaskRepository) FindUsers(userIDs []string) (map[string]models.User, error) {
	users := make(map[string]models.User, len(userIDs))
	if len(userIDs) == 0 {
		return users, nil
	}

	var rows []models.User
	if err := r.db.Where("id IN ?", userIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, u := range rows {
		users[u.ID] = u
	}
	return users, nil
}
