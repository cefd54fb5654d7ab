package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/fluxhq/flux-api/internal/constants"
	"github.com/fluxhq/flux-api/internal/models"
	"github.com/fluxhq/flux-api/internal/permissions"
	"github.com/fluxhq/flux-api/internal/repository"
	"github.com/fluxhq/flux-api/internal/utils"
)

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrTitleRequired   = errors.New("title is required")
	ErrInvalidStatus   = errors.New("invalid task status")
	ErrInvalidPriority = errors.New("invalid task priority")
	ErrContentRequired = errors.New("note content is required")
	ErrUserNotInTeam   = errors.New("user is not a team member")
)

// CreateTaskInput carries a task creation request
type CreateTaskInput struct {
	Title       string
	Description string
	DueDate     *time.Time
	Priority    *models.TaskPriority
}

// UpdateTaskInput carries a partial task update. Nil fields are left
// untouched.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Priority    *models.TaskPriority
	Status      *models.TaskStatus
}

// ActivityEntry is a status-log row enriched for display
type ActivityEntry struct {
	Log       models.TaskStatusLog
	TaskTitle string
	Actor     *models.User
}

// TaskService handles tasks, assignments, notes and the activity feed
type TaskService struct {
	taskRepo repository.TaskRepository
	teamRepo repository.TeamRepository
	userRepo repository.UserRepository
	perms    *permissions.Evaluator
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, teamRepo repository.TeamRepository, userRepo repository.UserRepository, perms *permissions.Evaluator) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		teamRepo: teamRepo,
		userRepo: userRepo,
		perms:    perms,
	}
}

// ListTasks lists a team's tasks for any team reader
func (s *TaskService) ListTasks(teamID, userID string) ([]models.Task, error) {
	if err := s.requireTeamRead(teamID, userID); err != nil {
		return nil, err
	}
	return s.taskRepo.ListByTeam(teamID)
}

// CreateTask creates a task in the team, org ADMIN or team LEADER only
func (s *TaskService) CreateTask(teamID, userID string, input CreateTaskInput) (*models.Task, error) {
	if err := s.requireTeamWrite(teamID, userID); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	task := &models.Task{
		TeamID:      teamID,
		Title:       title,
		Description: input.Description,
		DueDate:     input.DueDate,
		Priority:    models.TaskPriorityMedium,
		Status:      models.TaskStatusTodo,
		CreatedBy:   userID,
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, ErrInvalidPriority
		}
		task.Priority = *input.Priority
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, err
	}
	return task, nil
}

// GetTask returns a task with its assignees and notes
func (s *TaskService) GetTask(taskID, userID string) (*models.Task, error) {
	task, err := s.findTask(taskID)
	if err != nil {
		return nil, err
	}
	if err := s.requireTeamRead(task.TeamID, userID); err != nil {
		return nil, err
	}
	return s.taskRepo.FindByID(taskID, "Assignees.User", "Notes", "Notes.Mentions")
}

// UpdateTask applies a partial update. Org admins and team leaders may
// change any field. An assignee may change only the status; a patch
// mixing status with other fields is rejected whole.
func (s *TaskService) UpdateTask(taskID, userID string, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.findTask(taskID)
	if err != nil {
		return nil, err
	}

	canWrite, err := s.perms.CanWriteTeam(task.TeamID, userID)
	if err != nil {
		return nil, err
	}
	if !canWrite {
		assignee, err := s.isAssignee(task.ID, userID)
		if err != nil {
			return nil, err
		}
		if !assignee {
			return nil, ErrPermissionDenied
		}
		if input.Title != nil || input.Description != nil || input.DueDate != nil || input.Priority != nil {
			return nil, ErrPermissionDenied
		}
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, ErrInvalidPriority
		}
		task.Priority = *input.Priority
	}

	var logEntry *models.TaskStatusLog
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		if *input.Status != task.Status {
			logEntry = &models.TaskStatusLog{
				TaskID:    task.ID,
				TeamID:    task.TeamID,
				OldStatus: task.Status,
				NewStatus: *input.Status,
				ChangedBy: userID,
				ChangedAt: time.Now(),
			}
			task.Status = *input.Status
		}
	}

	if err := s.taskRepo.Update(task, logEntry); err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteTask removes the task and its dependent rows
func (s *TaskService) DeleteTask(taskID, userID string) error {
	task, err := s.findTask(taskID)
	if err != nil {
		return err
	}
	if err := s.requireTeamWrite(task.TeamID, userID); err != nil {
		return err
	}
	return s.taskRepo.DeleteCascade(taskID)
}

// AddAssignee assigns a team member to the task, idempotently
func (s *TaskService) AddAssignee(taskID, actorID, targetID string) (*models.TaskAssignment, error) {
	task, err := s.findTask(taskID)
	if err != nil {
		return nil, err
	}
	if err := s.requireTeamWrite(task.TeamID, actorID); err != nil {
		return nil, err
	}

	member, err := s.perms.IsTeamMember(task.TeamID, targetID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrUserNotInTeam
	}

	return s.taskRepo.UpsertAssignment(taskID, targetID)
}

// RemoveAssignee unassigns a user from the task
func (s *TaskService) RemoveAssignee(taskID, actorID, targetID string) error {
	task, err := s.findTask(taskID)
	if err != nil {
		return err
	}
	if err := s.requireTeamWrite(task.TeamID, actorID); err != nil {
		return err
	}
	return s.taskRepo.RemoveAssignment(taskID, targetID)
}

// AddNote appends a note to the task. Handles mentioned in the content
// that resolve to known users become mention rows.
func (s *TaskService) AddNote(taskID, userID, content string) (*models.TaskNote, error) {
	task, err := s.findTask(taskID)
	if err != nil {
		return nil, err
	}
	if err := s.requireTeamRead(task.TeamID, userID); err != nil {
		return nil, err
	}

	if strings.TrimSpace(content) == "" {
		return nil, ErrContentRequired
	}

	var mentionUserIDs []string
	if handles := utils.ExtractMentionHandles(content); len(handles) > 0 {
		users, err := s.userRepo.FindByHandles(handles)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			mentionUserIDs = append(mentionUserIDs, u.ID)
		}
	}

	note := &models.TaskNote{
		TaskID:   taskID,
		AuthorID: userID,
		Content:  content,
	}
	if err := s.taskRepo.CreateNote(note, mentionUserIDs); err != nil {
		return nil, err
	}
	return note, nil
}

// Activity returns the team's status-change feed, newest first. Only
// org admins and team leaders may read it.
func (s *TaskService) Activity(teamID, userID string, filter repository.ActivityFilter) ([]ActivityEntry, error) {
	if _, err := s.findTeam(teamID); err != nil {
		return nil, err
	}
	ok, err := s.perms.IsAdminOrLeader(teamID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPermissionDenied
	}

	filter.TeamID = teamID
	if filter.Limit <= 0 {
		filter.Limit = constants.DefaultActivityLimit
	}
	if filter.Limit > constants.MaxActivityLimit {
		filter.Limit = constants.MaxActivityLimit
	}

	logs, err := s.taskRepo.ListStatusLogs(filter)
	if err != nil {
		return nil, err
	}

	taskIDs := make([]string, 0, len(logs))
	actorIDs := make([]string, 0, len(logs))
	for _, l := range logs {
		taskIDs = append(taskIDs, l.TaskID)
		actorIDs = append(actorIDs, l.ChangedBy)
	}

	titles, err := s.taskRepo.FindTitles(taskIDs)
	if err != nil {
		return nil, err
	}
	actors, err := s.taskRepo.FindUsers(actorIDs)
	if err != nil {
		return nil, err
	}

	entries := make([]ActivityEntry, 0, len(logs))
	for _, l := range logs {
		entry := ActivityEntry{Log: l, TaskTitle: "Untitled task"}
		if title, ok := titles[l.TaskID]; ok && title != "" {
			entry.TaskTitle = title
		}
		if actor, ok := actors[l.ChangedBy]; ok {
			u := actor
			entry.Actor = &u
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *TaskService) findTask(taskID string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) findTeam(teamID string) (*models.Team, error) {
	team, err := s.teamRepo.FindByID(teamID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, err
	}
	return team, nil
}

func (s *TaskService) requireTeamRead(teamID, userID string) error {
	if _, err := s.findTeam(teamID); err != nil {
		return err
	}
	ok, err := s.perms.CanReadTeam(teamID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPermissionDenied
	}
	return nil
}

func (s *TaskService) requireTeamWrite(teamID, userID string) error {
	if _, err := s.findTeam(teamID); err != nil {
		return err
	}
	ok, err := s.perms.CanWriteTeam(teamID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPermissionDenied
	}
	return nil
}

func (s *TaskService) isAssignee(taskID, userID string) (bool, error) {
	_, err := s.taskRepo.FindAssignment(taskID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
