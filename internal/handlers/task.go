package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fluxhq/flux-api/internal/dto"
	apierrors "github.com/fluxhq/flux-api/internal/errors"
	"github.com/fluxhq/flux-api/internal/middleware"
	"github.com/fluxhq/flux-api/internal/models"
	"github.com/fluxhq/flux-api/internal/repository"
	"github.com/fluxhq/flux-api/internal/services"
)

type TaskHandler struct {
	taskService *services.TaskService
	logger      *zap.SugaredLogger
}

func NewTaskHandler(taskService *services.TaskService, logger *zap.SugaredLogger) *TaskHandler {
	return &TaskHandler{taskService: taskService, logger: logger}
}

// ListTasks lists a team's tasks
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c)
		return
	}

	tasks, err := h.taskService.ListTasks(c.Param("id"), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	out := make([]dto.TaskDTO, len(tasks))
	for i, task := range tasks {
		out[i] = dto.ToTaskDTO(task)
	}
	c.JSON(http.StatusOK, out)
}

// CreateTask creates a task in the team
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c)
		return
	}

	var req struct {
		Title       string     `json:"title"`
		Description string     `json:"description"`
		DueDate     *time.Time `json:"due_date"`
		Priority    *string    `json:"priority"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, apierrors.CodeInvalidBody)
		return
	}

	input := services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
	}
	if req.Priority != nil {
		priority := models.TaskPriority(*req.Priority)
		input.Priority = &priority
	}

	task, err := h.taskService.CreateTask(c.Param("id"), userID, input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// GetTask returns a task with assignees and notes
func (h *TaskHandler) GetTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c)
		return
	}

	task, err := h.taskService.GetTask(c.Param("id"), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// UpdateTask applies a partial task update
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c)
		return
	}

	var req struct {
		Title       *string    `json:"title"`
		Description *string    `json:"description"`
		DueDate     *time.Time `json:"due_date"`
		Priority    *string    `json:"priority"`
		Status      *string    `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, apierrors.CodeInvalidBody)
		return
	}

	input := services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
	}
	if req.Priority != nil {
		priority := models.TaskPriority(*req.Priority)
		input.Priority = &priority
	}
	if req.Status != nil {
		status := models.TaskStatus(*req.Status)
		input.Status = &status
	}

	task, err := h.taskService.UpdateTask(c.Param("id"), userID, input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteTask removes the task and its dependent rows
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c)
		return
	}

	if err := h.taskService.DeleteTask(c.Param("id"), userID); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddAssignee assigns a team member to the task
func (h *TaskHandler) AddAssignee(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c)
		return
	}

	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, apierrors.CodeInvalidBody)
		return
	}

	assignment, err := h.taskService.AddAssignee(c.Param("id"), userID, req.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"task_id": assignment.TaskID,
		"user_id": assignment.UserID,
	})
}

// RemoveAssignee unassigns a user from the task
func (h *TaskHandler) RemoveAssignee(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c)
		return
	}

	if err := h.taskService.RemoveAssignee(c.Param("id"), userID, c.Param("userId")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddNote appends a note to the task
func (h *TaskHandler) AddNote(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c)
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, apierrors.CodeInvalidBody)
		return
	}

	note, err := h.taskService.AddNote(c.Param("id"), userID, req.Content)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToTaskNoteDTO(*note))
}

// Activity returns the team's status-change feed
func (h *TaskHandler) Activity(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c)
		return
	}

	filter := repository.ActivityFilter{}
	if userID := c.Query("user_id"); userID != "" && userID != "ALL" {
		filter.UserID = userID
	}
	// junk limit values fall back to the default
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil {
		filter.Limit = limit
	}
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			apierrors.BadRequest(c, apierrors.CodeInvalidBody)
			return
		}
		filter.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			apierrors.BadRequest(c, apierrors.CodeInvalidBody)
			return
		}
		filter.To = &to
	}

	entries, err := h.taskService.Activity(c.Param("id"), userID, filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	out := make([]dto.ActivityEntryDTO, len(entries))
	for i, entry := range entries {
		out[i] = dto.ToActivityEntryDTO(entry)
	}
	c.JSON(http.StatusOK, out)
}

func (h *TaskHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c)
	case errors.Is(err, services.ErrPermissionDenied):
		apierrors.Forbidden(c)
	case errors.Is(err, services.ErrTitleRequired):
		apierrors.BadRequest(c, apierrors.CodeTitleRequired)
	case errors.Is(err, services.ErrInvalidStatus):
		apierrors.BadRequest(c, apierrors.CodeInvalidStatus)
	case errors.Is(err, services.ErrInvalidPriority),
		errors.Is(err, services.ErrContentRequired):
		apierrors.BadRequest(c, apierrors.CodeInvalidBody)
	case errors.Is(err, services.ErrUserNotInTeam):
		apierrors.BadRequest(c, apierrors.CodeUserNotInTeam)
	default:
		h.logger.Errorw("task request failed", "error", err)
		apierrors.Internal(c)
	}
}
