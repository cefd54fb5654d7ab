package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fluxhq/flux-api/internal/dto"
	apierrors "github.com/fluxhq/flux-api/internal/errors"
	"github.com/fluxhq/flux-api/internal/middleware"
	"github.com/fluxhq/flux-api/internal/models"
	"github.com/fluxhq/flux-api/internal/services"
)

type TeamHandler struct {
	teamService *services.TeamService
	logger      *zap.SugaredLogger
}

func NewTeamHandler(teamService *services.TeamService, logger *zap.SugaredLogger) *TeamHandler {
	return &TeamHandler{teamService: teamService, logger: logger}
}

// CreateTeam creates a team in an org
func (h *TeamHandler) CreateTeam(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c)
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, apierrors.CodeInvalidBody)
		return
	}

	team, err := h.teamService.CreateTeam(c.Param("id"), userID, req.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToTeamDTO(*team, false))
}

// ListTeams lists the org teams visible to the caller
func (h *TeamHandler) ListTeams(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c)
		return
	}

	teams, err := h.teamService.ListTeams(c.Param("id"), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	out := make([]dto.TeamDTO, len(teams))
	for i, team := range teams {
		out[i] = dto.ToTeamDTO(team, false)
	}
	c.JSON(http.StatusOK, out)
}

// GetTeam returns a team with its roster and links
func (h *TeamHandler) GetTeam(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c)
		return
	}

	team, err := h.teamService.GetTeam(c.Param("id"), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTeamDTO(*team, true))
}

// UpdateTeam renames the team
func (h *TeamHandler) UpdateTeam(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c)
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, apierrors.CodeInvalidBody)
		return
	}

	team, err := h.teamService.RenameTeam(c.Param("id"), userID, req.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTeamDTO(*team, false))
}

// GetTeamInfo returns the team's info text and pinned links
func (h *TeamHandler) GetTeamInfo(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c)
		return
	}

	team, err := h.teamService.GetInfo(c.Param("id"), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	links := make([]dto.TeamLinkDTO, len(team.Links))
	for i, link := range team.Links {
		links[i] = dto.ToTeamLinkDTO(link)
	}
	c.JSON(http.StatusOK, gin.H{
		"id":    team.ID,
		"name":  team.Name,
		"info":  team.Info,
		"links": links,
	})
}

// UpdateTeamInfo replaces the team's info text
func (h *TeamHandler) UpdateTeamInfo(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c)
		return
	}

	var req struct {
		Info string `json:"info"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, apierrors.CodeInvalidBody)
		return
	}

	team, err := h.teamService.UpdateInfo(c.Param("id"), userID, req.Info)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTeamDTO(*team, false))
}

// DeleteTeam removes the team and everything under it
func (h *TeamHandler) DeleteTeam(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c)
		return
	}

	if err := h.teamService.DeleteTeam(c.Param("id"), userID); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListMembers lists the team roster
func (h *TeamHandler) ListMembers(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c)
		return
	}

	members, err := h.teamService.ListMembers(c.Param("id"), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	out := make([]dto.TeamMemberDTO, len(members))
	for i, member := range members {
		out[i] = dto.ToTeamMemberDTO(member)
	}
	c.JSON(http.StatusOK, out)
}

// AddMember puts a user on the team
func (h *TeamHandler) AddMember(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c)
		return
	}

	var req struct {
		UserID string `json:"user_id" binding:"required"`
		Role   string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, apierrors.CodeInvalidBody)
		return
	}
	if req.Role == "" {
		req.Role = string(models.TeamRoleMember)
	}

	member, err := h.teamService.AddMember(c.Param("id"), userID, req.UserID, models.TeamRole(req.Role))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"team_id": member.TeamID,
		"user_id": member.UserID,
		"role":    member.Role,
	})
}

// AddLeader puts a user on the team as LEADER
func (h *TeamHandler) AddLeader(c *gin.Context) {
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

	member, err := h.teamService.AddMember(c.Param("id"), userID, req.UserID, models.TeamRoleLeader)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"team_id": member.TeamID,
		"user_id": member.UserID,
		"role":    member.Role,
	})
}

// RemoveMember takes a user off the roster
func (h *TeamHandler) RemoveMember(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c)
		return
	}

	if err := h.teamService.RemoveMember(c.Param("id"), userID, c.Param("userId")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Leave removes the caller's own team membership
func (h *TeamHandler) Leave(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c)
		return
	}

	if err := h.teamService.Leave(c.Param("id"), userID); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Permissions reports the caller's capabilities on the team
func (h *TeamHandler) Permissions(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c)
		return
	}

	perms, err := h.teamService.Permissions(c.Param("id"), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, perms)
}

// ListLinks lists the team's pinned links
func (h *TeamHandler) ListLinks(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c)
		return
	}

	links, err := h.teamService.ListLinks(c.Param("id"), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	out := make([]dto.TeamLinkDTO, len(links))
	for i, link := range links {
		out[i] = dto.ToTeamLinkDTO(link)
	}
	c.JSON(http.StatusOK, out)
}

// CreateLink pins a new link
func (h *TeamHandler) CreateLink(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c)
		return
	}

	var req struct {
		Label string `json:"label"`
		URL   string `json:"url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, apierrors.CodeLabelAndURLRequired)
		return
	}

	link, err := h.teamService.CreateLink(c.Param("id"), userID, req.Label, req.URL)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToTeamLinkDTO(*link))
}

// UpdateLink edits a pinned link
func (h *TeamHandler) UpdateLink(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c)
		return
	}

	var req struct {
		Label *string `json:"label"`
		URL   *string `json:"url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, apierrors.CodeInvalidBody)
		return
	}

	link, err := h.teamService.UpdateLink(c.Param("id"), userID, c.Param("linkId"), req.Label, req.URL)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTeamLinkDTO(*link))
}

// DeleteLink removes a pinned link
func (h *TeamHandler) DeleteLink(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c)
		return
	}

	if err := h.teamService.DeleteLink(c.Param("id"), userID, c.Param("linkId")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListEvents lists the team calendar
func (h *TeamHandler) ListEvents(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c)
		return
	}

	events, err := h.teamService.ListEvents(c.Param("id"), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	out := make([]dto.CalendarEventDTO, len(events))
	for i, event := range events {
		out[i] = dto.ToCalendarEventDTO(event)
	}
	c.JSON(http.StatusOK, out)
}

// CreateEvent adds a calendar entry
func (h *TeamHandler) CreateEvent(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c)
		return
	}

	var req struct {
		Title           string     `json:"title"`
		Description     string     `json:"description"`
		StartAt         time.Time  `json:"start_at" binding:"required"`
		EndAt           *time.Time `json:"end_at"`
		Type            string     `json:"type"`
		DurationMinutes int        `json:"duration_minutes"`
		RelatedTaskID   *string    `json:"related_task_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, apierrors.CodeInvalidBody)
		return
	}
	if req.Type == "" {
		req.Type = string(models.CalendarEventTypeEvent)
	}

	event, err := h.teamService.CreateEvent(c.Param("id"), userID, services.CreateEventInput{
		Title:           req.Title,
		Description:     req.Description,
		StartAt:         req.StartAt,
		EndAt:           req.EndAt,
		Type:            models.CalendarEventType(req.Type),
		DurationMinutes: req.DurationMinutes,
		RelatedTaskID:   req.RelatedTaskID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToCalendarEventDTO(*event))
}

// UpdateEvent edits a calendar entry
func (h *TeamHandler) UpdateEvent(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c)
		return
	}

	var req struct {
		Title           *string    `json:"title"`
		Description     *string    `json:"description"`
		StartAt         *time.Time `json:"start_at"`
		EndAt           *time.Time `json:"end_at"`
		DurationMinutes *int       `json:"duration_minutes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, apierrors.CodeInvalidBody)
		return
	}

	event, err := h.teamService.UpdateEvent(c.Param("id"), userID, c.Param("eventId"), services.UpdateEventInput{
		Title:           req.Title,
		Description:     req.Description,
		StartAt:         req.StartAt,
		EndAt:           req.EndAt,
		DurationMinutes: req.DurationMinutes,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToCalendarEventDTO(*event))
}

// DeleteEvent removes a calendar entry
func (h *TeamHandler) DeleteEvent(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c)
		return
	}

	if err := h.teamService.DeleteEvent(c.Param("id"), userID, c.Param("eventId")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TeamHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrOrgNotFound),
		errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, services.ErrMemberNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrLinkNotFound),
		errors.Is(err, services.ErrEventNotFound):
		apierrors.NotFound(c)
	case errors.Is(err, services.ErrPermissionDenied):
		apierrors.Forbidden(c)
	case errors.Is(err, services.ErrInvalidName):
		apierrors.BadRequest(c, apierrors.CodeInvalidName)
	case errors.Is(err, services.ErrInvalidRole):
		apierrors.BadRequest(c, apierrors.CodeInvalidRole)
	case errors.Is(err, services.ErrLabelAndURLRequired):
		apierrors.BadRequest(c, apierrors.CodeLabelAndURLRequired)
	case errors.Is(err, services.ErrTitleRequired):
		apierrors.BadRequest(c, apierrors.CodeTitleRequired)
	case errors.Is(err, services.ErrInvalidEventType),
		errors.Is(err, services.ErrInvalidEventInterval):
		apierrors.BadRequest(c, apierrors.CodeInvalidBody)
	default:
		h.logger.Errorw("team request failed", "error", err)
		apierrors.Internal(c)
	}
}
