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

type OrganizationHandler struct {
	orgService *services.OrganizationService
	logger     *zap.SugaredLogger
}

func NewOrganizationHandler(orgService *services.OrganizationService, logger *zap.SugaredLogger) *OrganizationHandler {
	return &OrganizationHandler{orgService: orgService, logger: logger}
}

// CreateOrganization creates an org with the caller as ADMIN
func (h *OrganizationHandler) CreateOrganization(c *gin.Context) {
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

	org, err := h.orgService.CreateOrganization(req.Name, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToOrganizationDTO(*org))
}

// ListOrganizations lists the caller's orgs
func (h *OrganizationHandler) ListOrganizations(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c)
		return
	}

	orgs, err := h.orgService.ListOrganizations(userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	out := make([]dto.OrganizationDTO, len(orgs))
	for i, org := range orgs {
		out[i] = dto.ToOrganizationDTO(org)
	}
	c.JSON(http.StatusOK, out)
}

// GetOrganization returns the org summary
func (h *OrganizationHandler) GetOrganization(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c)
		return
	}

	summary, err := h.orgService.GetOrganization(c.Param("id"), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToOrganizationSummaryDTO(*summary))
}

// GetOrganizationDetails returns the org with members and teams
func (h *OrganizationHandler) GetOrganizationDetails(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c)
		return
	}

	details, err := h.orgService.GetOrganizationDetails(c.Param("id"), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToOrganizationDetailDTO(*details))
}

// UpdateOrganization renames the org
func (h *OrganizationHandler) UpdateOrganization(c *gin.Context) {
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

	org, err := h.orgService.RenameOrganization(c.Param("id"), userID, req.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToOrganizationDTO(*org))
}

// DeleteOrganization removes the org and everything under it
func (h *OrganizationHandler) DeleteOrganization(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c)
		return
	}

	if err := h.orgService.DeleteOrganization(c.Param("id"), userID); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListMembers lists org members
func (h *OrganizationHandler) ListMembers(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c)
		return
	}

	members, err := h.orgService.ListMembers(c.Param("id"), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	out := make([]dto.OrganizationMemberDTO, len(members))
	for i, member := range members {
		out[i] = dto.ToOrganizationMemberDTO(member)
	}
	c.JSON(http.StatusOK, out)
}

// UpdateMemberRole changes a member's org role
func (h *OrganizationHandler) UpdateMemberRole(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c)
		return
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, apierrors.CodeInvalidBody)
		return
	}

	member, err := h.orgService.UpdateMemberRole(c.Param("id"), userID, c.Param("userId"), models.OrgRole(req.Role))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"org_id":  member.OrgID,
		"user_id": member.UserID,
		"role":    member.Role,
	})
}

// RemoveMember removes a member from the org. "me" as the target is an
// alias for leaving.
func (h *OrganizationHandler) RemoveMember(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c)
		return
	}

	target := c.Param("userId")
	if target == "me" {
		h.Leave(c)
		return
	}

	if err := h.orgService.RemoveMember(c.Param("id"), userID, target); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Leave removes the caller's own membership
func (h *OrganizationHandler) Leave(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c)
		return
	}

	if err := h.orgService.Leave(c.Param("id"), userID); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RotateJoinCode replaces the org's join code
func (h *OrganizationHandler) RotateJoinCode(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c)
		return
	}

	var req struct {
		ExpiresAt *time.Time `json:"expires_at"`
		MaxUses   *int       `json:"max_uses"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, apierrors.CodeInvalidBody)
		return
	}

	code, err := h.orgService.RotateJoinCode(c.Param("id"), userID, req.ExpiresAt, req.MaxUses)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToJoinCodeDTO(*code))
}

// ListJoinCodes returns the current join code as a zero-or-one element
// list
func (h *OrganizationHandler) ListJoinCodes(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c)
		return
	}

	code, err := h.orgService.GetJoinCode(c.Param("id"), userID)
	if errors.Is(err, services.ErrJoinCodeNotFound) {
		c.JSON(http.StatusOK, []dto.JoinCodeDTO{})
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, []dto.JoinCodeDTO{dto.ToJoinCodeDTO(*code)})
}

// RedeemJoinCode joins the caller to the code's org
func (h *OrganizationHandler) RedeemJoinCode(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c)
		return
	}

	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, apierrors.CodeInvalidJoinCode)
		return
	}

	org, err := h.orgService.RedeemJoinCode(req.Code, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToOrganizationDTO(*org))
}

func (h *OrganizationHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrOrgNotFound),
		errors.Is(err, services.ErrMemberNotFound),
		errors.Is(err, services.ErrJoinCodeNotFound):
		apierrors.NotFound(c)
	case errors.Is(err, services.ErrPermissionDenied):
		apierrors.Forbidden(c)
	case errors.Is(err, services.ErrInvalidName):
		apierrors.BadRequest(c, apierrors.CodeInvalidName)
	case errors.Is(err, services.ErrInvalidRole):
		apierrors.BadRequest(c, apierrors.CodeInvalidRole)
	case errors.Is(err, services.ErrCannotRemoveAdmin):
		apierrors.BadRequest(c, apierrors.CodeCannotRemoveAdmin)
	case errors.Is(err, services.ErrCannotLeaveAdmin):
		apierrors.BadRequest(c, apierrors.CodeCannotLeaveAdmin)
	case errors.Is(err, services.ErrJoinCodeInvalid):
		apierrors.BadRequest(c, apierrors.CodeInvalidJoinCode)
	case errors.Is(err, services.ErrJoinCodeExpired):
		apierrors.BadRequest(c, apierrors.CodeExpiredJoinCode)
	case errors.Is(err, services.ErrJoinCodeExhausted):
		apierrors.BadRequest(c, apierrors.CodeExhaustedJoinCode)
	default:
		h.logger.Errorw("organization request failed", "error", err)
		apierrors.Internal(c)
	}
}
