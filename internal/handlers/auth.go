package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fluxhq/flux-api/internal/auth"
	"github.com/fluxhq/flux-api/internal/constants"
	"github.com/fluxhq/flux-api/internal/dto"
	apierrors "github.com/fluxhq/flux-api/internal/errors"
	"github.com/fluxhq/flux-api/internal/middleware"
	"github.com/fluxhq/flux-api/internal/services"
	"github.com/fluxhq/flux-api/internal/sso"
)

const (
	providerGoogle  = "google"
	stateSessionKey = "oauth_state"
	tokenMaxAge     = 7 * 24 * 60 * 60
)

type AuthHandler struct {
	authService *services.AuthService
	google      *sso.GoogleClient
	issuer      *auth.TokenIssuer
	clientURL   string
	logger      *zap.SugaredLogger
}

func NewAuthHandler(authService *services.AuthService, google *sso.GoogleClient, issuer *auth.TokenIssuer, clientURL string, logger *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		google:      google,
		issuer:      issuer,
		clientURL:   clientURL,
		logger:      logger,
	}
}

// GoogleLogin starts the Google OAuth2 flow
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	stateBytes := make([]byte, 16)
	if _, err := rand.Read(stateBytes); err != nil {
		apierrors.Internal(c)
		return
	}
	state := hex.EncodeToString(stateBytes)

	session := sessions.Default(c)
	session.Set(stateSessionKey, state)
	if err := session.Save(); err != nil {
		h.logger.Errorw("failed to save login session", "error", err)
		apierrors.Internal(c)
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, h.google.AuthURL(state))
}

// GoogleCallback finishes the OAuth2 flow and issues the login token
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	session := sessions.Default(c)
	savedState, _ := session.Get(stateSessionKey).(string)
	session.Delete(stateSessionKey)
	_ = session.Save()

	if savedState == "" || c.Query("state") != savedState {
		apierrors.Unauthorized(c)
		return
	}

	profile, err := h.google.Exchange(c.Request.Context(), c.Query("code"))
	if err != nil {
		h.logger.Warnw("oauth exchange failed", "error", err)
		apierrors.Unauthorized(c)
		return
	}

	user, err := h.authService.ResolveProfile(providerGoogle, profile)
	if err != nil {
		h.logger.Errorw("failed to resolve sso profile", "error", err)
		apierrors.Internal(c)
		return
	}

	token, err := h.issuer.Issue(user.ID)
	if err != nil {
		apierrors.Internal(c)
		return
	}

	c.SetCookie(constants.TokenCookieName, token, tokenMaxAge, "/", "", false, true)
	c.Redirect(http.StatusTemporaryRedirect, h.clientURL)
}

// Logout clears the login cookie
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(constants.TokenCookieName, "", -1, "/", "", false, true)
	c.Status(http.StatusNoContent)
}

// Me returns the authenticated user's own profile
func (h *AuthHandler) Me(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c)
		return
	}

	user, err := h.authService.GetUser(userID)
	if errors.Is(err, services.ErrUserNotFound) {
		// The token outlived its account; force a fresh login.
		c.SetCookie(constants.TokenCookieName, "", -1, "/", "", false, true)
		apierrors.Unauthorized(c)
		return
	}
	if err != nil {
		apierrors.Internal(c)
		return
	}

	c.JSON(http.StatusOK, dto.ToProfileDTO(*user))
}

// DeleteMe removes the caller's account and all dependent data
func (h *AuthHandler) DeleteMe(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c)
		return
	}

	err := h.authService.DeleteAccount(userID)
	switch {
	case errors.Is(err, services.ErrCannotDeleteAdmin):
		apierrors.BadRequest(c, apierrors.CodeCannotDeleteAdmin)
		return
	case err != nil:
		h.logger.Errorw("failed to delete account", "user_id", userID, "error", err)
		apierrors.Internal(c)
		return
	}

	c.SetCookie(constants.TokenCookieName, "", -1, "/", "", false, true)
	c.Status(http.StatusNoContent)
}
