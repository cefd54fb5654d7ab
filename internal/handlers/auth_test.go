package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fluxhq/flux-api/internal/auth"
	"github.com/fluxhq/flux-api/internal/database"
	"github.com/fluxhq/flux-api/internal/logger"
	"github.com/fluxhq/flux-api/internal/models"
	"github.com/fluxhq/flux-api/internal/repository"
	"github.com/fluxhq/flux-api/internal/services"
)

type authTestEnv struct {
	db      *gorm.DB
	handler *AuthHandler
}

func setupAuthTestEnv(t *testing.T) authTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.MigrateOn(db))
	database.SetDB(db)

	userRepo := repository.NewUserRepository(db)
	authService := services.NewAuthService(userRepo, "")
	issuer := auth.NewTokenIssuer("test-secret")
	handler := NewAuthHandler(authService, nil, issuer, "http://localhost:3000", logger.NewNop())

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	gin.SetMode(gin.TestMode)

	return authTestEnv{db: db, handler: handler}
}

func TestMe_Success(t *testing.T) {
	env := setupAuthTestEnv(t)
	email := "ada@example.com"
	user := &models.User{Name: "Ada", Handle: "ada", Email: &email}
	require.NoError(t, env.db.Create(user).Error)

	c, w := authContext("GET", "/me", nil, user.ID)

	env.handler.Me(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "ada", response["handle"])
	assert.Equal(t, email, response["email"])
}

func TestMe_IncludesMemberships(t *testing.T) {
	env := setupAuthTestEnv(t)
	email := "ada@example.com"
	user := &models.User{Name: "Ada", Handle: "ada", Email: &email}
	require.NoError(t, env.db.Create(user).Error)

	org := &models.Organization{Name: "Acme", CreatedBy: user.ID}
	require.NoError(t, env.db.Create(org).Error)
	require.NoError(t, env.db.Create(&models.OrgMembership{
		OrgID: org.ID, UserID: user.ID, Role: models.OrgRoleAdmin,
	}).Error)
	team := &models.Team{OrgID: org.ID, Name: "Platform", CreatedBy: user.ID}
	require.NoError(t, env.db.Create(team).Error)
	require.NoError(t, env.db.Create(&models.TeamMembership{
		TeamID: team.ID, UserID: user.ID, Role: models.TeamRoleLeader,
	}).Error)

	c, w := authContext("GET", "/me", nil, user.ID)

	env.handler.Me(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Memberships []struct {
			Role string `json:"role"`
			Org  struct {
				Name string `json:"name"`
			} `json:"org"`
		} `json:"memberships"`
		TeamMemberships []struct {
			Role string `json:"role"`
			Team struct {
				Name string `json:"name"`
			} `json:"team"`
		} `json:"team_memberships"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Memberships, 1)
	assert.Equal(t, "ADMIN", response.Memberships[0].Role)
	assert.Equal(t, "Acme", response.Memberships[0].Org.Name)
	require.Len(t, response.TeamMemberships, 1)
	assert.Equal(t, "LEADER", response.TeamMemberships[0].Role)
	assert.Equal(t, "Platform", response.TeamMemberships[0].Team.Name)
}

func TestMe_DeletedAccountClearsSession(t *testing.T) {
	env := setupAuthTestEnv(t)

	c, w := authContext("GET", "/me", nil, "no-such-user")

	env.handler.Me(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	// an expired cookie is sent so the client drops the stale token
	assert.Contains(t, w.Header().Get("Set-Cookie"), "token=")
}

func TestDeleteMe_AdminRejected(t *testing.T) {
	env := setupAuthTestEnv(t)
	email := "ada@example.com"
	user := &models.User{Name: "Ada", Handle: "ada", Email: &email}
	require.NoError(t, env.db.Create(user).Error)

	org := &models.Organization{Name: "Acme", CreatedBy: user.ID}
	require.NoError(t, env.db.Create(org).Error)
	require.NoError(t, env.db.Create(&models.OrgMembership{
		OrgID: org.ID, UserID: user.ID, Role: models.OrgRoleAdmin,
	}).Error)

	c, w := authContext("DELETE", "/me", nil, user.ID)

	env.handler.DeleteMe(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "cannot_delete_admin", response["error"])
}

func TestDeleteMe_RemovesUserData(t *testing.T) {
	env := setupAuthTestEnv(t)
	email := "bob@example.com"
	user := &models.User{Name: "Bob", Handle: "bob", Email: &email}
	require.NoError(t, env.db.Create(user).Error)
	require.NoError(t, env.db.Create(&models.Identity{
		Provider: "google", ProviderID: "g-123", UserID: user.ID,
	}).Error)

	c, w := authContext("DELETE", "/me", nil, user.ID)

	env.handler.DeleteMe(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, w.Code)

	var count int64
	require.NoError(t, env.db.Model(&models.User{}).Where("id = ?", user.ID).Count(&count).Error)
	assert.EqualValues(t, 0, count)
	require.NoError(t, env.db.Model(&models.Identity{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}
