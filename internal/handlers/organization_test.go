package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fluxhq/flux-api/internal/constants"
	"github.com/fluxhq/flux-api/internal/database"
	"github.com/fluxhq/flux-api/internal/logger"
	"github.com/fluxhq/flux-api/internal/models"
	"github.com/fluxhq/flux-api/internal/permissions"
	"github.com/fluxhq/flux-api/internal/repository"
	"github.com/fluxhq/flux-api/internal/services"
)

type organizationTestEnv struct {
	db         *gorm.DB
	handler    *OrganizationHandler
	orgService *services.OrganizationService
}

func setupOrganizationTestEnv(t *testing.T) organizationTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.MigrateOn(db))
	database.SetDB(db)

	orgRepo := repository.NewOrganizationRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	perms := permissions.NewEvaluator(db)
	orgService := services.NewOrganizationService(orgRepo, teamRepo, perms)
	handler := NewOrganizationHandler(orgService, logger.NewNop())

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	gin.SetMode(gin.TestMode)

	return organizationTestEnv{db: db, handler: handler, orgService: orgService}
}

func (env organizationTestEnv) createUser(t *testing.T, name, handle string) *models.User {
	t.Helper()
	email := handle + "@example.com"
	user := &models.User{Name: name, Handle: handle, Email: &email}
	require.NoError(t, env.db.Create(user).Error)
	return user
}

func authContext(method, url string, body []byte, userID string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, url, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	if userID != "" {
		c.Set(constants.ContextKeyUserID, userID)
	}
	return c, w
}

func TestCreateOrganization_Success(t *testing.T) {
	env := setupOrganizationTestEnv(t)
	user := env.createUser(t, "Ada", "ada")

	body, _ := json.Marshal(map[string]string{"name": "Acme"})
	c, w := authContext("POST", "/orgs", body, user.ID)

	env.handler.CreateOrganization(c)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Acme", response["name"])

	var member models.OrgMembership
	require.NoError(t, env.db.Where("user_id = ?", user.ID).First(&member).Error)
	assert.Equal(t, models.OrgRoleAdmin, member.Role)
}

func TestCreateOrganization_EmptyName(t *testing.T) {
	env := setupOrganizationTestEnv(t)
	user := env.createUser(t, "Ada", "ada")

	body, _ := json.Marshal(map[string]string{"name": "   "})
	c, w := authContext("POST", "/orgs", body, user.ID)

	env.handler.CreateOrganization(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "invalid_name", response["error"])
}

func TestGetOrganization_NotFound(t *testing.T) {
	env := setupOrganizationTestEnv(t)
	user := env.createUser(t, "Ada", "ada")

	c, w := authContext("GET", "/orgs/missing", nil, user.ID)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	env.handler.GetOrganization(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateOrganization_MemberForbidden(t *testing.T) {
	env := setupOrganizationTestEnv(t)
	admin := env.createUser(t, "Ada", "ada")
	member := env.createUser(t, "Bob", "bob")

	org, err := env.orgService.CreateOrganization("Acme", admin.ID)
	require.NoError(t, err)
	require.NoError(t, env.db.Create(&models.OrgMembership{
		OrgID: org.ID, UserID: member.ID, Role: models.OrgRoleMember,
	}).Error)

	body, _ := json.Marshal(map[string]string{"name": "Evil Corp"})
	c, w := authContext("PATCH", "/orgs/"+org.ID, body, member.ID)
	c.Params = gin.Params{{Key: "id", Value: org.ID}}

	env.handler.UpdateOrganization(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRedeemJoinCode_InvalidCode(t *testing.T) {
	env := setupOrganizationTestEnv(t)
	user := env.createUser(t, "Ada", "ada")

	body, _ := json.Marshal(map[string]string{"code": "does-not-exist"})
	c, w := authContext("POST", "/orgs/join", body, user.ID)

	env.handler.RedeemJoinCode(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "invalid", response["error"])
}

func TestListJoinCodes_EmptyWithoutCode(t *testing.T) {
	env := setupOrganizationTestEnv(t)
	admin := env.createUser(t, "Ada", "ada")

	org, err := env.orgService.CreateOrganization("Acme", admin.ID)
	require.NoError(t, err)

	c, w := authContext("GET", "/orgs/"+org.ID+"/join-codes", nil, admin.ID)
	c.Params = gin.Params{{Key: "id", Value: org.ID}}

	env.handler.ListJoinCodes(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestRemoveMember_AdminTarget(t *testing.T) {
	env := setupOrganizationTestEnv(t)
	admin := env.createUser(t, "Ada", "ada")
	second := env.createUser(t, "Bob", "bob")

	org, err := env.orgService.CreateOrganization("Acme", admin.ID)
	require.NoError(t, err)
	require.NoError(t, env.db.Create(&models.OrgMembership{
		OrgID: org.ID, UserID: second.ID, Role: models.OrgRoleAdmin,
	}).Error)

	c, w := authContext("DELETE", "/orgs/"+org.ID+"/members/"+second.ID, nil, admin.ID)
	c.Params = gin.Params{{Key: "id", Value: org.ID}, {Key: "userId", Value: second.ID}}

	env.handler.RemoveMember(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "cannot_remove_admin", response["error"])
}
