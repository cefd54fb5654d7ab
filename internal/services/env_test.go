package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fluxhq/flux-api/internal/database"
	"github.com/fluxhq/flux-api/internal/models"
	"github.com/fluxhq/flux-api/internal/permissions"
	"github.com/fluxhq/flux-api/internal/repository"
)

type serviceTestEnv struct {
	db          *gorm.DB
	authService *AuthService
	orgService  *OrganizationService
	teamService *TeamService
	taskService *TaskService
}

func setupServiceTestEnv(t *testing.T) *serviceTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.MigrateOn(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	perms := permissions.NewEvaluator(db)

	return &serviceTestEnv{
		db:          db,
		authService: NewAuthService(userRepo, ""),
		orgService:  NewOrganizationService(orgRepo, teamRepo, perms),
		teamService: NewTeamService(teamRepo, orgRepo, userRepo, perms),
		taskService: NewTaskService(taskRepo, teamRepo, userRepo, perms),
	}
}

func (env *serviceTestEnv) createUser(t *testing.T, name, handle string) *models.User {
	t.Helper()
	email := handle + "@example.com"
	user := &models.User{Name: name, Handle: handle, Email: &email}
	require.NoError(t, env.db.Create(user).Error)
	return user
}

func (env *serviceTestEnv) createOrg(t *testing.T, name, adminID string) *models.Organization {
	t.Helper()
	org, err := env.orgService.CreateOrganization(name, adminID)
	require.NoError(t, err)
	return org
}

func (env *serviceTestEnv) addOrgMember(t *testing.T, orgID, userID string, role models.OrgRole) {
	t.Helper()
	member := &models.OrgMembership{OrgID: orgID, UserID: userID, Role: role}
	require.NoError(t, env.db.Create(member).Error)
}

func (env *serviceTestEnv) createTeam(t *testing.T, orgID, leaderID, name string) *models.Team {
	t.Helper()
	team, err := env.teamService.CreateTeam(orgID, leaderID, name)
	require.NoError(t, err)
	return team
}

func (env *serviceTestEnv) addTeamMember(t *testing.T, teamID, userID string, role models.TeamRole) {
	t.Helper()
	member := &models.TeamMembership{TeamID: teamID, UserID: userID, Role: role}
	require.NoError(t, env.db.Create(member).Error)
}

func (env *serviceTestEnv) count(t *testing.T, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, env.db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}
