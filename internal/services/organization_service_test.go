package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxhq/flux-api/internal/models"
)

func TestCreateOrganization_FounderBecomesAdmin(t *testing.T) {
	env := setupServiceTestEnv(t)
	admin := env.createUser(t, "Ada", "ada")

	org := env.createOrg(t, "Acme", admin.ID)

	summary, err := env.orgService.GetOrganization(org.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrgRoleAdmin, summary.Role)
	assert.EqualValues(t, 1, summary.MemberCount)
}

func TestCreateOrganization_EmptyName(t *testing.T) {
	env := setupServiceTestEnv(t)
	admin := env.createUser(t, "Ada", "ada")

	_, err := env.orgService.CreateOrganization("   ", admin.ID)
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestGetOrganization_NotFoundBeforeForbidden(t *testing.T) {
	env := setupServiceTestEnv(t)
	user := env.createUser(t, "Ada", "ada")

	_, err := env.orgService.GetOrganization("missing-org", user.ID)
	assert.ErrorIs(t, err, ErrOrgNotFound)
}

func TestGetOrganization_NonMemberForbidden(t *testing.T) {
	env := setupServiceTestEnv(t)
	admin := env.createUser(t, "Ada", "ada")
	outsider := env.createUser(t, "Eve", "eve")
	org := env.createOrg(t, "Acme", admin.ID)

	_, err := env.orgService.GetOrganization(org.ID, outsider.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestGetOrganizationDetails_AdminOnly(t *testing.T) {
	env := setupServiceTestEnv(t)
	admin := env.createUser(t, "Ada", "ada")
	member := env.createUser(t, "Bob", "bob")
	org := env.createOrg(t, "Acme", admin.ID)
	env.addOrgMember(t, org.ID, member.ID, models.OrgRoleMember)
	env.createTeam(t, org.ID, admin.ID, "Platform")

	details, err := env.orgService.GetOrganizationDetails(org.ID, admin.ID)
	require.NoError(t, err)
	assert.Len(t, details.Members, 2)
	assert.Len(t, details.Teams, 1)

	_, err = env.orgService.GetOrganizationDetails(org.ID, member.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestListMembers_AdminOnly(t *testing.T) {
	env := setupServiceTestEnv(t)
	admin := env.createUser(t, "Ada", "ada")
	member := env.createUser(t, "Bob", "bob")
	org := env.createOrg(t, "Acme", admin.ID)
	env.addOrgMember(t, org.ID, member.ID, models.OrgRoleMember)

	_, err := env.orgService.ListMembers(org.ID, member.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestUpdateMemberRole_LastAdminCannotBeDemoted(t *testing.T) {
	env := setupServiceTestEnv(t)
	admin := env.createUser(t, "Ada", "ada")
	org := env.createOrg(t, "Acme", admin.ID)

	_, err := env.orgService.UpdateMemberRole(org.ID, admin.ID, admin.ID, models.OrgRoleMember)
	assert.ErrorIs(t, err, ErrCannotRemoveAdmin)

	member, err := env.orgService.GetOrganization(org.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrgRoleAdmin, member.Role)
}

func TestUpdateMemberRole_DemotionAllowedWithSecondAdmin(t *testing.T) {
	env := setupServiceTestEnv(t)
	admin := env.createUser(t, "Ada", "ada")
	second := env.createUser(t, "Bob", "bob")
	org := env.createOrg(t, "Acme", admin.ID)
	env.addOrgMember(t, org.ID, second.ID, models.OrgRoleAdmin)

	updated, err := env.orgService.UpdateMemberRole(org.ID, admin.ID, second.ID, models.OrgRoleMember)
	require.NoError(t, err)
	assert.Equal(t, models.OrgRoleMember, updated.Role)
}

func TestUpdateMemberRole_InvalidRole(t *testing.T) {
	env := setupServiceTestEnv(t)
	admin := env.createUser(t, "Ada", "ada")
	member := env.createUser(t, "Bob", "bob")
	org := env.createOrg(t, "Acme", admin.ID)
	env.addOrgMember(t, org.ID, member.ID, models.OrgRoleMember)

	_, err := env.orgService.UpdateMemberRole(org.ID, admin.ID, member.ID, models.OrgRole("OWNER"))
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestRemoveMember_AdminTargetRejected(t *testing.T) {
	env := setupServiceTestEnv(t)
	admin := env.createUser(t, "Ada", "ada")
	second := env.createUser(t, "Bob", "bob")
	org := env.createOrg(t, "Acme", admin.ID)
	env.addOrgMember(t, org.ID, second.ID, models.OrgRoleAdmin)

	err := env.orgService.RemoveMember(org.ID, admin.ID, second.ID)
	assert.ErrorIs(t, err, ErrCannotRemoveAdmin)
}

func TestRemoveMember_CleansTeamState(t *testing.T) {
	env := setupServiceTestEnv(t)
	admin := env.createUser(t, "Ada", "ada")
	member := env.createUser(t, "Bob", "bob")
	org := env.createOrg(t, "Acme", admin.ID)
	env.addOrgMember(t, org.ID, member.ID, models.OrgRoleMember)
	team := env.createTeam(t, org.ID, admin.ID, "Platform")
	env.addTeamMember(t, team.ID, member.ID, models.TeamRoleMember)

	task, err := env.taskService.CreateTask(team.ID, admin.ID, CreateTaskInput{Title: "Ship it"})
	require.NoError(t, err)
	_, err = env.taskService.AddAssignee(task.ID, admin.ID, member.ID)
	require.NoError(t, err)

	require.NoError(t, env.orgService.RemoveMember(org.ID, admin.ID, member.ID))

	assert.EqualValues(t, 0, env.count(t, &models.OrgMembership{}, "org_id = ? AND user_id = ?", org.ID, member.ID))
	assert.EqualValues(t, 0, env.count(t, &models.TeamMembership{}, "team_id = ? AND user_id = ?", team.ID, member.ID))
	assert.EqualValues(t, 0, env.count(t, &models.TaskAssignment{}, "task_id = ? AND user_id = ?", task.ID, member.ID))
}

func TestLeave_AdminRejected(t *testing.T) {
	env := setupServiceTestEnv(t)
	admin := env.createUser(t, "Ada", "ada")
	org := env.createOrg(t, "Acme", admin.ID)

	err := env.orgService.Leave(org.ID, admin.ID)
	assert.ErrorIs(t, err, ErrCannotLeaveAdmin)
}

func TestLeave_MemberRemoved(t *testing.T) {
	env := setupServiceTestEnv(t)
	admin := env.createUser(t, "Ada", "ada")
	member := env.createUser(t, "Bob", "bob")
	org := env.createOrg(t, "Acme", admin.ID)
	env.addOrgMember(t, org.ID, member.ID, models.OrgRoleMember)

	require.NoError(t, env.orgService.Leave(org.ID, member.ID))
	assert.EqualValues(t, 0, env.count(t, &models.OrgMembership{}, "org_id = ? AND user_id = ?", org.ID, member.ID))
}

func TestJoinCode_RotateReplacesOldCode(t *testing.T) {
	env := setupServiceTestEnv(t)
	admin := env.createUser(t, "Ada", "ada")
	org := env.createOrg(t, "Acme", admin.ID)

	first, err := env.orgService.RotateJoinCode(org.ID, admin.ID, nil, nil)
	require.NoError(t, err)
	second, err := env.orgService.RotateJoinCode(org.ID, admin.ID, nil, nil)
	require.NoError(t, err)
	assert.NotEqual(t, first.Code, second.Code)

	_, err = env.orgService.RedeemJoinCode(first.Code, env.createUser(t, "Eve", "eve").ID)
	assert.ErrorIs(t, err, ErrJoinCodeInvalid)

	assert.EqualValues(t, 1, env.count(t, &models.OrgJoinCode{}, "org_id = ?", org.ID))
}

func TestJoinCode_RedeemAddsMemberAndCountsUse(t *testing.T) {
	env := setupServiceTestEnv(t)
	admin := env.createUser(t, "Ada", "ada")
	joiner := env.createUser(t, "Bob", "bob")
	org := env.createOrg(t, "Acme", admin.ID)

	code, err := env.orgService.RotateJoinCode(org.ID, admin.ID, nil, nil)
	require.NoError(t, err)

	joined, err := env.orgService.RedeemJoinCode(code.Code, joiner.ID)
	require.NoError(t, err)
	assert.Equal(t, org.ID, joined.ID)

	summary, err := env.orgService.GetOrganization(org.ID, joiner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrgRoleMember, summary.Role)

	current, err := env.orgService.GetJoinCode(org.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, current.Uses)
}

func TestJoinCode_MaxUsesExhausted(t *testing.T) {
	env := setupServiceTestEnv(t)
	admin := env.createUser(t, "Ada", "ada")
	first := env.createUser(t, "Bob", "bob")
	second := env.createUser(t, "Eve", "eve")
	org := env.createOrg(t, "Acme", admin.ID)

	maxUses := 1
	code, err := env.orgService.RotateJoinCode(org.ID, admin.ID, nil, &maxUses)
	require.NoError(t, err)

	_, err = env.orgService.RedeemJoinCode(code.Code, first.ID)
	require.NoError(t, err)

	_, err = env.orgService.RedeemJoinCode(code.Code, second.ID)
	assert.ErrorIs(t, err, ErrJoinCodeExhausted)
}

func TestJoinCode_Expired(t *testing.T) {
	env := setupServiceTestEnv(t)
	admin := env.createUser(t, "Ada", "ada")
	joiner := env.createUser(t, "Bob", "bob")
	org := env.createOrg(t, "Acme", admin.ID)

	expired := time.Now().Add(-time.Hour)
	code, err := env.orgService.RotateJoinCode(org.ID, admin.ID, &expired, nil)
	require.NoError(t, err)

	_, err = env.orgService.RedeemJoinCode(code.Code, joiner.ID)
	assert.ErrorIs(t, err, ErrJoinCodeExpired)
}

func TestJoinCode_RotateRequiresAdmin(t *testing.T) {
	env := setupServiceTestEnv(t)
	admin := env.createUser(t, "Ada", "ada")
	member := env.createUser(t, "Bob", "bob")
	org := env.createOrg(t, "Acme", admin.ID)
	env.addOrgMember(t, org.ID, member.ID, models.OrgRoleMember)

	_, err := env.orgService.RotateJoinCode(org.ID, member.ID, nil, nil)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestDeleteOrganization_CascadesEverything(t *testing.T) {
	env := setupServiceTestEnv(t)
	admin := env.createUser(t, "Ada", "ada")
	org := env.createOrg(t, "Acme", admin.ID)
	team := env.createTeam(t, org.ID, admin.ID, "Platform")

	task, err := env.taskService.CreateTask(team.ID, admin.ID, CreateTaskInput{Title: "Ship it"})
	require.NoError(t, err)
	_, err = env.taskService.AddNote(task.ID, admin.ID, "note for @ada")
	require.NoError(t, err)
	_, err = env.orgService.RotateJoinCode(org.ID, admin.ID, nil, nil)
	require.NoError(t, err)

	require.NoError(t, env.orgService.DeleteOrganization(org.ID, admin.ID))

	assert.EqualValues(t, 0, env.count(t, &models.Organization{}, "id = ?", org.ID))
	assert.EqualValues(t, 0, env.count(t, &models.Team{}, "org_id = ?", org.ID))
	assert.EqualValues(t, 0, env.count(t, &models.Task{}, "team_id = ?", team.ID))
	assert.EqualValues(t, 0, env.count(t, &models.TaskNote{}, "task_id = ?", task.ID))
	assert.EqualValues(t, 0, env.count(t, &models.OrgJoinCode{}, "org_id = ?", org.ID))
	assert.EqualValues(t, 0, env.count(t, &models.OrgMembership{}, "org_id = ?", org.ID))
}
