package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxhq/flux-api/internal/models"
)

func TestCreateTeam_FounderBecomesLeader(t *testing.T) {
	env := setupServiceTestEnv(t)
	admin := env.createUser(t, "Ada", "ada")
	org := env.createOrg(t, "Acme", admin.ID)

	team := env.createTeam(t, org.ID, admin.ID, "Platform")

	members, err := env.teamService.ListMembers(team.ID, admin.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, models.TeamRoleLeader, members[0].Role)
	assert.Equal(t, admin.ID, members[0].UserID)
}

func TestCreateTeam_OutsiderForbidden(t *testing.T) {
	env := setupServiceTestEnv(t)
	admin := env.createUser(t, "Ada", "ada")
	outsider := env.createUser(t, "Eve", "eve")
	org := env.createOrg(t, "Acme", admin.ID)

	_, err := env.teamService.CreateTeam(org.ID, outsider.ID, "Platform")
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestCreateTeam_MemberForbidden(t *testing.T) {
	env := setupServiceTestEnv(t)
	admin := env.createUser(t, "Ada", "ada")
	member := env.createUser(t, "Bob", "bob")
	org := env.createOrg(t, "Acme", admin.ID)
	env.addOrgMember(t, org.ID, member.ID, models.OrgRoleMember)

	_, err := env.teamService.CreateTeam(org.ID, member.ID, "Platform")
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestAddMember_AutoJoinsOrg(t *testing.T) {
	env := setupServiceTestEnv(t)
	admin := env.createUser(t, "Ada", "ada")
	newcomer := env.createUser(t, "Bob", "bob")
	org := env.createOrg(t, "Acme", admin.ID)
	team := env.createTeam(t, org.ID, admin.ID, "Platform")

	member, err := env.teamService.AddMember(team.ID, admin.ID, newcomer.ID, models.TeamRoleMember)
	require.NoError(t, err)
	assert.Equal(t, models.TeamRoleMember, member.Role)

	var orgMember models.OrgMembership
	require.NoError(t, env.db.Where("org_id = ? AND user_id = ?", org.ID, newcomer.ID).First(&orgMember).Error)
	assert.Equal(t, models.OrgRoleMember, orgMember.Role)
}

func TestAddMember_IdempotentAndKeepsOrgRole(t *testing.T) {
	env := setupServiceTestEnv(t)
	admin := env.createUser(t, "Ada", "ada")
	org := env.createOrg(t, "Acme", admin.ID)
	team := env.createTeam(t, org.ID, admin.ID, "Platform")

	// The admin is already an org ADMIN; adding them to the team must
	// not demote the org membership.
	_, err := env.teamService.AddMember(team.ID, admin.ID, admin.ID, models.TeamRoleMember)
	require.NoError(t, err)
	_, err = env.teamService.AddMember(team.ID, admin.ID, admin.ID, models.TeamRoleMember)
	require.NoError(t, err)

	assert.EqualValues(t, 1, env.count(t, &models.TeamMembership{}, "team_id = ? AND user_id = ?", team.ID, admin.ID))

	var orgMember models.OrgMembership
	require.NoError(t, env.db.Where("org_id = ? AND user_id = ?", org.ID, admin.ID).First(&orgMember).Error)
	assert.Equal(t, models.OrgRoleAdmin, orgMember.Role)
}

func TestAddMember_UpdatesRoleOnReAdd(t *testing.T) {
	env := setupServiceTestEnv(t)
	admin := env.createUser(t, "Ada", "ada")
	other := env.createUser(t, "Bob", "bob")
	org := env.createOrg(t, "Acme", admin.ID)
	team := env.createTeam(t, org.ID, admin.ID, "Platform")

	_, err := env.teamService.AddMember(team.ID, admin.ID, other.ID, models.TeamRoleMember)
	require.NoError(t, err)
	member, err := env.teamService.AddMember(team.ID, admin.ID, other.ID, models.TeamRoleLeader)
	require.NoError(t, err)
	assert.Equal(t, models.TeamRoleLeader, member.Role)

	var row models.TeamMembership
	require.NoError(t, env.db.Where("team_id = ? AND user_id = ?", team.ID, other.ID).First(&row).Error)
	assert.Equal(t, models.TeamRoleLeader, row.Role)
}

func TestAddMember_InvalidRole(t *testing.T) {
	env := setupServiceTestEnv(t)
	admin := env.createUser(t, "Ada", "ada")
	other := env.createUser(t, "Bob", "bob")
	org := env.createOrg(t, "Acme", admin.ID)
	team := env.createTeam(t, org.ID, admin.ID, "Platform")

	_, err := env.teamService.AddMember(team.ID, admin.ID, other.ID, models.TeamRole("OWNER"))
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestAddMember_MemberForbidden(t *testing.T) {
	env := setupServiceTestEnv(t)
	admin := env.createUser(t, "Ada", "ada")
	member := env.createUser(t, "Bob", "bob")
	other := env.createUser(t, "Eve", "eve")
	org := env.createOrg(t, "Acme", admin.ID)
	team := env.createTeam(t, org.ID, admin.ID, "Platform")
	env.addOrgMember(t, org.ID, member.ID, models.OrgRoleMember)
	env.addTeamMember(t, team.ID, member.ID, models.TeamRoleMember)

	_, err := env.teamService.AddMember(team.ID, member.ID, other.ID, models.TeamRoleMember)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestAddMember_LeaderForbidden(t *testing.T) {
	env := setupServiceTestEnv(t)
	admin := env.createUser(t, "Ada", "ada")
	leader := env.createUser(t, "Bob", "bob")
	outsider := env.createUser(t, "Eve", "eve")
	org := env.createOrg(t, "Acme", admin.ID)
	team := env.createTeam(t, org.ID, admin.ID, "Platform")
	env.addOrgMember(t, org.ID, leader.ID, models.OrgRoleMember)
	env.addTeamMember(t, team.ID, leader.ID, models.TeamRoleLeader)

	_, err := env.teamService.AddMember(team.ID, leader.ID, outsider.ID, models.TeamRoleLeader)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	// the outsider must not have been pulled into the org either
	assert.EqualValues(t, 0, env.count(t, &models.OrgMembership{}, "org_id = ? AND user_id = ?", org.ID, outsider.ID))
	assert.EqualValues(t, 0, env.count(t, &models.TeamMembership{}, "team_id = ? AND user_id = ?", team.ID, outsider.ID))
}

func TestRemoveMember_MissingMembershipIgnored(t *testing.T) {
	env := setupServiceTestEnv(t)
	admin := env.createUser(t, "Ada", "ada")
	stranger := env.createUser(t, "Bob", "bob")
	org := env.createOrg(t, "Acme", admin.ID)
	team := env.createTeam(t, org.ID, admin.ID, "Platform")

	assert.NoError(t, env.teamService.RemoveMember(team.ID, admin.ID, stranger.ID))
}

func TestPermissions_RolePrecedence(t *testing.T) {
	env := setupServiceTestEnv(t)
	admin := env.createUser(t, "Ada", "ada")
	leader := env.createUser(t, "Bob", "bob")
	member := env.createUser(t, "Eve", "eve")
	org := env.createOrg(t, "Acme", admin.ID)
	team := env.createTeam(t, org.ID, admin.ID, "Platform")
	env.addOrgMember(t, org.ID, leader.ID, models.OrgRoleMember)
	env.addOrgMember(t, org.ID, member.ID, models.OrgRoleMember)
	env.addTeamMember(t, team.ID, leader.ID, models.TeamRoleLeader)
	env.addTeamMember(t, team.ID, member.ID, models.TeamRoleMember)

	perms, err := env.teamService.Permissions(team.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "ADMIN", perms.Role)
	assert.True(t, perms.CanWriteAll)

	perms, err = env.teamService.Permissions(team.ID, leader.ID)
	require.NoError(t, err)
	assert.Equal(t, "LEADER", perms.Role)
	assert.True(t, perms.CanAssign)

	perms, err = env.teamService.Permissions(team.ID, member.ID)
	require.NoError(t, err)
	assert.Equal(t, "MEMBER", perms.Role)
	assert.False(t, perms.CanCreateTasks)
	assert.False(t, perms.CanWriteAll)
}

func TestCreateLink_RequiresLabelAndURL(t *testing.T) {
	env := setupServiceTestEnv(t)
	admin := env.createUser(t, "Ada", "ada")
	org := env.createOrg(t, "Acme", admin.ID)
	team := env.createTeam(t, org.ID, admin.ID, "Platform")

	_, err := env.teamService.CreateLink(team.ID, admin.ID, "Docs", "")
	assert.ErrorIs(t, err, ErrLabelAndURLRequired)
	_, err = env.teamService.CreateLink(team.ID, admin.ID, "", "https://docs.example.com")
	assert.ErrorIs(t, err, ErrLabelAndURLRequired)
}

func TestCreateLink_OrdinalsAppend(t *testing.T) {
	env := setupServiceTestEnv(t)
	admin := env.createUser(t, "Ada", "ada")
	org := env.createOrg(t, "Acme", admin.ID)
	team := env.createTeam(t, org.ID, admin.ID, "Platform")

	first, err := env.teamService.CreateLink(team.ID, admin.ID, "Docs", "https://docs.example.com")
	require.NoError(t, err)
	second, err := env.teamService.CreateLink(team.ID, admin.ID, "Wiki", "https://wiki.example.com")
	require.NoError(t, err)
	assert.Less(t, first.Ordinal, second.Ordinal)
}

func TestCalendar_TaskEntriesSnapToFullDay(t *testing.T) {
	env := setupServiceTestEnv(t)
	admin := env.createUser(t, "Ada", "ada")
	org := env.createOrg(t, "Acme", admin.ID)
	team := env.createTeam(t, org.ID, admin.ID, "Platform")

	start := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	event, err := env.teamService.CreateEvent(team.ID, admin.ID, CreateEventInput{
		Title:   "Release",
		StartAt: start,
		Type:    models.CalendarEventTypeTask,
	})
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), event.StartAt)
	assert.Equal(t, 24*time.Hour, event.EndAt.Sub(event.StartAt))
}

func TestCalendar_EventDuration(t *testing.T) {
	env := setupServiceTestEnv(t)
	admin := env.createUser(t, "Ada", "ada")
	org := env.createOrg(t, "Acme", admin.ID)
	team := env.createTeam(t, org.ID, admin.ID, "Platform")

	start := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	event, err := env.teamService.CreateEvent(team.ID, admin.ID, CreateEventInput{
		Title:           "Standup",
		StartAt:         start,
		Type:            models.CalendarEventTypeEvent,
		DurationMinutes: 15,
	})
	require.NoError(t, err)
	assert.Equal(t, start.Add(15*time.Minute), event.EndAt)

	// default duration when none is given
	event, err = env.teamService.CreateEvent(team.ID, admin.ID, CreateEventInput{
		Title:   "Planning",
		StartAt: start,
		Type:    models.CalendarEventTypeEvent,
	})
	require.NoError(t, err)
	assert.Equal(t, start.Add(time.Hour), event.EndAt)
}

func TestCalendar_EventExplicitEnd(t *testing.T) {
	env := setupServiceTestEnv(t)
	admin := env.createUser(t, "Ada", "ada")
	org := env.createOrg(t, "Acme", admin.ID)
	team := env.createTeam(t, org.ID, admin.ID, "Platform")

	start := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)
	event, err := env.teamService.CreateEvent(team.ID, admin.ID, CreateEventInput{
		Title:   "Review",
		StartAt: start,
		EndAt:   &end,
		Type:    models.CalendarEventTypeEvent,
	})
	require.NoError(t, err)
	assert.Equal(t, end, event.EndAt)

	// an explicit end wins over a duration on updates too
	newEnd := start.Add(2 * time.Hour)
	minutes := 15
	updated, err := env.teamService.UpdateEvent(team.ID, admin.ID, event.ID, UpdateEventInput{
		EndAt:           &newEnd,
		DurationMinutes: &minutes,
	})
	require.NoError(t, err)
	assert.Equal(t, newEnd, updated.EndAt)

	before := start.Add(-time.Hour)
	_, err = env.teamService.CreateEvent(team.ID, admin.ID, CreateEventInput{
		Title:   "Backwards",
		StartAt: start,
		EndAt:   &before,
		Type:    models.CalendarEventTypeEvent,
	})
	assert.ErrorIs(t, err, ErrInvalidEventInterval)
}

func TestCalendar_MemberCannotMutate(t *testing.T) {
	env := setupServiceTestEnv(t)
	admin := env.createUser(t, "Ada", "ada")
	member := env.createUser(t, "Bob", "bob")
	org := env.createOrg(t, "Acme", admin.ID)
	team := env.createTeam(t, org.ID, admin.ID, "Platform")
	env.addOrgMember(t, org.ID, member.ID, models.OrgRoleMember)
	env.addTeamMember(t, team.ID, member.ID, models.TeamRoleMember)

	_, err := env.teamService.CreateEvent(team.ID, member.ID, CreateEventInput{
		Title:   "Standup",
		StartAt: time.Now(),
		Type:    models.CalendarEventTypeEvent,
	})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	// members can still read the calendar
	_, err = env.teamService.ListEvents(team.ID, member.ID)
	assert.NoError(t, err)
}

func TestDeleteTeam_LeaderForbidden(t *testing.T) {
	env := setupServiceTestEnv(t)
	admin := env.createUser(t, "Ada", "ada")
	leader := env.createUser(t, "Bob", "bob")
	org := env.createOrg(t, "Acme", admin.ID)
	team := env.createTeam(t, org.ID, admin.ID, "Platform")
	env.addOrgMember(t, org.ID, leader.ID, models.OrgRoleMember)
	env.addTeamMember(t, team.ID, leader.ID, models.TeamRoleLeader)

	err := env.teamService.DeleteTeam(team.ID, leader.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.EqualValues(t, 1, env.count(t, &models.Team{}, "id = ?", team.ID))
}

func TestDeleteTeam_CascadesDependents(t *testing.T) {
	env := setupServiceTestEnv(t)
	admin := env.createUser(t, "Ada", "ada")
	org := env.createOrg(t, "Acme", admin.ID)
	team := env.createTeam(t, org.ID, admin.ID, "Platform")

	task, err := env.taskService.CreateTask(team.ID, admin.ID, CreateTaskInput{Title: "Ship it"})
	require.NoError(t, err)
	_, err = env.taskService.AddNote(task.ID, admin.ID, "cc @ada")
	require.NoError(t, err)
	_, err = env.taskService.AddAssignee(task.ID, admin.ID, admin.ID)
	require.NoError(t, err)
	_, err = env.teamService.CreateLink(team.ID, admin.ID, "Docs", "https://docs.example.com")
	require.NoError(t, err)
	_, err = env.teamService.CreateEvent(team.ID, admin.ID, CreateEventInput{
		Title:   "Kickoff",
		StartAt: time.Now(),
		Type:    models.CalendarEventTypeEvent,
	})
	require.NoError(t, err)

	status := models.TaskStatusDone
	_, err = env.taskService.UpdateTask(task.ID, admin.ID, UpdateTaskInput{Status: &status})
	require.NoError(t, err)

	require.NoError(t, env.teamService.DeleteTeam(team.ID, admin.ID))

	assert.EqualValues(t, 0, env.count(t, &models.Team{}, "id = ?", team.ID))
	assert.EqualValues(t, 0, env.count(t, &models.Task{}, "team_id = ?", team.ID))
	assert.EqualValues(t, 0, env.count(t, &models.TaskNote{}, "task_id = ?", task.ID))
	assert.EqualValues(t, 0, env.count(t, &models.TaskNoteMention{}, "1 = 1"))
	assert.EqualValues(t, 0, env.count(t, &models.TaskAssignment{}, "task_id = ?", task.ID))
	assert.EqualValues(t, 0, env.count(t, &models.TaskStatusLog{}, "team_id = ?", team.ID))
	assert.EqualValues(t, 0, env.count(t, &models.CalendarEvent{}, "team_id = ?", team.ID))
	assert.EqualValues(t, 0, env.count(t, &models.TeamLink{}, "team_id = ?", team.ID))
	assert.EqualValues(t, 0, env.count(t, &models.TeamMembership{}, "team_id = ?", team.ID))

	// the org and its memberships are untouched
	assert.EqualValues(t, 1, env.count(t, &models.Organization{}, "id = ?", org.ID))
	assert.EqualValues(t, 1, env.count(t, &models.OrgMembership{}, "org_id = ?", org.ID))
}
