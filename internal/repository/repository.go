package repository

import (
	"time"

	"github.com/fluxhq/flux-api/internal/models"
)

// UserRepository defines the interface for user and identity data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID with optional preloading
	FindByID(id string, preload ...string) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// FindByHandle finds a user by handle
	FindByHandle(handle string) (*models.User, error)

	// FindByHandles returns the users whose handles appear in the list
	FindByHandles(handles []string) ([]models.User, error)

	// FindIdentity finds an SSO identity by provider pair
	FindIdentity(provider, providerID string) (*models.Identity, error)

	// CreateIdentity links an SSO identity to a user
	CreateIdentity(identity *models.Identity) error

	// CountAdminMemberships counts orgs where the user is an ADMIN
	CountAdminMemberships(userID string) (int64, error)

	// DeleteCascade removes the user and every dependent row in one
	// transaction. A non-empty ghostUserID receives created_by
	// ownership of the user's tasks, teams and organizations.
	DeleteCascade(userID, ghostUserID string) error
}

// OrganizationRepository defines the interface for org, membership and
// join-code data access
type OrganizationRepository interface {
	// Create creates an organization and its founding ADMIN membership
	Create(org *models.Organization, founderID string) error

	// FindByID finds an organization by ID
	FindByID(id string) (*models.Organization, error)

	// Update updates an organization
	Update(org *models.Organization) error

	// DeleteCascade removes the org and its full dependent graph
	DeleteCascade(orgID string) error

	// ListForUser lists organizations the user belongs to
	ListForUser(userID string) ([]models.Organization, error)

	// FindMember finds a specific org membership
	FindMember(orgID, userID string) (*models.OrgMembership, error)

	// ListMembers lists org memberships with users, role desc
	ListMembers(orgID string) ([]models.OrgMembership, error)

	// CountMembers counts all memberships in the org
	CountMembers(orgID string) (int64, error)

	// CountAdmins counts ADMIN memberships in the org
	CountAdmins(orgID string) (int64, error)

	// UpdateMemberRole sets the role on an existing membership, with
	// the last-admin check re-read inside the transaction
	UpdateMemberRole(orgID, userID string, role models.OrgRole) (*models.OrgMembership, error)

	// RemoveMemberCascade deletes a membership plus the member's team
	// memberships, task assignments and note mentions inside the org
	RemoveMemberCascade(orgID, userID string) error

	// LeaveCascade removes the caller's own membership and their team
	// memberships within the org
	LeaveCascade(orgID, userID string) error

	// RotateJoinCode atomically replaces the org's join codes
	RotateJoinCode(orgID, code string, expiresAt *time.Time, maxUses *int) (*models.OrgJoinCode, error)

	// CurrentJoinCode returns the newest join code, if any
	CurrentJoinCode(orgID string) (*models.OrgJoinCode, error)

	// RedeemJoinCode validates a code and joins the user as MEMBER in
	// one transaction. Returns the joined org ID.
	RedeemJoinCode(code, userID string) (string, error)
}

// TeamRepository defines the interface for team, membership, link,
// goal and calendar data access
type TeamRepository interface {
	// Create creates a team and its founding LEADER membership
	Create(team *models.Team, founderID string) error

	// FindByID finds a team by ID with optional preloading
	FindByID(id string, preload ...string) (*models.Team, error)

	// Update updates a team
	Update(team *models.Team) error

	// DeleteCascade removes the team and its full dependent graph
	DeleteCascade(teamID string) error

	// ListByOrg lists all teams in an org
	ListByOrg(orgID string) ([]models.Team, error)

	// ListByOrgForUser lists org teams where the user is a member
	ListByOrgForUser(orgID, userID string) ([]models.Team, error)

	// ListByOrgWithMembers lists org teams with memberships and users
	ListByOrgWithMembers(orgID string) ([]models.Team, error)

	// ListMembers lists team memberships with users, role desc
	ListMembers(teamID string) ([]models.TeamMembership, error)

	// UpsertMember ensures org membership exists (MEMBER) and upserts
	// the team membership with the given role, atomically
	UpsertMember(orgID, teamID, userID string, role models.TeamRole) (*models.TeamMembership, error)

	// RemoveMember deletes a team membership; missing rows are not an error
	RemoveMember(teamID, userID string) error

	// ListLinks lists team links ordered by ordinal
	ListLinks(teamID string) ([]models.TeamLink, error)

	// CreateLink appends a link after the current highest ordinal
	CreateLink(link *models.TeamLink) error

	// FindLink finds a link scoped to a team
	FindLink(teamID, linkID string) (*models.TeamLink, error)

	// UpdateLink updates a link
	UpdateLink(link *models.TeamLink) error

	// DeleteLink deletes a link
	DeleteLink(teamID, linkID string) error

	// ListEvents lists the team's calendar events
	ListEvents(teamID string) ([]models.CalendarEvent, error)

	// CreateEvent creates a calendar event
	CreateEvent(event *models.CalendarEvent) error

	// FindEvent finds an event scoped to a team
	FindEvent(teamID, eventID string) (*models.CalendarEvent, error)

	// UpdateEvent updates a calendar event
	UpdateEvent(event *models.CalendarEvent) error

	// DeleteEvent deletes a calendar event
	DeleteEvent(teamID, eventID string) error
}

// ActivityFilter holds query options for the status-change audit feed
type ActivityFilter struct {
	TeamID string
	From   *time.Time
	To     *time.Time
	UserID string
	Limit  int
}

// TaskRepository defines the interface for task, assignment, note and
// status-log data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id string, preload ...string) (*models.Task, error)

	// ListByTeam lists a team's tasks with assignees and notes
	ListByTeam(teamID string) ([]models.Task, error)

	// Update saves the task and, when logEntry is non-nil, appends the
	// status-log row in the same transaction
	Update(task *models.Task, logEntry *models.TaskStatusLog) error

	// DeleteCascade removes the task and its dependent rows
	DeleteCascade(taskID string) error

	// FindAssignment finds a specific task assignment
	FindAssignment(taskID, userID string) (*models.TaskAssignment, error)

	// UpsertAssignment idempotently assigns a user to a task
	UpsertAssignment(taskID, userID string) (*models.TaskAssignment, error)

	// RemoveAssignment deletes an assignment; missing rows are not an error
	RemoveAssignment(taskID, userID string) error

	// CreateNote creates a note and its resolved mentions atomically
	CreateNote(note *models.TaskNote, mentionUserIDs []string) error

	// ListStatusLogs returns audit rows ordered (changed_at desc, id desc)
	ListStatusLogs(filter ActivityFilter) ([]models.TaskStatusLog, error)

	// FindTitles maps task IDs to current titles
	FindTitles(taskIDs []string) (map[string]string, error)

	// FindUsers maps user IDs to user rows
	FindUsers(userIDs []string) (map[string]models.User, error)
}
