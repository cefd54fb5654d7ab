package permissions

import (
	"errors"

	"github.com/fluxhq/flux-api/internal/models"
	"gorm.io/gorm"
)

// Evaluator answers every role and capability question in the system.
// All checks read the current membership state; nothing is cached
// across requests. Lookup errors fail closed.
type Evaluator struct {
	db *gorm.DB
}

func NewEvaluator(db *gorm.DB) *Evaluator {
	return &Evaluator{db: db}
}

// RoleInOrg returns the caller's org role, or "" if not a member.
func (e *Evaluator) RoleInOrg(orgID, userID string) (models.OrgRole, error) {
	var m models.OrgMembership
	err := e.db.Where("org_id = ? AND user_id = ?", orgID, userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return m.Role, nil
}

// RoleInTeam returns the caller's team role, or "" if not a member.
func (e *Evaluator) RoleInTeam(teamID, userID string) (models.TeamRole, error) {
	var m models.TeamMembership
	err := e.db.Where("team_id = ? AND user_id = ?", teamID, userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return m.Role, nil
}

func (e *Evaluator) IsOrgAdmin(orgID, userID string) (bool, error) {
	role, err := e.RoleInOrg(orgID, userID)
	return role == models.OrgRoleAdmin, err
}

func (e *Evaluator) IsOrgMember(orgID, userID string) (bool, error) {
	role, err := e.RoleInOrg(orgID, userID)
	return role != "", err
}

func (e *Evaluator) IsTeamLeader(teamID, userID string) (bool, error) {
	role, err := e.RoleInTeam(teamID, userID)
	return role == models.TeamRoleLeader, err
}

func (e *Evaluator) IsTeamMember(teamID, userID string) (bool, error) {
	role, err := e.RoleInTeam(teamID, userID)
	return role != "", err
}

// CanReadTeam is true iff the team exists and the caller is either an
// admin of its org or holds any membership in the team. Read access is
// deliberately broader than write access.
func (e *Evaluator) CanReadTeam(teamID, userID string) (bool, error) {
	team, err := e.findTeam(teamID)
	if err != nil || team == nil {
		return false, err
	}
	if admin, err := e.IsOrgAdmin(team.OrgID, userID); err != nil || admin {
		return admin, err
	}
	return e.IsTeamMember(teamID, userID)
}

// CanWriteTeam is true iff the team exists and the caller is an org
// admin or the team's leader. Strictly narrower than CanReadTeam.
func (e *Evaluator) CanWriteTeam(teamID, userID string) (bool, error) {
	team, err := e.findTeam(teamID)
	if err != nil || team == nil {
		return false, err
	}
	if admin, err := e.IsOrgAdmin(team.OrgID, userID); err != nil || admin {
		return admin, err
	}
	return e.IsTeamLeader(teamID, userID)
}

// IsAdminOrLeader gates audit-log visibility; same rule as CanWriteTeam.
func (e *Evaluator) IsAdminOrLeader(teamID, userID string) (bool, error) {
	return e.CanWriteTeam(teamID, userID)
}

func (e *Evaluator) findTeam(teamID string) (*models.Team, error) {
	var team models.Team
	err := e.db.Where("id = ?", teamID).First(&team).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &team, nil
}
