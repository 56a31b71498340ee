// Package directory provides read-only lookups against the practice
// management business tables: user display names, case titles and the
// assignee set of a case. The dispatch pipeline uses it to word messages
// and to fan a case-scoped change out to the case's team.
package directory

import (
	"context"
)

// CaseTeam is the set of users attached to a case: the assigned lawyer,
// the general assignee and any co-assigned users.
type CaseTeam struct {
	AssignedLawyerID string   `json:"assigned_lawyer_id"`
	AssignedTo       string   `json:"assigned_to"`
	AssignedUsers    []string `json:"assigned_users"`
}

// Members returns the team as a flat list, empties included; callers
// dedupe and filter.
func (t CaseTeam) Members() []string {
	members := make([]string, 0, 2+len(t.AssignedUsers))
	members = append(members, t.AssignedLawyerID, t.AssignedTo)
	members = append(members, t.AssignedUsers...)
	return members
}

type Directory interface {
	UserName(ctx context.Context, userID string) (string, error)
	CaseTitle(ctx context.Context, caseID string) (string, error)
	CaseTeam(ctx context.Context, caseID string) (CaseTeam, error)
}
