package domain

import "slices"

// DefaultTeamSize applies when a team is created without an explicit limit.
const DefaultTeamSize = 4

// Team is a group of participants forming for an event.
type Team struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	EventID     string   `json:"event_id"`
	LeaderID    string   `json:"leader_id"`
	Members     []string `json:"members"`
	LookingFor  []string `json:"looking_for"`
	Description string   `json:"description"`
	MaxMembers  int      `json:"max_members"`
}

// Capacity returns the member limit, falling back to DefaultTeamSize.
func (t Team) Capacity() int {
	if t.MaxMembers <= 0 {
		return DefaultTeamSize
	}
	return t.MaxMembers
}

// HasMember reports whether userID already belongs to the team.
func (t Team) HasMember(userID string) bool {
	return slices.Contains(t.Members, userID)
}

// Full reports whether no further members can join.
func (t Team) Full() bool {
	return len(t.Members) >= t.Capacity()
}
