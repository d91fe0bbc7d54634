package kv

import (
	"context"
	"slices"

	"github.com/Chakshu098/Everhack-final/internal/domain"
	"github.com/Chakshu098/Everhack-final/internal/repository"
)

// ListTeams returns every team.
func (r *Repository) ListTeams(ctx context.Context) ([]domain.Team, error) {
	if err := r.latency.wait(ctx); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.teams(ctx)
}

// CreateTeam stores team under a fresh id, defaulting max_members and
// making sure the leader is the first member.
func (r *Repository) CreateTeam(ctx context.Context, team domain.Team) (*domain.Team, error) {
	if err := r.latency.wait(ctx); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	teams, err := r.teams(ctx)
	if err != nil {
		return nil, err
	}
	team.ID = r.newID()
	if team.MaxMembers <= 0 {
		team.MaxMembers = domain.DefaultTeamSize
	}
	members := make([]string, 0, len(team.Members)+1)
	if team.LeaderID != "" {
		members = append(members, team.LeaderID)
	}
	for _, m := range team.Members {
		if !slices.Contains(members, m) {
			members = append(members, m)
		}
	}
	team.Members = members
	team.LookingFor = append([]string{}, team.LookingFor...)
	teams = append(teams, team)
	if err := r.data.Write(ctx, KeyTeams, teams); err != nil {
		return nil, err
	}
	return &team, nil
}

// JoinTeam appends userID to the team's members.
func (r *Repository) JoinTeam(ctx context.Context, teamID, userID string) (*domain.Team, error) {
	if err := r.latency.wait(ctx); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	teams, err := r.teams(ctx)
	if err != nil {
		return nil, err
	}
	idx := slices.IndexFunc(teams, func(t domain.Team) bool { return t.ID == teamID })
	if idx < 0 {
		return nil, repository.ErrTeamNotFound
	}
	team := teams[idx]
	if team.HasMember(userID) {
		return nil, repository.ErrAlreadyMember
	}
	if team.Full() {
		return nil, repository.ErrTeamFull
	}
	team.Members = append(slices.Clone(team.Members), userID)
	teams[idx] = team
	if err := r.data.Write(ctx, KeyTeams, teams); err != nil {
		return nil, err
	}
	return &team, nil
}
