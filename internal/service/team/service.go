package team

import (
	"context"
	"errors"
	"strings"

	"log/slog"

	"github.com/Chakshu098/Everhack-final/internal/domain"
	"github.com/Chakshu098/Everhack-final/internal/repository"
	"github.com/Chakshu098/Everhack-final/internal/ws"
)

// Notifier publishes live updates for an event.
type Notifier interface {
	Publish(eventID, kind string, data any)
}

// Service handles team workflows.
type Service struct {
	repo     repository.TeamRepository
	events   repository.EventRepository
	notifier Notifier
	logger   *slog.Logger
}

// New constructs a Service. notifier may be nil.
func New(repo repository.TeamRepository, events repository.EventRepository, notifier Notifier, logger *slog.Logger) Service {
	return Service{repo: repo, events: events, notifier: notifier, logger: logger}
}

var (
	errInvalidTeamName = errors.New("team name is required")
	errMissingEvent    = errors.New("event_id is required")
	errInvalidSize     = errors.New("max_members must be at least 1")
)

// IsValidation reports whether err was caused by bad input.
func IsValidation(err error) bool {
	return errors.Is(err, errInvalidTeamName) || errors.Is(err, errMissingEvent) || errors.Is(err, errInvalidSize)
}

// CreateInput describes a new team.
type CreateInput struct {
	Name        string   `json:"name"`
	EventID     string   `json:"event_id"`
	LookingFor  []string `json:"looking_for"`
	Description string   `json:"description"`
	MaxMembers  int      `json:"max_members"`
}

// List returns teams, optionally restricted to one event.
func (s Service) List(ctx context.Context, eventID string) ([]domain.Team, error) {
	teams, err := s.repo.ListTeams(ctx)
	if err != nil {
		return nil, err
	}
	if eventID == "" {
		return teams, nil
	}
	out := make([]domain.Team, 0, len(teams))
	for _, t := range teams {
		if t.EventID == eventID {
			out = append(out, t)
		}
	}
	return out, nil
}

// Create registers a team led by leaderID.
func (s Service) Create(ctx context.Context, leaderID string, in CreateInput) (*domain.Team, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, errInvalidTeamName
	}
	if strings.TrimSpace(in.EventID) == "" {
		return nil, errMissingEvent
	}
	if in.MaxMembers < 0 {
		return nil, errInvalidSize
	}
	if _, err := s.events.GetEvent(ctx, in.EventID); err != nil {
		return nil, err
	}
	lookingFor := make([]string, 0, len(in.LookingFor))
	for _, skill := range in.LookingFor {
		if skill = strings.TrimSpace(skill); skill != "" {
			lookingFor = append(lookingFor, skill)
		}
	}
	team, err := s.repo.CreateTeam(ctx, domain.Team{
		Name:        name,
		EventID:     in.EventID,
		LeaderID:    leaderID,
		Members:     []string{leaderID},
		LookingFor:  lookingFor,
		Description: strings.TrimSpace(in.Description),
		MaxMembers:  in.MaxMembers,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("team created", "team_id", team.ID, "leader_id", leaderID, "event_id", team.EventID)
	s.publish(team)
	return team, nil
}

// Join adds userID to the team.
func (s Service) Join(ctx context.Context, teamID, userID string) (*domain.Team, error) {
	team, err := s.repo.JoinTeam(ctx, teamID, userID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("team joined", "team_id", teamID, "user_id", userID, "members", len(team.Members))
	s.publish(team)
	return team, nil
}

func (s Service) publish(team *domain.Team) {
	if s.notifier == nil || team.EventID == "" {
		return
	}
	s.notifier.Publish(team.EventID, ws.TypeTeam, team)
}
