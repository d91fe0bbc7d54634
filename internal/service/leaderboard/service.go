package leaderboard

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"log/slog"

	"github.com/Chakshu098/Everhack-final/internal/domain"
	"github.com/Chakshu098/Everhack-final/internal/repository"
)

// Service ranks participants by points.
type Service struct {
	users        repository.UserRepository
	logger       *slog.Logger
	defaultLimit int
}

// New constructs a Service. defaultLimit applies when Top receives a
// non-positive limit.
func New(users repository.UserRepository, logger *slog.Logger, defaultLimit int) Service {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	return Service{users: users, logger: logger, defaultLimit: defaultLimit}
}

// Top returns the highest scoring users, ties broken by name.
func (s Service) Top(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(users, func(a, b domain.User) int {
		if c := cmp.Compare(b.Points, a.Points); c != 0 {
			return c
		}
		return strings.Compare(strings.ToLower(a.FullName), strings.ToLower(b.FullName))
	})
	if len(users) > limit {
		users = users[:limit]
	}
	entries := make([]domain.LeaderboardEntry, len(users))
	for i, u := range users {
		entries[i] = domain.LeaderboardEntry{
			Rank:      i + 1,
			UserID:    u.ID,
			Name:      u.FullName,
			Points:    u.Points,
			AvatarURL: u.AvatarURL,
		}
	}
	return entries, nil
}
