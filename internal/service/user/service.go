package user

import (
	"context"
	"errors"

	"log/slog"

	"github.com/Chakshu098/Everhack-final/internal/domain"
	"github.com/Chakshu098/Everhack-final/internal/repository"
)

// ErrCannotBanSelf is returned when an admin targets their own account.
var ErrCannotBanSelf = errors.New("you cannot ban yourself")

// Service exposes admin user management.
type Service struct {
	repo   repository.UserRepository
	logger *slog.Logger
}

// New constructs a Service.
func New(repo repository.UserRepository, logger *slog.Logger) Service {
	return Service{repo: repo, logger: logger}
}

// List returns every user without credentials.
func (s Service) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.User, len(users))
	for i, u := range users {
		out[i] = u.Public()
	}
	return out, nil
}

// Ban hard-deletes the target account.
func (s Service) Ban(ctx context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return ErrCannotBanSelf
	}
	if _, err := s.repo.GetUserByID(ctx, targetID); err != nil {
		return err
	}
	if err := s.repo.DeleteUser(ctx, targetID); err != nil {
		return err
	}
	s.logger.Info("user banned", "user_id", targetID, "actor_id", actorID)
	return nil
}
