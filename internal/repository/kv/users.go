package kv

import (
	"context"
	"slices"
	"strings"

	"github.com/Chakshu098/Everhack-final/internal/domain"
	"github.com/Chakshu098/Everhack-final/internal/repository"
)

func sameEmail(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// ListUsers returns every user, seeding defaults on first access.
func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	if err := r.latency.wait(ctx); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users(ctx)
}

// GetUserByID retrieves a user by identifier.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findUser(ctx, func(u domain.User) bool { return u.ID == id })
}

// GetUserByEmail fetches a user by email, ignoring case.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findUser(ctx, func(u domain.User) bool { return sameEmail(u.Email, email) })
}

func (r *Repository) findUser(ctx context.Context, match func(domain.User) bool) (*domain.User, error) {
	if err := r.latency.wait(ctx); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	users, err := r.users(ctx)
	if err != nil {
		return nil, err
	}
	idx := slices.IndexFunc(users, match)
	if idx < 0 {
		return nil, repository.ErrNotFound
	}
	return &users[idx], nil
}

// CreateUser inserts user, generating an id when missing. Email must be
// unique.
func (r *Repository) CreateUser(ctx context.Context, user domain.User) (*domain.User, error) {
	if err := r.latency.wait(ctx); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	users, err := r.users(ctx)
	if err != nil {
		return nil, err
	}
	if slices.ContainsFunc(users, func(u domain.User) bool { return sameEmail(u.Email, user.Email) }) {
		return nil, repository.ErrUserExists
	}
	if user.ID == "" {
		user.ID = r.newID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = r.now()
	}
	users = append(users, user)
	if err := r.data.Write(ctx, KeyUsers, users); err != nil {
		return nil, err
	}
	return &user, nil
}

// ModifyUser applies fn to the stored user and persists the result. The id
// cannot be changed by fn.
func (r *Repository) ModifyUser(ctx context.Context, id string, fn func(*domain.User) error) (*domain.User, error) {
	if err := r.latency.wait(ctx); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	users, err := r.users(ctx)
	if err != nil {
		return nil, err
	}
	idx := slices.IndexFunc(users, func(u domain.User) bool { return u.ID == id })
	if idx < 0 {
		return nil, repository.ErrNotFound
	}
	updated := users[idx]
	if err := fn(&updated); err != nil {
		return nil, err
	}
	updated.ID = id
	users[idx] = updated
	if err := r.data.Write(ctx, KeyUsers, users); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteUser removes the user with id.
func (r *Repository) DeleteUser(ctx context.Context, id string) error {
	if err := r.latency.wait(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	users, err := r.users(ctx)
	if err != nil {
		return err
	}
	remaining := slices.DeleteFunc(users, func(u domain.User) bool { return u.ID == id })
	return r.data.Write(ctx, KeyUsers, remaining)
}
