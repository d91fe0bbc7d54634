package kv

import (
	"context"

	"github.com/Chakshu098/Everhack-final/internal/domain"
	"github.com/Chakshu098/Everhack-final/internal/store"
)

// GetSession reads the session record without simulated latency.
func (r *Repository) GetSession(ctx context.Context, sessionID string) (*domain.User, error) {
	return store.Read[*domain.User](ctx, r.data, SessionKey(sessionID), nil)
}

// SaveSession stores user as the session's signed-in account.
func (r *Repository) SaveSession(ctx context.Context, sessionID string, user domain.User) error {
	return r.data.Write(ctx, SessionKey(sessionID), user)
}

// DeleteSession clears the session record.
func (r *Repository) DeleteSession(ctx context.Context, sessionID string) error {
	return r.data.Remove(ctx, SessionKey(sessionID))
}
