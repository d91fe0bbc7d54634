package kv

import (
	"context"
	"slices"

	"github.com/Chakshu098/Everhack-final/internal/domain"
	"github.com/Chakshu098/Everhack-final/internal/repository"
)

// ListEvents returns every stored event, seeding defaults on first access.
func (r *Repository) ListEvents(ctx context.Context) ([]domain.Event, error) {
	if err := r.latency.wait(ctx); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events(ctx)
}

// GetEvent returns the event with id.
func (r *Repository) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	if err := r.latency.wait(ctx); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	events, err := r.events(ctx)
	if err != nil {
		return nil, err
	}
	idx := slices.IndexFunc(events, func(e domain.Event) bool { return e.ID == id })
	if idx < 0 {
		return nil, repository.ErrNotFound
	}
	return &events[idx], nil
}

// CreateEvent stores event under a freshly generated id.
func (r *Repository) CreateEvent(ctx context.Context, event domain.Event) (*domain.Event, error) {
	if err := r.latency.wait(ctx); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	events, err := r.events(ctx)
	if err != nil {
		return nil, err
	}
	event = cloneEvent(event)
	event.ID = r.newID()
	events = append(events, event)
	if err := r.data.Write(ctx, KeyEvents, events); err != nil {
		return nil, err
	}
	return &event, nil
}

// UpdateEvent replaces the stored event with the same id.
func (r *Repository) UpdateEvent(ctx context.Context, event domain.Event) (*domain.Event, error) {
	return r.ModifyEvent(ctx, event.ID, func(stored *domain.Event) error {
		*stored = cloneEvent(event)
		return nil
	})
}

// ModifyEvent applies fn to the stored event and persists the result. The
// id cannot be changed by fn.
func (r *Repository) ModifyEvent(ctx context.Context, id string, fn func(*domain.Event) error) (*domain.Event, error) {
	if err := r.latency.wait(ctx); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	events, err := r.events(ctx)
	if err != nil {
		return nil, err
	}
	idx := slices.IndexFunc(events, func(e domain.Event) bool { return e.ID == id })
	if idx < 0 {
		return nil, repository.ErrNotFound
	}
	updated := cloneEvent(events[idx])
	if err := fn(&updated); err != nil {
		return nil, err
	}
	updated.ID = id
	events[idx] = updated
	if err := r.data.Write(ctx, KeyEvents, events); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteEvent removes the event with id. Registrations and teams that
// reference it are left in place.
func (r *Repository) DeleteEvent(ctx context.Context, id string) error {
	if err := r.latency.wait(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	events, err := r.events(ctx)
	if err != nil {
		return err
	}
	remaining := slices.DeleteFunc(events, func(e domain.Event) bool { return e.ID == id })
	return r.data.Write(ctx, KeyEvents, remaining)
}
