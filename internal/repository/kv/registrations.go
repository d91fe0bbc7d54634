package kv

import (
	"context"
	"slices"

	"github.com/Chakshu098/Everhack-final/internal/domain"
	"github.com/Chakshu098/Everhack-final/internal/repository"
)

func matchRegistration(userID, eventID string) func(domain.Registration) bool {
	return func(reg domain.Registration) bool {
		return reg.UserID == userID && reg.EventID == eventID
	}
}

// RegisterForEvent records a registration and bumps the event's participant
// count. Both collections are written under the repository lock; if the
// event write fails the registration write is reverted.
func (r *Repository) RegisterForEvent(ctx context.Context, userID, eventID string) (*domain.Registration, error) {
	if err := r.latency.wait(ctx); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	regs, err := r.registrations(ctx)
	if err != nil {
		return nil, err
	}
	if slices.ContainsFunc(regs, matchRegistration(userID, eventID)) {
		return nil, repository.ErrAlreadyRegistered
	}
	events, err := r.events(ctx)
	if err != nil {
		return nil, err
	}
	idx := slices.IndexFunc(events, func(e domain.Event) bool { return e.ID == eventID })
	if idx >= 0 {
		evt := events[idx]
		if evt.MaxParticipants > 0 && evt.Participants >= evt.MaxParticipants {
			return nil, repository.ErrEventFull
		}
	}

	reg := domain.Registration{
		ID:               r.newID(),
		UserID:           userID,
		EventID:          eventID,
		Status:           domain.RegistrationStatusRegistered,
		RegistrationDate: r.now(),
	}
	previous := slices.Clone(regs)
	regs = append(regs, reg)
	if err := r.data.Write(ctx, KeyRegistrations, regs); err != nil {
		return nil, err
	}
	if idx < 0 {
		return &reg, nil
	}
	events[idx].Participants++
	if err := r.data.Write(ctx, KeyEvents, events); err != nil {
		r.revertRegistrations(ctx, previous, err)
		return nil, err
	}
	return &reg, nil
}

// CancelRegistration removes the registration for the pair and decrements
// the participant count, never below zero. Cancelling a missing
// registration is a no-op.
func (r *Repository) CancelRegistration(ctx context.Context, userID, eventID string) (bool, error) {
	if err := r.latency.wait(ctx); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	regs, err := r.registrations(ctx)
	if err != nil {
		return false, err
	}
	previous := slices.Clone(regs)
	remaining := slices.DeleteFunc(regs, matchRegistration(userID, eventID))
	if len(remaining) == len(previous) {
		return false, nil
	}
	if err := r.data.Write(ctx, KeyRegistrations, remaining); err != nil {
		return false, err
	}

	events, err := r.events(ctx)
	if err != nil {
		r.revertRegistrations(ctx, previous, err)
		return false, err
	}
	idx := slices.IndexFunc(events, func(e domain.Event) bool { return e.ID == eventID })
	if idx < 0 || events[idx].Participants <= 0 {
		return true, nil
	}
	events[idx].Participants--
	if err := r.data.Write(ctx, KeyEvents, events); err != nil {
		r.revertRegistrations(ctx, previous, err)
		return false, err
	}
	return true, nil
}

// ListRegistrationsByUser returns the registrations owned by userID.
func (r *Repository) ListRegistrationsByUser(ctx context.Context, userID string) ([]domain.Registration, error) {
	if err := r.latency.wait(ctx); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	regs, err := r.registrations(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Registration, 0)
	for _, reg := range regs {
		if reg.UserID == userID {
			out = append(out, reg)
		}
	}
	return out, nil
}

func (r *Repository) revertRegistrations(ctx context.Context, previous []domain.Registration, cause error) {
	if err := r.data.Write(context.WithoutCancel(ctx), KeyRegistrations, previous); err != nil {
		r.logger.Error("failed to revert registrations", "error", err, "cause", cause)
	}
}
