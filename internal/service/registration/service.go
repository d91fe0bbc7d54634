package registration

import (
	"context"
	"errors"

	"log/slog"

	"github.com/Chakshu098/Everhack-final/internal/domain"
	"github.com/Chakshu098/Everhack-final/internal/repository"
	"github.com/Chakshu098/Everhack-final/internal/ws"
)

// ErrRegistrationClosed is returned for completed or cancelled events.
var ErrRegistrationClosed = errors.New("registration is closed for this event")

// Notifier publishes live updates for an event.
type Notifier interface {
	Publish(eventID, kind string, data any)
}

// Service coordinates event registrations.
type Service struct {
	events   repository.EventRepository
	regs     repository.RegistrationRepository
	notifier Notifier
	logger   *slog.Logger
}

// New constructs a Service. notifier may be nil.
func New(events repository.EventRepository, regs repository.RegistrationRepository, notifier Notifier, logger *slog.Logger) Service {
	return Service{events: events, regs: regs, notifier: notifier, logger: logger}
}

// Entry pairs a registration with its event, when the event still exists.
type Entry struct {
	domain.Registration
	Event *domain.Event `json:"event,omitempty"`
}

// Participants is the payload broadcast when a head count changes.
type Participants struct {
	Participants    int `json:"participants"`
	MaxParticipants int `json:"max_participants"`
}

// Register signs userID up for eventID.
func (s Service) Register(ctx context.Context, userID, eventID string) (*domain.Registration, error) {
	evt, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if evt.Status == domain.EventStatusCompleted || evt.Status == domain.EventStatusCancelled {
		return nil, ErrRegistrationClosed
	}
	reg, err := s.regs.RegisterForEvent(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("registration created", "event_id", eventID, "user_id", userID, "registration_id", reg.ID)
	s.broadcast(ctx, eventID)
	return reg, nil
}

// Cancel withdraws userID from eventID. It reports whether a registration
// existed.
func (s Service) Cancel(ctx context.Context, userID, eventID string) (bool, error) {
	removed, err := s.regs.CancelRegistration(ctx, userID, eventID)
	if err != nil {
		return false, err
	}
	if !removed {
		return false, nil
	}
	s.logger.Info("registration cancelled", "event_id", eventID, "user_id", userID)
	s.broadcast(ctx, eventID)
	return true, nil
}

// ListMine returns the user's registrations joined with their events.
func (s Service) ListMine(ctx context.Context, userID string) ([]Entry, error) {
	regs, err := s.regs.ListRegistrationsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	events, err := s.events.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Event, len(events))
	for _, evt := range events {
		byID[evt.ID] = evt
	}
	out := make([]Entry, 0, len(regs))
	for _, reg := range regs {
		entry := Entry{Registration: reg}
		if evt, ok := byID[reg.EventID]; ok {
			entry.Event = &evt
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s Service) broadcast(ctx context.Context, eventID string) {
	if s.notifier == nil {
		return
	}
	evt, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("participant broadcast skipped", "event_id", eventID, "error", err)
		}
		return
	}
	s.notifier.Publish(eventID, ws.TypeParticipants, Participants{
		Participants:    evt.Participants,
		MaxParticipants: evt.MaxParticipants,
	})
}
