package event

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"log/slog"

	"github.com/Chakshu098/Everhack-final/internal/domain"
	"github.com/Chakshu098/Everhack-final/internal/repository"
	"github.com/Chakshu098/Everhack-final/internal/ws"
)

// ErrMaxBelowParticipants rejects shrinking an event below its current head count.
var ErrMaxBelowParticipants = errors.New("max_participants cannot be lower than current participants")

// Notifier publishes live updates for an event.
type Notifier interface {
	Publish(eventID, kind string, data any)
}

// Service manages the event catalogue.
type Service struct {
	repo     repository.EventRepository
	notifier Notifier
	logger   *slog.Logger
}

// New constructs a Service. notifier may be nil.
func New(repo repository.EventRepository, notifier Notifier, logger *slog.Logger) Service {
	return Service{repo: repo, notifier: notifier, logger: logger}
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Type   domain.EventType
	Status domain.EventStatus
	Query  string
}

func (f Filter) match(evt domain.Event) bool {
	if f.Type != "" && !strings.EqualFold(string(f.Type), string(evt.EventType)) {
		return false
	}
	if f.Status != "" && f.Status != evt.Status {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		haystack := strings.ToLower(evt.Title + " " + evt.Description + " " + evt.Location)
		if !strings.Contains(haystack, q) {
			return false
		}
	}
	return true
}

// List returns events matching filter.
func (s Service) List(ctx context.Context, filter Filter) ([]domain.Event, error) {
	events, err := s.repo.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Event, 0, len(events))
	for _, evt := range events {
		if filter.match(evt) {
			out = append(out, evt)
		}
	}
	return out, nil
}

// Get returns a single event.
func (s Service) Get(ctx context.Context, id string) (*domain.Event, error) {
	return s.repo.GetEvent(ctx, id)
}

// Create validates in and stores a new event with no participants.
func (s Service) Create(ctx context.Context, in Input) (*domain.Event, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var evt domain.Event
	in.apply(&evt)
	created, err := s.repo.CreateEvent(ctx, evt)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.logger.Info("event created", "event_id", created.ID, "title", created.Title)
	return created, nil
}

// Update replaces the editable fields of an existing event.
func (s Service) Update(ctx context.Context, id string, in Input) (*domain.Event, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	updated, err := s.repo.ModifyEvent(ctx, id, func(evt *domain.Event) error {
		if in.MaxParticipants < evt.Participants {
			return ErrMaxBelowParticipants
		}
		in.apply(evt)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("event updated", "event_id", id)
	s.publish(updated)
	return updated, nil
}

// Delete removes an event. Registrations and teams referencing it stay.
func (s Service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.GetEvent(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteEvent(ctx, id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	s.logger.Info("event deleted", "event_id", id)
	return nil
}

// ToggleResults flips whether results are published.
func (s Service) ToggleResults(ctx context.Context, id string) (*domain.Event, error) {
	updated, err := s.repo.ModifyEvent(ctx, id, func(evt *domain.Event) error {
		evt.ResultsPublished = !evt.ResultsPublished
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("event results toggled", "event_id", id, "published", updated.ResultsPublished)
	s.publish(updated)
	return updated, nil
}

// Complete marks an event as completed.
func (s Service) Complete(ctx context.Context, id string) (*domain.Event, error) {
	updated, err := s.repo.ModifyEvent(ctx, id, func(evt *domain.Event) error {
		evt.Status = domain.EventStatusCompleted
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("event completed", "event_id", id)
	s.publish(updated)
	return updated, nil
}

func (s Service) publish(evt *domain.Event) {
	if s.notifier == nil || evt == nil {
		return
	}
	s.notifier.Publish(evt.ID, ws.TypeEvent, evt)
}
