// Package kv implements the repositories on top of a key/JSON store. Each
// collection lives as one JSON array under a fixed key and every mutation
// rewrites it whole.
package kv

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Chakshu098/Everhack-final/internal/domain"
	"github.com/Chakshu098/Everhack-final/internal/repository"
	"github.com/Chakshu098/Everhack-final/internal/store"
)

// Storage keys of the persisted collections.
const (
	KeyUsers         = "everhack_users"
	KeyEvents        = "everhack_events"
	KeyRegistrations = "everhack_registrations"
	KeyTeams         = "everhack_teams"
	KeyCurrentUser   = "everhack_current_user"
)

// SessionKey maps a session id onto its storage key. The empty id is the
// process-local default session.
func SessionKey(sessionID string) string {
	if sessionID == "" {
		return KeyCurrentUser
	}
	return KeyCurrentUser + ":" + sessionID
}

// Latency is the simulated round-trip applied before each operation.
type Latency struct {
	Min time.Duration
	Max time.Duration
}

func (l Latency) pick() time.Duration {
	if l.Max <= l.Min {
		return l.Min
	}
	return l.Min + rand.N(l.Max-l.Min+1)
}

func (l Latency) wait(ctx context.Context) error {
	d := l.pick()
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Options tunes a Repository.
type Options struct {
	Latency Latency
	Seed    Seed
	Now     func() time.Time
	NewID   func() string
}

// Repository implements the persistence interfaces over a store.Adapter.
// A single mutex serializes read-modify-write windows so that paired
// updates (registration and participant counter) are atomic within the
// process.
type Repository struct {
	data    *store.Adapter
	logger  *slog.Logger
	latency Latency
	seed    Seed
	now     func() time.Time
	newID   func() string

	mu sync.Mutex
}

// ensure Repository satisfies interfaces.
var (
	_ repository.EventRepository        = (*Repository)(nil)
	_ repository.RegistrationRepository = (*Repository)(nil)
	_ repository.TeamRepository         = (*Repository)(nil)
	_ repository.UserRepository         = (*Repository)(nil)
	_ repository.SessionRepository      = (*Repository)(nil)
)

// New constructs a Repository.
func New(data *store.Adapter, logger *slog.Logger, opts Options) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Repository{
		data:    data,
		logger:  logger,
		latency: opts.Latency,
		seed:    opts.Seed,
		now:     opts.Now,
		newID:   opts.NewID,
	}
}

func (r *Repository) events(ctx context.Context) ([]domain.Event, error) {
	return store.Read(ctx, r.data, KeyEvents, cloneEvents(r.seed.Events))
}

func (r *Repository) users(ctx context.Context) ([]domain.User, error) {
	return store.Read(ctx, r.data, KeyUsers, cloneUsers(r.seed.Users))
}

func (r *Repository) registrations(ctx context.Context) ([]domain.Registration, error) {
	return store.Read(ctx, r.data, KeyRegistrations, []domain.Registration{})
}

func (r *Repository) teams(ctx context.Context) ([]domain.Team, error) {
	return store.Read(ctx, r.data, KeyTeams, []domain.Team{})
}

func cloneEvents(in []domain.Event) []domain.Event {
	out := make([]domain.Event, len(in))
	for i, e := range in {
		out[i] = cloneEvent(e)
	}
	return out
}

func cloneEvent(e domain.Event) domain.Event {
	e.Rules = slices.Clone(e.Rules)
	e.Timeline = slices.Clone(e.Timeline)
	e.Partners = slices.Clone(e.Partners)
	return e
}

func cloneUsers(in []domain.User) []domain.User {
	out := make([]domain.User, len(in))
	for i, u := range in {
		u.Skills = slices.Clone(u.Skills)
		u.PasswordHash = slices.Clone(u.PasswordHash)
		out[i] = u
	}
	return out
}
