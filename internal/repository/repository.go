package repository

import (
	"context"

	"github.com/Chakshu098/Everhack-final/internal/domain"
)

// EventRepository persists events.
type EventRepository interface {
	ListEvents(ctx context.Context) ([]domain.Event, error)
	GetEvent(ctx context.Context, id string) (*domain.Event, error)
	CreateEvent(ctx context.Context, event domain.Event) (*domain.Event, error)
	UpdateEvent(ctx context.Context, event domain.Event) (*domain.Event, error)
	// ModifyEvent applies fn to the stored event under the repository lock.
	ModifyEvent(ctx context.Context, id string, fn func(*domain.Event) error) (*domain.Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

// RegistrationRepository manages event registrations and the participant
// counters they drive.
type RegistrationRepository interface {
	RegisterForEvent(ctx context.Context, userID, eventID string) (*domain.Registration, error)
	// CancelRegistration reports whether a registration was removed.
	CancelRegistration(ctx context.Context, userID, eventID string) (bool, error)
	ListRegistrationsByUser(ctx context.Context, userID string) ([]domain.Registration, error)
}

// TeamRepository manages teams and memberships.
type TeamRepository interface {
	ListTeams(ctx context.Context) ([]domain.Team, error)
	CreateTeam(ctx context.Context, team domain.Team) (*domain.Team, error)
	JoinTeam(ctx context.Context, teamID, userID string) (*domain.Team, error)
}

// UserRepository persists users.
type UserRepository interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	CreateUser(ctx context.Context, user domain.User) (*domain.User, error)
	// ModifyUser applies fn to the stored user under the repository lock.
	ModifyUser(ctx context.Context, id string, fn func(*domain.User) error) (*domain.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// SessionRepository stores the signed-in user of a session.
type SessionRepository interface {
	// GetSession returns nil when the session is anonymous.
	GetSession(ctx context.Context, sessionID string) (*domain.User, error)
	SaveSession(ctx context.Context, sessionID string, user domain.User) error
	DeleteSession(ctx context.Context, sessionID string) error
}
