package repository

import "errors"

var (
	// ErrNotFound indicates an entity was not located.
	ErrNotFound = errors.New("repository: not found")
	// ErrAlreadyRegistered is returned for a second registration of the same user and event.
	ErrAlreadyRegistered = errors.New("already registered for this event")
	// ErrEventFull is returned when an event has reached max_participants.
	ErrEventFull = errors.New("event is full")
	// ErrTeamNotFound is returned when joining an unknown team.
	ErrTeamNotFound = errors.New("team not found")
	// ErrAlreadyMember is returned when a user joins a team twice.
	ErrAlreadyMember = errors.New("already a member of this team")
	// ErrTeamFull is returned when a team has reached max_members.
	ErrTeamFull = errors.New("sorry, the team is full")
	// ErrUserExists is returned when an email is already taken.
	ErrUserExists = errors.New("user already exists")
)
