package domain

import "time"

// RegistrationStatus describes a participant's standing for an event.
type RegistrationStatus string

const (
	RegistrationStatusRegistered RegistrationStatus = "registered"
	RegistrationStatusWaitlist   RegistrationStatus = "waitlist"
	RegistrationStatusCheckedIn  RegistrationStatus = "checked-in"
)

// Registration links a user to an event.
type Registration struct {
	ID               string             `json:"id"`
	UserID           string             `json:"user_id"`
	EventID          string             `json:"event_id"`
	Status           RegistrationStatus `json:"status"`
	RegistrationDate time.Time          `json:"registration_date"`
	TeamName         string             `json:"team_name,omitempty"`
}
