package event

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Chakshu098/Everhack-final/internal/domain"
)

// ErrInvalidInput matches every ValidationError.
var ErrInvalidInput = errors.New("invalid event input")

// ValidationError lists the offending fields of an Input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("%s: %s", ErrInvalidInput, strings.Join(parts, "; "))
}

// Is reports ErrInvalidInput as the sentinel for validation failures.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Input carries the admin-editable fields of an event.
type Input struct {
	Title           string                `json:"title"`
	Description     string                `json:"description"`
	LongDescription string                `json:"long_description"`
	EventType       domain.EventType      `json:"event_type"`
	ImageURL        string                `json:"image_url"`
	StartDate       string                `json:"start_date"`
	EndDate         string                `json:"end_date"`
	Location        string                `json:"location"`
	MaxParticipants int                   `json:"max_participants"`
	PrizePool       string                `json:"prize_pool"`
	Status          domain.EventStatus    `json:"status"`
	Organizer       string                `json:"organizer"`
	Rules           []string              `json:"rules"`
	Timeline        []domain.TimelineItem `json:"timeline"`
	Partners        []domain.Partner      `json:"partners"`
}

var dateLayouts = []string{time.DateOnly, time.RFC3339, "2006-01-02T15:04"}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func normalizeType(t domain.EventType) domain.EventType {
	for _, known := range []domain.EventType{domain.EventTypeHackathon, domain.EventTypeCTF, domain.EventTypeWorkshop} {
		if strings.EqualFold(string(t), string(known)) {
			return known
		}
	}
	return t
}

// Normalize trims text fields, canonicalizes the event type and defaults
// the status to upcoming.
func (in Input) Normalize() Input {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	in.PrizePool = strings.TrimSpace(in.PrizePool)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	in.StartDate = strings.TrimSpace(in.StartDate)
	in.EndDate = strings.TrimSpace(in.EndDate)
	in.EventType = normalizeType(in.EventType)
	in.Status = domain.EventStatus(strings.ToLower(strings.TrimSpace(string(in.Status))))
	if in.Status == "" {
		in.Status = domain.EventStatusUpcoming
	}
	return in
}

// Validate checks the normalized input.
func (in Input) Validate() error {
	fields := make(map[string]string)
	if n := utf8.RuneCountInString(in.Title); n == 0 {
		fields["title"] = "title is required"
	} else if n > 200 {
		fields["title"] = "must be at most 200 characters"
	}
	if utf8.RuneCountInString(in.Description) > 2000 {
		fields["description"] = "must be at most 2000 characters"
	}
	switch in.EventType {
	case domain.EventTypeHackathon, domain.EventTypeCTF, domain.EventTypeWorkshop:
	default:
		fields["event_type"] = "must be one of Hackathon, CTF, Workshop"
	}
	if in.ImageURL != "" {
		if u, err := url.ParseRequestURI(in.ImageURL); err != nil || u.Host == "" {
			fields["image_url"] = "must be an absolute URL"
		}
	}
	start, startOK := parseDate(in.StartDate)
	end, endOK := parseDate(in.EndDate)
	switch {
	case in.StartDate == "":
		fields["start_date"] = "start date is required"
	case !startOK:
		fields["start_date"] = "must be a date"
	}
	switch {
	case in.EndDate == "":
		fields["end_date"] = "end date is required"
	case !endOK:
		fields["end_date"] = "must be a date"
	case startOK && end.Before(start):
		fields["end_date"] = "must not be before start date"
	}
	if utf8.RuneCountInString(in.Location) > 200 {
		fields["location"] = "must be at most 200 characters"
	}
	if in.MaxParticipants <= 0 {
		fields["max_participants"] = "must be greater than 0"
	}
	if utf8.RuneCountInString(in.PrizePool) > 100 {
		fields["prize_pool"] = "must be at most 100 characters"
	}
	switch in.Status {
	case domain.EventStatusUpcoming, domain.EventStatusOngoing, domain.EventStatusCompleted, domain.EventStatusCancelled:
	default:
		fields["status"] = "must be one of upcoming, ongoing, completed, cancelled"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// apply copies the input onto evt, leaving id, participants and the
// results flag untouched.
func (in Input) apply(evt *domain.Event) {
	evt.Title = in.Title
	evt.Description = in.Description
	evt.LongDescription = in.LongDescription
	evt.EventType = in.EventType
	evt.ImageURL = in.ImageURL
	evt.StartDate = in.StartDate
	evt.EndDate = in.EndDate
	evt.Location = in.Location
	evt.MaxParticipants = in.MaxParticipants
	evt.PrizePool = in.PrizePool
	evt.Status = in.Status
	evt.Organizer = in.Organizer
	evt.Rules = in.Rules
	evt.Timeline = in.Timeline
	evt.Partners = in.Partners
}
