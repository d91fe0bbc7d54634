package domain

// EventType classifies an event.
type EventType string

const (
	EventTypeHackathon EventType = "Hackathon"
	EventTypeCTF       EventType = "CTF"
	EventTypeWorkshop  EventType = "Workshop"
)

// EventStatus tracks where an event is in its lifecycle.
type EventStatus string

const (
	EventStatusUpcoming  EventStatus = "upcoming"
	EventStatusOngoing   EventStatus = "ongoing"
	EventStatusCompleted EventStatus = "completed"
	EventStatusCancelled EventStatus = "cancelled"
)

// TimelineItem is one entry of an event schedule.
type TimelineItem struct {
	Time  string `json:"time"`
	Event string `json:"event"`
}

// Partner is a sponsor shown on the event page.
type Partner struct {
	Name       string `json:"name"`
	LogoURL    string `json:"logo_url"`
	WebsiteURL string `json:"website_url,omitempty"`
}

// Event is a hackathon, CTF or workshop open for registration.
type Event struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	LongDescription  string         `json:"long_description,omitempty"`
	EventType        EventType      `json:"event_type"`
	ImageURL         string         `json:"image_url,omitempty"`
	StartDate        string         `json:"start_date"`
	EndDate          string         `json:"end_date"`
	Location         string         `json:"location"`
	Participants     int            `json:"participants"`
	MaxParticipants  int            `json:"max_participants"`
	PrizePool        string         `json:"prize_pool"`
	Status           EventStatus    `json:"status"`
	Organizer        string         `json:"organizer,omitempty"`
	ResultsPublished bool           `json:"results_published"`
	Rules            []string       `json:"rules"`
	Timeline         []TimelineItem `json:"timeline"`
	Partners         []Partner      `json:"partners"`
}
