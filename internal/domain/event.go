package domain

import (
	"time"

	"example.com/ewm/internal/apperr"
	"example.com/ewm/internal/datetime"
)

type EventState string

const (
	EventPending   EventState = "PENDING"
	EventPublished EventState = "PUBLISHED"
	EventCanceled  EventState = "CANCELED"
)

func (s EventState) Valid() bool {
	switch s {
	case EventPending, EventPublished, EventCanceled:
		return true
	}
	return false
}

// UserStateAction is what an initiator may ask of their own unpublished event.
type UserStateAction string

const (
	SendToReview UserStateAction = "SEND_TO_REVIEW"
	CancelReview UserStateAction = "CANCEL_REVIEW"
)

// AdminStateAction is an administrator's review decision.
type AdminStateAction string

const (
	PublishEvent AdminStateAction = "PUBLISH_EVENT"
	RejectEvent  AdminStateAction = "REJECT_EVENT"
)

// Minimum distance between now and an event date set by each kind of editor.
const (
	OwnerDateLead = 2 * time.Hour
	AdminDateLead = time.Hour
)

type Location struct {
	ID  int64   `json:"-"`
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Event is the stored event. Category and Initiator carry only the ID on
// writes; reads fill the names through joins.
type Event struct {
	ID                int64
	Title             string
	Annotation        string
	Description       string
	Category          Category
	Initiator         User
	Location          *Location
	EventDate         time.Time
	ParticipantLimit  int
	Paid              bool
	RequestModeration bool
	State             EventState
	CreatedOn         time.Time
	PublishedOn       *time.Time
}

// Moderated reports whether participation requests need organizer approval.
func (e Event) Moderated() bool {
	return e.RequestModeration && e.ParticipantLimit != 0
}

// CheckEventDate fails when date is closer to now than lead.
func CheckEventDate(date, now time.Time, lead time.Duration) error {
	if date.Before(now.Add(lead)) {
		return apperr.Validation("Field: eventDate. Error: must be at least %s in the future. Value: %s",
			lead, datetime.Format(date))
	}
	return nil
}

// ViewURI is the path whose hits count as views of the event.
func ViewURI(eventID int64) string {
	return "/events/" + itoa(eventID)
}
