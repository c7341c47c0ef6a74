package domain

import "example.com/ewm/internal/datetime"

// Request bodies and public representations of the main service.

type NewUser struct {
	Name  string `json:"name" validate:"required,notblank,min=2,max=250"`
	Email string `json:"email" validate:"required,email,min=6,max=254"`
}

type UserDTO struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type UserShort struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type NewCategory struct {
	Name string `json:"name" validate:"required,notblank,max=50"`
}

type CategoryDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type NewEvent struct {
	Annotation        string        `json:"annotation" validate:"required,notblank,min=20,max=2000"`
	Category          int64         `json:"category" validate:"required,gt=0"`
	Description       string        `json:"description" validate:"required,notblank,min=20,max=7000"`
	EventDate         datetime.Time `json:"eventDate"`
	Location          *Location     `json:"location" validate:"required"`
	Paid              *bool         `json:"paid"`
	ParticipantLimit  int           `json:"participantLimit" validate:"gte=0"`
	RequestModeration *bool         `json:"requestModeration"`
	Title             string        `json:"title" validate:"required,notblank,min=3,max=120"`
}

// EventPatch holds the fields both owners and administrators may change.
// Nil means unchanged.
type EventPatch struct {
	Annotation        *string        `json:"annotation" validate:"omitempty,notblank,min=20,max=2000"`
	Category          *int64         `json:"category" validate:"omitempty,gt=0"`
	Description       *string        `json:"description" validate:"omitempty,notblank,min=20,max=7000"`
	EventDate         *datetime.Time `json:"eventDate"`
	Location          *Location      `json:"location"`
	Paid              *bool          `json:"paid"`
	ParticipantLimit  *int           `json:"participantLimit" validate:"omitempty,gte=0"`
	RequestModeration *bool          `json:"requestModeration"`
	Title             *string        `json:"title" validate:"omitempty,notblank,min=3,max=120"`
}

type UpdateEventUser struct {
	EventPatch
	StateAction *UserStateAction `json:"stateAction" validate:"omitempty,oneof=SEND_TO_REVIEW CANCEL_REVIEW"`
}

type UpdateEventAdmin struct {
	EventPatch
	StateAction *AdminStateAction `json:"stateAction" validate:"omitempty,oneof=PUBLISH_EVENT REJECT_EVENT"`
}

type EventFull struct {
	ID                int64          `json:"id"`
	Annotation        string         `json:"annotation"`
	Category          CategoryDTO    `json:"category"`
	ConfirmedRequests int            `json:"confirmedRequests"`
	CreatedOn         datetime.Time  `json:"createdOn"`
	Description       string         `json:"description"`
	EventDate         datetime.Time  `json:"eventDate"`
	Initiator         UserShort      `json:"initiator"`
	Location          *Location      `json:"location"`
	Paid              bool           `json:"paid"`
	ParticipantLimit  int            `json:"participantLimit"`
	PublishedOn       *datetime.Time `json:"publishedOn"`
	RequestModeration bool           `json:"requestModeration"`
	State             EventState     `json:"state"`
	Title             string         `json:"title"`
	Views             int64          `json:"views"`
}

type EventShort struct {
	ID                int64         `json:"id"`
	Annotation        string        `json:"annotation"`
	Category          CategoryDTO   `json:"category"`
	ConfirmedRequests int           `json:"confirmedRequests"`
	EventDate         datetime.Time `json:"eventDate"`
	Initiator         UserShort     `json:"initiator"`
	Paid              bool          `json:"paid"`
	Title             string        `json:"title"`
	Views             int64         `json:"views"`
	Comments          int64         `json:"comments"`
}

type ParticipationRequest struct {
	ID        int64         `json:"id"`
	Event     int64         `json:"event"`
	Created   datetime.Time `json:"created"`
	Requester int64         `json:"requester"`
	Status    RequestStatus `json:"status"`
}

type RequestStatusUpdate struct {
	RequestIDs []int64       `json:"requestIds" validate:"required,min=1,dive,gt=0"`
	Status     RequestStatus `json:"status" validate:"required"`
}

type RequestStatusUpdateResult struct {
	ConfirmedRequests []ParticipationRequest `json:"confirmedRequests"`
	RejectedRequests  []ParticipationRequest `json:"rejectedRequests"`
}

type NewComment struct {
	Text string `json:"text" validate:"required,notblank,min=2,max=1500"`
}

type CommentDTO struct {
	ID            int64         `json:"id"`
	Text          string        `json:"text"`
	EventID       int64         `json:"eventId"`
	AuthorID      int64         `json:"authorId"`
	Created       datetime.Time `json:"created"`
	LastUpdatedOn datetime.Time `json:"lastUpdatedOn"`
}

// Mappers.

func ToUserDTO(u User) UserDTO { return UserDTO{ID: u.ID, Name: u.Name, Email: u.Email} }

func ToCategoryDTO(c Category) CategoryDTO { return CategoryDTO{ID: c.ID, Name: c.Name} }

func ToEventFull(e Event) EventFull {
	return EventFull{
		ID:                e.ID,
		Annotation:        e.Annotation,
		Category:          ToCategoryDTO(e.Category),
		CreatedOn:         datetime.New(e.CreatedOn),
		Description:       e.Description,
		EventDate:         datetime.New(e.EventDate),
		Initiator:         UserShort{ID: e.Initiator.ID, Name: e.Initiator.Name},
		Location:          e.Location,
		Paid:              e.Paid,
		ParticipantLimit:  e.ParticipantLimit,
		PublishedOn:       datetime.Ptr(e.PublishedOn),
		RequestModeration: e.RequestModeration,
		State:             e.State,
		Title:             e.Title,
	}
}

func ToEventShort(e Event) EventShort {
	return EventShort{
		ID:         e.ID,
		Annotation: e.Annotation,
		Category:   ToCategoryDTO(e.Category),
		EventDate:  datetime.New(e.EventDate),
		Initiator:  UserShort{ID: e.Initiator.ID, Name: e.Initiator.Name},
		Paid:       e.Paid,
		Title:      e.Title,
	}
}

func ToParticipationRequest(r Request) ParticipationRequest {
	return ParticipationRequest{
		ID:        r.ID,
		Event:     r.EventID,
		Created:   datetime.New(r.Created),
		Requester: r.RequesterID,
		Status:    r.Status,
	}
}

func ToParticipationRequests(rs []Request) []ParticipationRequest {
	out := make([]ParticipationRequest, 0, len(rs))
	for _, r := range rs {
		out = append(out, ToParticipationRequest(r))
	}
	return out
}

func ToCommentDTO(c Comment) CommentDTO {
	return CommentDTO{
		ID:            c.ID,
		Text:          c.Text,
		EventID:       c.EventID,
		AuthorID:      c.AuthorID,
		Created:       datetime.New(c.Created),
		LastUpdatedOn: datetime.New(c.LastUpdatedOn),
	}
}
