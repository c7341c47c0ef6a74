// Package storage declares the persistence contracts of the main service.
package storage

import (
	"context"
	"errors"
	"time"

	"example.com/ewm/internal/domain"
)

var (
	// ErrNotFound is returned when a row addressed by id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned on unique or foreign-key violations.
	ErrConflict = errors.New("integrity constraint violated")
)

// Transactor runs fn inside one transaction. Store calls made with the
// context passed to fn join that transaction; nested calls reuse it.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type UserStore interface {
	CreateUser(ctx context.Context, u domain.User) (domain.User, error)
	GetUser(ctx context.Context, id int64) (domain.User, error)
	ListUsers(ctx context.Context, ids []int64, page domain.Page) ([]domain.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

type CategoryStore interface {
	CreateCategory(ctx context.Context, c domain.Category) (domain.Category, error)
	UpdateCategory(ctx context.Context, c domain.Category) (domain.Category, error)
	GetCategory(ctx context.Context, id int64) (domain.Category, error)
	ListCategories(ctx context.Context, page domain.Page) ([]domain.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
	CategoryInUse(ctx context.Context, id int64) (bool, error)
}

type LocationStore interface {
	CreateLocation(ctx context.Context, l domain.Location) (domain.Location, error)
}

type EventStore interface {
	CreateEvent(ctx context.Context, e domain.Event) (domain.Event, error)
	UpdateEvent(ctx context.Context, e domain.Event) (domain.Event, error)
	GetEvent(ctx context.Context, id int64) (domain.Event, error)
	GetEventByInitiator(ctx context.Context, initiatorID, eventID int64) (domain.Event, error)
	FindEvents(ctx context.Context, f EventFilter) ([]domain.Event, error)
}

type RequestStore interface {
	CreateRequest(ctx context.Context, r domain.Request) (domain.Request, error)
	GetRequest(ctx context.Context, id int64) (domain.Request, error)
	RequestExists(ctx context.Context, eventID, requesterID int64) (bool, error)
	ListRequestsByRequester(ctx context.Context, requesterID int64) ([]domain.Request, error)
	ListRequestsByEvent(ctx context.Context, eventID int64) ([]domain.Request, error)
	// ListRequestsByEventAndIDs returns the requests of eventID among ids,
	// ordered by id. Ids of other events are silently absent.
	ListRequestsByEventAndIDs(ctx context.Context, eventID int64, ids []int64) ([]domain.Request, error)
	CountRequests(ctx context.Context, eventID int64, status domain.RequestStatus) (int, error)
	// CountConfirmed returns confirmed-request counts keyed by event id.
	// Events without confirmed requests are absent.
	CountConfirmed(ctx context.Context, eventIDs []int64) (map[int64]int, error)
	UpdateRequestStatuses(ctx context.Context, rs []domain.Request) error
}

type CommentStore interface {
	CreateComment(ctx context.Context, c domain.Comment) (domain.Comment, error)
	UpdateComment(ctx context.Context, c domain.Comment) (domain.Comment, error)
	GetComment(ctx context.Context, id int64) (domain.Comment, error)
	DeleteComment(ctx context.Context, id int64) error
	ListCommentsByEvent(ctx context.Context, eventID int64, page domain.Page) ([]domain.Comment, error)
	CountComments(ctx context.Context, eventIDs []int64) (map[int64]int64, error)
}

// Store is everything the services need from persistence.
type Store interface {
	Transactor
	UserStore
	CategoryStore
	LocationStore
	EventStore
	RequestStore
	CommentStore
}

type EventSort int

const (
	SortByID EventSort = iota
	SortByEventDate
)

// EventFilter is the criteria of an event search. Zero-valued fields do not
// constrain the result. Date bounds are inclusive.
type EventFilter struct {
	Initiators    []int64
	States        []domain.EventState
	Categories    []int64
	Text          string
	Paid          *bool
	RangeStart    *time.Time
	RangeEnd      *time.Time
	OnlyAvailable bool
	Sort          EventSort
	Page          domain.Page
}
