package domain

import (
	"strconv"
	"time"
)

type User struct {
	ID    int64
	Name  string
	Email string
}

type Category struct {
	ID   int64
	Name string
}

type RequestStatus string

const (
	RequestPending   RequestStatus = "PENDING"
	RequestConfirmed RequestStatus = "CONFIRMED"
	RequestRejected  RequestStatus = "REJECTED"
	RequestCanceled  RequestStatus = "CANCELED"
)

// Request is one user's intent to attend one event.
type Request struct {
	ID          int64
	EventID     int64
	RequesterID int64
	Status      RequestStatus
	Created     time.Time
}

type Comment struct {
	ID            int64
	Text          string
	EventID       int64
	AuthorID      int64
	Created       time.Time
	LastUpdatedOn time.Time
}

// Page is a from/size window. Offsets snap to whole pages of Size.
type Page struct {
	From int
	Size int
}

const DefaultPageSize = 10

func (p Page) Limit() int {
	if p.Size <= 0 {
		return DefaultPageSize
	}
	return p.Size
}

func (p Page) Offset() int {
	if p.From <= 0 {
		return 0
	}
	return (p.From / p.Limit()) * p.Limit()
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
