// Package service holds the business rules of the main service. Handlers call
// into it with decoded input; it talks to storage and to the stats service.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"example.com/ewm/internal/apperr"
	"example.com/ewm/internal/stats"
	"example.com/ewm/internal/storage"
)

// StatsClient is the main service's view of the stats service.
type StatsClient interface {
	Hit(ctx context.Context, h stats.Hit) error
	Stats(ctx context.Context, start, end time.Time, uris []string, unique bool) ([]stats.ViewStats, error)
}

type Deps struct {
	Store   storage.Store
	Stats   StatsClient
	AppName string
	Log     *logrus.Entry
	Now     func() time.Time
}

// Services bundles every service of the main application.
type Services struct {
	Users      *UserService
	Categories *CategoryService
	Events     *EventService
	Requests   *RequestService
	Comments   *CommentService
}

func New(d Deps) *Services {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.AppName == "" {
		d.AppName = "ewm-main-service"
	}
	return &Services{
		Users:      &UserService{store: d.Store, log: d.Log},
		Categories: &CategoryService{store: d.Store, log: d.Log},
		Events:     &EventService{store: d.Store, stats: d.Stats, app: d.AppName, log: d.Log, now: d.Now},
		Requests:   &RequestService{store: d.Store, log: d.Log, now: d.Now},
		Comments:   &CommentService{store: d.Store, log: d.Log},
	}
}

// notFound turns storage.ErrNotFound into a NotFound error with the given
// message. Other errors pass through.
func notFound(err error, format string, args ...any) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.NotFound(format, args...)
	}
	return err
}

func conflict(err error, format string, args ...any) error {
	if errors.Is(err, storage.ErrConflict) {
		return apperr.Conflict(format, args...)
	}
	return err
}

func requireUser(ctx context.Context, st storage.UserStore, id int64) error {
	if _, err := st.GetUser(ctx, id); err != nil {
		return notFound(err, "User with id=%d was not found", id)
	}
	return nil
}
