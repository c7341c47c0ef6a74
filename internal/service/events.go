package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"example.com/ewm/internal/apperr"
	"example.com/ewm/internal/domain"
	"example.com/ewm/internal/storage"
)

// EventService owns the event lifecycle, participation-request moderation
// and view counting.
type EventService struct {
	store storage.Store
	stats StatsClient
	app   string
	log   *logrus.Entry
	now   func() time.Time
}

func (s *EventService) Create(ctx context.Context, userID int64, in domain.NewEvent) (domain.EventFull, error) {
	if err := domain.Validate(in); err != nil {
		return domain.EventFull{}, err
	}
	if in.EventDate.IsZero() {
		return domain.EventFull{}, apperr.Validation("Field: eventDate. Error: must not be blank. Value: null")
	}
	now := s.now()
	if err := domain.CheckEventDate(in.EventDate.Time, now, domain.OwnerDateLead); err != nil {
		return domain.EventFull{}, err
	}

	var created domain.Event
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		if err := requireUser(ctx, s.store, userID); err != nil {
			return err
		}
		cat, err := s.store.GetCategory(ctx, in.Category)
		if err != nil {
			return notFound(err, "Category with id=%d was not found", in.Category)
		}
		loc, err := s.store.CreateLocation(ctx, *in.Location)
		if err != nil {
			return err
		}
		e := domain.Event{
			Title:             in.Title,
			Annotation:        in.Annotation,
			Description:       in.Description,
			Category:          cat,
			Initiator:         domain.User{ID: userID},
			Location:          &loc,
			EventDate:         in.EventDate.Time,
			ParticipantLimit:  in.ParticipantLimit,
			Paid:              boolOr(in.Paid, false),
			RequestModeration: boolOr(in.RequestModeration, true),
			State:             domain.EventPending,
			CreatedOn:         now,
		}
		created, err = s.store.CreateEvent(ctx, e)
		return err
	})
	if err != nil {
		return domain.EventFull{}, err
	}
	s.log.WithFields(logrus.Fields{"event_id": created.ID, "user_id": userID}).Info("event created")
	return domain.ToEventFull(created), nil
}

// ListByOwner pages through the events initiated by userID.
func (s *EventService) ListByOwner(ctx context.Context, userID int64, page domain.Page) ([]domain.EventShort, error) {
	if err := requireUser(ctx, s.store, userID); err != nil {
		return nil, err
	}
	events, err := s.store.FindEvents(ctx, storage.EventFilter{Initiators: []int64{userID}, Page: page})
	if err != nil {
		return nil, err
	}
	return s.shorts(ctx, events, nil)
}

func (s *EventService) GetByOwner(ctx context.Context, userID, eventID int64) (domain.EventFull, error) {
	if err := requireUser(ctx, s.store, userID); err != nil {
		return domain.EventFull{}, err
	}
	e, err := s.store.GetEventByInitiator(ctx, userID, eventID)
	if err != nil {
		return domain.EventFull{}, notFound(err, "Event with id=%d was not found", eventID)
	}
	return s.full(ctx, e, 0)
}

// UpdateByOwner edits an unpublished event of its initiator and applies the
// optional review action.
func (s *EventService) UpdateByOwner(ctx context.Context, userID, eventID int64, in domain.UpdateEventUser) (domain.EventFull, error) {
	if err := domain.Validate(in); err != nil {
		return domain.EventFull{}, err
	}
	var updated domain.Event
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		if err := requireUser(ctx, s.store, userID); err != nil {
			return err
		}
		e, err := s.store.GetEventByInitiator(ctx, userID, eventID)
		if err != nil {
			return notFound(err, "Event with id=%d was not found", eventID)
		}
		if e.State == domain.EventPublished {
			return apperr.Conflict("Only pending or canceled events can be changed")
		}
		if in.EventDate != nil {
			if err := domain.CheckEventDate(in.EventDate.Time, s.now(), domain.OwnerDateLead); err != nil {
				return err
			}
		}
		if err := s.applyPatch(ctx, &e, in.EventPatch); err != nil {
			return err
		}
		if in.StateAction != nil {
			switch *in.StateAction {
			case domain.SendToReview:
				e.State = domain.EventPending
			case domain.CancelReview:
				e.State = domain.EventCanceled
			}
		}
		updated, err = s.store.UpdateEvent(ctx, e)
		return notFound(err, "Event with id=%d was not found", eventID)
	})
	if err != nil {
		return domain.EventFull{}, err
	}
	return s.full(ctx, updated, 0)
}

// UpdateByAdmin edits a pending event and applies the optional review
// decision. Publishing stamps publishedOn.
func (s *EventService) UpdateByAdmin(ctx context.Context, eventID int64, in domain.UpdateEventAdmin) (domain.EventFull, error) {
	if err := domain.Validate(in); err != nil {
		return domain.EventFull{}, err
	}
	var updated domain.Event
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		e, err := s.store.GetEvent(ctx, eventID)
		if err != nil {
			return notFound(err, "Event with id=%d was not found", eventID)
		}
		if e.State == domain.EventPublished || e.State == domain.EventCanceled {
			return apperr.Conflict("Cannot change the event because it's not in the right state: %s", e.State)
		}
		now := s.now()
		if in.EventDate != nil {
			if err := domain.CheckEventDate(in.EventDate.Time, now, domain.AdminDateLead); err != nil {
				return err
			}
		}
		if err := s.applyPatch(ctx, &e, in.EventPatch); err != nil {
			return err
		}
		if in.StateAction != nil {
			switch *in.StateAction {
			case domain.PublishEvent:
				e.State = domain.EventPublished
				e.PublishedOn = &now
			case domain.RejectEvent:
				e.State = domain.EventCanceled
			}
		}
		updated, err = s.store.UpdateEvent(ctx, e)
		return notFound(err, "Event with id=%d was not found", eventID)
	})
	if err != nil {
		return domain.EventFull{}, err
	}
	if in.StateAction != nil {
		s.log.WithFields(logrus.Fields{"event_id": eventID, "state": updated.State}).Info("event reviewed")
	}
	return s.full(ctx, updated, 0)
}

// applyPatch copies every set field of p onto e. The event date is copied
// as is; callers check its lead time first.
func (s *EventService) applyPatch(ctx context.Context, e *domain.Event, p domain.EventPatch) error {
	if p.Annotation != nil {
		e.Annotation = *p.Annotation
	}
	if p.Category != nil {
		cat, err := s.store.GetCategory(ctx, *p.Category)
		if err != nil {
			return notFound(err, "Category with id=%d was not found", *p.Category)
		}
		e.Category = cat
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.EventDate != nil {
		e.EventDate = p.EventDate.Time
	}
	if p.Location != nil {
		loc, err := s.store.CreateLocation(ctx, *p.Location)
		if err != nil {
			return err
		}
		e.Location = &loc
	}
	if p.Paid != nil {
		e.Paid = *p.Paid
	}
	if p.ParticipantLimit != nil {
		e.ParticipantLimit = *p.ParticipantLimit
	}
	if p.RequestModeration != nil {
		e.RequestModeration = *p.RequestModeration
	}
	if p.Title != nil {
		e.Title = *p.Title
	}
	return nil
}

func (s *EventService) ListRequestsByOwner(ctx context.Context, userID, eventID int64) ([]domain.ParticipationRequest, error) {
	if err := requireUser(ctx, s.store, userID); err != nil {
		return nil, err
	}
	if _, err := s.store.GetEventByInitiator(ctx, userID, eventID); err != nil {
		return nil, notFound(err, "Event with id=%d was not found", eventID)
	}
	rs, err := s.store.ListRequestsByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return domain.ToParticipationRequests(rs), nil
}

// full maps e with its confirmed-request count and the given view count.
func (s *EventService) full(ctx context.Context, e domain.Event, views int64) (domain.EventFull, error) {
	counts, err := s.store.CountConfirmed(ctx, []int64{e.ID})
	if err != nil {
		return domain.EventFull{}, err
	}
	out := domain.ToEventFull(e)
	out.ConfirmedRequests = counts[e.ID]
	out.Views = views
	return out, nil
}

func (s *EventService) fulls(ctx context.Context, events []domain.Event) ([]domain.EventFull, error) {
	counts, err := s.store.CountConfirmed(ctx, eventIDs(events))
	if err != nil {
		return nil, err
	}
	out := make([]domain.EventFull, 0, len(events))
	for _, e := range events {
		f := domain.ToEventFull(e)
		f.ConfirmedRequests = counts[e.ID]
		out = append(out, f)
	}
	return out, nil
}

// shorts maps events with confirmed and comment counts. views may be nil.
func (s *EventService) shorts(ctx context.Context, events []domain.Event, views map[int64]int64) ([]domain.EventShort, error) {
	ids := eventIDs(events)
	confirmed, err := s.store.CountConfirmed(ctx, ids)
	if err != nil {
		return nil, err
	}
	comments, err := s.store.CountComments(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]domain.EventShort, 0, len(events))
	for _, e := range events {
		sh := domain.ToEventShort(e)
		sh.ConfirmedRequests = confirmed[e.ID]
		sh.Comments = comments[e.ID]
		sh.Views = views[e.ID]
		out = append(out, sh)
	}
	return out, nil
}

func eventIDs(events []domain.Event) []int64 {
	ids := make([]int64, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	return ids
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
