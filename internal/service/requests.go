package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"example.com/ewm/internal/apperr"
	"example.com/ewm/internal/domain"
	"example.com/ewm/internal/metrics"
	"example.com/ewm/internal/storage"
)

// RequestService handles a user's own participation requests.
type RequestService struct {
	store storage.Store
	log   *logrus.Entry
	now   func() time.Time
}

// Create files a request of userID for eventID. It is confirmed at once when
// the event needs no moderation.
func (s *RequestService) Create(ctx context.Context, userID, eventID int64) (domain.ParticipationRequest, error) {
	var created domain.Request
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		if err := requireUser(ctx, s.store, userID); err != nil {
			return err
		}
		e, err := s.store.GetEvent(ctx, eventID)
		if err != nil {
			return notFound(err, "Event with id=%d was not found", eventID)
		}
		if e.Initiator.ID == userID {
			return apperr.Conflict("The initiator cannot request participation in their own event")
		}
		if e.State != domain.EventPublished {
			return apperr.Conflict("Cannot participate in an unpublished event")
		}
		exists, err := s.store.RequestExists(ctx, eventID, userID)
		if err != nil {
			return err
		}
		if exists {
			return apperr.Conflict("Request of user %d for event %d already exists", userID, eventID)
		}
		if e.ParticipantLimit > 0 {
			taken, err := s.store.CountRequests(ctx, eventID, domain.RequestConfirmed)
			if err != nil {
				return err
			}
			if taken >= e.ParticipantLimit {
				return apperr.Conflict("The participant limit has been reached")
			}
		}

		status := domain.RequestPending
		if !e.Moderated() {
			status = domain.RequestConfirmed
		}
		created, err = s.store.CreateRequest(ctx, domain.Request{
			EventID:     eventID,
			RequesterID: userID,
			Status:      status,
			Created:     s.now(),
		})
		return conflict(err, "Request of user %d for event %d already exists", userID, eventID)
	})
	if err != nil {
		return domain.ParticipationRequest{}, err
	}
	metrics.RecordParticipationRequest(string(created.Status))
	s.log.WithFields(logrus.Fields{"request_id": created.ID, "event_id": eventID, "status": created.Status}).
		Info("participation request created")
	return domain.ToParticipationRequest(created), nil
}

func (s *RequestService) ListMine(ctx context.Context, userID int64) ([]domain.ParticipationRequest, error) {
	if err := requireUser(ctx, s.store, userID); err != nil {
		return nil, err
	}
	rs, err := s.store.ListRequestsByRequester(ctx, userID)
	if err != nil {
		return nil, err
	}
	return domain.ToParticipationRequests(rs), nil
}

// Cancel withdraws a request of userID.
func (s *RequestService) Cancel(ctx context.Context, userID, requestID int64) (domain.ParticipationRequest, error) {
	var canceled domain.Request
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		if err := requireUser(ctx, s.store, userID); err != nil {
			return err
		}
		r, err := s.store.GetRequest(ctx, requestID)
		if err != nil {
			return notFound(err, "Request with id=%d was not found", requestID)
		}
		if r.RequesterID != userID {
			return apperr.NotFound("Request with id=%d was not found", requestID)
		}
		r.Status = domain.RequestCanceled
		if err := s.store.UpdateRequestStatuses(ctx, []domain.Request{r}); err != nil {
			return notFound(err, "Request with id=%d was not found", requestID)
		}
		canceled = r
		return nil
	})
	if err != nil {
		return domain.ParticipationRequest{}, err
	}
	return domain.ToParticipationRequest(canceled), nil
}
