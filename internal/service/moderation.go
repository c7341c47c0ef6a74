package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"example.com/ewm/internal/apperr"
	"example.com/ewm/internal/domain"
	"example.com/ewm/internal/metrics"
)

// ModerateRequests confirms or rejects a batch of requests to an event of
// userID, bounded by the event's free participant slots.
func (s *EventService) ModerateRequests(ctx context.Context, userID, eventID int64, in domain.RequestStatusUpdate) (domain.RequestStatusUpdateResult, error) {
	if err := domain.Validate(in); err != nil {
		return domain.RequestStatusUpdateResult{}, err
	}

	var confirmed, rejected []domain.Request
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		if err := requireUser(ctx, s.store, userID); err != nil {
			return err
		}
		e, err := s.store.GetEventByInitiator(ctx, userID, eventID)
		if err != nil {
			return notFound(err, "Event with id=%d was not found", eventID)
		}
		if !e.Moderated() {
			return apperr.Conflict("Event with id=%d does not require request moderation", eventID)
		}
		taken, err := s.store.CountRequests(ctx, e.ID, domain.RequestConfirmed)
		if err != nil {
			return err
		}
		if taken >= e.ParticipantLimit {
			return apperr.Conflict("The participant limit has been reached")
		}
		if in.Status != domain.RequestConfirmed && in.Status != domain.RequestRejected {
			return apperr.Validation("Field: status. Error: must be CONFIRMED or REJECTED. Value: %s", in.Status)
		}

		ids := uniqueIDs(in.RequestIDs)
		reqs, err := s.store.ListRequestsByEventAndIDs(ctx, e.ID, ids)
		if err != nil {
			return err
		}
		if len(reqs) != len(ids) {
			return apperr.NotFound("Some of requests %v were not found for event with id=%d", ids, eventID)
		}

		confirmed, rejected = moderate(reqs, in.Status, e.ParticipantLimit-taken)
		changed := make([]domain.Request, 0, len(confirmed)+len(rejected))
		changed = append(changed, confirmed...)
		changed = append(changed, rejected...)
		return notFound(s.store.UpdateRequestStatuses(ctx, changed), "Some of requests %v were not found", ids)
	})
	if err != nil {
		return domain.RequestStatusUpdateResult{}, err
	}

	metrics.RecordModeration(string(domain.RequestConfirmed), len(confirmed))
	metrics.RecordModeration(string(domain.RequestRejected), len(rejected))
	s.log.WithFields(logrus.Fields{
		"event_id":  eventID,
		"confirmed": len(confirmed),
		"rejected":  len(rejected),
	}).Info("requests moderated")

	return domain.RequestStatusUpdateResult{
		ConfirmedRequests: domain.ToParticipationRequests(confirmed),
		RejectedRequests:  domain.ToParticipationRequests(rejected),
	}, nil
}

// moderate walks reqs in order while free slots remain, giving each the
// target status. When confirming, requests left over once the slots run out
// are rejected. In both directions a request that is not PENDING stops the
// rejection walk, and everything after it stays as it was.
func moderate(reqs []domain.Request, target domain.RequestStatus, free int) (confirmed, rejected []domain.Request) {
	if target == domain.RequestConfirmed {
		i := 0
		for ; i < len(reqs) && free > 0; i++ {
			r := reqs[i]
			r.Status = domain.RequestConfirmed
			confirmed = append(confirmed, r)
			free--
		}
		for _, r := range reqs[i:] {
			if r.Status != domain.RequestPending {
				break
			}
			r.Status = domain.RequestRejected
			rejected = append(rejected, r)
		}
		return confirmed, rejected
	}

	for _, r := range reqs {
		if free <= 0 || r.Status != domain.RequestPending {
			break
		}
		r.Status = domain.RequestRejected
		rejected = append(rejected, r)
		free--
	}
	return nil, rejected
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
