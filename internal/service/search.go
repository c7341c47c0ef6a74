package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"example.com/ewm/internal/apperr"
	"example.com/ewm/internal/datetime"
	"example.com/ewm/internal/domain"
	"example.com/ewm/internal/stats"
	"example.com/ewm/internal/storage"
)

// AdminSearch filters events for administrators. Empty fields match all.
type AdminSearch struct {
	Users      []int64
	States     []domain.EventState
	Categories []int64
	RangeStart *time.Time
	RangeEnd   *time.Time
	Page       domain.Page
}

type PublicSort string

const (
	SortEventDate PublicSort = "EVENT_DATE"
	SortViews     PublicSort = "VIEWS"
)

// PublicSearch filters published events. A nil RangeStart means now.
type PublicSearch struct {
	Text          string
	Categories    []int64
	Paid          *bool
	RangeStart    *time.Time
	RangeEnd      *time.Time
	OnlyAvailable bool
	Sort          PublicSort
	Page          domain.Page
}

// HitInfo describes the HTTP request being counted as a view.
type HitInfo struct {
	URI string
	IP  string
}

func (s *EventService) SearchAdmin(ctx context.Context, q AdminSearch) ([]domain.EventFull, error) {
	if err := checkRange(q.RangeStart, q.RangeEnd); err != nil {
		return nil, err
	}
	for _, st := range q.States {
		if !st.Valid() {
			return nil, apperr.Validation("Unknown state: %s", st)
		}
	}
	events, err := s.store.FindEvents(ctx, storage.EventFilter{
		Initiators: q.Users,
		States:     q.States,
		Categories: q.Categories,
		RangeStart: q.RangeStart,
		RangeEnd:   q.RangeEnd,
		Page:       q.Page,
	})
	if err != nil {
		return nil, err
	}
	return s.fulls(ctx, events)
}

// SearchPublic records the hit, then lists matching published events with
// their view counts. Sorting by views orders the returned page only.
func (s *EventService) SearchPublic(ctx context.Context, q PublicSearch, hit HitInfo) ([]domain.EventShort, error) {
	if err := checkRange(q.RangeStart, q.RangeEnd); err != nil {
		return nil, err
	}
	f := storage.EventFilter{
		States:        []domain.EventState{domain.EventPublished},
		Categories:    q.Categories,
		Text:          q.Text,
		Paid:          q.Paid,
		RangeStart:    q.RangeStart,
		RangeEnd:      q.RangeEnd,
		OnlyAvailable: q.OnlyAvailable,
		Page:          q.Page,
	}
	switch q.Sort {
	case "", SortViews:
	case SortEventDate:
		f.Sort = storage.SortByEventDate
	default:
		return nil, apperr.Validation("Unknown sort: %s", q.Sort)
	}
	if f.RangeStart == nil && f.RangeEnd == nil {
		now := s.now()
		f.RangeStart = &now
	}

	if err := s.recordHit(ctx, hit); err != nil {
		return nil, err
	}
	events, err := s.store.FindEvents(ctx, f)
	if err != nil {
		return nil, err
	}
	views, err := s.views(ctx, events)
	if err != nil {
		return nil, err
	}
	out, err := s.shorts(ctx, events, views)
	if err != nil {
		return nil, err
	}
	if q.Sort == SortViews {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Views > out[j].Views })
	}
	return out, nil
}

// GetPublished returns a published event and counts the read as a view.
func (s *EventService) GetPublished(ctx context.Context, eventID int64, hit HitInfo) (domain.EventFull, error) {
	e, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return domain.EventFull{}, notFound(err, "Event with id=%d was not found", eventID)
	}
	if e.State != domain.EventPublished {
		return domain.EventFull{}, apperr.NotFound("Event with id=%d was not found", eventID)
	}
	if err := s.recordHit(ctx, hit); err != nil {
		return domain.EventFull{}, err
	}
	views, err := s.views(ctx, []domain.Event{e})
	if err != nil {
		return domain.EventFull{}, err
	}
	return s.full(ctx, e, views[e.ID])
}

func (s *EventService) recordHit(ctx context.Context, hit HitInfo) error {
	err := s.stats.Hit(ctx, stats.Hit{
		App:       s.app,
		URI:       hit.URI,
		IP:        hit.IP,
		Timestamp: datetime.New(s.now()),
	})
	if err != nil {
		return fmt.Errorf("record hit: %w", err)
	}
	return nil
}

// views fetches unique-IP view counts of events from the earliest creation
// time among them until now. Events without hits are absent.
func (s *EventService) views(ctx context.Context, events []domain.Event) (map[int64]int64, error) {
	out := make(map[int64]int64, len(events))
	if len(events) == 0 {
		return out, nil
	}
	start := events[0].CreatedOn
	byURI := make(map[string]int64, len(events))
	uris := make([]string, 0, len(events))
	for _, e := range events {
		if e.CreatedOn.Before(start) {
			start = e.CreatedOn
		}
		uri := domain.ViewURI(e.ID)
		byURI[uri] = e.ID
		uris = append(uris, uri)
	}
	vs, err := s.stats.Stats(ctx, start, s.now(), uris, true)
	if err != nil {
		return nil, fmt.Errorf("fetch views: %w", err)
	}
	// rows of other apps hitting the same uri are not our views
	for _, v := range vs {
		if v.App != s.app {
			continue
		}
		if id, ok := byURI[v.URI]; ok {
			out[id] += v.Hits
		}
	}
	return out, nil
}

func checkRange(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return apperr.Validation("rangeEnd %s must not be before rangeStart %s",
			datetime.Format(*end), datetime.Format(*start))
	}
	return nil
}
