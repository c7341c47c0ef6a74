package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"example.com/ewm/internal/domain"
	"example.com/ewm/internal/storage"
)

// --- EventStore --------------------------------------------------------------

func (s *Store) CreateEvent(ctx context.Context, e domain.Event) (domain.Event, error) {
	var id int64
	err := s.conn(ctx).QueryRow(ctx, `
		INSERT INTO events (title, annotation, description, category_id, initiator_id, location_id,
		                    event_date, participant_limit, paid, request_moderation, state, created_on, published_on)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`, e.Title, e.Annotation, e.Description, e.Category.ID, e.Initiator.ID, locationID(e.Location),
		e.EventDate, e.ParticipantLimit, e.Paid, e.RequestModeration, string(e.State), e.CreatedOn, e.PublishedOn).Scan(&id)
	if err != nil {
		return domain.Event{}, mapErr(err)
	}
	return s.GetEvent(ctx, id)
}

func (s *Store) UpdateEvent(ctx context.Context, e domain.Event) (domain.Event, error) {
	tag, err := s.conn(ctx).Exec(ctx, `
		UPDATE events
		SET title = $2, annotation = $3, description = $4, category_id = $5, location_id = $6,
		    event_date = $7, participant_limit = $8, paid = $9, request_moderation = $10,
		    state = $11, published_on = $12
		WHERE id = $1
	`, e.ID, e.Title, e.Annotation, e.Description, e.Category.ID, locationID(e.Location),
		e.EventDate, e.ParticipantLimit, e.Paid, e.RequestModeration, string(e.State), e.PublishedOn)
	if err != nil {
		return domain.Event{}, mapErr(err)
	}
	if err := notFoundIfNone(tag); err != nil {
		return domain.Event{}, err
	}
	return s.GetEvent(ctx, e.ID)
}

func (s *Store) GetEvent(ctx context.Context, id int64) (domain.Event, error) {
	row := s.conn(ctx).QueryRow(ctx, "SELECT"+eventColumns+eventFrom+"\nWHERE e.id = $1", id)
	e, err := scanEvent(row)
	if err != nil {
		return domain.Event{}, mapErr(err)
	}
	return e, nil
}

func (s *Store) GetEventByInitiator(ctx context.Context, initiatorID, eventID int64) (domain.Event, error) {
	row := s.conn(ctx).QueryRow(ctx,
		"SELECT"+eventColumns+eventFrom+"\nWHERE e.id = $1 AND e.initiator_id = $2", eventID, initiatorID)
	e, err := scanEvent(row)
	if err != nil {
		return domain.Event{}, mapErr(err)
	}
	return e, nil
}

func (s *Store) FindEvents(ctx context.Context, f storage.EventFilter) ([]domain.Event, error) {
	sql, args := buildEventQuery(f)
	rows, err := s.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEvent(row pgx.Row) (domain.Event, error) {
	var (
		e           domain.Event
		state       string
		locID       *int64
		lat, lon    *float64
		publishedOn *time.Time
	)
	err := row.Scan(
		&e.ID, &e.Title, &e.Annotation, &e.Description,
		&e.Category.ID, &e.Category.Name,
		&e.Initiator.ID, &e.Initiator.Name,
		&locID, &lat, &lon,
		&e.EventDate, &e.ParticipantLimit, &e.Paid, &e.RequestModeration,
		&state, &e.CreatedOn, &publishedOn,
	)
	if err != nil {
		return domain.Event{}, err
	}
	e.State = domain.EventState(state)
	e.PublishedOn = publishedOn
	if locID != nil && lat != nil && lon != nil {
		e.Location = &domain.Location{ID: *locID, Lat: *lat, Lon: *lon}
	}
	return e, nil
}

func locationID(l *domain.Location) *int64 {
	if l == nil || l.ID == 0 {
		return nil
	}
	return &l.ID
}
