package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"example.com/ewm/internal/domain"
)

// --- RequestStore ------------------------------------------------------------

const requestColumns = `id, event_id, requester_id, status, created`

func (s *Store) CreateRequest(ctx context.Context, r domain.Request) (domain.Request, error) {
	err := s.conn(ctx).QueryRow(ctx, `
		INSERT INTO requests (event_id, requester_id, status, created)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, r.EventID, r.RequesterID, string(r.Status), r.Created).Scan(&r.ID)
	if err != nil {
		return domain.Request{}, mapErr(err)
	}
	return r, nil
}

func (s *Store) GetRequest(ctx context.Context, id int64) (domain.Request, error) {
	row := s.conn(ctx).QueryRow(ctx, `SELECT `+requestColumns+` FROM requests WHERE id = $1`, id)
	r, err := scanRequest(row)
	if err != nil {
		return domain.Request{}, mapErr(err)
	}
	return r, nil
}

func (s *Store) RequestExists(ctx context.Context, eventID, requesterID int64) (bool, error) {
	var exists bool
	err := s.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM requests WHERE event_id = $1 AND requester_id = $2)
	`, eventID, requesterID).Scan(&exists)
	return exists, err
}

func (s *Store) ListRequestsByRequester(ctx context.Context, requesterID int64) ([]domain.Request, error) {
	return s.queryRequests(ctx, `SELECT `+requestColumns+` FROM requests WHERE requester_id = $1 ORDER BY id`, requesterID)
}

func (s *Store) ListRequestsByEvent(ctx context.Context, eventID int64) ([]domain.Request, error) {
	return s.queryRequests(ctx, `SELECT `+requestColumns+` FROM requests WHERE event_id = $1 ORDER BY id`, eventID)
}

func (s *Store) ListRequestsByEventAndIDs(ctx context.Context, eventID int64, ids []int64) ([]domain.Request, error) {
	return s.queryRequests(ctx, `
		SELECT `+requestColumns+` FROM requests
		WHERE event_id = $1 AND id = ANY($2)
		ORDER BY id
	`, eventID, ids)
}

func (s *Store) CountRequests(ctx context.Context, eventID int64, status domain.RequestStatus) (int, error) {
	var n int
	err := s.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM requests WHERE event_id = $1 AND status = $2
	`, eventID, string(status)).Scan(&n)
	return n, err
}

func (s *Store) CountConfirmed(ctx context.Context, eventIDs []int64) (map[int64]int, error) {
	out := make(map[int64]int)
	if len(eventIDs) == 0 {
		return out, nil
	}
	rows, err := s.conn(ctx).Query(ctx, `
		SELECT event_id, COUNT(*) FROM requests
		WHERE event_id = ANY($1) AND status = $2
		GROUP BY event_id
	`, eventIDs, string(domain.RequestConfirmed))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}

func (s *Store) queryRequests(ctx context.Context, sql string, args ...any) ([]domain.Request, error) {
	rows, err := s.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Request{}
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanRequest(row pgx.Row) (domain.Request, error) {
	var r domain.Request
	var status string
	if err := row.Scan(&r.ID, &r.EventID, &r.RequesterID, &status, &r.Created); err != nil {
		return domain.Request{}, err
	}
	r.Status = domain.RequestStatus(status)
	return r, nil
}
