package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"example.com/ewm/internal/domain"
)

// --- CommentStore ------------------------------------------------------------

const commentColumns = `id, text, event_id, author_id, created, last_updated_on`

func (s *Store) CreateComment(ctx context.Context, c domain.Comment) (domain.Comment, error) {
	now := time.Now()
	c.Created, c.LastUpdatedOn = now, now
	err := s.conn(ctx).QueryRow(ctx, `
		INSERT INTO comments (text, event_id, author_id, created, last_updated_on)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, c.Text, c.EventID, c.AuthorID, c.Created, c.LastUpdatedOn).Scan(&c.ID)
	if err != nil {
		return domain.Comment{}, mapErr(err)
	}
	return c, nil
}

func (s *Store) UpdateComment(ctx context.Context, c domain.Comment) (domain.Comment, error) {
	row := s.conn(ctx).QueryRow(ctx, `
		UPDATE comments SET text = $2, last_updated_on = $3
		WHERE id = $1
		RETURNING `+commentColumns, c.ID, c.Text, time.Now())
	out, err := scanComment(row)
	if err != nil {
		return domain.Comment{}, mapErr(err)
	}
	return out, nil
}

func (s *Store) GetComment(ctx context.Context, id int64) (domain.Comment, error) {
	row := s.conn(ctx).QueryRow(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, id)
	c, err := scanComment(row)
	if err != nil {
		return domain.Comment{}, mapErr(err)
	}
	return c, nil
}

func (s *Store) DeleteComment(ctx context.Context, id int64) error {
	tag, err := s.conn(ctx).Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	return notFoundIfNone(tag)
}

func (s *Store) ListCommentsByEvent(ctx context.Context, eventID int64, page domain.Page) ([]domain.Comment, error) {
	rows, err := s.conn(ctx).Query(ctx, `
		SELECT `+commentColumns+` FROM comments
		WHERE event_id = $1
		ORDER BY id
		LIMIT $2 OFFSET $3
	`, eventID, page.Limit(), page.Offset())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) CountComments(ctx context.Context, eventIDs []int64) (map[int64]int64, error) {
	out := make(map[int64]int64)
	if len(eventIDs) == 0 {
		return out, nil
	}
	rows, err := s.conn(ctx).Query(ctx, `
		SELECT event_id, COUNT(*) FROM comments
		WHERE event_id = ANY($1)
		GROUP BY event_id
	`, eventIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id, n int64
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}

func scanComment(row pgx.Row) (domain.Comment, error) {
	var c domain.Comment
	err := row.Scan(&c.ID, &c.Text, &c.EventID, &c.AuthorID, &c.Created, &c.LastUpdatedOn)
	return c, err
}
