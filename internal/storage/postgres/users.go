package postgres

import (
	"context"

	"example.com/ewm/internal/domain"
	"example.com/ewm/internal/storage"
)

// Store implements storage.Store on top of a pgx pool.
type Store struct {
	*DB
}

var _ storage.Store = (*Store)(nil)

func New(db *DB) *Store {
	return &Store{DB: db}
}

// --- UserStore ---------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	err := s.conn(ctx).QueryRow(ctx, `
		INSERT INTO users (name, email) VALUES ($1, $2)
		RETURNING id
	`, u.Name, u.Email).Scan(&u.ID)
	if err != nil {
		return domain.User{}, mapErr(err)
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (domain.User, error) {
	var u domain.User
	err := s.conn(ctx).QueryRow(ctx, `SELECT id, name, email FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Name, &u.Email)
	if err != nil {
		return domain.User{}, mapErr(err)
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context, ids []int64, page domain.Page) ([]domain.User, error) {
	sql := `SELECT id, name, email FROM users`
	args := []any{page.Limit(), page.Offset()}
	if len(ids) > 0 {
		sql += ` WHERE id = ANY($3)`
		args = append(args, ids)
	}
	sql += ` ORDER BY id LIMIT $1 OFFSET $2`

	rows, err := s.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.User{}
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	tag, err := s.conn(ctx).Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	return notFoundIfNone(tag)
}
