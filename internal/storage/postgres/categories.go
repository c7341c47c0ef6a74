package postgres

import (
	"context"

	"example.com/ewm/internal/domain"
)

// --- CategoryStore -----------------------------------------------------------

func (s *Store) CreateCategory(ctx context.Context, c domain.Category) (domain.Category, error) {
	err := s.conn(ctx).QueryRow(ctx, `INSERT INTO categories (name) VALUES ($1) RETURNING id`, c.Name).Scan(&c.ID)
	if err != nil {
		return domain.Category{}, mapErr(err)
	}
	return c, nil
}

func (s *Store) UpdateCategory(ctx context.Context, c domain.Category) (domain.Category, error) {
	tag, err := s.conn(ctx).Exec(ctx, `UPDATE categories SET name = $2 WHERE id = $1`, c.ID, c.Name)
	if err != nil {
		return domain.Category{}, mapErr(err)
	}
	if err := notFoundIfNone(tag); err != nil {
		return domain.Category{}, err
	}
	return c, nil
}

func (s *Store) GetCategory(ctx context.Context, id int64) (domain.Category, error) {
	var c domain.Category
	err := s.conn(ctx).QueryRow(ctx, `SELECT id, name FROM categories WHERE id = $1`, id).Scan(&c.ID, &c.Name)
	if err != nil {
		return domain.Category{}, mapErr(err)
	}
	return c, nil
}

func (s *Store) ListCategories(ctx context.Context, page domain.Page) ([]domain.Category, error) {
	rows, err := s.conn(ctx).Query(ctx, `
		SELECT id, name FROM categories ORDER BY id LIMIT $1 OFFSET $2
	`, page.Limit(), page.Offset())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	tag, err := s.conn(ctx).Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	return notFoundIfNone(tag)
}

func (s *Store) CategoryInUse(ctx context.Context, id int64) (bool, error) {
	var used bool
	err := s.conn(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE category_id = $1)`, id).Scan(&used)
	return used, err
}

// --- LocationStore -----------------------------------------------------------

func (s *Store) CreateLocation(ctx context.Context, l domain.Location) (domain.Location, error) {
	err := s.conn(ctx).QueryRow(ctx, `
		INSERT INTO locations (lat, lon) VALUES ($1, $2) RETURNING id
	`, l.Lat, l.Lon).Scan(&l.ID)
	if err != nil {
		return domain.Location{}, mapErr(err)
	}
	return l, nil
}
