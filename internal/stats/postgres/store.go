// Package postgres persists hits with sqlx on top of lib/pq.
package postgres

import (
	"context"
	"embed"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"example.com/ewm/internal/migrations"
	"example.com/ewm/internal/stats"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

type Store struct {
	db *sqlx.DB
}

func Open(dsn string) (*Store, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open stats db: %w", err)
	}
	return New(db), nil
}

func New(db *sqlx.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Ready(ctx context.Context) error { return s.db.PingContext(ctx) }

// Migrate applies the embedded hits schema.
func Migrate(dsn string) error {
	return migrations.Up(dsn, migrationFiles, "migrations", "stats_schema_migrations")
}

func (s *Store) SaveHit(ctx context.Context, h stats.Hit) (stats.Hit, error) {
	err := s.db.QueryRowxContext(ctx, insertHit, h.App, h.URI, h.IP, h.Timestamp.Time).Scan(&h.ID)
	if err != nil {
		return stats.Hit{}, fmt.Errorf("insert hit: %w", err)
	}
	return h, nil
}

const insertHit = `INSERT INTO hits (app, uri, ip, created) VALUES ($1, $2, $3, $4) RETURNING id`

// SaveHits writes hs in one transaction, one insert per hit, so every id is
// read back next to the row it belongs to. Either all hits are stored or
// none.
func (s *Store) SaveHits(ctx context.Context, hs []stats.Hit) (_ []stats.Hit, err error) {
	if len(hs) == 0 {
		return nil, nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin hits: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	out := make([]stats.Hit, len(hs))
	for i, h := range hs {
		if err = tx.QueryRowxContext(ctx, insertHit, h.App, h.URI, h.IP, h.Timestamp.Time).Scan(&h.ID); err != nil {
			return nil, fmt.Errorf("insert hit %d of %d: %w", i+1, len(hs), err)
		}
		out[i] = h
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit hits: %w", err)
	}
	return out, nil
}

func (s *Store) Stats(ctx context.Context, q stats.Query) ([]stats.ViewStats, error) {
	query, args, err := statsQuery(q)
	if err != nil {
		return nil, err
	}
	out := []stats.ViewStats{}
	if err := s.db.SelectContext(ctx, &out, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select stats: %w", err)
	}
	return out, nil
}

// statsQuery is written with bindvar '?' so sqlx.In can expand the uri list;
// callers rebind it for the driver.
func statsQuery(q stats.Query) (string, []any, error) {
	count := "COUNT(ip)"
	if q.Unique {
		count = "COUNT(DISTINCT ip)"
	}
	query := "SELECT app, uri, " + count + " AS hits FROM hits WHERE created BETWEEN ? AND ?"
	args := []any{q.Start, q.End}

	if len(q.URIs) > 0 {
		query += " AND uri IN (?)"
		args = append(args, q.URIs)
		expanded, expandedArgs, err := sqlx.In(query, args...)
		if err != nil {
			return "", nil, fmt.Errorf("expand uris: %w", err)
		}
		query, args = expanded, expandedArgs
	}
	query += " GROUP BY app, uri ORDER BY hits DESC, uri"
	return query, args, nil
}
