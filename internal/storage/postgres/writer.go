package postgres

import (
	"context"
	"fmt"
	"strings"

	"example.com/ewm/internal/domain"
	"example.com/ewm/internal/storage"
)

// UpdateRequestStatuses writes the status of every request in one statement.
// All ids must exist, otherwise nothing is changed and ErrNotFound is returned.
func (s *Store) UpdateRequestStatuses(ctx context.Context, rs []domain.Request) error {
	if len(rs) == 0 {
		return nil
	}
	sql, args := buildStatusUpdate(rs)
	tag, err := s.conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() != int64(len(rs)) {
		return fmt.Errorf("%w: updated %d of %d requests", storage.ErrNotFound, tag.RowsAffected(), len(rs))
	}
	return nil
}

func buildStatusUpdate(rs []domain.Request) (string, []any) {
	placeholders := make([]string, 0, len(rs))
	args := make([]any, 0, len(rs)*2)

	argi := 1
	for _, r := range rs {
		placeholders = append(placeholders, fmt.Sprintf("($%d::bigint, $%d::varchar)", argi, argi+1))
		args = append(args, r.ID, string(r.Status))
		argi += 2
	}

	sql := "UPDATE requests AS r SET status = v.status FROM (VALUES " +
		strings.Join(placeholders, ",") +
		") AS v(id, status) WHERE r.id = v.id"
	return sql, args
}
