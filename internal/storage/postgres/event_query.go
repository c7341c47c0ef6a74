package postgres

import (
	"fmt"
	"strings"

	"example.com/ewm/internal/storage"
)

const eventColumns = `
  e.id, e.title, e.annotation, e.description,
  c.id, c.name,
  u.id, u.name,
  l.id, l.lat, l.lon,
  e.event_date, e.participant_limit, e.paid, e.request_moderation,
  e.state, e.created_on, e.published_on`

// Category, initiator and location are joined up front so reads never need
// follow-up lookups per row.
const eventFrom = `
FROM events e
JOIN categories c ON c.id = e.category_id
JOIN users u ON u.id = e.initiator_id
LEFT JOIN locations l ON l.id = e.location_id`

// buildEventQuery composes the WHERE clause from f one predicate at a time.
// Every unset criterion is left out.
func buildEventQuery(f storage.EventFilter) (string, []any) {
	var conds []string
	var args []any
	idx := 1

	add := func(format string, v any) {
		conds = append(conds, fmt.Sprintf(format, idx))
		args = append(args, v)
		idx++
	}

	if len(f.Initiators) > 0 {
		add("e.initiator_id = ANY($%d)", f.Initiators)
	}
	if len(f.States) > 0 {
		states := make([]string, len(f.States))
		for i, s := range f.States {
			states[i] = string(s)
		}
		add("e.state = ANY($%d)", states)
	}
	if len(f.Categories) > 0 {
		add("e.category_id = ANY($%d)", f.Categories)
	}
	if f.Text != "" {
		pattern := "%" + strings.ToLower(f.Text) + "%"
		conds = append(conds, fmt.Sprintf("(LOWER(e.annotation) LIKE $%d OR LOWER(e.description) LIKE $%d)", idx, idx))
		args = append(args, pattern)
		idx++
	}
	if f.Paid != nil {
		add("e.paid = $%d", *f.Paid)
	}
	if f.RangeStart != nil {
		add("e.event_date >= $%d", *f.RangeStart)
	}
	if f.RangeEnd != nil {
		add("e.event_date <= $%d", *f.RangeEnd)
	}
	if f.OnlyAvailable {
		conds = append(conds, `(e.participant_limit = 0 OR e.participant_limit > (
  SELECT COUNT(*) FROM requests r WHERE r.event_id = e.id AND r.status = 'CONFIRMED'))`)
	}

	sql := "SELECT" + eventColumns + eventFrom
	if len(conds) > 0 {
		sql += "\nWHERE " + strings.Join(conds, "\n  AND ")
	}

	switch f.Sort {
	case storage.SortByEventDate:
		sql += "\nORDER BY e.event_date ASC, e.id ASC"
	default:
		sql += "\nORDER BY e.id ASC"
	}

	sql += fmt.Sprintf("\nLIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, f.Page.Limit(), f.Page.Offset())
	return sql, args
}
