package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"example.com/ewm/internal/domain"
	"example.com/ewm/internal/storage"
)

func TestBuildEventQueryNoCriteria(t *testing.T) {
	sql, args := buildEventQuery(storage.EventFilter{})

	assert.NotContains(t, sql, "WHERE")
	assert.Contains(t, sql, "ORDER BY e.id ASC")
	assert.Contains(t, sql, "LIMIT $1 OFFSET $2")
	assert.Equal(t, []any{domain.DefaultPageSize, 0}, args)
}

func TestBuildEventQueryAllCriteria(t *testing.T) {
	paid := true
	start := time.Date(2035, 1, 1, 0, 0, 0, 0, time.Local)
	end := start.Add(48 * time.Hour)

	sql, args := buildEventQuery(storage.EventFilter{
		Initiators:    []int64{1, 2},
		States:        []domain.EventState{domain.EventPublished},
		Categories:    []int64{7},
		Text:          "Jazz",
		Paid:          &paid,
		RangeStart:    &start,
		RangeEnd:      &end,
		OnlyAvailable: true,
		Sort:          storage.SortByEventDate,
		Page:          domain.Page{From: 25, Size: 10},
	})

	for _, want := range []string{
		"e.initiator_id = ANY($1)",
		"e.state = ANY($2)",
		"e.category_id = ANY($3)",
		"(LOWER(e.annotation) LIKE $4 OR LOWER(e.description) LIKE $4)",
		"e.paid = $5",
		"e.event_date >= $6",
		"e.event_date <= $7",
		"e.participant_limit = 0 OR e.participant_limit >",
		"ORDER BY e.event_date ASC, e.id ASC",
		"LIMIT $8 OFFSET $9",
	} {
		assert.Contains(t, sql, want)
	}
	assert.Equal(t, []any{
		[]int64{1, 2}, []string{"PUBLISHED"}, []int64{7}, "%jazz%", true, start, end, 10, 20,
	}, args)
}

func TestBuildStatusUpdate(t *testing.T) {
	sql, args := buildStatusUpdate([]domain.Request{
		{ID: 4, Status: domain.RequestConfirmed},
		{ID: 9, Status: domain.RequestRejected},
	})

	assert.Equal(t,
		"UPDATE requests AS r SET status = v.status FROM (VALUES ($1::bigint, $2::varchar),($3::bigint, $4::varchar)) AS v(id, status) WHERE r.id = v.id",
		sql)
	assert.Equal(t, []any{int64(4), "CONFIRMED", int64(9), "REJECTED"}, args)
}
