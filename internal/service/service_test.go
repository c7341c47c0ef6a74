package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/ewm/internal/datetime"
	"example.com/ewm/internal/domain"
	"example.com/ewm/internal/logging"
	"example.com/ewm/internal/stats"
	"example.com/ewm/internal/storage/memory"
)

type statsCall struct {
	start, end time.Time
	uris       []string
	unique     bool
}

// fakeStats records hits and answers view queries from a fixed table.
type fakeStats struct {
	mu    sync.Mutex
	hits  []stats.Hit
	calls []statsCall
	views map[string]int64
	// extra rows returned as is, e.g. hits of other apps
	extra []stats.ViewStats
	err   error
}

func (f *fakeStats) Hit(_ context.Context, h stats.Hit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.hits = append(f.hits, h)
	return nil
}

func (f *fakeStats) Stats(_ context.Context, start, end time.Time, uris []string, unique bool) ([]stats.ViewStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.calls = append(f.calls, statsCall{start: start, end: end, uris: uris, unique: unique})
	var out []stats.ViewStats
	for _, u := range uris {
		if n, ok := f.views[u]; ok {
			out = append(out, stats.ViewStats{App: "ewm-main-service", URI: u, Hits: n})
		}
	}
	return append(out, f.extra...), nil
}

type fixture struct {
	svc   *Services
	store *memory.Store
	stats *fakeStats
	now   time.Time
	seq   int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: memory.New(),
		stats: &fakeStats{views: map[string]int64{}},
		now:   time.Date(2035, 1, 1, 12, 0, 0, 0, time.Local),
	}
	f.svc = New(Deps{
		Store:   f.store,
		Stats:   f.stats,
		AppName: "ewm-main-service",
		Log:     logging.Discard(),
		Now:     func() time.Time { return f.now },
	})
	return f
}

func (f *fixture) ctx() context.Context { return context.Background() }

func (f *fixture) user(t *testing.T) int64 {
	t.Helper()
	f.seq++
	u, err := f.svc.Users.Create(f.ctx(), domain.NewUser{
		Name:  fmt.Sprintf("user %d", f.seq),
		Email: fmt.Sprintf("user%d@example.com", f.seq),
	})
	require.NoError(t, err)
	return u.ID
}

func (f *fixture) category(t *testing.T) int64 {
	t.Helper()
	f.seq++
	c, err := f.svc.Categories.Create(f.ctx(), domain.NewCategory{Name: fmt.Sprintf("category %d", f.seq)})
	require.NoError(t, err)
	return c.ID
}

func (f *fixture) newEvent(cat int64, limit int, moderation bool) domain.NewEvent {
	return domain.NewEvent{
		Annotation:        "An annotation that is long enough",
		Category:          cat,
		Description:       "A description that is long enough to pass",
		EventDate:         datetime.New(f.now.Add(3 * time.Hour)),
		Location:          &domain.Location{Lat: 55.75, Lon: 37.62},
		ParticipantLimit:  limit,
		RequestModeration: &moderation,
		Title:             "Meetup",
	}
}

func (f *fixture) event(t *testing.T, owner int64, limit int, moderation bool) int64 {
	t.Helper()
	e, err := f.svc.Events.Create(f.ctx(), owner, f.newEvent(f.category(t), limit, moderation))
	require.NoError(t, err)
	return e.ID
}

func (f *fixture) publish(t *testing.T, eventID int64) {
	t.Helper()
	action := domain.PublishEvent
	_, err := f.svc.Events.UpdateByAdmin(f.ctx(), eventID, domain.UpdateEventAdmin{StateAction: &action})
	require.NoError(t, err)
}

func (f *fixture) publishedEvent(t *testing.T, owner int64, limit int, moderation bool) int64 {
	t.Helper()
	id := f.event(t, owner, limit, moderation)
	f.publish(t, id)
	return id
}

// requests files one request per fresh user and returns their ids in order.
func (f *fixture) requests(t *testing.T, eventID int64, n int) []int64 {
	t.Helper()
	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		r, err := f.svc.Requests.Create(f.ctx(), f.user(t), eventID)
		require.NoError(t, err)
		ids = append(ids, r.ID)
	}
	return ids
}

func (f *fixture) statuses(t *testing.T, owner, eventID int64) map[int64]domain.RequestStatus {
	t.Helper()
	rs, err := f.svc.Events.ListRequestsByOwner(f.ctx(), owner, eventID)
	require.NoError(t, err)
	out := make(map[int64]domain.RequestStatus, len(rs))
	for _, r := range rs {
		out[r.ID] = r.Status
	}
	return out
}

func requestIDs(rs []domain.ParticipationRequest) []int64 {
	out := make([]int64, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.ID)
	}
	return out
}
