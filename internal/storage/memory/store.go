// Package memory is a map-backed storage.Store for local runs and tests.
package memory

import (
	"context"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"example.com/ewm/internal/domain"
	"example.com/ewm/internal/storage"
)

type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	nextID     int64
	users      map[int64]domain.User
	categories map[int64]domain.Category
	locations  map[int64]domain.Location
	events     map[int64]domain.Event
	requests   map[int64]domain.Request
	comments   map[int64]domain.Comment

	now func() time.Time
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:      make(map[int64]domain.User),
		categories: make(map[int64]domain.Category),
		locations:  make(map[int64]domain.Location),
		events:     make(map[int64]domain.Event),
		requests:   make(map[int64]domain.Request),
		comments:   make(map[int64]domain.Comment),
		now:        time.Now,
	}
}

type txKey struct{}

// WithinTx serializes transactions with every other write. When fn fails,
// the store is put back the way it was before fn ran.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// exclusive takes txMu for a write made outside a transaction, so a
// rollback never undoes it. Inside a transaction txMu is already held.
func (s *Store) exclusive(ctx context.Context) (unlock func()) {
	if ctx.Value(txKey{}) != nil {
		return func() {}
	}
	s.txMu.Lock()
	return s.txMu.Unlock
}

type snapshot struct {
	nextID     int64
	users      map[int64]domain.User
	categories map[int64]domain.Category
	locations  map[int64]domain.Location
	events     map[int64]domain.Event
	requests   map[int64]domain.Request
	comments   map[int64]domain.Comment
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{
		nextID:     s.nextID,
		users:      maps.Clone(s.users),
		categories: maps.Clone(s.categories),
		locations:  maps.Clone(s.locations),
		events:     maps.Clone(s.events),
		requests:   maps.Clone(s.requests),
		comments:   maps.Clone(s.comments),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID = snap.nextID
	s.users = snap.users
	s.categories = snap.categories
	s.locations = snap.locations
	s.events = snap.events
	s.requests = snap.requests
	s.comments = snap.comments
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// --- UserStore ---------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	defer s.exclusive(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return domain.User{}, storage.ErrConflict
		}
	}
	u.ID = s.id()
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id int64) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (s *Store) ListUsers(_ context.Context, ids []int64, page domain.Page) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := idSet(ids)
	var out []domain.User
	for _, u := range s.users {
		if want == nil || want[u.ID] {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, page), nil
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	defer s.exclusive(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.users, id)
	for eid, e := range s.events {
		if e.Initiator.ID == id {
			s.deleteEventLocked(eid)
		}
	}
	for rid, r := range s.requests {
		if r.RequesterID == id {
			delete(s.requests, rid)
		}
	}
	for cid, c := range s.comments {
		if c.AuthorID == id {
			delete(s.comments, cid)
		}
	}
	return nil
}

func (s *Store) deleteEventLocked(id int64) {
	delete(s.events, id)
	for rid, r := range s.requests {
		if r.EventID == id {
			delete(s.requests, rid)
		}
	}
	for cid, c := range s.comments {
		if c.EventID == id {
			delete(s.comments, cid)
		}
	}
}

// --- CategoryStore -----------------------------------------------------------

func (s *Store) CreateCategory(ctx context.Context, c domain.Category) (domain.Category, error) {
	defer s.exclusive(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.categoryNameTakenLocked(c.Name, 0) {
		return domain.Category{}, storage.ErrConflict
	}
	c.ID = s.id()
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) UpdateCategory(ctx context.Context, c domain.Category) (domain.Category, error) {
	defer s.exclusive(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[c.ID]; !ok {
		return domain.Category{}, storage.ErrNotFound
	}
	if s.categoryNameTakenLocked(c.Name, c.ID) {
		return domain.Category{}, storage.ErrConflict
	}
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) categoryNameTakenLocked(name string, except int64) bool {
	for _, existing := range s.categories {
		if existing.ID != except && existing.Name == name {
			return true
		}
	}
	return false
}

func (s *Store) GetCategory(_ context.Context, id int64) (domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok {
		return domain.Category{}, storage.ErrNotFound
	}
	return c, nil
}

func (s *Store) ListCategories(_ context.Context, page domain.Page) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, page), nil
}

func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	defer s.exclusive(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return storage.ErrNotFound
	}
	for _, e := range s.events {
		if e.Category.ID == id {
			return storage.ErrConflict
		}
	}
	delete(s.categories, id)
	return nil
}

func (s *Store) CategoryInUse(_ context.Context, id int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.events {
		if e.Category.ID == id {
			return true, nil
		}
	}
	return false, nil
}

// --- LocationStore -----------------------------------------------------------

func (s *Store) CreateLocation(ctx context.Context, l domain.Location) (domain.Location, error) {
	defer s.exclusive(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()
	l.ID = s.id()
	s.locations[l.ID] = l
	return l, nil
}

// --- EventStore --------------------------------------------------------------

func (s *Store) CreateEvent(ctx context.Context, e domain.Event) (domain.Event, error) {
	defer s.exclusive(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[e.Initiator.ID]; !ok {
		return domain.Event{}, storage.ErrConflict
	}
	if _, ok := s.categories[e.Category.ID]; !ok {
		return domain.Event{}, storage.ErrConflict
	}
	e.ID = s.id()
	s.events[e.ID] = e
	return s.hydrateLocked(e), nil
}

func (s *Store) UpdateEvent(ctx context.Context, e domain.Event) (domain.Event, error) {
	defer s.exclusive(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[e.ID]; !ok {
		return domain.Event{}, storage.ErrNotFound
	}
	if _, ok := s.categories[e.Category.ID]; !ok {
		return domain.Event{}, storage.ErrConflict
	}
	s.events[e.ID] = e
	return s.hydrateLocked(e), nil
}

func (s *Store) GetEvent(_ context.Context, id int64) (domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	if !ok {
		return domain.Event{}, storage.ErrNotFound
	}
	return s.hydrateLocked(e), nil
}

func (s *Store) GetEventByInitiator(ctx context.Context, initiatorID, eventID int64) (domain.Event, error) {
	e, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return domain.Event{}, err
	}
	if e.Initiator.ID != initiatorID {
		return domain.Event{}, storage.ErrNotFound
	}
	return e, nil
}

func (s *Store) FindEvents(_ context.Context, f storage.EventFilter) ([]domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Event
	for _, e := range s.events {
		if s.matchesLocked(e, f) {
			out = append(out, s.hydrateLocked(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if f.Sort == storage.SortByEventDate && !out[i].EventDate.Equal(out[j].EventDate) {
			return out[i].EventDate.Before(out[j].EventDate)
		}
		return out[i].ID < out[j].ID
	})
	return paginate(out, f.Page), nil
}

func (s *Store) matchesLocked(e domain.Event, f storage.EventFilter) bool {
	if len(f.Initiators) > 0 && !idSet(f.Initiators)[e.Initiator.ID] {
		return false
	}
	if len(f.Categories) > 0 && !idSet(f.Categories)[e.Category.ID] {
		return false
	}
	if len(f.States) > 0 {
		found := false
		for _, st := range f.States {
			if st == e.State {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Text != "" {
		needle := strings.ToLower(f.Text)
		if !strings.Contains(strings.ToLower(e.Annotation), needle) &&
			!strings.Contains(strings.ToLower(e.Description), needle) {
			return false
		}
	}
	if f.Paid != nil && e.Paid != *f.Paid {
		return false
	}
	if f.RangeStart != nil && e.EventDate.Before(*f.RangeStart) {
		return false
	}
	if f.RangeEnd != nil && e.EventDate.After(*f.RangeEnd) {
		return false
	}
	if f.OnlyAvailable && e.ParticipantLimit > 0 &&
		s.countLocked(e.ID, domain.RequestConfirmed) >= e.ParticipantLimit {
		return false
	}
	return true
}

func (s *Store) hydrateLocked(e domain.Event) domain.Event {
	if c, ok := s.categories[e.Category.ID]; ok {
		e.Category = c
	}
	if u, ok := s.users[e.Initiator.ID]; ok {
		e.Initiator = domain.User{ID: u.ID, Name: u.Name}
	}
	if e.Location != nil {
		loc := *e.Location
		e.Location = &loc
	}
	return e
}

// --- RequestStore ------------------------------------------------------------

func (s *Store) CreateRequest(ctx context.Context, r domain.Request) (domain.Request, error) {
	defer s.exclusive(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.requests {
		if existing.EventID == r.EventID && existing.RequesterID == r.RequesterID {
			return domain.Request{}, storage.ErrConflict
		}
	}
	r.ID = s.id()
	s.requests[r.ID] = r
	return r, nil
}

func (s *Store) GetRequest(_ context.Context, id int64) (domain.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return domain.Request{}, storage.ErrNotFound
	}
	return r, nil
}

func (s *Store) RequestExists(_ context.Context, eventID, requesterID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.requests {
		if r.EventID == eventID && r.RequesterID == requesterID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ListRequestsByRequester(_ context.Context, requesterID int64) ([]domain.Request, error) {
	return s.filterRequests(func(r domain.Request) bool { return r.RequesterID == requesterID }), nil
}

func (s *Store) ListRequestsByEvent(_ context.Context, eventID int64) ([]domain.Request, error) {
	return s.filterRequests(func(r domain.Request) bool { return r.EventID == eventID }), nil
}

func (s *Store) ListRequestsByEventAndIDs(_ context.Context, eventID int64, ids []int64) ([]domain.Request, error) {
	want := idSet(ids)
	return s.filterRequests(func(r domain.Request) bool { return r.EventID == eventID && want[r.ID] }), nil
}

func (s *Store) filterRequests(keep func(domain.Request) bool) []domain.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Request{}
	for _, r := range s.requests {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) CountRequests(_ context.Context, eventID int64, status domain.RequestStatus) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countLocked(eventID, status), nil
}

func (s *Store) countLocked(eventID int64, status domain.RequestStatus) int {
	n := 0
	for _, r := range s.requests {
		if r.EventID == eventID && r.Status == status {
			n++
		}
	}
	return n
}

func (s *Store) CountConfirmed(_ context.Context, eventIDs []int64) (map[int64]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := idSet(eventIDs)
	out := make(map[int64]int)
	for _, r := range s.requests {
		if want[r.EventID] && r.Status == domain.RequestConfirmed {
			out[r.EventID]++
		}
	}
	return out, nil
}

func (s *Store) UpdateRequestStatuses(ctx context.Context, rs []domain.Request) error {
	defer s.exclusive(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rs {
		if _, ok := s.requests[r.ID]; !ok {
			return storage.ErrNotFound
		}
	}
	for _, r := range rs {
		existing := s.requests[r.ID]
		existing.Status = r.Status
		s.requests[r.ID] = existing
	}
	return nil
}

// --- CommentStore ------------------------------------------------------------

func (s *Store) CreateComment(ctx context.Context, c domain.Comment) (domain.Comment, error) {
	defer s.exclusive(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[c.EventID]; !ok {
		return domain.Comment{}, storage.ErrConflict
	}
	now := s.now()
	c.ID = s.id()
	c.Created = now
	c.LastUpdatedOn = now
	s.comments[c.ID] = c
	return c, nil
}

func (s *Store) UpdateComment(ctx context.Context, c domain.Comment) (domain.Comment, error) {
	defer s.exclusive(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.comments[c.ID]
	if !ok {
		return domain.Comment{}, storage.ErrNotFound
	}
	existing.Text = c.Text
	existing.LastUpdatedOn = s.now()
	s.comments[c.ID] = existing
	return existing, nil
}

func (s *Store) GetComment(_ context.Context, id int64) (domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.comments[id]
	if !ok {
		return domain.Comment{}, storage.ErrNotFound
	}
	return c, nil
}

func (s *Store) DeleteComment(ctx context.Context, id int64) error {
	defer s.exclusive(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

func (s *Store) ListCommentsByEvent(_ context.Context, eventID int64, page domain.Page) ([]domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Comment{}
	for _, c := range s.comments {
		if c.EventID == eventID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, page), nil
}

func (s *Store) CountComments(_ context.Context, eventIDs []int64) (map[int64]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := idSet(eventIDs)
	out := make(map[int64]int64)
	for _, c := range s.comments {
		if want[c.EventID] {
			out[c.EventID]++
		}
	}
	return out, nil
}

func idSet(ids []int64) map[int64]bool {
	if len(ids) == 0 {
		return nil
	}
	m := make(map[int64]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

func paginate[T any](items []T, page domain.Page) []T {
	off, lim := page.Offset(), page.Limit()
	if off >= len(items) {
		return []T{}
	}
	end := off + lim
	if end > len(items) {
		end = len(items)
	}
	return items[off:end]
}
