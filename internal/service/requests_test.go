package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/ewm/internal/apperr"
	"example.com/ewm/internal/domain"
)

func TestCreateRequestRules(t *testing.T) {
	f := newFixture(t)
	owner, guest := f.user(t), f.user(t)

	pending := f.event(t, owner, 0, true)
	_, err := f.svc.Requests.Create(f.ctx(), guest, pending)
	assert.True(t, apperr.Is(err, apperr.KindConflict), "unpublished event")

	ev := f.publishedEvent(t, owner, 1, true)
	_, err = f.svc.Requests.Create(f.ctx(), owner, ev)
	assert.True(t, apperr.Is(err, apperr.KindConflict), "own event")

	r, err := f.svc.Requests.Create(f.ctx(), guest, ev)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestPending, r.Status)
	assert.Equal(t, f.now, r.Created.Time)

	_, err = f.svc.Requests.Create(f.ctx(), guest, ev)
	assert.True(t, apperr.Is(err, apperr.KindConflict), "duplicate")

	_, err = f.svc.Requests.Create(f.ctx(), guest, 9999)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCreateRequestAutoConfirms(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t)

	unmoderated := f.publishedEvent(t, owner, 1, false)
	r, err := f.svc.Requests.Create(f.ctx(), f.user(t), unmoderated)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestConfirmed, r.Status)

	_, err = f.svc.Requests.Create(f.ctx(), f.user(t), unmoderated)
	assert.True(t, apperr.Is(err, apperr.KindConflict), "limit reached")

	unlimited := f.publishedEvent(t, owner, 0, true)
	r, err = f.svc.Requests.Create(f.ctx(), f.user(t), unlimited)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestConfirmed, r.Status)
}

func TestCancelRequest(t *testing.T) {
	f := newFixture(t)
	owner, guest, other := f.user(t), f.user(t), f.user(t)
	ev := f.publishedEvent(t, owner, 0, false)

	r, err := f.svc.Requests.Create(f.ctx(), guest, ev)
	require.NoError(t, err)

	_, err = f.svc.Requests.Cancel(f.ctx(), other, r.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	canceled, err := f.svc.Requests.Cancel(f.ctx(), guest, r.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestCanceled, canceled.Status)

	mine, err := f.svc.Requests.ListMine(f.ctx(), guest)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, domain.RequestCanceled, mine[0].Status)

	full, err := f.svc.Events.GetByOwner(f.ctx(), owner, ev)
	require.NoError(t, err)
	assert.Equal(t, 0, full.ConfirmedRequests)
}

func TestComments(t *testing.T) {
	f := newFixture(t)
	owner, author, other := f.user(t), f.user(t), f.user(t)
	unpublished := f.event(t, owner, 0, true)
	ev := f.publishedEvent(t, owner, 0, true)

	_, err := f.svc.Comments.Create(f.ctx(), author, unpublished, domain.NewComment{Text: "hello"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = f.svc.Comments.Create(f.ctx(), author, ev, domain.NewComment{Text: " "})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	c, err := f.svc.Comments.Create(f.ctx(), author, ev, domain.NewComment{Text: "see you there"})
	require.NoError(t, err)
	assert.Equal(t, ev, c.EventID)
	assert.Equal(t, author, c.AuthorID)

	_, err = f.svc.Comments.Update(f.ctx(), other, c.ID, domain.NewComment{Text: "hijacked"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.True(t, apperr.Is(f.svc.Comments.DeleteByAuthor(f.ctx(), other, c.ID), apperr.KindConflict))

	edited, err := f.svc.Comments.Update(f.ctx(), author, c.ID, domain.NewComment{Text: "running late"})
	require.NoError(t, err)
	assert.Equal(t, "running late", edited.Text)

	_, err = f.svc.Comments.Create(f.ctx(), other, ev, domain.NewComment{Text: "me too"})
	require.NoError(t, err)

	list, err := f.svc.Comments.ListByEvent(f.ctx(), ev, domain.Page{})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	shorts, err := f.svc.Events.ListByOwner(f.ctx(), owner, domain.Page{})
	require.NoError(t, err)
	for _, s := range shorts {
		if s.ID == ev {
			assert.Equal(t, int64(2), s.Comments)
		}
	}

	require.NoError(t, f.svc.Comments.DeleteByAuthor(f.ctx(), author, c.ID))
	require.NoError(t, f.svc.Comments.DeleteByAdmin(f.ctx(), list[1].ID))
	assert.True(t, apperr.Is(f.svc.Comments.DeleteByAdmin(f.ctx(), list[1].ID), apperr.KindNotFound))

	_, err = f.svc.Comments.ListByEvent(f.ctx(), 9999, domain.Page{})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestUsersAndCategories(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Users.Create(f.ctx(), domain.NewUser{Name: "Ann", Email: "ann@example.com"})
	require.NoError(t, err)
	_, err = f.svc.Users.Create(f.ctx(), domain.NewUser{Name: "Ann Two", Email: "ann@example.com"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	_, err = f.svc.Users.Create(f.ctx(), domain.NewUser{Name: "Bad", Email: "nope"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	owner := f.user(t)
	ev := f.event(t, owner, 0, true)
	full, err := f.svc.Events.GetByOwner(f.ctx(), owner, ev)
	require.NoError(t, err)

	err = f.svc.Categories.Delete(f.ctx(), full.Category.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict), "category in use")

	dup, err := f.svc.Categories.Create(f.ctx(), domain.NewCategory{Name: "Concerts"})
	require.NoError(t, err)
	_, err = f.svc.Categories.Create(f.ctx(), domain.NewCategory{Name: "Concerts"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	renamed, err := f.svc.Categories.Update(f.ctx(), dup.ID, domain.NewCategory{Name: "Gigs"})
	require.NoError(t, err)
	assert.Equal(t, "Gigs", renamed.Name)

	require.NoError(t, f.svc.Categories.Delete(f.ctx(), dup.ID))
	_, err = f.svc.Categories.Get(f.ctx(), dup.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	require.NoError(t, f.svc.Users.Delete(f.ctx(), owner))
	assert.True(t, apperr.Is(f.svc.Users.Delete(f.ctx(), owner), apperr.KindNotFound))

	users, err := f.svc.Users.List(f.ctx(), nil, domain.Page{})
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
