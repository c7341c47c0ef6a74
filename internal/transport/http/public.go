package transporthttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"example.com/ewm/internal/service"
)

func (d *ServerDeps) publicRoutes(r chi.Router) {
	r.Get("/categories", d.handleListCategories)
	r.Get("/categories/{catId}", d.handleGetCategory)
	r.Get("/events", d.handleSearchEvents)
	r.Get("/events/{eventId}", d.handleGetEvent)
	r.Get("/comments/{eventId}", d.handleListComments)
}

func hitOf(r *http.Request) service.HitInfo {
	return service.HitInfo{URI: r.URL.Path, IP: clientIP(r)}
}

func (d *ServerDeps) handleListCategories(w http.ResponseWriter, r *http.Request) {
	page, err := queryPage(r.URL.Query())
	if err != nil {
		d.fail(w, r, err)
		return
	}
	cs, err := d.Services.Categories.List(r.Context(), page)
	if err != nil {
		d.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, cs)
}

func (d *ServerDeps) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "catId")
	if err != nil {
		d.fail(w, r, err)
		return
	}
	c, err := d.Services.Categories.Get(r.Context(), id)
	if err != nil {
		d.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, c)
}

func (d *ServerDeps) handleSearchEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s := service.PublicSearch{
		Text: q.Get("text"),
		Sort: service.PublicSort(q.Get("sort")),
	}
	var err error
	if s.Categories, err = queryIDs(q, "categories"); err != nil {
		d.fail(w, r, err)
		return
	}
	if s.Paid, err = queryBool(q, "paid"); err != nil {
		d.fail(w, r, err)
		return
	}
	if s.RangeStart, err = queryTime(q, "rangeStart"); err != nil {
		d.fail(w, r, err)
		return
	}
	if s.RangeEnd, err = queryTime(q, "rangeEnd"); err != nil {
		d.fail(w, r, err)
		return
	}
	available, err := queryBool(q, "onlyAvailable")
	if err != nil {
		d.fail(w, r, err)
		return
	}
	s.OnlyAvailable = available != nil && *available
	if s.Page, err = queryPage(q); err != nil {
		d.fail(w, r, err)
		return
	}

	events, err := d.Services.Events.SearchPublic(r.Context(), s, hitOf(r))
	if err != nil {
		d.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, events)
}

func (d *ServerDeps) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "eventId")
	if err != nil {
		d.fail(w, r, err)
		return
	}
	e, err := d.Services.Events.GetPublished(r.Context(), id, hitOf(r))
	if err != nil {
		d.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, e)
}

func (d *ServerDeps) handleListComments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "eventId")
	if err != nil {
		d.fail(w, r, err)
		return
	}
	page, err := queryPage(r.URL.Query())
	if err != nil {
		d.fail(w, r, err)
		return
	}
	cs, err := d.Services.Comments.ListByEvent(r.Context(), id, page)
	if err != nil {
		d.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, cs)
}
