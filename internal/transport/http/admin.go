package transporthttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"example.com/ewm/internal/domain"
	"example.com/ewm/internal/service"
)

func (d *ServerDeps) adminRoutes(r chi.Router) {
	r.Post("/users", d.handleCreateUser)
	r.Get("/users", d.handleListUsers)
	r.Delete("/users/{userId}", d.handleDeleteUser)

	r.Post("/categories", d.handleCreateCategory)
	r.Patch("/categories/{catId}", d.handleUpdateCategory)
	r.Delete("/categories/{catId}", d.handleDeleteCategory)

	r.Get("/events", d.handleAdminSearchEvents)
	r.Patch("/events/{eventId}", d.handleAdminUpdateEvent)

	r.Delete("/comments/{commentId}", d.handleAdminDeleteComment)
}

// --- Users ---

func (d *ServerDeps) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var in domain.NewUser
	if err := decodeJSONStrict(r, &in); err != nil {
		d.fail(w, r, err)
		return
	}
	u, err := d.Services.Users.Create(r.Context(), in)
	if err != nil {
		d.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, u)
}

func (d *ServerDeps) handleListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userIDs, err := queryIDs(q, "ids")
	if err != nil {
		d.fail(w, r, err)
		return
	}
	page, err := queryPage(q)
	if err != nil {
		d.fail(w, r, err)
		return
	}
	users, err := d.Services.Users.List(r.Context(), userIDs, page)
	if err != nil {
		d.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, users)
}

func (d *ServerDeps) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userId")
	if err == nil {
		err = d.Services.Users.Delete(r.Context(), id)
	}
	if err != nil {
		d.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Categories ---

func (d *ServerDeps) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var in domain.NewCategory
	if err := decodeJSONStrict(r, &in); err != nil {
		d.fail(w, r, err)
		return
	}
	c, err := d.Services.Categories.Create(r.Context(), in)
	if err != nil {
		d.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, c)
}

func (d *ServerDeps) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "catId")
	if err != nil {
		d.fail(w, r, err)
		return
	}
	var in domain.NewCategory
	if err := decodeJSONStrict(r, &in); err != nil {
		d.fail(w, r, err)
		return
	}
	c, err := d.Services.Categories.Update(r.Context(), id, in)
	if err != nil {
		d.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, c)
}

func (d *ServerDeps) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "catId")
	if err == nil {
		err = d.Services.Categories.Delete(r.Context(), id)
	}
	if err != nil {
		d.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Events ---

func (d *ServerDeps) handleAdminSearchEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		s   service.AdminSearch
		err error
	)
	if s.Users, err = queryIDs(q, "users"); err != nil {
		d.fail(w, r, err)
		return
	}
	for _, st := range queryList(q, "states") {
		s.States = append(s.States, domain.EventState(st))
	}
	if s.Categories, err = queryIDs(q, "categories"); err != nil {
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
	if s.Page, err = queryPage(q); err != nil {
		d.fail(w, r, err)
		return
	}

	events, err := d.Services.Events.SearchAdmin(r.Context(), s)
	if err != nil {
		d.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, events)
}

func (d *ServerDeps) handleAdminUpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "eventId")
	if err != nil {
		d.fail(w, r, err)
		return
	}
	var in domain.UpdateEventAdmin
	if err := decodeJSONStrict(r, &in); err != nil {
		d.fail(w, r, err)
		return
	}
	e, err := d.Services.Events.UpdateByAdmin(r.Context(), id, in)
	if err != nil {
		d.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, e)
}

func (d *ServerDeps) handleAdminDeleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "commentId")
	if err == nil {
		err = d.Services.Comments.DeleteByAdmin(r.Context(), id)
	}
	if err != nil {
		d.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
