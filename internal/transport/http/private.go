package transporthttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"example.com/ewm/internal/apperr"
	"example.com/ewm/internal/domain"
)

// privateRoutes are mounted under /users/{userId}; the path user is the
// acting user.
func (d *ServerDeps) privateRoutes(r chi.Router) {
	r.Get("/events", d.handleOwnerListEvents)
	r.Post("/events", d.handleOwnerCreateEvent)
	r.Get("/events/{eventId}", d.handleOwnerGetEvent)
	r.Patch("/events/{eventId}", d.handleOwnerUpdateEvent)
	r.Get("/events/{eventId}/requests", d.handleOwnerListRequests)
	r.Patch("/events/{eventId}/requests", d.handleOwnerModerateRequests)

	r.Get("/requests", d.handleListMyRequests)
	r.Post("/requests", d.handleCreateRequest)
	r.Patch("/requests/{requestId}/cancel", d.handleCancelRequest)

	r.Post("/events/{eventId}/comments", d.handleCreateComment)
	r.Patch("/comments/{commentId}", d.handleUpdateComment)
	r.Delete("/comments/{commentId}", d.handleDeleteComment)
}

// ids resolves the named path ids in order.
func ids(r *http.Request, names ...string) ([]int64, error) {
	out := make([]int64, 0, len(names))
	for _, n := range names {
		id, err := pathID(r, n)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// --- Events ---

func (d *ServerDeps) handleOwnerListEvents(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		d.fail(w, r, err)
		return
	}
	page, err := queryPage(r.URL.Query())
	if err != nil {
		d.fail(w, r, err)
		return
	}
	events, err := d.Services.Events.ListByOwner(r.Context(), userID, page)
	if err != nil {
		d.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, events)
}

func (d *ServerDeps) handleOwnerCreateEvent(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		d.fail(w, r, err)
		return
	}
	var in domain.NewEvent
	if err := decodeJSONStrict(r, &in); err != nil {
		d.fail(w, r, err)
		return
	}
	e, err := d.Services.Events.Create(r.Context(), userID, in)
	if err != nil {
		d.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, e)
}

func (d *ServerDeps) handleOwnerGetEvent(w http.ResponseWriter, r *http.Request) {
	p, err := ids(r, "userId", "eventId")
	if err != nil {
		d.fail(w, r, err)
		return
	}
	e, err := d.Services.Events.GetByOwner(r.Context(), p[0], p[1])
	if err != nil {
		d.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, e)
}

func (d *ServerDeps) handleOwnerUpdateEvent(w http.ResponseWriter, r *http.Request) {
	p, err := ids(r, "userId", "eventId")
	if err != nil {
		d.fail(w, r, err)
		return
	}
	var in domain.UpdateEventUser
	if err := decodeJSONStrict(r, &in); err != nil {
		d.fail(w, r, err)
		return
	}
	e, err := d.Services.Events.UpdateByOwner(r.Context(), p[0], p[1], in)
	if err != nil {
		d.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, e)
}

func (d *ServerDeps) handleOwnerListRequests(w http.ResponseWriter, r *http.Request) {
	p, err := ids(r, "userId", "eventId")
	if err != nil {
		d.fail(w, r, err)
		return
	}
	rs, err := d.Services.Events.ListRequestsByOwner(r.Context(), p[0], p[1])
	if err != nil {
		d.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, rs)
}

func (d *ServerDeps) handleOwnerModerateRequests(w http.ResponseWriter, r *http.Request) {
	p, err := ids(r, "userId", "eventId")
	if err != nil {
		d.fail(w, r, err)
		return
	}
	var in domain.RequestStatusUpdate
	if err := decodeJSONStrict(r, &in); err != nil {
		d.fail(w, r, err)
		return
	}
	res, err := d.Services.Events.ModerateRequests(r.Context(), p[0], p[1], in)
	if err != nil {
		d.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

// --- Requests ---

func (d *ServerDeps) handleListMyRequests(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		d.fail(w, r, err)
		return
	}
	rs, err := d.Services.Requests.ListMine(r.Context(), userID)
	if err != nil {
		d.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, rs)
}

func (d *ServerDeps) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		d.fail(w, r, err)
		return
	}
	eventID, err := queryInt(r.URL.Query(), "eventId", 0, 1)
	if err == nil && eventID == 0 {
		err = apperr.Validation("Field: eventId. Error: must not be blank. Value: null")
	}
	if err != nil {
		d.fail(w, r, err)
		return
	}
	req, err := d.Services.Requests.Create(r.Context(), userID, int64(eventID))
	if err != nil {
		d.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, req)
}

func (d *ServerDeps) handleCancelRequest(w http.ResponseWriter, r *http.Request) {
	p, err := ids(r, "userId", "requestId")
	if err != nil {
		d.fail(w, r, err)
		return
	}
	req, err := d.Services.Requests.Cancel(r.Context(), p[0], p[1])
	if err != nil {
		d.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, req)
}

// --- Comments ---

func (d *ServerDeps) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	p, err := ids(r, "userId", "eventId")
	if err != nil {
		d.fail(w, r, err)
		return
	}
	var in domain.NewComment
	if err := decodeJSONStrict(r, &in); err != nil {
		d.fail(w, r, err)
		return
	}
	c, err := d.Services.Comments.Create(r.Context(), p[0], p[1], in)
	if err != nil {
		d.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, c)
}

func (d *ServerDeps) handleUpdateComment(w http.ResponseWriter, r *http.Request) {
	p, err := ids(r, "userId", "commentId")
	if err != nil {
		d.fail(w, r, err)
		return
	}
	var in domain.NewComment
	if err := decodeJSONStrict(r, &in); err != nil {
		d.fail(w, r, err)
		return
	}
	c, err := d.Services.Comments.Update(r.Context(), p[0], p[1], in)
	if err != nil {
		d.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, c)
}

func (d *ServerDeps) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	p, err := ids(r, "userId", "commentId")
	if err == nil {
		err = d.Services.Comments.DeleteByAuthor(r.Context(), p[0], p[1])
	}
	if err != nil {
		d.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
