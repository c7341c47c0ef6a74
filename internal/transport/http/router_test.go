package transporthttp_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/ewm/internal/config"
	"example.com/ewm/internal/datetime"
	"example.com/ewm/internal/logging"
	"example.com/ewm/internal/service"
	"example.com/ewm/internal/stats"
	"example.com/ewm/internal/stats/httpapi"
	"example.com/ewm/internal/statsclient"
	"example.com/ewm/internal/storage/memory"
	transporthttp "example.com/ewm/internal/transport/http"
)

// env runs the main router against a real stats API served by httptest.
type env struct {
	t       *testing.T
	handler http.Handler
	now     time.Time
	seq     int
}

func newEnv(t *testing.T, mutate func(*config.Main)) *env {
	t.Helper()
	log := logging.Discard()

	statsAPI := &httpapi.Server{
		Cfg:     config.Stats{MaxBodyBytes: 1 << 20},
		Service: stats.NewService(stats.NewMemoryStore(), log),
		Log:     log,
	}
	statsSrv := httptest.NewServer(statsAPI.Router())
	t.Cleanup(statsSrv.Close)

	cfg := config.Main{
		MaxBodyBytes: 1 << 20,
		AdminAPIKeys: map[string]struct{}{"admin-key": {}},
		CORSOrigins:  []string{"*"},
	}
	if mutate != nil {
		mutate(&cfg)
	}

	e := &env{t: t, now: time.Now()}
	store := memory.New()
	deps := &transporthttp.ServerDeps{
		Cfg: cfg,
		Services: service.New(service.Deps{
			Store:   store,
			Stats:   statsclient.New(statsclient.Config{BaseURL: statsSrv.URL}),
			AppName: "ewm-main-service",
			Log:     log,
		}),
		Log: log,
	}
	e.handler = deps.Router()
	return e
}

func (e *env) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	e.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(e.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *env) admin(method, path string, body any) *httptest.ResponseRecorder {
	return e.do(method, path, body, "X-API-Key", "admin-key")
}

func decodeInto[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (e *env) user(name string) int64 {
	e.t.Helper()
	rec := e.admin(http.MethodPost, "/admin/users", map[string]string{"name": name, "email": name + "@example.com"})
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
	return id(decodeInto[map[string]any](e.t, rec)["id"])
}

// id converts a decoded JSON number.
func id(v any) int64 { return int64(v.(float64)) }

func (e *env) publishedEvent(owner int64, limit int, moderation bool) int64 {
	e.t.Helper()
	e.seq++
	rec := e.admin(http.MethodPost, "/admin/categories", map[string]string{"name": fmt.Sprintf("category %d", e.seq)})
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
	cat := id(decodeInto[map[string]any](e.t, rec)["id"])

	rec = e.do(http.MethodPost, fmt.Sprintf("/users/%d/events", owner), map[string]any{
		"annotation":        "An annotation that is long enough",
		"category":          cat,
		"description":       "A description that is long enough to pass",
		"eventDate":         datetime.Format(e.now.Add(48 * time.Hour)),
		"location":          map[string]float64{"lat": 55.75, "lon": 37.62},
		"participantLimit":  limit,
		"requestModeration": moderation,
		"title":             "Meetup",
	})
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
	ev := decodeInto[map[string]any](e.t, rec)
	assert.Equal(e.t, "PENDING", ev["state"])
	eventID := id(ev["id"])

	rec = e.admin(http.MethodPatch, fmt.Sprintf("/admin/events/%d", eventID), map[string]string{"stateAction": "PUBLISH_EVENT"})
	require.Equal(e.t, http.StatusOK, rec.Code, rec.Body.String())
	return eventID
}

func TestPublishedEventCountsUniqueViews(t *testing.T) {
	e := newEnv(t, nil)
	owner := e.user("owner")
	eventID := e.publishedEvent(owner, 0, true)
	path := fmt.Sprintf("/events/%d", eventID)

	rec := e.do(http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 1, decodeInto[map[string]any](t, rec)["views"])

	// same client again
	rec = e.do(http.MethodGet, path, nil)
	assert.EqualValues(t, 1, decodeInto[map[string]any](t, rec)["views"])

	// forwarding headers are ignored without a trusted proxy
	rec = e.do(http.MethodGet, path, nil, "X-Forwarded-For", "198.51.100.7")
	assert.EqualValues(t, 1, decodeInto[map[string]any](t, rec)["views"])
}

func TestTrustedProxyForwardsClientIP(t *testing.T) {
	e := newEnv(t, func(c *config.Main) { c.TrustedProxy = true })
	owner := e.user("owner")
	eventID := e.publishedEvent(owner, 0, true)
	path := fmt.Sprintf("/events/%d", eventID)

	rec := e.do(http.MethodGet, path, nil, "X-Forwarded-For", "198.51.100.7")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 1, decodeInto[map[string]any](t, rec)["views"])

	rec = e.do(http.MethodGet, path, nil, "X-Forwarded-For", "198.51.100.8")
	assert.EqualValues(t, 2, decodeInto[map[string]any](t, rec)["views"])

	rec = e.do(http.MethodGet, "/events?sort=VIEWS", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	list := decodeInto[[]map[string]any](t, rec)
	require.Len(t, list, 1)
	assert.EqualValues(t, eventID, list[0]["id"])
	assert.EqualValues(t, 2, list[0]["views"])
}

func TestUnpublishedEventIsNotFound(t *testing.T) {
	e := newEnv(t, nil)
	owner := e.user("owner")

	rec := e.do(http.MethodGet, "/events/42", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeInto[transporthttp.ApiError](t, rec)
	assert.Equal(t, "NOT_FOUND", body.Status)
	assert.Equal(t, "The required object was not found.", body.Reason)
	assert.Equal(t, "Event with id=42 was not found", body.Message)
	assert.NotNil(t, body.Errors)
	assert.False(t, body.Timestamp.IsZero())

	rec = e.do(http.MethodGet, fmt.Sprintf("/users/%d/events", owner), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeInto[[]map[string]any](t, rec))
}

func TestAdminRoutesRequireAPIKey(t *testing.T) {
	e := newEnv(t, nil)

	rec := e.do(http.MethodGet, "/admin/users", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.do(http.MethodGet, "/admin/users", nil, "X-API-Key", "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.admin(http.MethodGet, "/admin/users", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUserErrorsMapToStatus(t *testing.T) {
	e := newEnv(t, nil)
	e.user("alice")

	rec := e.admin(http.MethodPost, "/admin/users", map[string]string{"name": "alice", "email": "alice@example.com"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT", decodeInto[transporthttp.ApiError](t, rec).Status)

	rec = e.admin(http.MethodPost, "/admin/users", map[string]string{"name": "bob", "email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "BAD_REQUEST", decodeInto[transporthttp.ApiError](t, rec).Status)

	rec = e.admin(http.MethodDelete, "/admin/users/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.admin(http.MethodDelete, "/admin/users/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestModerationOverHTTP(t *testing.T) {
	e := newEnv(t, nil)
	owner := e.user("owner")
	eventID := e.publishedEvent(owner, 1, true)

	var reqIDs []int64
	for _, name := range []string{"ann", "ben"} {
		u := e.user(name)
		rec := e.do(http.MethodPost, fmt.Sprintf("/users/%d/requests?eventId=%d", u, eventID), nil)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		r := decodeInto[map[string]any](t, rec)
		assert.Equal(t, "PENDING", r["status"])
		reqIDs = append(reqIDs, id(r["id"]))
	}

	rec := e.do(http.MethodPatch, fmt.Sprintf("/users/%d/events/%d/requests", owner, eventID),
		map[string]any{"requestIds": reqIDs, "status": "CONFIRMED"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decodeInto[map[string][]map[string]any](t, rec)
	require.Len(t, res["confirmedRequests"], 1)
	require.Len(t, res["rejectedRequests"], 1)
	assert.EqualValues(t, reqIDs[0], res["confirmedRequests"][0]["id"])
	assert.EqualValues(t, reqIDs[1], res["rejectedRequests"][0]["id"])

	// the event is full now
	rec = e.do(http.MethodPatch, fmt.Sprintf("/users/%d/events/%d/requests", owner, eventID),
		map[string]any{"requestIds": reqIDs[1:], "status": "CONFIRMED"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = e.do(http.MethodPost, fmt.Sprintf("/users/%d/requests", e.user("cy")), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCommentsOverHTTP(t *testing.T) {
	e := newEnv(t, nil)
	owner := e.user("owner")
	author := e.user("author")
	eventID := e.publishedEvent(owner, 0, false)

	rec := e.do(http.MethodPost, fmt.Sprintf("/users/%d/events/%d/comments", author, eventID), map[string]string{"text": "Looking forward"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	commentID := id(decodeInto[map[string]any](t, rec)["id"])

	rec = e.do(http.MethodPatch, fmt.Sprintf("/users/%d/comments/%d", owner, commentID), map[string]string{"text": "Hijacked"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = e.do(http.MethodGet, fmt.Sprintf("/comments/%d", eventID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeInto[[]map[string]any](t, rec), 1)

	rec = e.admin(http.MethodDelete, fmt.Sprintf("/admin/comments/%d", commentID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = e.do(http.MethodDelete, fmt.Sprintf("/users/%d/comments/%d", author, commentID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPublicSearchRejectsBadParameters(t *testing.T) {
	e := newEnv(t, nil)
	for _, q := range []string{
		"sort=POPULAR",
		"paid=sometimes",
		"rangeStart=2035-01-02%2000:00:00&rangeEnd=2035-01-01%2000:00:00",
		"rangeStart=yesterday",
		"size=0",
		"from=-1",
		"categories=a",
	} {
		rec := e.do(http.MethodGet, "/events?"+q, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestPublicRateLimit(t *testing.T) {
	e := newEnv(t, func(c *config.Main) { c.PublicRateLimitPerMin = 1 })

	assert.Equal(t, http.StatusOK, e.do(http.MethodGet, "/categories", nil).Code)
	rec := e.do(http.MethodGet, "/categories", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// admin traffic is not limited
	assert.Equal(t, http.StatusOK, e.admin(http.MethodGet, "/admin/users", nil).Code)
}

func TestRequestIDIsEchoed(t *testing.T) {
	e := newEnv(t, nil)

	rec := e.do(http.MethodGet, "/healthz", nil, logging.RequestIDHeader, "abc-123")
	assert.Equal(t, "abc-123", rec.Header().Get(logging.RequestIDHeader))

	rec = e.do(http.MethodGet, "/healthz", nil)
	assert.Len(t, rec.Header().Get(logging.RequestIDHeader), 36)
}

func TestTransportRejections(t *testing.T) {
	e := newEnv(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/admin/categories", bytes.NewBufferString(`{"name":"x"}`))
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("X-API-Key", "admin-key")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = e.admin(http.MethodPost, "/admin/categories", map[string]any{"name": "x", "unknown": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(http.MethodGet, "/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeInto[transporthttp.ApiError](t, rec).Status)

	rec = e.do(http.MethodPut, "/categories", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = e.do(http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
