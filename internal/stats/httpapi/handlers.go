// Package httpapi serves the stats service over HTTP.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"example.com/ewm/internal/apperr"
	"example.com/ewm/internal/config"
	"example.com/ewm/internal/datetime"
	"example.com/ewm/internal/stats"
	transporthttp "example.com/ewm/internal/transport/http"
)

type Server struct {
	Cfg     config.Stats
	Service *stats.Service
	Log     *logrus.Entry
	Now     func() time.Time
}

func (s *Server) Router() http.Handler {
	if s.Now == nil {
		s.Now = time.Now
	}
	r := chi.NewRouter()
	transporthttp.UseCommon(r, s.Log, s.Cfg.TrustedProxy)
	r.Get("/readyz", transporthttp.HandleReadyz(s.Service.Ready))

	r.Group(func(r chi.Router) {
		r.Use(transporthttp.APIKeyAuth(s.Cfg.APIKeys))
		r.Use(transporthttp.RateLimitPerMinute(s.Cfg.StatsRateLimitPerMin, s.Now))
		r.With(
			transporthttp.BodyLimit(s.Cfg.MaxBodyBytes),
			transporthttp.RequireJSON,
		).Post("/hit", s.handleHit)
		r.Get("/stats", s.handleStats)
	})
	return r
}

func (s *Server) handleHit(w http.ResponseWriter, r *http.Request) {
	defer transporthttp.DrainBody(r)
	var h stats.Hit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&h); err != nil {
		transporthttp.WriteError(w, r, s.Log, apperr.Validation("Malformed JSON body: %v", err))
		return
	}
	saved, err := s.Service.SaveHit(r.Context(), h)
	if err != nil {
		transporthttp.WriteError(w, r, s.Log, err)
		return
	}
	transporthttp.WriteJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		transporthttp.WriteError(w, r, s.Log, err)
		return
	}
	out, err := s.Service.ViewStats(r.Context(), q)
	if err != nil {
		transporthttp.WriteError(w, r, s.Log, err)
		return
	}
	transporthttp.WriteJSON(w, http.StatusOK, out)
}

// parseQuery reads start and end (both required), repeated or
// comma-separated uris, and unique (default false).
func parseQuery(r *http.Request) (stats.Query, error) {
	v := r.URL.Query()
	var q stats.Query
	var err error
	if q.Start, err = requiredTime(v.Get("start"), "start"); err != nil {
		return q, err
	}
	if q.End, err = requiredTime(v.Get("end"), "end"); err != nil {
		return q, err
	}
	for _, raw := range v["uris"] {
		for _, u := range strings.Split(raw, ",") {
			if u = strings.TrimSpace(u); u != "" {
				q.URIs = append(q.URIs, u)
			}
		}
	}
	if raw := v.Get("unique"); raw != "" {
		if q.Unique, err = strconv.ParseBool(raw); err != nil {
			return q, apperr.Validation("Field: unique. Error: must be true or false. Value: %s", raw)
		}
	}
	return q, nil
}

func requiredTime(raw, name string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, apperr.Validation("Required request parameter '%s' is not present", name)
	}
	t, err := datetime.Parse(raw)
	if err != nil {
		return time.Time{}, apperr.Validation("Field: %s. Error: %v. Value: %s", name, err, raw)
	}
	return t, nil
}
