package transporthttp

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"example.com/ewm/internal/config"
	"example.com/ewm/internal/metrics"
	"example.com/ewm/internal/service"
)

type ServerDeps struct {
	Cfg      config.Main
	Services *service.Services
	Log      *logrus.Entry
	// Ready reports whether storage is reachable.
	Ready func(ctx context.Context) error
	Now   func() time.Time
}

func (d *ServerDeps) fail(w http.ResponseWriter, r *http.Request, err error) {
	WriteError(w, r, d.Log, err)
}

// --- Health ---

func HandleHealthz(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleReadyz answers 503 while ready fails.
func HandleReadyz(ready func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			if err := ready(r.Context()); err != nil {
				WriteProblem(w, http.StatusServiceUnavailable, "storage not reachable")
				return
			}
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// UseCommon installs the middleware shared by both services. Forwarding
// headers only replace the peer address when trustProxy is set.
func UseCommon(r chi.Router, log *logrus.Entry, trustProxy bool) {
	if trustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(RequestID)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(metrics.InstrumentHandler)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteProblem(w, http.StatusNotFound, "no route for "+r.Method+" "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteProblem(w, http.StatusMethodNotAllowed, "method "+r.Method+" not allowed on "+r.URL.Path)
	})
	r.Get("/healthz", HandleHealthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
}

// --- Router ---

func (d *ServerDeps) Router() http.Handler {
	if d.Now == nil {
		d.Now = time.Now
	}
	r := chi.NewRouter()
	r.Use(cors.New(cors.Options{
		AllowedOrigins: d.Cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type", "X-API-Key", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
	}).Handler)
	UseCommon(r, d.Log, d.Cfg.TrustedProxy)
	r.Get("/readyz", HandleReadyz(d.Ready))

	r.Group(func(r chi.Router) {
		r.Use(BodyLimit(d.Cfg.MaxBodyBytes))
		r.Use(RequireJSON)

		r.Route("/admin", func(r chi.Router) {
			r.Use(APIKeyAuth(d.Cfg.AdminAPIKeys))
			d.adminRoutes(r)
		})
		r.Route("/users/{userId}", d.privateRoutes)
		r.Group(func(r chi.Router) {
			r.Use(RateLimitPerMinute(d.Cfg.PublicRateLimitPerMin, d.Now))
			d.publicRoutes(r)
		})
	})
	return r
}
