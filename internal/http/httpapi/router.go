package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pulsar/internal/http/handlers"
	"pulsar/internal/middleware"
)

func NewRouter(app *handlers.App) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimiddleware.RequestID,
		chimiddleware.RealIP,
		chimiddleware.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(nil),
	)

	r.Route("/api", func(r chi.Router) {
		r.With(middleware.RateLimit(app.Config.RateLimitPerMin, time.Minute)).
			Post("/generate", app.Generate)
		r.Get("/status/{jobId}", app.Status)
		r.Get("/worker", app.WorkerGet)
		r.Post("/worker", app.WorkerPost)
		r.Get("/health", app.Health)
		r.Get("/discovery", app.Discovery)
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}
