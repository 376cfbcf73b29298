package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"moodflix-client/internal/config"
	"moodflix-client/internal/guard"
	"moodflix-client/internal/handler"
	"moodflix-client/internal/middleware"
)

type Handlers struct {
	Session   *handler.SessionHandler
	Watchlist *handler.WatchlistHandler
	Movie     *handler.MovieHandler
	Admin     *handler.AdminHandler
	Navigate  *handler.NavigateHandler
	Events    http.Handler
}

func New(cfg *config.Config, viewGuard *middleware.ViewGuard, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	if h.Events != nil {
		r.Handle("/ws", h.Events)
	}

	authenticated := viewGuard.Require(guard.CapAuthenticated)
	privileged := viewGuard.Require(guard.CapPrivileged)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/session", func(s chi.Router) {
			s.Get("/", h.Session.Get)
			s.Post("/resolve", h.Session.Resolve)
			s.Post("/login", h.Session.Login)
			s.Post("/register", h.Session.Register)
			s.Post("/logout", h.Session.Logout)
			s.With(authenticated).Put("/profile", h.Session.UpdateProfile)
		})

		api.Get("/navigate", h.Navigate.Navigate)
		api.Get("/views", h.Navigate.Views)

		api.Group(func(member chi.Router) {
			member.Use(authenticated)

			member.Get("/watchlist", h.Watchlist.List)
			member.Post("/watchlist", h.Watchlist.Add)
			member.Get("/watchlist/mutations", h.Watchlist.Mutations)
			member.Get("/watchlist/{movie_id}", h.Watchlist.Contains)
			member.Delete("/watchlist/{movie_id}", h.Watchlist.Remove)
			member.Get("/recommendations", h.Movie.Recommendations)
			member.Get("/movies/{id}", h.Movie.Get)
		})

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(privileged)

			admin.Get("/users", h.Admin.ListUsers)
			admin.Get("/users/{id}", h.Admin.GetUser)
			admin.Patch("/users/{id}", h.Admin.UpdateUser)
			admin.Delete("/users/{id}", h.Admin.DeleteUser)
			admin.Get("/stats", h.Admin.Stats)
		})
	})

	return r
}
