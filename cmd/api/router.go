package main

import (
	"net/http"

	"github.com/crucial707/hci-todo/internal/auth"
	"github.com/crucial707/hci-todo/internal/config"
	"github.com/crucial707/hci-todo/internal/handlers"
	"github.com/crucial707/hci-todo/internal/middleware"
	"github.com/crucial707/hci-todo/internal/models"
	"github.com/crucial707/hci-todo/internal/repo"
	"github.com/crucial707/hci-todo/internal/session"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// deps is everything the router needs. DB is nil with memory storage.
type deps struct {
	Cfg       config.Config
	Users     repo.UserStore
	Todos     repo.TodoStore
	Passwords *auth.Hasher
	Sessions  *session.Manager
	Limiter   *middleware.IPRateLimiter
	DB        handlers.Pinger
}

func newRouter(d deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	if d.Cfg.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Observe)
	r.Use(middleware.SecurityHeaders(d.Cfg.TLSEnabled()))
	r.Use(middleware.CORS(d.Cfg.CORSAllowedOrigins))
	r.Use(middleware.MaxBytes(int64(d.Cfg.MaxBodyBytes)))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handlers.JSONError(w, "not found", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		handlers.JSONError(w, "method not allowed", http.StatusMethodNotAllowed)
	})

	r.Get("/", handlers.Root)
	r.Get("/health", handlers.Health)
	r.Get("/ready", handlers.Ready(d.DB))
	r.Handle("/metrics", promhttp.Handler())

	limiter := d.Limiter
	if limiter == nil {
		limiter = middleware.AuthRateLimiter(d.Cfg.AuthRatePerMinute, d.Cfg.AuthRateBurst)
	}
	authHandler := &handlers.AuthHandler{
		Users:     d.Users,
		Passwords: d.Passwords,
		Sessions:  d.Sessions,
	}
	authRoutes := func(r chi.Router) {
		r.With(limiter.Middleware).Post("/register", authHandler.Register)
		r.With(limiter.Middleware).Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(d.Sessions))
			r.Get("/me", authHandler.Me)
			r.With(middleware.RequireRole(models.RoleAdmin)).Get("/users", authHandler.ListUsers)
		})
	}
	r.Route("/auth", authRoutes)
	r.Route("/tasks", authRoutes)

	todoHandler := &handlers.TodoHandler{Repo: d.Todos}
	r.Route("/todoitems", func(r chi.Router) {
		r.Use(middleware.RequireSession(d.Sessions))
		r.Get("/", todoHandler.ListTodos)
		r.Post("/", todoHandler.CreateTodo)
		r.Get("/{id:[0-9]+}", todoHandler.GetTodo)
		r.Put("/{id:[0-9]+}", todoHandler.UpdateTodo)
		r.Delete("/{id:[0-9]+}", todoHandler.DeleteTodo)
	})

	return r
}
