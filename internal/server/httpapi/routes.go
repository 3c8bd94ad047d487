package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handler builds the router with the full middleware chain.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)
	r.Use(s.secureHeaders())
	if s.config.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.config.RequestTimeout))
	}
	r.Use(s.accessLog)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, errRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, errMethodNotAllowed)
	})

	r.Get("/healthz", s.healthz)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.With(s.rateLimit(s.loginRate)).Post("/login", s.login)
		r.Post("/refresh", s.refresh)
		r.Post("/logout", s.logout)
		r.Get("/is-admin", s.isAdmin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Post("/signup", s.signup)
			r.Delete("/delete", s.deleteAccount)
			r.Get("/user", s.listAccounts)
		})
	})

	r.Route("/blog", func(r chi.Router) {
		r.Get("/overviews", s.postOverviews)
		r.Get("/", s.listPosts)
		r.Get("/{id}", s.getPost)
		r.Get("/uploads/*", s.downloadMedia)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Post("/", s.createPost)
			r.Put("/{id}", s.updatePost)
			r.Delete("/{id}", s.deletePost)
			r.Post("/uploads", s.uploadMedia)
		})
	})

	r.With(s.requireAdmin).Get("/access", s.queryAccessLogs)
	r.With(s.rateLimit(s.contactRate)).Post("/contact", s.contact)

	return r
}
