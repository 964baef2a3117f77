package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dtroode/filedepot-server/internal/api/http/handler"
	"github.com/dtroode/filedepot-server/internal/api/http/middleware"
)

// Router wires handlers and middleware into the HTTP mux.
type Router struct {
	health       *handler.Health
	auth         *handler.Auth
	file         *handler.File
	admin        *handler.Admin
	authenticate *middleware.Authenticate
	logging      *middleware.Logging
}

// New creates a new Router.
func New(
	health *handler.Health,
	auth *handler.Auth,
	file *handler.File,
	admin *handler.Admin,
	authenticate *middleware.Authenticate,
	logging *middleware.Logging,
) *Router {
	return &Router{
		health:       health,
		auth:         auth,
		file:         file,
		admin:        admin,
		authenticate: authenticate,
		logging:      logging,
	}
}

// Handler builds the full route tree. Everything under /api/files and
// /api/admin sits behind the authorization gate; the admin subtree adds
// the role check on top.
func (rt *Router) Handler() http.Handler {
	mux := chi.NewRouter()
	mux.Use(rt.logging.Handle)

	mux.Get("/api/health", rt.health.Check)

	mux.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", rt.auth.Register)
		r.Post("/login", rt.auth.Login)
		r.Group(func(r chi.Router) {
			r.Use(rt.authenticate.Handle)
			r.Get("/me", rt.auth.Me)
		})
	})

	mux.Route("/api/files", func(r chi.Router) {
		r.Use(rt.authenticate.Handle)
		r.Post("/upload", rt.file.Upload)
		r.Get("/", rt.file.List)
		r.Get("/{fileID}", rt.file.Get)
		r.Get("/{fileID}/download", rt.file.Download)
		r.Delete("/{fileID}", rt.file.Delete)
	})

	mux.Route("/api/admin", func(r chi.Router) {
		r.Use(rt.authenticate.Handle)
		r.Use(rt.authenticate.RequireAdmin)
		r.Get("/users", rt.admin.ListUsers)
		r.Get("/users/{userID}", rt.admin.GetUser)
		r.Patch("/users/{userID}/role", rt.admin.ChangeRole)
		r.Patch("/users/{userID}/disable", rt.admin.DisableUser)
		r.Patch("/users/{userID}/enable", rt.admin.EnableUser)
		r.Delete("/users/{userID}", rt.admin.DeleteUser)
		r.Get("/files", rt.admin.ListFiles)
		r.Delete("/files/{fileID}", rt.admin.DeleteFile)
		r.Get("/stats", rt.admin.GetStats)
	})

	return mux
}
