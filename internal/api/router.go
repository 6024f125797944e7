package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// NewRouter creates a chi router with all content and identity routes
// mounted. authEnabled controls whether Bearer token auth is enforced
// on the content routes; the identity gateway is always open so clients
// can bootstrap a session. sseHandler, if non-nil, is mounted at
// GET /api/events.
func NewRouter(h *Handler, ah *AuthHandler, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	// Collection declarations.
	r.Get("/get_collections", h.GetCollections)

	r.Route("/api", func(r chi.Router) {
		// Identity gateway.
		r.Post("/signin", ah.SignIn)
		r.Post("/signup", ah.SignUp)
		r.Post("/validateSession", ah.ValidateSession)

		// Change events.
		if sseHandler != nil {
			r.Get("/events", sseHandler.ServeHTTP)
		}

		// Content routes.
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(authEnabled, token))

			r.Get("/findById", h.FindByID)
			r.Get("/find", h.Find)
			r.Get("/assets", h.ListAssets)

			r.Get("/{collection}", h.ListDocuments)
			r.Post("/{collection}", h.CreateDocuments)
			r.Patch("/{collection}", h.UpdateDocument)
			r.Delete("/{collection}", h.DeleteDocuments)
		})
	})

	return r
}
