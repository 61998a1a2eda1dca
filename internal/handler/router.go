package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/mmeshcher/fieldsales-system/internal/middleware"
	"github.com/mmeshcher/fieldsales-system/internal/model"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса полевых продаж.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api", func(r chi.Router) {
		r.Post("/session", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.session.Middleware)

			r.Delete("/session", h.Logout)

			r.Group(func(r chi.Router) {
				r.Use(h.session.RequireRole(model.RoleEmployee))

				r.Get("/shops", h.GetShops)
				r.Post("/shops/refresh", h.RefreshShops)
				r.Post("/orders", h.SubmitOrder)
			})

			r.Group(func(r chi.Router) {
				r.Use(h.session.RequireRole(model.RoleAdmin))

				r.Post("/admin/users", h.ReplaceUsers)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
