package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handlers groups the HTTP handlers of the store API.
type Handlers struct {
	Users      *UserHandler
	Products   *ProductHandler
	Categories *CategoryHandler
	Orders     *OrderHandler
}

// RegisterRoutes mounts the API under /api. requireAdmin gates admin-only
// routes and authLimiter throttles login and registration; both run before
// any request body is read.
func RegisterRoutes(r chi.Router, h Handlers, requireAdmin, authLimiter func(http.Handler) http.Handler) {
	if authLimiter == nil {
		authLimiter = func(next http.Handler) http.Handler { return next }
	}

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.Products.List)
		r.Get("/search", h.Products.Search)
		r.Get("/get/count", h.Products.Count)
		r.Get("/get/featured", h.Products.Featured)
		r.Get("/{id}", h.Products.Get)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Post("/", h.Products.Create)
			r.Put("/{id}", h.Products.Update)
			r.Delete("/{id}", h.Products.Delete)
		})
	})

	r.Route("/api/categories", func(r chi.Router) {
		r.Get("/", h.Categories.List)
		r.Get("/get/count", h.Categories.Count)
		r.Get("/{id}", h.Categories.Get)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Post("/", h.Categories.Create)
			r.Put("/{id}", h.Categories.Update)
			r.Delete("/{id}", h.Categories.Delete)
		})
	})

	r.Route("/api/users", func(r chi.Router) {
		r.With(authLimiter).Post("/register", h.Users.Register)
		r.With(authLimiter).Post("/login", h.Users.Login)
		r.Post("/logout", h.Users.Logout)

		r.Get("/", withIdentity(h.Users.List))
		r.Get("/{id}", withIdentity(h.Users.Get))

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Get("/get/count", h.Users.Count)
			r.Delete("/{id}", h.Users.Delete)
		})
	})

	r.Route("/api/orders", func(r chi.Router) {
		r.Post("/", withIdentity(h.Orders.Create))
		r.Post("/calculate-total", withIdentity(h.Orders.CalculateTotal))
		r.Get("/get/count", h.Orders.Count)
		r.Get("/get/user/{userid}", withIdentity(h.Orders.ListByUser))
		r.Get("/{id}", withIdentity(h.Orders.Get))
		r.Delete("/{id}", withIdentity(h.Orders.Cancel))

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Get("/", h.Orders.List)
			r.Get("/get/totalsales", h.Orders.TotalSales)
			r.Put("/{id}/state", h.Orders.UpdateState)
			r.Delete("/admin/{id}", h.Orders.Delete)
		})
	})
}
