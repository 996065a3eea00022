package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"storefront-service/internal/api/handlers"
	"storefront-service/internal/api/middleware"
	"storefront-service/internal/auth"
)

type RouterDeps struct {
	Auth      *handlers.AuthHandler
	Products  *handlers.ProductHandler
	Orders    *handlers.OrderHandler
	Shipments *handlers.ShipmentHandler

	Tokens      *auth.TokenIssuer
	AdminAPIKey string
}

// NewRouter wires the HTTP surface. Rate limits are per IP with separate
// budgets: auth endpoints get a tight one, the admin-data surface a loose
// one, everything else the general budget.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(httprate.LimitByIP(100, time.Minute))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/auth", func(r chi.Router) {
		r.Use(httprate.LimitByIP(10, time.Minute))
		r.Post("/register", deps.Auth.Register)
		r.Post("/verify-otp", deps.Auth.VerifyOTP)
		r.Post("/login", deps.Auth.Login)
		r.Post("/request-otp", deps.Auth.RequestOTP)
		r.Post("/login-otp", deps.Auth.LoginOTP)
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", deps.Products.GetAll)
		r.Get("/{id}", deps.Products.GetByID)
		r.Get("/category/{category}", deps.Products.GetByCategory)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(deps.Tokens))
			r.Use(middleware.RequireAdmin)
			r.Post("/", deps.Products.Create)
			r.Put("/{id}", deps.Products.Update)
			r.Delete("/{id}", deps.Products.Delete)
			r.Put("/{id}/stock", deps.Products.AdjustStock)
			r.Get("/{id}/movements", deps.Products.Movements)
		})
	})

	r.Route("/orders", func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.Tokens))
		r.Post("/", deps.Orders.Create)
		r.Get("/", deps.Orders.ListMine)
		r.Get("/{id}", deps.Orders.GetByID)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Put("/{id}/status", deps.Orders.UpdateStatus)
		})
	})

	r.Route("/shipments", func(r chi.Router) {
		r.Use(httprate.LimitByIP(300, time.Minute))
		r.Use(middleware.RequireAuth(deps.Tokens))
		r.Use(middleware.RequireAdmin)
		r.Use(middleware.RequireAdminKey(deps.AdminAPIKey))
		r.Post("/", deps.Shipments.Create)
		r.Get("/", deps.Shipments.GetAll)
		r.Get("/{id}", deps.Shipments.GetByID)
		r.Put("/{id}/status", deps.Shipments.UpdateStatus)
		r.Delete("/{id}", deps.Shipments.Delete)
	})

	return r
}
