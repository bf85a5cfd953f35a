package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hanynan8/LapTech-sub002/internal/catalog"
)

type RouterConfig struct {
	Cart      *CartHandler
	Checkout  *CheckoutHandler
	Orders    *OrdersHandler
	Catalog   *catalog.Service
	JWTSecret string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)

	r.Group(func(r chi.Router) {
		r.Use(Identity(cfg.JWTSecret))

		r.Get("/api/products", productsHandler(cfg.Catalog))

		r.Route("/api/cart", func(r chi.Router) {
			r.Get("/", cfg.Cart.GetCart)
			r.Delete("/", cfg.Cart.ClearCart)
			r.Post("/items", cfg.Cart.AddItem)
			r.Delete("/items", cfg.Cart.RemoveItem)
			r.Post("/items/quantity", cfg.Cart.ChangeQuantity)
		})

		r.Route("/api/checkout", func(r chi.Router) {
			r.Post("/session", cfg.Checkout.StartSession)
			r.Post("/create-order", cfg.Checkout.CreateOrder)
			r.Post("/capture-order", cfg.Checkout.CaptureOrder)
			r.Post("/cancel", cfg.Checkout.Cancel)
			r.Get("/state", cfg.Checkout.GetState)
		})

		r.Get("/api/orders", cfg.Orders.ListOrders)
	})

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "laptech-storefront",
	})
}

func productsHandler(svc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		products, err := svc.List(ctx)
		if err != nil {
			writeError(w, http.StatusBadGateway, "failed to load products")
			return
		}
		writeJSON(w, http.StatusOK, products)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
