package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/hanynan8/LapTech-sub002/internal/cart"
)

type CartHandler struct {
	carts *cart.Service
}

func NewCartHandler(carts *cart.Service) *CartHandler {
	return &CartHandler{carts: carts}
}

type cartResponse struct {
	Items         []cart.LineItem `json:"items"`
	Total         float64         `json:"total"`
	TotalQuantity int             `json:"totalQuantity"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing cart identity")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := h.carts.Items(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}

	writeJSON(w, http.StatusOK, cartResponse{
		Items:         items,
		Total:         cart.Total(items),
		TotalQuantity: cart.TotalQuantity(items),
	})
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing cart identity")
		return
	}

	var body struct {
		ProductID string  `json:"productId"`
		Name      string  `json:"name"`
		Price     float64 `json:"price"`
		Currency  string  `json:"currency"`
		Image     string  `json:"image"`
		Quantity  int     `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if body.Quantity == 0 {
		body.Quantity = 1
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	err := h.carts.Add(ctx, id, cart.LineItem{
		ProductID: body.ProductID,
		Name:      body.Name,
		Price:     body.Price,
		Currency:  body.Currency,
		Image:     body.Image,
		Quantity:  body.Quantity,
	})
	if err != nil {
		if errors.Is(err, cart.ErrInvalidItem) {
			writeError(w, http.StatusBadRequest, "invalid item")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to add item")
		return
	}

	h.respondWithCart(w, ctx, id)
}

func (h *CartHandler) ChangeQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing cart identity")
		return
	}

	var body struct {
		cart.ItemKey
		Delta int `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if body.Delta == 0 {
		writeError(w, http.StatusBadRequest, "delta is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.carts.ChangeQuantity(ctx, id, body.ItemKey, body.Delta); err != nil {
		if errors.Is(err, cart.ErrItemNotFound) {
			writeError(w, http.StatusNotFound, "item not in cart")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update quantity")
		return
	}

	h.respondWithCart(w, ctx, id)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing cart identity")
		return
	}

	var key cart.ItemKey
	if err := json.NewDecoder(r.Body).Decode(&key); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.carts.Remove(ctx, id, key); err != nil {
		if errors.Is(err, cart.ErrItemNotFound) {
			writeError(w, http.StatusNotFound, "item not in cart")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to remove item")
		return
	}

	h.respondWithCart(w, ctx, id)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing cart identity")
		return
	}

	confirmed := r.URL.Query().Get("confirm") == "true"

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.carts.Clear(ctx, id, confirmed); err != nil {
		if errors.Is(err, cart.ErrConfirmationRequired) {
			writeError(w, http.StatusBadRequest, "confirmation required")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to clear cart")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "cart cleared"})
}

func (h *CartHandler) respondWithCart(w http.ResponseWriter, ctx context.Context, id cart.Identity) {
	items, err := h.carts.Items(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}
	writeJSON(w, http.StatusOK, cartResponse{
		Items:         items,
		Total:         cart.Total(items),
		TotalQuantity: cart.TotalQuantity(items),
	})
}
