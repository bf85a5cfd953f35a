package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/hanynan8/LapTech-sub002/internal/cart"
	"github.com/hanynan8/LapTech-sub002/internal/checkout"
	"github.com/hanynan8/LapTech-sub002/internal/payment"
)

type CheckoutHandler struct {
	carts *cart.Service
	flow  *checkout.Orchestrator
}

func NewCheckoutHandler(carts *cart.Service, flow *checkout.Orchestrator) *CheckoutHandler {
	return &CheckoutHandler{carts: carts, flow: flow}
}

// StartSession snapshots the current cart into a payment session when
// the user proceeds to pay.
func (h *CheckoutHandler) StartSession(w http.ResponseWriter, r *http.Request) {
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

	sess, err := h.flow.StartSession(ctx, id, items)
	if err != nil {
		if errors.Is(err, checkout.ErrEmptyCart) {
			writeError(w, http.StatusBadRequest, "cart is empty")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to start payment session")
		return
	}

	writeJSON(w, http.StatusCreated, sess)
}

func (h *CheckoutHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing cart identity")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	res, err := h.flow.CreateOrder(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrInvalidState):
			writeError(w, http.StatusConflict, "checkout already in progress")
		case errors.Is(err, checkout.ErrNoSession), errors.Is(err, checkout.ErrEmptyCart):
			writeError(w, http.StatusBadRequest, "no payment session")
		case errors.Is(err, payment.ErrInvalidResponse):
			writeError(w, http.StatusBadGateway, "payment processor returned no order id")
		default:
			writeError(w, http.StatusBadGateway, "failed to create remote order")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"orderId": res.OrderID,
		"amount":  res.AmountUSD,
	})
}

func (h *CheckoutHandler) CaptureOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing cart identity")
		return
	}

	var body struct {
		OrderID string `json:"orderId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	outcome, err := h.flow.Approve(ctx, id, body.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrInvalidState):
			writeError(w, http.StatusConflict, "no order awaiting capture")
		case errors.Is(err, checkout.ErrNoSession):
			writeError(w, http.StatusBadRequest, "no payment session")
		default:
			writeError(w, http.StatusBadGateway, "failed to capture order")
		}
		return
	}

	resp := map[string]any{
		"status": "success",
		"order":  outcome.Order,
	}
	if outcome.Warning != "" {
		resp["warning"] = outcome.Warning
	}
	writeJSON(w, http.StatusOK, resp)
}

// Cancel records the widget's user-cancellation callback.
func (h *CheckoutHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing cart identity")
		return
	}

	h.flow.Cancel(id)
	writeJSON(w, http.StatusOK, map[string]string{"state": string(h.flow.State(id))})
}

// GetState reports the checkout state for the identity, which the
// storefront uses to render the retry affordance.
func (h *CheckoutHandler) GetState(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing cart identity")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"state": string(h.flow.State(id))})
}
