package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/hanynan8/LapTech-sub002/internal/order"
)

type OrdersHandler struct {
	ledger order.Repository
}

func NewOrdersHandler(ledger order.Repository) *OrdersHandler {
	return &OrdersHandler{ledger: ledger}
}

// ListOrders serves the profile page's order history. Profile pages
// are authentication-gated, so anonymous identities get 401.
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r)
	if !ok || id.Anonymous() {
		writeError(w, http.StatusUnauthorized, "sign in to view orders")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	records, err := h.ledger.ListByIdentity(ctx, id.Key())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load orders")
		return
	}

	writeJSON(w, http.StatusOK, records)
}
