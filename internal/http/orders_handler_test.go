package httpapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpapi "github.com/hanynan8/LapTech-sub002/internal/http"
	"github.com/hanynan8/LapTech-sub002/internal/order"
)

type fakeLedgerRepo struct {
	listFunc func(ctx context.Context, identity string) ([]order.Record, error)
}

func (f *fakeLedgerRepo) Create(ctx context.Context, rec *order.Record) error { return nil }

func (f *fakeLedgerRepo) GetByID(ctx context.Context, orderID string) (*order.Record, error) {
	return nil, nil
}

func (f *fakeLedgerRepo) ListByIdentity(ctx context.Context, identity string) ([]order.Record, error) {
	if f.listFunc != nil {
		return f.listFunc(ctx, identity)
	}
	return nil, nil
}

func TestListOrders(t *testing.T) {
	t.Run("missing identity", func(t *testing.T) {
		handler := httpapi.NewOrdersHandler(&fakeLedgerRepo{})
		r := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
		w := httptest.NewRecorder()

		wrap(handler.ListOrders).ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("anonymous session is rejected", func(t *testing.T) {
		handler := httpapi.NewOrdersHandler(&fakeLedgerRepo{})
		r := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
		r.Header.Set("X-Cart-Session", "tok-1")
		w := httptest.NewRecorder()

		wrap(handler.ListOrders).ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("ledger error", func(t *testing.T) {
		ledger := &fakeLedgerRepo{listFunc: func(ctx context.Context, identity string) ([]order.Record, error) {
			return nil, errors.New("db error")
		}}
		handler := httpapi.NewOrdersHandler(ledger)
		r := authed(httptest.NewRequest(http.MethodGet, "/api/orders", nil), t)
		w := httptest.NewRecorder()

		wrap(handler.ListOrders).ServeHTTP(w, r)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("lists own orders", func(t *testing.T) {
		var queried string
		ledger := &fakeLedgerRepo{listFunc: func(ctx context.Context, identity string) ([]order.Record, error) {
			queried = identity
			return []order.Record{{
				ID:            "order-1",
				Identity:      identity,
				RemoteOrderID: "remote-1",
				TotalEGP:      500,
				TotalUSD:      "10.00",
				Status:        order.StatusCaptured,
				CreatedAt:     time.Now().UTC(),
			}}, nil
		}}
		handler := httpapi.NewOrdersHandler(ledger)
		r := authed(httptest.NewRequest(http.MethodGet, "/api/orders", nil), t)
		w := httptest.NewRecorder()

		wrap(handler.ListOrders).ServeHTTP(w, r)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "user@example.com", queried)

		var records []order.Record
		require.NoError(t, json.NewDecoder(w.Body).Decode(&records))
		require.Len(t, records, 1)
		assert.Equal(t, "remote-1", records[0].RemoteOrderID)
	})
}
