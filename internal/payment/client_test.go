package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestConvertAmount(t *testing.T) {
	cases := []struct {
		egp  float64
		want string
	}{
		{500, "10.00"},
		{100, "2.00"},
		{75, "1.50"},
		{49999.99, "1000.00"},
	}
	for _, tc := range cases {
		if got := ConvertAmount(tc.egp); got != tc.want {
			t.Fatalf("ConvertAmount(%v) = %q, want %q", tc.egp, got, tc.want)
		}
	}
}

func TestCreateOrder_SubmitsConvertedAmount(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "ord-1"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "client", "secret", srv.Client())

	res, err := client.CreateOrder(context.Background(), CreateOrderRequest{
		TotalEGP:    500,
		Description: "Laptop A",
		Items:       []Item{{ProductID: "A", Name: "Laptop A", Price: 500, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if res.OrderID != "ord-1" {
		t.Fatalf("expected order id ord-1, got %q", res.OrderID)
	}
	if res.AmountUSD != "10.00" {
		t.Fatalf("expected converted amount 10.00, got %q", res.AmountUSD)
	}

	amount := gotBody["amount"].(map[string]any)
	if amount["value"] != "10.00" || amount["currencyCode"] != "USD" {
		t.Fatalf("unexpected amount submitted: %+v", amount)
	}
	if gotBody["originalTotal"].(float64) != 500 {
		t.Fatalf("expected original total 500, got %v", gotBody["originalTotal"])
	}
	if gotBody["exchangeRate"].(float64) != 50 {
		t.Fatalf("expected exchange rate 50, got %v", gotBody["exchangeRate"])
	}
}

func TestCreateOrder_AcceptsAlternateIDFields(t *testing.T) {
	for _, field := range []string{"id", "orderID", "orderId", "order_id"} {
		field := field
		t.Run(field, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprintf(w, `{"%s":"ord-9"}`, field)
			}))
			defer srv.Close()

			client := NewClient(srv.URL, "", "", srv.Client())
			res, err := client.CreateOrder(context.Background(), CreateOrderRequest{TotalEGP: 100})
			if err != nil {
				t.Fatalf("create order: %v", err)
			}
			if res.OrderID != "ord-9" {
				t.Fatalf("expected ord-9, got %q", res.OrderID)
			}
		})
	}
}

func TestCreateOrder_MissingIDIsInvalidResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "CREATED"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", "", srv.Client())
	_, err := client.CreateOrder(context.Background(), CreateOrderRequest{TotalEGP: 100})
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestCaptureOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders/ord-1/capture" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["identity"] != "user@example.com" {
			t.Fatalf("expected identity in body, got %+v", body)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "COMPLETED"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", "", srv.Client())
	res, err := client.CaptureOrder(context.Background(), "ord-1", "user@example.com")
	if err != nil {
		t.Fatalf("capture order: %v", err)
	}
	if res.Status != "COMPLETED" {
		t.Fatalf("expected status COMPLETED, got %q", res.Status)
	}
	if len(res.Raw) == 0 {
		t.Fatal("expected raw capture response retained")
	}
}

func TestCreateOrder_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", "", srv.Client())
	if _, err := client.CreateOrder(context.Background(), CreateOrderRequest{TotalEGP: 100}); err == nil {
		t.Fatal("expected an error for status 503")
	}
}
