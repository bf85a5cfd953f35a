// Package payment integrates the third-party payment processor's
// order-creation and capture endpoints.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// ExchangeRate is the fixed EGP-per-USD rate used to convert cart
	// totals into the amount submitted to the processor.
	ExchangeRate = 50.0

	// BaseCurrency is what the catalog prices carts in.
	BaseCurrency = "EGP"
	// ChargeCurrency is what the processor captures in.
	ChargeCurrency = "USD"
)

// ErrInvalidResponse means the processor's create-order response
// carried no recognizable order identifier.
var ErrInvalidResponse = errors.New("payment: order id missing from response")

// ConvertAmount formats an EGP total as the USD amount string the
// processor expects, e.g. 500 EGP at rate 50 -> "10.00".
func ConvertAmount(totalEGP float64) string {
	return fmt.Sprintf("%.2f", totalEGP/ExchangeRate)
}

type Item struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

type CreateOrderRequest struct {
	Items       []Item
	TotalEGP    float64
	Description string
}

type CreateOrderResult struct {
	OrderID   string
	AmountUSD string
}

type CaptureResult struct {
	Status string
	Raw    json.RawMessage
}

type Client struct {
	baseURL  string
	clientID string
	secret   string
	http     *http.Client
}

func NewClient(baseURL, clientID, secret string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		clientID: clientID,
		secret:   secret,
		http:     httpClient,
	}
}

type createOrderBody struct {
	Amount           amount  `json:"amount"`
	Items            []Item  `json:"items"`
	Description      string  `json:"description,omitempty"`
	OriginalTotal    float64 `json:"originalTotal"`
	OriginalCurrency string  `json:"originalCurrency"`
	ExchangeRate     float64 `json:"exchangeRate"`
}

type amount struct {
	CurrencyCode string `json:"currencyCode"`
	Value        string `json:"value"`
}

// CreateOrder registers an order with the processor and returns its
// order id. Different processor versions name the id field
// differently, so several spellings are accepted.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	usd := ConvertAmount(req.TotalEGP)
	body := createOrderBody{
		Amount:           amount{CurrencyCode: ChargeCurrency, Value: usd},
		Items:            req.Items,
		Description:      req.Description,
		OriginalTotal:    req.TotalEGP,
		OriginalCurrency: BaseCurrency,
		ExchangeRate:     ExchangeRate,
	}

	raw, err := c.post(ctx, "/orders", body)
	if err != nil {
		return nil, err
	}

	orderID := extractOrderID(raw)
	if orderID == "" {
		return nil, ErrInvalidResponse
	}
	return &CreateOrderResult{OrderID: orderID, AmountUSD: usd}, nil
}

// CaptureOrder finalizes payment for a previously created order.
func (c *Client) CaptureOrder(ctx context.Context, orderID, identity string) (*CaptureResult, error) {
	raw, err := c.post(ctx, "/orders/"+orderID+"/capture", map[string]string{
		"identity": identity,
	})
	if err != nil {
		return nil, err
	}

	var status struct {
		Status string `json:"status"`
	}
	_ = json.Unmarshal(raw, &status)

	return &CaptureResult{Status: status.Status, Raw: raw}, nil
}

func (c *Client) post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.clientID != "" {
		req.SetBasicAuth(c.clientID, c.secret)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("POST %s: unexpected status %d", path, resp.StatusCode)
	}
	return raw, nil
}

// extractOrderID tolerates the id field spellings seen across
// processor API versions.
func extractOrderID(raw json.RawMessage) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return ""
	}

	for _, key := range []string{"id", "orderID", "orderId", "order_id"} {
		v, ok := fields[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil && s != "" {
			return s
		}
	}
	return ""
}
