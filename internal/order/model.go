package order

import (
	"encoding/json"
	"time"
)

type Status string

const (
	StatusCaptured Status = "captured"
	StatusPending  Status = "pending"
)

type Item struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// Record is one completed checkout. Created exactly once per
// successful capture and never mutated afterwards.
type Record struct {
	ID            string          `json:"orderId"`
	Identity      string          `json:"identity"`
	RemoteOrderID string          `json:"remoteOrderId"`
	Items         []Item          `json:"items"`
	TotalEGP      float64         `json:"totalEgp"`
	TotalUSD      string          `json:"totalUsd"`
	ExchangeRate  float64         `json:"exchangeRate"`
	Status        Status          `json:"status"`
	RawCapture    json.RawMessage `json:"rawCapture,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}
