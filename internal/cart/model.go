package cart

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Identity scopes a cart to either an authenticated user (email set)
// or an anonymous local session (token set).
type Identity struct {
	Email        string
	SessionToken string
}

func (id Identity) Anonymous() bool {
	return id.Email == ""
}

// Key returns a stable string used to partition carts, snapshots and
// broadcast sequences per identity.
func (id Identity) Key() string {
	if id.Anonymous() {
		return "anon:" + id.SessionToken
	}
	return id.Email
}

// Record is one raw row from the cart collection. Several records may
// describe the same logical entry; the reconciler merges them.
type Record struct {
	ID        string  `json:"id"`
	Email     string  `json:"email,omitempty"`
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Currency  string  `json:"currency"`
	Image     string  `json:"image,omitempty"`
	Quantity  int     `json:"quantity"`
}

// UnmarshalJSON tolerates a price sent as a JSON string. A price that
// is not numeric decodes to 0 and the reconciler drops the entry, so
// one bad row never poisons the whole cart load.
func (rec *Record) UnmarshalJSON(data []byte) error {
	type alias Record
	aux := struct {
		Price json.RawMessage `json:"price"`
		*alias
	}{alias: (*alias)(rec)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	rec.Price = parsePrice(aux.Price)
	return nil
}

func parsePrice(raw json.RawMessage) float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return 0
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return v
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0
	}
	return v
}

// ItemKey identifies one logical cart entry. Two records with the same
// key are the same entry and their quantities are summed.
type ItemKey struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
}

// LineItem is one aggregated cart entry as displayed to the user.
// RecordIDs holds the ids of the raw records it subsumes so a
// remote-backed mutation can delete them.
type LineItem struct {
	ProductID string   `json:"productId"`
	Name      string   `json:"name"`
	Price     float64  `json:"price"`
	Currency  string   `json:"currency"`
	Image     string   `json:"image,omitempty"`
	Quantity  int      `json:"quantity"`
	RecordIDs []string `json:"-"`
}

func (it LineItem) Key() ItemKey {
	return ItemKey{ProductID: it.ProductID, Name: it.Name, Price: it.Price}
}

// Total returns the sum of price*quantity over items.
func Total(items []LineItem) float64 {
	total := 0.0
	for _, it := range items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}

// TotalQuantity returns the number of units across all entries, which
// is what the cart badge displays.
func TotalQuantity(items []LineItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}
