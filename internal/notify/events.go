// Package notify broadcasts cart changes over RabbitMQ for the
// external cart-badge/display component.
package notify

import (
	"fmt"
	"time"
)

const (
	// EventsExchange is the topic exchange all storefront events share.
	EventsExchange = "laptech.events"

	QuantityChangedRoutingKey = "cart.quantitychanged.v1"
	ItemRemovedRoutingKey     = "cart.itemremoved.v1"
	ItemAddedRoutingKey       = "cart.itemadded.v1"
	CartUpdatedRoutingKey     = "cart.updated.v1"

	producerName = "laptech-storefront"
)

// EventEnvelope is the common envelope for all broadcast events,
// generic over the payload type.
type EventEnvelope[T any] struct {
	EventName    string    `json:"eventName"`
	EventVersion int       `json:"eventVersion"`
	EventID      string    `json:"eventId"`
	Producer     string    `json:"producer"`
	PartitionKey string    `json:"partitionKey"`
	Sequence     int64     `json:"sequence"`
	OccurredAt   time.Time `json:"occurredAt"`
	Payload      T         `json:"payload"`
}

// Validate ensures the envelope carries the expected event identity.
func (e EventEnvelope[T]) Validate(expectedName string, expectedVersion int) error {
	if e.EventName != expectedName {
		return fmt.Errorf("unexpected eventName: %s", e.EventName)
	}
	if e.EventVersion != expectedVersion {
		return fmt.Errorf("unexpected eventVersion: %d", e.EventVersion)
	}
	if e.PartitionKey == "" {
		return fmt.Errorf("missing partitionKey")
	}
	return nil
}

type QuantityChangedPayload struct {
	ProductID   string `json:"productId"`
	OldQuantity int    `json:"oldQuantity"`
	NewQuantity int    `json:"newQuantity"`
}

type ItemRemovedPayload struct {
	ProductID string `json:"productId,omitempty"`
	Quantity  int    `json:"quantity"`
}

type ItemAddedPayload struct {
	ProductID string `json:"productId,omitempty"`
	Quantity  int    `json:"quantity"`
}

type CartUpdatedPayload struct{}
