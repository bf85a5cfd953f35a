package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/hanynan8/LapTech-sub002/internal/cart"
)

// SequenceRepository hands out the next per-partition sequence so
// consumers can order events from one identity.
type SequenceRepository interface {
	NextSequence(ctx context.Context, partitionKey string) (int64, error)
}

// RabbitPublisher implements cart.Notifier over a RabbitMQ topic
// exchange.
type RabbitPublisher struct {
	ch        *amqp.Channel
	sequences SequenceRepository
}

func NewRabbitPublisher(conn *amqp.Connection, sequences SequenceRepository) (*RabbitPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	// Declare the exchange up front so publish never fails on missing
	// infra.
	err = ch.ExchangeDeclare(
		EventsExchange,
		"topic",
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", EventsExchange, err)
	}

	return &RabbitPublisher{ch: ch, sequences: sequences}, nil
}

func (p *RabbitPublisher) Close() error {
	return p.ch.Close()
}

func (p *RabbitPublisher) QuantityChanged(ctx context.Context, id cart.Identity, productID string, oldQty, newQty int) error {
	return publish(ctx, p, id, "CartQuantityChanged", QuantityChangedRoutingKey, QuantityChangedPayload{
		ProductID:   productID,
		OldQuantity: oldQty,
		NewQuantity: newQty,
	})
}

func (p *RabbitPublisher) ItemRemoved(ctx context.Context, id cart.Identity, productID string, qty int) error {
	return publish(ctx, p, id, "CartItemRemoved", ItemRemovedRoutingKey, ItemRemovedPayload{
		ProductID: productID,
		Quantity:  qty,
	})
}

func (p *RabbitPublisher) ItemAdded(ctx context.Context, id cart.Identity, productID string, qty int) error {
	return publish(ctx, p, id, "CartItemAdded", ItemAddedRoutingKey, ItemAddedPayload{
		ProductID: productID,
		Quantity:  qty,
	})
}

func (p *RabbitPublisher) CartUpdated(ctx context.Context, id cart.Identity) error {
	return publish(ctx, p, id, "CartUpdated", CartUpdatedRoutingKey, CartUpdatedPayload{})
}

func publish[T any](ctx context.Context, p *RabbitPublisher, id cart.Identity, eventName, routingKey string, payload T) error {
	seq, err := p.sequences.NextSequence(ctx, id.Key())
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	env := EventEnvelope[T]{
		EventName:    eventName,
		EventVersion: 1,
		EventID:      uuid.NewString(),
		Producer:     producerName,
		PartitionKey: id.Key(),
		Sequence:     seq,
		OccurredAt:   time.Now().UTC(),
		Payload:      payload,
	}

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", eventName, err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}
