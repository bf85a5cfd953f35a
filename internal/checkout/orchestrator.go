package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hanynan8/LapTech-sub002/internal/cart"
	"github.com/hanynan8/LapTech-sub002/internal/order"
	"github.com/hanynan8/LapTech-sub002/internal/payment"
)

var (
	// ErrEmptyCart rejects a proceed-to-pay with nothing to charge.
	ErrEmptyCart = errors.New("checkout: cart is empty")

	// ErrInvalidState means the requested transition is not legal from
	// the flow's current state (e.g. capture before create-order).
	ErrInvalidState = errors.New("checkout: invalid state for operation")
)

// PaymentClient is the processor integration the orchestrator drives.
type PaymentClient interface {
	CreateOrder(ctx context.Context, req payment.CreateOrderRequest) (*payment.CreateOrderResult, error)
	CaptureOrder(ctx context.Context, orderID, identity string) (*payment.CaptureResult, error)
}

// ProfileStore persists the order record to the remote profile
// collection.
type ProfileStore interface {
	SaveOrder(ctx context.Context, rec *order.Record) error
}

// Ledger records the order in the storefront's local order history.
type Ledger interface {
	Create(ctx context.Context, rec *order.Record) error
}

// CartClearer empties the cart after a successful capture.
type CartClearer interface {
	Clear(ctx context.Context, id cart.Identity, confirmed bool) error
}

// Orchestrator owns the per-identity checkout state machine:
// idle -> creating_order -> awaiting_capture -> success | cancelled | error.
type Orchestrator struct {
	payments PaymentClient
	profile  ProfileStore
	ledger   Ledger
	carts    CartClearer
	sessions *SessionStore
	logger   *zap.Logger

	mu    sync.Mutex
	flows map[string]*flow
}

type flow struct {
	state   State
	orderID string
}

func NewOrchestrator(payments PaymentClient, profile ProfileStore, ledger Ledger, carts CartClearer, sessions *SessionStore, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		payments: payments,
		profile:  profile,
		ledger:   ledger,
		carts:    carts,
		sessions: sessions,
		logger:   logger,
		flows:    make(map[string]*flow),
	}
}

// StartSession snapshots the cart into a payment session at
// proceed-to-pay.
func (o *Orchestrator) StartSession(ctx context.Context, id cart.Identity, items []cart.LineItem) (*Session, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	sess := &Session{
		Total:     cart.Total(items),
		Items:     items,
		Currency:  payment.BaseCurrency,
		CreatedAt: time.Now().UTC(),
	}
	if err := o.sessions.Save(ctx, id, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// CreateOrder consumes the payment session and registers an order with
// the processor. On success the flow waits for the widget's capture
// callback; on failure it lands in error and the user may retry.
func (o *Orchestrator) CreateOrder(ctx context.Context, id cart.Identity) (*payment.CreateOrderResult, error) {
	f := o.flowFor(id)

	o.mu.Lock()
	if !f.state.retryable() {
		o.mu.Unlock()
		return nil, ErrInvalidState
	}
	f.state = StateCreatingOrder
	o.mu.Unlock()

	sess, err := o.sessions.Get(ctx, id)
	if err != nil {
		o.setState(f, StateError)
		return nil, err
	}
	if len(sess.Items) == 0 {
		o.setState(f, StateError)
		return nil, ErrEmptyCart
	}

	req := payment.CreateOrderRequest{
		TotalEGP:    sess.Total,
		Description: describe(sess.Items),
	}
	for _, it := range sess.Items {
		req.Items = append(req.Items, payment.Item{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}

	res, err := o.payments.CreateOrder(ctx, req)
	if err != nil {
		o.setState(f, StateError)
		return nil, fmt.Errorf("create remote order: %w", err)
	}

	o.mu.Lock()
	f.orderID = res.OrderID
	f.state = StateAwaitingCapture
	o.mu.Unlock()

	return res, nil
}

// CaptureOutcome reports a finished approval. Warning carries
// persistence problems that were downgraded rather than surfaced as
// checkout failure.
type CaptureOutcome struct {
	Order   *order.Record
	Status  string
	Warning string
}

// Approve runs the capture sequence after the widget reports user
// approval: capture the payment, persist the order record, clear the
// cart, discard the session. Persistence failures downgrade to a
// warning; capture or cart-clear failures move the flow to error.
// Steps already completed are never rolled back.
func (o *Orchestrator) Approve(ctx context.Context, id cart.Identity, orderID string) (*CaptureOutcome, error) {
	f := o.flowFor(id)

	o.mu.Lock()
	if f.state != StateAwaitingCapture {
		o.mu.Unlock()
		return nil, ErrInvalidState
	}
	if orderID == "" {
		orderID = f.orderID
	}
	o.mu.Unlock()

	sess, err := o.sessions.Get(ctx, id)
	if err != nil {
		o.setState(f, StateError)
		return nil, err
	}

	capture, err := o.payments.CaptureOrder(ctx, orderID, id.Key())
	if err != nil {
		o.setState(f, StateError)
		return nil, fmt.Errorf("capture order: %w", err)
	}

	rec := &order.Record{
		Identity:      id.Key(),
		RemoteOrderID: orderID,
		TotalEGP:      sess.Total,
		TotalUSD:      payment.ConvertAmount(sess.Total),
		ExchangeRate:  payment.ExchangeRate,
		Status:        order.StatusCaptured,
		RawCapture:    capture.Raw,
		CreatedAt:     time.Now().UTC(),
	}
	for _, it := range sess.Items {
		rec.Items = append(rec.Items, order.Item{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}

	// Capture already succeeded; from here persistence problems are
	// warnings, not checkout failures.
	var warning string
	if err := o.profile.SaveOrder(ctx, rec); err != nil {
		warning = "order captured but profile persistence failed"
		o.logger.Warn("profile persistence failed after capture",
			zap.String("remoteOrderId", orderID), zap.Error(err))
	}
	if err := o.ledger.Create(ctx, rec); err != nil {
		if warning == "" {
			warning = "order captured but ledger persistence failed"
		}
		o.logger.Warn("ledger persistence failed after capture",
			zap.String("remoteOrderId", orderID), zap.Error(err))
	}

	if err := o.carts.Clear(ctx, id, true); err != nil {
		o.setState(f, StateError)
		return nil, fmt.Errorf("clear cart after capture: %w", err)
	}

	if err := o.sessions.Discard(ctx, id); err != nil {
		o.logger.Warn("discard payment session failed", zap.Error(err))
	}

	o.setState(f, StateSuccess)
	return &CaptureOutcome{Order: rec, Status: capture.Status, Warning: warning}, nil
}

// Cancel records the widget's user-cancellation callback. The payment
// session survives so the user can retry.
func (o *Orchestrator) Cancel(id cart.Identity) {
	o.setState(o.flowFor(id), StateCancelled)
}

// Fail records a widget-reported error.
func (o *Orchestrator) Fail(id cart.Identity, reason string) {
	f := o.flowFor(id)
	o.setState(f, StateError)
	o.logger.Warn("payment widget reported error",
		zap.String("identity", id.Key()), zap.String("reason", reason))
}

// State reports the identity's current checkout state.
func (o *Orchestrator) State(id cart.Identity) State {
	o.mu.Lock()
	defer o.mu.Unlock()

	f, ok := o.flows[id.Key()]
	if !ok {
		return StateIdle
	}
	return f.state
}

func (o *Orchestrator) flowFor(id cart.Identity) *flow {
	o.mu.Lock()
	defer o.mu.Unlock()

	f, ok := o.flows[id.Key()]
	if !ok {
		f = &flow{state: StateIdle}
		o.flows[id.Key()] = f
	}
	return f
}

func (o *Orchestrator) setState(f *flow, s State) {
	o.mu.Lock()
	f.state = s
	o.mu.Unlock()
}

func describe(items []cart.LineItem) string {
	if len(items) == 1 {
		return items[0].Name
	}
	return fmt.Sprintf("%s and %d more", items[0].Name, len(items)-1)
}
