package cart

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrItemNotFound means the targeted entry is not in the cart
	// snapshot, usually because another tab already removed it.
	ErrItemNotFound = errors.New("cart: item not found")

	// ErrConfirmationRequired is returned by Clear when the caller has
	// not confirmed the destructive clear-all.
	ErrConfirmationRequired = errors.New("cart: confirmation required")

	// ErrInvalidItem rejects an add with a non-positive price or
	// quantity before anything is written.
	ErrInvalidItem = errors.New("cart: invalid item")
)

// Notifier broadcasts cart changes to the external badge/display
// component. Broadcast failures never fail a mutation; the badge just
// lags until the next update.
type Notifier interface {
	QuantityChanged(ctx context.Context, id Identity, productID string, oldQty, newQty int) error
	ItemRemoved(ctx context.Context, id Identity, productID string, qty int) error
	ItemAdded(ctx context.Context, id Identity, productID string, qty int) error
	CartUpdated(ctx context.Context, id Identity) error
}

// Service is the cart mutation orchestrator. It owns an in-memory
// snapshot per identity, applies every change optimistically, commits
// it to the backing store, and compensates the snapshot (with a
// mirrored broadcast) when the commit fails.
type Service struct {
	remote Backend
	local  Backend
	notify Notifier
	logger *zap.Logger

	mu    sync.Mutex
	carts map[string]*snapshot
}

type snapshot struct {
	mu     sync.Mutex
	loaded bool
	items  []LineItem
}

func NewService(remote, local Backend, notify Notifier, logger *zap.Logger) *Service {
	return &Service{
		remote: remote,
		local:  local,
		notify: notify,
		logger: logger,
		carts:  make(map[string]*snapshot),
	}
}

// mutation is one optimistic cart change: apply mutates the snapshot
// and broadcasts, commit performs the backing write, compensate
// restores the snapshot and broadcasts the mirror image. Every
// mutation goes through run so rollback is always symmetric.
type mutation struct {
	apply      func()
	commit     func(ctx context.Context) error
	compensate func()
}

func (s *Service) run(ctx context.Context, id Identity, m mutation) error {
	m.apply()
	if err := m.commit(ctx); err != nil {
		m.compensate()
		return err
	}
	s.cartUpdated(ctx, id)
	return nil
}

// Items returns the aggregated cart for the identity, loading and
// reconciling raw records on first access.
func (s *Service) Items(ctx context.Context, id Identity) ([]LineItem, error) {
	snap := s.snapshotFor(id)
	snap.mu.Lock()
	defer snap.mu.Unlock()

	if err := s.ensureLoaded(ctx, id, snap); err != nil {
		return nil, err
	}

	items := make([]LineItem, len(snap.items))
	copy(items, snap.items)
	return items, nil
}

// Add puts an item in the cart, merging with an existing entry that
// shares (productId, name, price).
func (s *Service) Add(ctx context.Context, id Identity, item LineItem) error {
	if item.Price <= 0 || item.Quantity < 1 {
		return ErrInvalidItem
	}

	snap := s.snapshotFor(id)
	snap.mu.Lock()
	defer snap.mu.Unlock()

	if err := s.ensureLoaded(ctx, id, snap); err != nil {
		return err
	}

	i := indexOf(snap.items, item.Key())
	if i >= 0 {
		prevIDs := snap.items[i].RecordIDs
		return s.run(ctx, id, mutation{
			apply: func() {
				snap.items[i].Quantity += item.Quantity
				s.itemAdded(ctx, id, item.ProductID, item.Quantity)
			},
			commit: func(ctx context.Context) error {
				recordID, err := s.backendFor(id).Append(ctx, id, item)
				if err != nil {
					return err
				}
				if recordID != "" {
					snap.items[i].RecordIDs = append(snap.items[i].RecordIDs, recordID)
				}
				return nil
			},
			compensate: func() {
				snap.items[i].Quantity -= item.Quantity
				snap.items[i].RecordIDs = prevIDs
				s.itemRemoved(ctx, id, item.ProductID, item.Quantity)
			},
		})
	}

	item.RecordIDs = nil
	return s.run(ctx, id, mutation{
		apply: func() {
			snap.items = append(snap.items, item)
			s.itemAdded(ctx, id, item.ProductID, item.Quantity)
		},
		commit: func(ctx context.Context) error {
			recordID, err := s.backendFor(id).Append(ctx, id, item)
			if err != nil {
				return err
			}
			if recordID != "" {
				snap.items[len(snap.items)-1].RecordIDs = []string{recordID}
			}
			return nil
		},
		compensate: func() {
			snap.items = snap.items[:len(snap.items)-1]
			s.itemRemoved(ctx, id, item.ProductID, item.Quantity)
		},
	})
}

// ChangeQuantity applies a quantity delta to one entry. A resulting
// quantity below one behaves exactly like Remove.
func (s *Service) ChangeQuantity(ctx context.Context, id Identity, key ItemKey, delta int) error {
	snap := s.snapshotFor(id)
	snap.mu.Lock()
	defer snap.mu.Unlock()

	if err := s.ensureLoaded(ctx, id, snap); err != nil {
		return err
	}

	i := indexOf(snap.items, key)
	if i < 0 {
		return ErrItemNotFound
	}

	oldQty := snap.items[i].Quantity
	newQty := oldQty + delta
	if newQty < 1 {
		return s.removeLocked(ctx, id, snap, i)
	}

	item := snap.items[i]
	return s.run(ctx, id, mutation{
		apply: func() {
			snap.items[i].Quantity = newQty
			s.quantityChanged(ctx, id, key.ProductID, oldQty, newQty)
		},
		commit: func(ctx context.Context) error {
			ids, err := s.backendFor(id).UpdateQuantity(ctx, id, item, newQty)
			if err != nil {
				return err
			}
			snap.items[i].RecordIDs = ids
			return nil
		},
		compensate: func() {
			snap.items[i].Quantity = oldQty
			s.quantityChanged(ctx, id, key.ProductID, newQty, oldQty)
		},
	})
}

// Remove deletes one entry from the cart.
func (s *Service) Remove(ctx context.Context, id Identity, key ItemKey) error {
	snap := s.snapshotFor(id)
	snap.mu.Lock()
	defer snap.mu.Unlock()

	if err := s.ensureLoaded(ctx, id, snap); err != nil {
		return err
	}

	i := indexOf(snap.items, key)
	if i < 0 {
		return ErrItemNotFound
	}
	return s.removeLocked(ctx, id, snap, i)
}

func (s *Service) removeLocked(ctx context.Context, id Identity, snap *snapshot, i int) error {
	removed := snap.items[i]

	return s.run(ctx, id, mutation{
		apply: func() {
			snap.items = append(snap.items[:i], snap.items[i+1:]...)
			s.itemRemoved(ctx, id, removed.ProductID, removed.Quantity)
		},
		commit: func(ctx context.Context) error {
			return s.backendFor(id).Remove(ctx, id, removed)
		},
		compensate: func() {
			snap.items = append(snap.items, LineItem{})
			copy(snap.items[i+1:], snap.items[i:])
			snap.items[i] = removed
			s.itemAdded(ctx, id, removed.ProductID, removed.Quantity)
		},
	})
}

// Clear empties the cart. The caller must pass confirmed=true; without
// confirmation nothing is touched and no backend call is issued.
func (s *Service) Clear(ctx context.Context, id Identity, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}

	snap := s.snapshotFor(id)
	snap.mu.Lock()
	defer snap.mu.Unlock()

	if err := s.ensureLoaded(ctx, id, snap); err != nil {
		return err
	}

	prev := snap.items
	removedQty := TotalQuantity(prev)

	return s.run(ctx, id, mutation{
		apply: func() {
			snap.items = nil
			s.itemRemoved(ctx, id, "", removedQty)
		},
		commit: func(ctx context.Context) error {
			return s.backendFor(id).Clear(ctx, id)
		},
		compensate: func() {
			snap.items = prev
			s.itemAdded(ctx, id, "", removedQty)
		},
	})
}

func (s *Service) backendFor(id Identity) Backend {
	if id.Anonymous() {
		return s.local
	}
	return s.remote
}

func (s *Service) snapshotFor(id Identity) *snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.carts[id.Key()]
	if !ok {
		snap = &snapshot{}
		s.carts[id.Key()] = snap
	}
	return snap
}

func (s *Service) ensureLoaded(ctx context.Context, id Identity, snap *snapshot) error {
	if snap.loaded {
		return nil
	}

	records, err := s.backendFor(id).Load(ctx, id)
	if err != nil {
		return err
	}
	snap.items = Reconcile(records)
	snap.loaded = true
	return nil
}

func indexOf(items []LineItem, key ItemKey) int {
	for i := range items {
		if items[i].Key() == key {
			return i
		}
	}
	return -1
}

func (s *Service) quantityChanged(ctx context.Context, id Identity, productID string, oldQty, newQty int) {
	if err := s.notify.QuantityChanged(ctx, id, productID, oldQty, newQty); err != nil {
		s.logger.Warn("broadcast quantity-changed failed", zap.String("productId", productID), zap.Error(err))
	}
}

func (s *Service) itemRemoved(ctx context.Context, id Identity, productID string, qty int) {
	if err := s.notify.ItemRemoved(ctx, id, productID, qty); err != nil {
		s.logger.Warn("broadcast item-removed failed", zap.String("productId", productID), zap.Error(err))
	}
}

func (s *Service) itemAdded(ctx context.Context, id Identity, productID string, qty int) {
	if err := s.notify.ItemAdded(ctx, id, productID, qty); err != nil {
		s.logger.Warn("broadcast item-added failed", zap.String("productId", productID), zap.Error(err))
	}
}

func (s *Service) cartUpdated(ctx context.Context, id Identity) {
	if err := s.notify.CartUpdated(ctx, id); err != nil {
		s.logger.Warn("broadcast cart-updated failed", zap.Error(err))
	}
}
