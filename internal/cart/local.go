package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/hanynan8/LapTech-sub002/internal/kv"
)

// localKeyPrefix is the well-known key prefix for anonymous carts, one
// serialized record array per session token.
const localKeyPrefix = "laptech:cart:anon:"

// LocalBackend is the fallback store for sessions without an
// authenticated identity. The whole cart is one JSON array per
// session, rewritten on every mutation (last write wins).
type LocalBackend struct {
	store kv.Store
}

func NewLocalBackend(store kv.Store) *LocalBackend {
	return &LocalBackend{store: store}
}

func localKey(id Identity) string {
	return localKeyPrefix + id.SessionToken
}

func (b *LocalBackend) Load(ctx context.Context, id Identity) ([]Record, error) {
	var records []Record
	err := b.store.GetJSON(ctx, localKey(id), &records)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load local cart: %w", err)
	}
	return records, nil
}

func (b *LocalBackend) Append(ctx context.Context, id Identity, item LineItem) (string, error) {
	records, err := b.Load(ctx, id)
	if err != nil {
		return "", err
	}

	records = append(records, Record{
		ProductID: item.ProductID,
		Name:      item.Name,
		Price:     item.Price,
		Currency:  item.Currency,
		Image:     item.Image,
		Quantity:  item.Quantity,
	})
	if err := b.save(ctx, id, records); err != nil {
		return "", err
	}
	return "", nil
}

func (b *LocalBackend) UpdateQuantity(ctx context.Context, id Identity, item LineItem, newQty int) ([]string, error) {
	records, err := b.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	rewritten := records[:0]
	replaced := false
	for _, rec := range records {
		if rec.ProductID == item.ProductID && rec.Name == item.Name && rec.Price == item.Price {
			if replaced {
				continue // collapse duplicates into the rewritten entry
			}
			rec.Quantity = newQty
			replaced = true
		}
		rewritten = append(rewritten, rec)
	}
	if !replaced {
		rewritten = append(rewritten, Record{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Currency:  item.Currency,
			Image:     item.Image,
			Quantity:  newQty,
		})
	}

	if err := b.save(ctx, id, rewritten); err != nil {
		return nil, err
	}
	return nil, nil
}

func (b *LocalBackend) Remove(ctx context.Context, id Identity, item LineItem) error {
	records, err := b.Load(ctx, id)
	if err != nil {
		return err
	}

	remaining := records[:0]
	for _, rec := range records {
		if rec.ProductID == item.ProductID && rec.Name == item.Name && rec.Price == item.Price {
			continue
		}
		remaining = append(remaining, rec)
	}
	return b.save(ctx, id, remaining)
}

func (b *LocalBackend) Clear(ctx context.Context, id Identity) error {
	if err := b.store.Del(ctx, localKey(id)); err != nil {
		return fmt.Errorf("clear local cart: %w", err)
	}
	return nil
}

func (b *LocalBackend) save(ctx context.Context, id Identity, records []Record) error {
	if err := b.store.SetJSON(ctx, localKey(id), records, 0); err != nil {
		return fmt.Errorf("save local cart: %w", err)
	}
	return nil
}
