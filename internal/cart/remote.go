package cart

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// DocStore matches the methods of the document-store proxy client used
// by the remote backend. It exists so tests can fake the proxy.
type DocStore interface {
	List(ctx context.Context, collection string, out any) error
	Insert(ctx context.Context, collection string, record, out any) error
	Delete(ctx context.Context, collection, id string) error
}

// RemoteBackend stores cart records in the remote cart collection,
// one row per add-to-cart, keyed by proxy-assigned record ids.
type RemoteBackend struct {
	store      DocStore
	collection string
}

func NewRemoteBackend(store DocStore, collection string) *RemoteBackend {
	return &RemoteBackend{store: store, collection: collection}
}

func (b *RemoteBackend) Load(ctx context.Context, id Identity) ([]Record, error) {
	var all []Record
	if err := b.store.List(ctx, b.collection, &all); err != nil {
		return nil, fmt.Errorf("load cart records: %w", err)
	}

	// The proxy has no filtering, so ownership is resolved here.
	var mine []Record
	for _, rec := range all {
		if rec.Email == id.Email {
			mine = append(mine, rec)
		}
	}
	return mine, nil
}

func (b *RemoteBackend) Append(ctx context.Context, id Identity, item LineItem) (string, error) {
	rec := Record{
		Email:     id.Email,
		ProductID: item.ProductID,
		Name:      item.Name,
		Price:     item.Price,
		Currency:  item.Currency,
		Image:     item.Image,
		Quantity:  item.Quantity,
	}

	var created Record
	if err := b.store.Insert(ctx, b.collection, rec, &created); err != nil {
		return "", fmt.Errorf("insert cart record: %w", err)
	}
	return created.ID, nil
}

// UpdateQuantity deletes every constituent record concurrently, then
// inserts a single record carrying the new quantity. The deletes are
// an all-or-error join: if one fails the whole operation fails, but
// records already deleted stay deleted.
func (b *RemoteBackend) UpdateQuantity(ctx context.Context, id Identity, item LineItem, newQty int) ([]string, error) {
	if err := b.deleteAll(ctx, item.RecordIDs); err != nil {
		return nil, err
	}

	rec := Record{
		Email:     id.Email,
		ProductID: item.ProductID,
		Name:      item.Name,
		Price:     item.Price,
		Currency:  item.Currency,
		Image:     item.Image,
		Quantity:  newQty,
	}

	var created Record
	if err := b.store.Insert(ctx, b.collection, rec, &created); err != nil {
		return nil, fmt.Errorf("insert updated record: %w", err)
	}
	return []string{created.ID}, nil
}

func (b *RemoteBackend) Remove(ctx context.Context, id Identity, item LineItem) error {
	return b.deleteAll(ctx, item.RecordIDs)
}

// Clear re-fetches the identity's records and deletes each one
// independently. There is no batch endpoint, so an error can leave the
// collection partially cleared.
func (b *RemoteBackend) Clear(ctx context.Context, id Identity) error {
	records, err := b.Load(ctx, id)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
	}
	return b.deleteAll(ctx, ids)
}

func (b *RemoteBackend) deleteAll(ctx context.Context, ids []string) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, recordID := range ids {
		recordID := recordID
		g.Go(func() error {
			if err := b.store.Delete(ctx, b.collection, recordID); err != nil {
				return fmt.Errorf("delete record %s: %w", recordID, err)
			}
			return nil
		})
	}
	return g.Wait()
}
