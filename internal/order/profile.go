package order

import (
	"context"
	"fmt"
)

// DocStore matches the document-store proxy methods the profile store
// needs.
type DocStore interface {
	Insert(ctx context.Context, collection string, record, out any) error
}

// ProfileStore persists order records to the remote profile/order
// collection. The proxy echoes the created record with its assigned
// id.
type ProfileStore struct {
	store      DocStore
	collection string
}

func NewProfileStore(store DocStore, collection string) *ProfileStore {
	return &ProfileStore{store: store, collection: collection}
}

func (p *ProfileStore) SaveOrder(ctx context.Context, rec *Record) error {
	var created Record
	if err := p.store.Insert(ctx, p.collection, rec, &created); err != nil {
		return fmt.Errorf("persist order record: %w", err)
	}
	if created.ID != "" {
		rec.ID = created.ID
	}
	return nil
}
