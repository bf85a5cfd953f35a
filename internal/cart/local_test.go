package cart

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/hanynan8/LapTech-sub002/internal/kv"
)

// memoryStore is an in-memory kv.Store for tests.
type memoryStore struct {
	data map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string][]byte)}
}

func (m *memoryStore) GetJSON(ctx context.Context, key string, dest any) error {
	data, ok := m.data[key]
	if !ok {
		return kv.ErrNotFound
	}
	return json.Unmarshal(data, dest)
}

func (m *memoryStore) SetJSON(ctx context.Context, key string, value any, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = data
	return nil
}

func (m *memoryStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

var anonIdentity = Identity{SessionToken: "tok-1"}

func TestLocalBackend_LoadMissingKeyIsEmptyCart(t *testing.T) {
	backend := NewLocalBackend(newMemoryStore())

	records, err := backend.Load(context.Background(), anonIdentity)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty cart, got %+v", records)
	}
}

func TestLocalBackend_AppendAndLoad(t *testing.T) {
	ctx := context.Background()
	backend := NewLocalBackend(newMemoryStore())

	item := LineItem{ProductID: "A", Name: "Laptop A", Price: 100, Currency: "EGP", Quantity: 2}
	recordID, err := backend.Append(ctx, anonIdentity, item)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if recordID != "" {
		t.Fatalf("local backend has no record ids, got %q", recordID)
	}

	records, err := backend.Load(ctx, anonIdentity)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(records) != 1 || records[0].Quantity != 2 {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestLocalBackend_UpdateQuantityRewritesInPlace(t *testing.T) {
	ctx := context.Background()
	backend := NewLocalBackend(newMemoryStore())

	item := LineItem{ProductID: "A", Name: "Laptop A", Price: 100, Quantity: 1}
	if _, err := backend.Append(ctx, anonIdentity, item); err != nil {
		t.Fatalf("append: %v", err)
	}
	other := LineItem{ProductID: "B", Name: "Laptop B", Price: 200, Quantity: 1}
	if _, err := backend.Append(ctx, anonIdentity, other); err != nil {
		t.Fatalf("append: %v", err)
	}

	if _, err := backend.UpdateQuantity(ctx, anonIdentity, item, 7); err != nil {
		t.Fatalf("update quantity: %v", err)
	}

	records, _ := backend.Load(ctx, anonIdentity)
	if len(records) != 2 {
		t.Fatalf("expected two records, got %d", len(records))
	}
	if records[0].ProductID != "A" || records[0].Quantity != 7 {
		t.Fatalf("expected A rewritten in place with quantity 7, got %+v", records[0])
	}
}

func TestLocalBackend_UpdateQuantityCollapsesDuplicates(t *testing.T) {
	ctx := context.Background()
	backend := NewLocalBackend(newMemoryStore())

	item := LineItem{ProductID: "A", Name: "Laptop A", Price: 100, Quantity: 1}
	for i := 0; i < 3; i++ {
		if _, err := backend.Append(ctx, anonIdentity, item); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	if _, err := backend.UpdateQuantity(ctx, anonIdentity, item, 5); err != nil {
		t.Fatalf("update quantity: %v", err)
	}

	records, _ := backend.Load(ctx, anonIdentity)
	if len(records) != 1 || records[0].Quantity != 5 {
		t.Fatalf("expected one collapsed record with quantity 5, got %+v", records)
	}
}

func TestLocalBackend_RemoveAndClear(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	backend := NewLocalBackend(store)

	itemA := LineItem{ProductID: "A", Name: "Laptop A", Price: 100, Quantity: 1}
	itemB := LineItem{ProductID: "B", Name: "Laptop B", Price: 200, Quantity: 1}
	_, _ = backend.Append(ctx, anonIdentity, itemA)
	_, _ = backend.Append(ctx, anonIdentity, itemB)

	if err := backend.Remove(ctx, anonIdentity, itemA); err != nil {
		t.Fatalf("remove: %v", err)
	}
	records, _ := backend.Load(ctx, anonIdentity)
	if len(records) != 1 || records[0].ProductID != "B" {
		t.Fatalf("expected only B left, got %+v", records)
	}

	if err := backend.Clear(ctx, anonIdentity); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(store.data) != 0 {
		t.Fatalf("expected store key deleted, got %v", store.data)
	}
}
