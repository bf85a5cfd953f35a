package cart

import "context"

// Backend persists cart records for one kind of identity. Mutation
// logic in Service is backend-agnostic: the remote store (authenticated
// users) and the local fallback store (anonymous sessions) both
// implement this interface and are selected once per request by
// identity.
type Backend interface {
	// Load returns every raw record belonging to the identity.
	Load(ctx context.Context, id Identity) ([]Record, error)

	// Append stores one more raw record for the entry and returns its
	// record id (empty for backends without record ids). Appending an
	// already-present entry is fine; the reconciler merges duplicates.
	Append(ctx context.Context, id Identity, item LineItem) (string, error)

	// UpdateQuantity rewrites one logical entry to the given quantity
	// and returns the record ids that now back the entry (empty for
	// backends without record ids).
	UpdateQuantity(ctx context.Context, id Identity, item LineItem, newQty int) ([]string, error)

	// Remove deletes every record backing the entry.
	Remove(ctx context.Context, id Identity, item LineItem) error

	// Clear deletes all of the identity's records. The remote backend
	// deletes records independently, so a failure can leave the store
	// partially cleared.
	Clear(ctx context.Context, id Identity) error
}
