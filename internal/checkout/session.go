package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hanynan8/LapTech-sub002/internal/cart"
	"github.com/hanynan8/LapTech-sub002/internal/kv"
)

// sessionKeyPrefix is the well-known key the transient payment session
// lives under, one per identity.
const sessionKeyPrefix = "laptech:checkout:session:"

// sessionTTL bounds how long an abandoned payment session lingers.
const sessionTTL = time.Hour

// ErrNoSession means checkout was started without a payment session,
// usually because the user navigated away and came back.
var ErrNoSession = errors.New("checkout: no payment session")

// Session is the transient proceed-to-pay snapshot. It is created when
// the user heads to payment, consumed once by the orchestrator, then
// discarded regardless of outcome.
type Session struct {
	Total     float64         `json:"total"`
	Items     []cart.LineItem `json:"items"`
	Currency  string          `json:"currency"`
	CreatedAt time.Time       `json:"createdAt"`
}

type SessionStore struct {
	store kv.Store
}

func NewSessionStore(store kv.Store) *SessionStore {
	return &SessionStore{store: store}
}

func sessionKey(id cart.Identity) string {
	return sessionKeyPrefix + id.Key()
}

func (s *SessionStore) Save(ctx context.Context, id cart.Identity, sess *Session) error {
	if err := s.store.SetJSON(ctx, sessionKey(id), sess, sessionTTL); err != nil {
		return fmt.Errorf("save payment session: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, id cart.Identity) (*Session, error) {
	var sess Session
	err := s.store.GetJSON(ctx, sessionKey(id), &sess)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("load payment session: %w", err)
	}
	return &sess, nil
}

func (s *SessionStore) Discard(ctx context.Context, id cart.Identity) error {
	if err := s.store.Del(ctx, sessionKey(id)); err != nil {
		return fmt.Errorf("discard payment session: %w", err)
	}
	return nil
}
