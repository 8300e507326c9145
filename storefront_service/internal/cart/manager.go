package cart

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	carterrors "github.com/stitchpress/storefront/storefront_service/internal/errors"
	"github.com/stitchpress/storefront/storefront_service/internal/notify"
)

// Manager owns one Session per signed-in user and guards every operation that
// requires an identity. Carts are never held for a signed-out identity: an
// anonymous caller gets the sign-in-required notice and no store call is
// issued, and SignOut drops the session immediately.
type Manager struct {
	store    Store
	notifier notify.Notifier
	policy   ConflictPolicy
	logger   *slog.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewManager creates a session manager. The default conflict policy is
// Overwrite: a repeated add of the same (product, size) replaces the quantity.
func NewManager(store Store, notifier notify.Notifier, policy ConflictPolicy, logger *slog.Logger) *Manager {
	return &Manager{
		store:    store,
		notifier: notifier,
		policy:   policy,
		logger:   logger,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Session returns the user's cart session, creating it on first use.
func (m *Manager) Session(userID uuid.UUID) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[userID]
	if !ok {
		sess = NewSession(userID, m.store, m.notifier, m.policy, m.logger)
		m.sessions[userID] = sess
	}
	return sess
}

// SignOut tears the user's session down; the next signed-in session starts
// from an Empty snapshot and re-fetches from the store.
func (m *Manager) SignOut(userID uuid.UUID) {
	if userID == uuid.Nil {
		return
	}
	m.mu.Lock()
	delete(m.sessions, userID)
	m.mu.Unlock()
}

// Refresh re-fetches the user's snapshot. Anonymous callers have no cart and
// nothing is fetched.
func (m *Manager) Refresh(ctx context.Context, userID uuid.UUID) {
	if userID == uuid.Nil {
		return
	}
	m.Session(userID).Refresh(ctx)
}

// Add requires a signed-in user; anonymous callers get exactly one
// sign-in-required notice and no store call.
func (m *Manager) Add(ctx context.Context, userID, productID uuid.UUID, size string, quantity int32) error {
	if userID == uuid.Nil {
		m.notifier.Notify(ctx, notify.Notice{
			Title:       "Please sign in",
			Description: "You need to be signed in to add items to cart",
			Severity:    notify.SeverityError,
		})
		return fmt.Errorf("add to cart: %w", carterrors.ErrAuthRequired)
	}
	return m.Session(userID).Add(ctx, productID, size, quantity)
}

// UpdateQuantity sets a line's quantity for a signed-in user.
func (m *Manager) UpdateQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int32) error {
	if userID == uuid.Nil {
		return fmt.Errorf("update quantity: %w", carterrors.ErrAuthRequired)
	}
	return m.Session(userID).UpdateQuantity(ctx, lineID, quantity)
}

// Remove deletes one line for a signed-in user.
func (m *Manager) Remove(ctx context.Context, userID, lineID uuid.UUID) error {
	if userID == uuid.Nil {
		return fmt.Errorf("remove from cart: %w", carterrors.ErrAuthRequired)
	}
	return m.Session(userID).Remove(ctx, lineID)
}

// Clear deletes every line for the user. A no-op for anonymous callers.
func (m *Manager) Clear(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return nil
	}
	return m.Session(userID).Clear(ctx)
}

// Lines returns the user's current snapshot; empty for anonymous callers.
func (m *Manager) Lines(userID uuid.UUID) []Line {
	if userID == uuid.Nil {
		return nil
	}
	return m.Session(userID).Lines()
}

// TotalPrice returns the snapshot total; zero for anonymous callers.
func (m *Manager) TotalPrice(userID uuid.UUID) float64 {
	if userID == uuid.Nil {
		return 0
	}
	return m.Session(userID).TotalPrice()
}

// TotalItems returns the snapshot item count; zero for anonymous callers.
func (m *Manager) TotalItems(userID uuid.UUID) int32 {
	if userID == uuid.Nil {
		return 0
	}
	return m.Session(userID).TotalItems()
}

// State reports the user's snapshot state; Empty for anonymous callers.
func (m *Manager) State(userID uuid.UUID) State {
	if userID == uuid.Nil {
		return StateEmpty
	}
	return m.Session(userID).State()
}
