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

// State describes the lifecycle of a session snapshot.
type State string

const (
	StateEmpty   State = "empty"
	StateLoading State = "loading"
	StateLoaded  State = "loaded"
)

// Session holds one signed-in user's cart snapshot. The snapshot is never
// authoritative: it is a cache of the remote store, rebuilt by a full re-query
// after every mutation except Clear. Mutation failures leave the snapshot
// exactly as it was, since the refresh only runs after a successful write.
type Session struct {
	userID   uuid.UUID
	policy   ConflictPolicy
	store    Store
	notifier notify.Notifier
	logger   *slog.Logger

	mu    sync.RWMutex
	lines []Line
	state State
}

// NewSession creates a session for a signed-in user. The snapshot starts
// empty; callers refresh it explicitly or implicitly through mutations.
func NewSession(userID uuid.UUID, store Store, notifier notify.Notifier, policy ConflictPolicy, logger *slog.Logger) *Session {
	return &Session{
		userID:   userID,
		policy:   policy,
		store:    store,
		notifier: notifier,
		logger:   logger.With("component", "cart", "user_id", userID.String()),
		state:    StateEmpty,
	}
}

// Refresh re-queries all cart lines for the user. On failure the previous
// snapshot is kept and the error is only logged; an unreachable store is not
// distinguishable from an empty cart by the caller.
func (s *Session) Refresh(ctx context.Context) {
	s.mu.Lock()
	s.state = StateLoading
	s.mu.Unlock()

	lines, err := s.store.ListByUser(ctx, s.userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to fetch cart lines", "error", err)
		s.mu.Lock()
		if len(s.lines) == 0 {
			s.state = StateEmpty
		} else {
			s.state = StateLoaded
		}
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	s.lines = lines
	s.state = StateLoaded
	s.mu.Unlock()
}

// Add upserts a (product, size) selection keyed on (user, product, size) and
// refreshes the snapshot. A repeated add of the same pair never duplicates a
// line; the configured ConflictPolicy decides what happens to the quantity.
func (s *Session) Add(ctx context.Context, productID uuid.UUID, size string, quantity int32) error {
	if size == "" {
		s.notifier.Notify(ctx, notify.Notice{
			UserID:      s.userID,
			Title:       "Select a size",
			Description: "Please select a size before adding to cart",
			Severity:    notify.SeverityError,
		})
		return fmt.Errorf("size is required: %w", carterrors.ErrValidation)
	}
	if quantity <= 0 {
		s.notifier.Notify(ctx, notify.Notice{
			UserID:      s.userID,
			Title:       "Invalid quantity",
			Description: "Quantity must be at least 1",
			Severity:    notify.SeverityError,
		})
		return fmt.Errorf("quantity must be positive: %w", carterrors.ErrValidation)
	}

	params := UpsertParams{UserID: s.userID, ProductID: productID, Size: size, Quantity: quantity}
	if err := s.store.Upsert(ctx, params, s.policy); err != nil {
		s.logger.ErrorContext(ctx, "Failed to add cart line", "product_id", productID, "error", err)
		s.notifier.Notify(ctx, notify.Notice{
			UserID:      s.userID,
			Title:       "Error",
			Description: "Failed to add item to cart",
			Severity:    notify.SeverityError,
		})
		return err
	}

	s.Refresh(ctx)
	s.notifier.Notify(ctx, notify.Notice{
		UserID:      s.userID,
		Title:       "Added to cart",
		Description: "Item has been added to your cart",
		Severity:    notify.SeverityInfo,
	})
	return nil
}

// UpdateQuantity sets a single line's quantity and refreshes the snapshot.
// Zero and negative quantities are rejected; removing a line is an explicit
// Remove, never a side effect of an update.
func (s *Session) UpdateQuantity(ctx context.Context, lineID uuid.UUID, quantity int32) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity must be positive: %w", carterrors.ErrValidation)
	}

	if err := s.store.UpdateQuantity(ctx, s.userID, lineID, quantity); err != nil {
		s.logger.ErrorContext(ctx, "Failed to update cart line quantity", "line_id", lineID, "error", err)
		return err
	}

	s.Refresh(ctx)
	return nil
}

// Remove deletes a single line and refreshes the snapshot.
func (s *Session) Remove(ctx context.Context, lineID uuid.UUID) error {
	if err := s.store.Delete(ctx, s.userID, lineID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to remove cart line", "line_id", lineID, "error", err)
		s.notifier.Notify(ctx, notify.Notice{
			UserID:      s.userID,
			Title:       "Error",
			Description: "Failed to remove item from cart",
			Severity:    notify.SeverityError,
		})
		return err
	}

	s.Refresh(ctx)
	s.notifier.Notify(ctx, notify.Notice{
		UserID:      s.userID,
		Title:       "Removed from cart",
		Description: "Item has been removed from your cart",
		Severity:    notify.SeverityInfo,
	})
	return nil
}

// Clear deletes every line for the user. This is the one mutation that does
// not re-query: the snapshot is emptied in place after the bulk delete.
func (s *Session) Clear(ctx context.Context) error {
	if err := s.store.DeleteByUser(ctx, s.userID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to clear cart", "error", err)
		return err
	}

	s.mu.Lock()
	s.lines = nil
	s.state = StateEmpty
	s.mu.Unlock()
	return nil
}

// Lines returns a copy of the current snapshot.
func (s *Session) Lines() []Line {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lines := make([]Line, len(s.lines))
	copy(lines, s.lines)
	return lines
}

// TotalPrice sums price times quantity over the current snapshot. It is
// computed fresh on each call; there is no cached aggregate.
func (s *Session) TotalPrice() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total float64
	for _, line := range s.lines {
		total += line.Product.Price * float64(line.Quantity)
	}
	return total
}

// TotalItems sums quantities over the current snapshot.
func (s *Session) TotalItems() int32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total int32
	for _, line := range s.lines {
		total += line.Quantity
	}
	return total
}

// State reports the snapshot lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}
