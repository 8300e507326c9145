// Package cart maintains the per-user cart: a remote store of cart lines and
// an in-memory, per-session snapshot refreshed after every mutation.
package cart

import (
	"context"

	"github.com/google/uuid"
)

// ProductSnapshot is a read-through denormalization of the product at query
// time, not an owned copy. It is never written back.
type ProductSnapshot struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	ImageURL string  `json:"image_url"`
}

// Line is one (product, size) selection in a user's cart. At most one line
// exists per (user, product, size); the store enforces this on upsert.
type Line struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Size      string          `json:"size"`
	Quantity  int32           `json:"quantity"`
	Product   ProductSnapshot `json:"product"`
}

// ConflictPolicy selects what a repeated add of the same (product, size) does
// to the stored quantity.
type ConflictPolicy int

const (
	// Overwrite replaces the stored quantity with the incoming one.
	Overwrite ConflictPolicy = iota
	// Accumulate adds the incoming quantity to the stored one.
	Accumulate
)

// UpsertParams identifies the conflict key (user, product, size) and the
// incoming quantity for an add operation.
type UpsertParams struct {
	UserID    uuid.UUID
	ProductID uuid.UUID
	Size      string
	Quantity  int32
}

// Store is an interface for cart line storage operations.
// It abstracts the underlying data store, allowing for different implementations (e.g., in-memory, database).
type Store interface {
	// ListByUser returns all cart lines for a user, joined with the product
	// snapshot fields. Returns an empty slice if the cart is empty.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Line, error)

	// Upsert inserts a cart line or, on a (user, product, size) conflict,
	// applies the given policy to the stored quantity.
	Upsert(ctx context.Context, params UpsertParams, policy ConflictPolicy) error

	// UpdateQuantity sets the quantity of a single line owned by the user.
	// Returns ErrCartLineNotFound if no such line exists.
	UpdateQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int32) error

	// Delete removes a single line owned by the user.
	// Returns ErrCartLineNotFound if no such line exists.
	Delete(ctx context.Context, userID, lineID uuid.UUID) error

	// DeleteByUser removes every line owned by the user.
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}
