// Package order provides creation of order records. Orders are write-only for
// the storefront: once inserted their lifecycle belongs to fulfillment.
package order

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StatusPending is the only status the storefront ever writes.
const StatusPending = "pending"

// ShippingAddress is stored verbatim on the order row. Only presence of the
// required fields is validated, never format.
type ShippingAddress struct {
	FullName string `json:"full_name" validate:"required"`
	Address  string `json:"address" validate:"required"`
	City     string `json:"city" validate:"required"`
	State    string `json:"state"`
	ZipCode  string `json:"zip_code"`
	Phone    string `json:"phone"`
}

// Order represents one placed order.
type Order struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user_id"`
	TotalAmount     float64         `json:"total_amount"`
	Status          string          `json:"status"`
	PaymentMethod   string          `json:"payment_method"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	CreatedAt       time.Time       `json:"created_at"`
}

// CreateParams carries the fields of a new order row.
type CreateParams struct {
	UserID          uuid.UUID
	TotalAmount     float64
	Status          string
	PaymentMethod   string
	ShippingAddress ShippingAddress
}

// Store is an interface for order storage operations.
type Store interface {
	// Create inserts a new order and returns it with the server-assigned
	// identity and timestamp.
	Create(ctx context.Context, params CreateParams) (*Order, error)
}
