package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/stitchpress/storefront/pkg/messaging"
)

// OrderPlacedEvent is published after a direct (cash on delivery) order row
// has been inserted. Gateway payments never produce this event; their
// completion is confirmed asynchronously by the payment provider.
type OrderPlacedEvent struct {
	OrderID       uuid.UUID `json:"order_id"`
	UserID        uuid.UUID `json:"user_id"`
	TotalAmount   float64   `json:"total_amount"`
	PaymentMethod string    `json:"payment_method"`
	CreatedAt     time.Time `json:"created_at"`
}

func (o OrderPlacedEvent) Subject() string {
	return messaging.OrdersPlacedSubject
}

func (o OrderPlacedEvent) Payload() ([]byte, error) {
	return json.Marshal(o)
}
