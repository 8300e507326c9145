// Package messaging defines the event contracts shared by the storefront
// publisher and the notifier consumer.
package messaging

import (
	"context"
)

// Subjects carried on the STOREFRONT JetStream stream.
const (
	OrdersPlacedSubject = "storefront.orders.placed"
	NoticesSubject      = "storefront.notices"
)

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
