// Package payment abstracts the hosted payment-session provider.
package payment

import "context"

// LineItem is one cart line as the gateway sees it. UnitAmount is in integer
// minor currency units (cents), rounded half-up by the caller.
type LineItem struct {
	Name       string
	ImageURL   string
	UnitAmount int64
	Quantity   int64
}

// Shipping mirrors the shipping form; the gateway receives it for the hosted
// page, the storefront keeps no copy of what happens there.
type Shipping struct {
	FullName string `json:"full_name"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	ZipCode  string `json:"zip_code"`
	Phone    string `json:"phone"`
}

// Gateway creates a hosted payment session for an ordered list of line items
// and returns the URL the customer is redirected to. Payment completion is
// asynchronous and outside the storefront's control.
type Gateway interface {
	CreateSession(ctx context.Context, items []LineItem, shipping Shipping) (string, error)
}
