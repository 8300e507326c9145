package payment

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
	paymenterrors "github.com/stitchpress/storefront/storefront_service/internal/errors"
	"github.com/stitchpress/storefront/pkg/config"
)

// StripeGateway implements Gateway on Stripe Checkout Sessions.
type StripeGateway struct {
	currency   string
	successURL string
	cancelURL  string
	logger     *slog.Logger
}

// NewStripeGateway configures the Stripe client. The API key is process-wide,
// matching how the stripe-go bindings are designed.
func NewStripeGateway(cfg config.StripeConfig, logger *slog.Logger) *StripeGateway {
	stripe.Key = cfg.Key
	return &StripeGateway{
		currency:   cfg.Currency,
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
		logger:     logger.With("component", "stripe"),
	}
}

func (g *StripeGateway) CreateSession(ctx context.Context, items []LineItem, shipping Shipping) (string, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(items))
	for _, item := range items {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(g.currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:   stripe.String(item.Name),
					Images: stripe.StringSlice([]string{item.ImageURL}),
				},
				UnitAmount: stripe.Int64(item.UnitAmount),
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	// The hosted page does not collect the address again; it travels as
	// session metadata for the fulfillment side.
	address, err := json.Marshal(shipping)
	if err != nil {
		return "", paymenterrors.ErrCreateSession
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  lineItems,
		SuccessURL: stripe.String(g.successURL),
		CancelURL:  stripe.String(g.cancelURL),
		Metadata: map[string]string{
			"shipping_address": string(address),
		},
	}
	params.Context = ctx

	sess, err := session.New(params)
	if err != nil {
		g.logger.ErrorContext(ctx, "Failed to create checkout session", "error", err)
		return "", paymenterrors.ErrCreateSession
	}

	return sess.URL, nil
}
