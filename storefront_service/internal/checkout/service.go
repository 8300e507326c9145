// Package checkout drives order placement: one shared validation pass, then
// either a hosted payment redirect or a direct order insert.
package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stitchpress/storefront/pkg/messaging"
	"github.com/stitchpress/storefront/pkg/messaging/events"
	"github.com/stitchpress/storefront/storefront_service/internal/cart"
	checkouterrors "github.com/stitchpress/storefront/storefront_service/internal/errors"
	"github.com/stitchpress/storefront/storefront_service/internal/notify"
	"github.com/stitchpress/storefront/storefront_service/internal/order"
	"github.com/stitchpress/storefront/storefront_service/internal/payment"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// PaymentMethod selects one of the two mutually exclusive completion paths.
type PaymentMethod string

const (
	// MethodCard pays through the hosted gateway page.
	MethodCard PaymentMethod = "stripe"
	// MethodCashOnDelivery inserts the order directly; payment happens at delivery.
	MethodCashOnDelivery PaymentMethod = "cash_on_delivery"
)

// Cart is the view of the cart session the checkout flow consumes. It reads
// the current snapshot as-is; it never triggers a re-fetch.
type Cart interface {
	Lines(userID uuid.UUID) []cart.Line
	TotalPrice(userID uuid.UUID) float64
	Clear(ctx context.Context, userID uuid.UUID) error
}

// SubmitDto is one checkout attempt.
type SubmitDto struct {
	PaymentMethod   PaymentMethod         `json:"payment_method"`
	ShippingAddress order.ShippingAddress `json:"shipping_address"`
}

// Result reports where the submission ended up: a redirect URL on the gateway
// path, an order ID on the direct path.
type Result struct {
	RedirectURL string     `json:"redirect_url,omitempty"`
	OrderID     *uuid.UUID `json:"order_id,omitempty"`
}

// Service implements the checkout flow.
type Service struct {
	cart          Cart
	orders        order.Store
	gateway       payment.Gateway
	notifier      notify.Notifier
	publisher     messaging.Publisher
	validate      *validator.Validate
	logger        *slog.Logger
	ordersCounter metric.Int64Counter

	// one in-flight submission per user; released in Submit's defer
	inFlight sync.Map
}

// NewService creates the checkout service.
func NewService(cartView Cart, orders order.Store, gateway payment.Gateway, notifier notify.Notifier, publisher messaging.Publisher, logger *slog.Logger) *Service {
	meter := otel.Meter("storefront")
	ordersCounter, err := meter.Int64Counter("orders_placed", metric.WithDescription("Total number of placed orders"))
	if err != nil {
		panic(fmt.Sprintf("failed to create orders_placed counter: %v", err))
	}
	return &Service{
		cart:          cartView,
		orders:        orders,
		gateway:       gateway,
		notifier:      notifier,
		publisher:     publisher,
		validate:      validator.New(),
		logger:        logger.With("component", "checkout"),
		ordersCounter: ordersCounter,
	}
}

// Submit runs one checkout attempt. Local preconditions (identity, in-flight
// guard, empty cart, shipping validation) are checked before any remote call;
// afterwards exactly one of the two payment paths runs.
func (s *Service) Submit(ctx context.Context, userID uuid.UUID, dto SubmitDto) (*Result, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("checkout: %w", checkouterrors.ErrAuthRequired)
	}

	if _, loaded := s.inFlight.LoadOrStore(userID, struct{}{}); loaded {
		return nil, checkouterrors.ErrCheckoutInProgress
	}
	defer s.inFlight.Delete(userID)

	lines := s.cart.Lines(userID)
	if len(lines) == 0 {
		return nil, checkouterrors.ErrEmptyCart
	}

	if err := s.validate.Struct(dto.ShippingAddress); err != nil {
		// One aggregated notice; no per-field mapping.
		s.notifier.Notify(ctx, notify.Notice{
			UserID:      userID,
			Title:       "Missing Information",
			Description: "Please fill in all required shipping information.",
			Severity:    notify.SeverityError,
		})
		return nil, fmt.Errorf("shipping address: %w", checkouterrors.ErrValidation)
	}

	switch dto.PaymentMethod {
	case MethodCard:
		return s.submitCard(ctx, userID, lines, dto.ShippingAddress)
	case MethodCashOnDelivery:
		return s.submitCashOnDelivery(ctx, userID, dto.ShippingAddress)
	default:
		return nil, fmt.Errorf("unknown payment method %q: %w", dto.PaymentMethod, checkouterrors.ErrValidation)
	}
}

// submitCard requests a hosted payment session. The cart is deliberately not
// cleared here: payment completes asynchronously outside this flow, and
// clearing belongs to the confirmation path.
func (s *Service) submitCard(ctx context.Context, userID uuid.UUID, lines []cart.Line, shipping order.ShippingAddress) (*Result, error) {
	items := make([]payment.LineItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, payment.LineItem{
			Name:       fmt.Sprintf("%s (%s)", line.Product.Name, line.Size),
			ImageURL:   line.Product.ImageURL,
			UnitAmount: int64(math.Round(line.Product.Price * 100)),
			Quantity:   int64(line.Quantity),
		})
	}

	url, err := s.gateway.CreateSession(ctx, items, payment.Shipping{
		FullName: shipping.FullName,
		Address:  shipping.Address,
		City:     shipping.City,
		State:    shipping.State,
		ZipCode:  shipping.ZipCode,
		Phone:    shipping.Phone,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to create checkout session", "error", err)
		s.notifier.Notify(ctx, notify.Notice{
			UserID:      userID,
			Title:       "Checkout Error",
			Description: "Failed to create checkout session. Please try again.",
			Severity:    notify.SeverityError,
		})
		return nil, err
	}

	return &Result{RedirectURL: url}, nil
}

// submitCashOnDelivery inserts the order row, then clears the cart and
// notifies. A failed insert leaves the cart untouched and retryable.
func (s *Service) submitCashOnDelivery(ctx context.Context, userID uuid.UUID, shipping order.ShippingAddress) (*Result, error) {
	total := s.cart.TotalPrice(userID)

	placed, err := s.orders.Create(ctx, order.CreateParams{
		UserID:          userID,
		TotalAmount:     total,
		Status:          order.StatusPending,
		PaymentMethod:   string(MethodCashOnDelivery),
		ShippingAddress: shipping,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to place order", "error", err)
		s.notifier.Notify(ctx, notify.Notice{
			UserID:      userID,
			Title:       "Order Error",
			Description: "Failed to place order. Please try again.",
			Severity:    notify.SeverityError,
		})
		return nil, err
	}

	if err := s.cart.Clear(ctx, userID); err != nil {
		// The order is already placed; a stale cart corrects itself on the
		// next refresh.
		s.logger.ErrorContext(ctx, "Failed to clear cart after order placement", "order_id", placed.ID, "error", err)
	}

	s.notifier.Notify(ctx, notify.Notice{
		UserID:      userID,
		Title:       "Order Placed!",
		Description: "Your order has been placed successfully. You'll pay when it's delivered.",
		Severity:    notify.SeverityInfo,
	})

	event := events.OrderPlacedEvent{
		OrderID:       placed.ID,
		UserID:        placed.UserID,
		TotalAmount:   placed.TotalAmount,
		PaymentMethod: placed.PaymentMethod,
		CreatedAt:     placed.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish OrderPlacedEvent", "order_id", placed.ID, "error", err)
	}
	s.ordersCounter.Add(ctx, 1)

	return &Result{OrderID: &placed.ID}, nil
}
