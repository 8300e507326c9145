// Package rest provides HTTP handlers for cart and checkout operations.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/stitchpress/storefront/pkg/web"
	"github.com/stitchpress/storefront/storefront_service/internal/cart"
	"github.com/stitchpress/storefront/storefront_service/internal/checkout"
	storeerrors "github.com/stitchpress/storefront/storefront_service/internal/errors"
)

// CartService is the cart surface the transport layer depends on. Implemented
// by cart.Manager.
type CartService interface {
	Refresh(ctx context.Context, userID uuid.UUID)
	Add(ctx context.Context, userID, productID uuid.UUID, size string, quantity int32) error
	UpdateQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int32) error
	Remove(ctx context.Context, userID, lineID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
	Lines(userID uuid.UUID) []cart.Line
	TotalPrice(userID uuid.UUID) float64
	TotalItems(userID uuid.UUID) int32
	State(userID uuid.UUID) cart.State
	SignOut(userID uuid.UUID)
}

// CheckoutService is the checkout surface the transport layer depends on.
// Implemented by checkout.Service.
type CheckoutService interface {
	Submit(ctx context.Context, userID uuid.UUID, dto checkout.SubmitDto) (*checkout.Result, error)
}

// AddItemDto is the body of POST /api/v1/cart/items. An omitted quantity
// means one item. Size and quantity rules live in the cart service so their
// notices stay consistent.
type AddItemDto struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Size      string    `json:"size"`
	Quantity  *int32    `json:"quantity"`
}

// UpdateItemDto is the body of PUT /api/v1/cart/items/{id}.
type UpdateItemDto struct {
	Quantity int32 `json:"quantity"`
}

// CartViewDto is the cart snapshot with its derived totals.
type CartViewDto struct {
	Items      []cart.Line `json:"items"`
	TotalPrice float64     `json:"total_price"`
	TotalItems int32       `json:"total_items"`
	State      cart.State  `json:"state"`
}

type Handler struct {
	carts    CartService
	checkout CheckoutService
	logger   *slog.Logger
}

// NewHandler creates a new Handler with the provided services.
func NewHandler(carts CartService, checkoutSvc CheckoutService, logger *slog.Logger) *Handler {
	return &Handler{
		carts:    carts,
		checkout: checkoutSvc,
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the storefront service.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Delete("/", h.ClearCart)

			r.Route("/items", func(r chi.Router) {
				r.Post("/", h.AddItem)
				r.Put("/{id}", h.UpdateItem)
				r.Delete("/{id}", h.RemoveItem)
			})
		})
		r.Post("/checkout", h.SubmitCheckout)
		r.Post("/auth/signout", h.SignOut)
	})
	r.Get("/healthz", h.HealthCheck)
}

// GetCart refreshes the snapshot from the store and returns it with totals.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	userID, ok := web.GetUserID(w, r, mLogger)
	if !ok {
		return
	}

	h.carts.Refresh(r.Context(), userID)
	view := CartViewDto{
		Items:      h.carts.Lines(userID),
		TotalPrice: h.carts.TotalPrice(userID),
		TotalItems: h.carts.TotalItems(userID),
		State:      h.carts.State(userID),
	}
	web.RespondJSON(w, mLogger, http.StatusOK, view)
}

// AddItem adds a (product, size) selection to the cart. Anonymous requests
// reach the service so the sign-in notice fires; the response is still a 401.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	userID := web.ContextUserID(r.Context())

	var dto AddItemDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Absent quantity defaults to one; an explicit non-positive value is
	// still rejected by the cart service.
	quantity := int32(1)
	if dto.Quantity != nil {
		quantity = *dto.Quantity
	}

	if err := h.carts.Add(r.Context(), userID, dto.ProductID, dto.Size, quantity); err != nil {
		h.respondServiceError(w, r, mLogger, err, "Failed to add item to cart")
		return
	}
	mLogger.InfoContext(r.Context(), "Item added to cart", "product_id", dto.ProductID)
	web.RespondJSON(w, mLogger, http.StatusCreated, h.cartView(userID))
}

// UpdateItem sets the quantity of a single cart line.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	userID, ok := web.GetUserID(w, r, mLogger)
	if !ok {
		return
	}

	var dto UpdateItemDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.carts.UpdateQuantity(r.Context(), userID, id, dto.Quantity); err != nil {
		h.respondServiceError(w, r, mLogger, err, "Failed to update cart item")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, h.cartView(userID))
}

// RemoveItem deletes a single cart line.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	userID, ok := web.GetUserID(w, r, mLogger)
	if !ok {
		return
	}

	if err := h.carts.Remove(r.Context(), userID, id); err != nil {
		h.respondServiceError(w, r, mLogger, err, "Failed to remove cart item")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, h.cartView(userID))
}

// ClearCart deletes every line in the user's cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	userID, ok := web.GetUserID(w, r, mLogger)
	if !ok {
		return
	}

	if err := h.carts.Clear(r.Context(), userID); err != nil {
		h.respondServiceError(w, r, mLogger, err, "Failed to clear cart")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, h.cartView(userID))
}

// SubmitCheckout runs one checkout attempt and returns either a redirect URL
// or the placed order's ID.
func (h *Handler) SubmitCheckout(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	userID := web.ContextUserID(r.Context())

	var dto checkout.SubmitDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.checkout.Submit(r.Context(), userID, dto)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "Checkout failed")
		return
	}
	if result.OrderID != nil {
		mLogger.InfoContext(r.Context(), "Order placed", slog.String("ID", result.OrderID.String()))
		web.RespondJSON(w, mLogger, http.StatusCreated, result)
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, result)
}

// SignOut drops the user's server-side cart session. Stored cart lines are
// untouched; they reappear on the next sign-in.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	userID, ok := web.GetUserID(w, r, mLogger)
	if !ok {
		return
	}

	h.carts.SignOut(userID)
	mLogger.InfoContext(r.Context(), "User signed out", "user_id", userID)
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) cartView(userID uuid.UUID) CartViewDto {
	return CartViewDto{
		Items:      h.carts.Lines(userID),
		TotalPrice: h.carts.TotalPrice(userID),
		TotalItems: h.carts.TotalItems(userID),
		State:      h.carts.State(userID),
	}
}

// respondServiceError maps service errors to HTTP statuses.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, storeerrors.ErrAuthRequired):
		web.RespondError(w, mLogger, http.StatusUnauthorized, "Unauthorized: missing or invalid credentials")
	case errors.Is(err, storeerrors.ErrValidation):
		web.RespondError(w, mLogger, http.StatusBadRequest, err.Error())
	case errors.Is(err, storeerrors.ErrCartLineNotFound):
		web.RespondError(w, mLogger, http.StatusNotFound, "Cart item not found")
	case errors.Is(err, storeerrors.ErrEmptyCart):
		web.RespondError(w, mLogger, http.StatusConflict, "Cart is empty")
	case errors.Is(err, storeerrors.ErrCheckoutInProgress):
		web.RespondError(w, mLogger, http.StatusConflict, "Checkout already in progress")
	default:
		mLogger.ErrorContext(r.Context(), fallback, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fallback)
	}
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := middleware.GetReqID(r.Context())
	return h.logger.With("request_id", reqID)
}
