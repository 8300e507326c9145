// Package errors provides custom error types for cart and checkout operations.
package errors

import "errors"

// Local preconditions, detected before any remote call.
var ErrAuthRequired = errors.New("sign in required")
var ErrValidation = errors.New("validation failed")
var ErrEmptyCart = errors.New("cart is empty")
var ErrCheckoutInProgress = errors.New("checkout already in progress")

// Cart store failures.
var ErrCartLineNotFound = errors.New("cart line not found")
var ErrListCartLines = errors.New("failed to list cart lines")
var ErrUpsertCartLine = errors.New("failed to upsert cart line")
var ErrUpdateCartLine = errors.New("failed to update cart line")
var ErrDeleteCartLine = errors.New("failed to delete cart line")
var ErrClearCart = errors.New("failed to clear cart")

// Order store and payment gateway failures.
var ErrCreateOrder = errors.New("failed to create order")
var ErrCreateSession = errors.New("failed to create payment session")
