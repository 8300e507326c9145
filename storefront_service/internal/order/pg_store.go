package order

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
	ordererrors "github.com/stitchpress/storefront/storefront_service/internal/errors"
)

const createOrderSQL = `
INSERT INTO orders (user_id, total_amount, status, payment_method, shipping_address)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at`

// PgStore is the PostgreSQL-backed order store.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new order store using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

func (p *PgStore) Create(ctx context.Context, params CreateParams) (*Order, error) {
	address, err := json.Marshal(params.ShippingAddress)
	if err != nil {
		return nil, ordererrors.ErrCreateOrder
	}

	order := Order{
		UserID:          params.UserID,
		TotalAmount:     params.TotalAmount,
		Status:          params.Status,
		PaymentMethod:   params.PaymentMethod,
		ShippingAddress: params.ShippingAddress,
	}
	row := p.db.QueryRow(ctx, createOrderSQL,
		params.UserID, params.TotalAmount, params.Status, params.PaymentMethod, address)
	if err := row.Scan(&order.ID, &order.CreatedAt); err != nil {
		return nil, ordererrors.ErrCreateOrder
	}

	return &order, nil
}
