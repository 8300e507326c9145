package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	carterrors "github.com/stitchpress/storefront/storefront_service/internal/errors"
)

const listByUserSQL = `
SELECT ci.id, ci.product_id, ci.size, ci.quantity, p.name, p.price, p.image_url
FROM cart_items ci
JOIN products p ON p.id = ci.product_id
WHERE ci.user_id = $1
ORDER BY ci.created_at, ci.id`

const upsertOverwriteSQL = `
INSERT INTO cart_items (user_id, product_id, size, quantity)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, product_id, size)
DO UPDATE SET quantity = EXCLUDED.quantity`

const upsertAccumulateSQL = `
INSERT INTO cart_items (user_id, product_id, size, quantity)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, product_id, size)
DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`

const updateQuantitySQL = `
UPDATE cart_items SET quantity = $3 WHERE id = $1 AND user_id = $2`

const deleteSQL = `
DELETE FROM cart_items WHERE id = $1 AND user_id = $2`

const deleteByUserSQL = `
DELETE FROM cart_items WHERE user_id = $1`

// PgStore is the PostgreSQL-backed cart line store. All statements filter by
// user_id so one user can never touch another user's lines.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new cart store using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

func (p *PgStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]Line, error) {
	rows, err := p.db.Query(ctx, listByUserSQL, userID)
	if err != nil {
		return nil, carterrors.ErrListCartLines
	}
	defer rows.Close()

	lines := make([]Line, 0)
	for rows.Next() {
		var line Line
		if err := rows.Scan(
			&line.ID,
			&line.ProductID,
			&line.Size,
			&line.Quantity,
			&line.Product.Name,
			&line.Product.Price,
			&line.Product.ImageURL,
		); err != nil {
			return nil, carterrors.ErrListCartLines
		}
		lines = append(lines, line)
	}
	if rows.Err() != nil && !errors.Is(rows.Err(), pgx.ErrNoRows) {
		return nil, carterrors.ErrListCartLines
	}

	return lines, nil
}

func (p *PgStore) Upsert(ctx context.Context, params UpsertParams, policy ConflictPolicy) error {
	query := upsertOverwriteSQL
	if policy == Accumulate {
		query = upsertAccumulateSQL
	}
	if _, err := p.db.Exec(ctx, query, params.UserID, params.ProductID, params.Size, params.Quantity); err != nil {
		return carterrors.ErrUpsertCartLine
	}
	return nil
}

func (p *PgStore) UpdateQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int32) error {
	tag, err := p.db.Exec(ctx, updateQuantitySQL, lineID, userID, quantity)
	if err != nil {
		return carterrors.ErrUpdateCartLine
	}
	if tag.RowsAffected() == 0 {
		return carterrors.ErrCartLineNotFound
	}
	return nil
}

func (p *PgStore) Delete(ctx context.Context, userID, lineID uuid.UUID) error {
	tag, err := p.db.Exec(ctx, deleteSQL, lineID, userID)
	if err != nil {
		return carterrors.ErrDeleteCartLine
	}
	if tag.RowsAffected() == 0 {
		return carterrors.ErrCartLineNotFound
	}
	return nil
}

func (p *PgStore) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	if _, err := p.db.Exec(ctx, deleteByUserSQL, userID); err != nil {
		return carterrors.ErrClearCart
	}
	return nil
}
