package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/congo-pay/wallet_orders/internal/money"
)

// Repository persists orders.
type Repository interface {
	Insert(ctx context.Context, order Order) error
	MarkFailed(ctx context.Context, id string) (Order, error)
	MarkCompleted(ctx context.Context, id, fulfillmentID string) (Order, error)
	Get(ctx context.Context, id string) (Order, error)
	ListByClient(ctx context.Context, clientID string) ([]Order, error)
}

// PostgresRepository stores orders in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const orderColumns = `id, client_id, amount::text, status, COALESCE(fulfillment_id, ''), created_at, updated_at`

// Insert records a new order.
func (r *PostgresRepository) Insert(ctx context.Context, o Order) error {
	_, err := r.db.Exec(ctx, `INSERT INTO orders (id, client_id, amount, status, created_at, updated_at)
        VALUES ($1, $2, $3::numeric, $4, $5, $5)`, o.ID, o.ClientID, money.Format(o.Amount), string(o.Status), o.CreatedAt.UTC())
	return err
}

// MarkFailed moves a pending order to FAILED.
func (r *PostgresRepository) MarkFailed(ctx context.Context, id string) (Order, error) {
	row := r.db.QueryRow(ctx, `UPDATE orders SET status = 'FAILED', updated_at = now()
        WHERE id = $1 AND status = 'PENDING' RETURNING `+orderColumns, id)
	return r.transitioned(ctx, id, row)
}

// MarkCompleted stores the fulfillment id and moves a pending order to COMPLETED.
func (r *PostgresRepository) MarkCompleted(ctx context.Context, id, fulfillmentID string) (Order, error) {
	row := r.db.QueryRow(ctx, `UPDATE orders SET status = 'COMPLETED', fulfillment_id = $2, updated_at = now()
        WHERE id = $1 AND status = 'PENDING' RETURNING `+orderColumns, id, fulfillmentID)
	return r.transitioned(ctx, id, row)
}

func (r *PostgresRepository) transitioned(ctx context.Context, id string, row pgx.Row) (Order, error) {
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := r.Get(ctx, id); getErr != nil {
			return Order{}, getErr
		}
		return Order{}, ErrNotPending
	}
	return o, err
}

// Get fetches an order by id.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	return o, err
}

// ListByClient returns the client's orders, newest first.
func (r *PostgresRepository) ListByClient(ctx context.Context, clientID string) ([]Order, error) {
	rows, err := r.db.Query(ctx, `SELECT `+orderColumns+` FROM orders
        WHERE client_id = $1 ORDER BY created_at DESC, id DESC`, clientID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Order, error) {
		return scanOrder(row)
	})
}

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o                    Order
		amount, status       string
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&o.ID, &o.ClientID, &amount, &status, &o.FulfillmentID, &createdAt, &updatedAt); err != nil {
		return Order{}, err
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Order{}, fmt.Errorf("decode amount: %w", err)
	}
	o.Amount = d
	o.Status = Status(status)
	o.CreatedAt = createdAt.UTC()
	o.UpdatedAt = updatedAt.UTC()
	return o, nil
}
