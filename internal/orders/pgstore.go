package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore is the durable Store backed by postgres. The orders row is the
// source of truth; order_items and the (customer_id, created_at) index are
// written in the same transaction so they can never diverge from it.
type PGStore struct{ DB *pgxpool.Pool }

func NewPGStore(db *pgxpool.Pool) *PGStore { return &PGStore{DB: db} }

const schema = `
CREATE TABLE IF NOT EXISTS orders (
	id              TEXT PRIMARY KEY,
	customer_id     TEXT NOT NULL,
	restaurant_id   TEXT NOT NULL,
	subtotal_cents  BIGINT NOT NULL,
	tax_cents       BIGINT NOT NULL,
	total_cents     BIGINT NOT NULL,
	status          TEXT NOT NULL,
	payment_txn_id  TEXT NOT NULL DEFAULT '',
	version         INT NOT NULL DEFAULT 1,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS order_items (
	order_id       TEXT NOT NULL REFERENCES orders(id),
	item_id        TEXT NOT NULL,
	name           TEXT NOT NULL,
	unit_price     BIGINT NOT NULL,
	quantity       INT NOT NULL,
	restaurant_id  TEXT NOT NULL,
	position       INT NOT NULL,
	PRIMARY KEY (order_id, position)
);
CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders (customer_id, created_at DESC, id);
`

func (s *PGStore) EnsureSchema(ctx context.Context) error {
	_, err := s.DB.Exec(ctx, schema)
	return err
}

func (s *PGStore) Create(ctx context.Context, o *Order) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Status == "" {
		o.Status = StatusPlaced
	}
	row := tx.QueryRow(ctx, `
		INSERT INTO orders(id, customer_id, restaurant_id, subtotal_cents, tax_cents, total_cents, status, payment_txn_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING version, created_at, updated_at`,
		o.ID, o.CustomerID, o.RestaurantID, o.Subtotal, o.Tax, o.Total, string(o.Status), o.PaymentTxnID,
	)
	if err := row.Scan(&o.Version, &o.CreatedAt, &o.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateOrder
		}
		return err
	}

	for i, it := range o.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(order_id, item_id, name, unit_price, quantity, restaurant_id, position)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			o.ID, it.ItemID, it.Name, it.UnitPrice, it.Quantity, it.RestaurantID, i,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *PGStore) Get(ctx context.Context, orderID string) (*Order, error) {
	o, err := scanOrder(s.DB.QueryRow(ctx, `
		SELECT id, customer_id, restaurant_id, subtotal_cents, tax_cents, total_cents, status, payment_txn_id, version, created_at, updated_at
		FROM orders WHERE id=$1`, orderID))
	if err != nil {
		return nil, err
	}
	o.Items, err = s.loadItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (s *PGStore) ListByCustomer(ctx context.Context, customerID string) ([]Order, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, customer_id, restaurant_id, subtotal_cents, tax_cents, total_cents, status, payment_txn_id, version, created_at, updated_at
		FROM orders WHERE customer_id=$1
		ORDER BY created_at DESC, id`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Items, err = s.loadItems(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Update locks the order row (FOR UPDATE) so concurrent mutations of the same
// order serialize; a stale writer can never overwrite a newer status.
func (s *PGStore) Update(ctx context.Context, orderID string, mutate func(*Order) error) (*Order, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := scanOrder(tx.QueryRow(ctx, `
		SELECT id, customer_id, restaurant_id, subtotal_cents, tax_cents, total_cents, status, payment_txn_id, version, created_at, updated_at
		FROM orders WHERE id=$1 FOR UPDATE`, orderID))
	if err != nil {
		return nil, err
	}
	if o.Items, err = s.loadItems(ctx, orderID); err != nil {
		return nil, err
	}

	if err := mutate(o); err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `
		UPDATE orders SET status=$2, payment_txn_id=$3, version=version+1, updated_at=now()
		WHERE id=$1
		RETURNING version, updated_at`, orderID, string(o.Status), o.PaymentTxnID)
	if err := row.Scan(&o.Version, &o.UpdatedAt); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *PGStore) loadItems(ctx context.Context, orderID string) ([]LineItem, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT item_id, name, unit_price, quantity, restaurant_id
		FROM order_items WHERE order_id=$1 ORDER BY position`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []LineItem
	for rows.Next() {
		var it LineItem
		if err := rows.Scan(&it.ItemID, &it.Name, &it.UnitPrice, &it.Quantity, &it.RestaurantID); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var status string
	err := row.Scan(&o.ID, &o.CustomerID, &o.RestaurantID, &o.Subtotal, &o.Tax, &o.Total,
		&status, &o.PaymentTxnID, &o.Version, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	o.Status = Status(status)
	return &o, nil
}
