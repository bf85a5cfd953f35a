package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository is the storefront's local order ledger. It backs the
// profile page's order history; the remote profile collection stays
// the document-store copy of the same record.
type Repository interface {
	Create(ctx context.Context, rec *Record) error
	GetByID(ctx context.Context, orderID string) (*Record, error)
	ListByIdentity(ctx context.Context, identity string) ([]Record, error)
}

type repo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repo{db: db}
}

func (r *repo) Create(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (id, identity, remote_order_id, total_egp, total_usd, exchange_rate, status, raw_capture, created_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.Identity, rec.RemoteOrderID, rec.TotalEGP, rec.TotalUSD,
		rec.ExchangeRate, rec.Status, []byte(rec.RawCapture), rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, it := range rec.Items {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO order_items (id, order_id, product_id, name, quantity, price)
             VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.NewString(), rec.ID, it.ProductID, it.Name, it.Quantity, it.Price,
		)
		if err != nil {
			return fmt.Errorf("insert order_item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *repo) GetByID(ctx context.Context, orderID string) (*Record, error) {
	var rec Record
	var raw []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT id, identity, remote_order_id, total_egp, total_usd, exchange_rate, status, raw_capture, created_at
         FROM orders WHERE id = $1`,
		orderID,
	).Scan(&rec.ID, &rec.Identity, &rec.RemoteOrderID, &rec.TotalEGP, &rec.TotalUSD,
		&rec.ExchangeRate, &rec.Status, &raw, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select order: %w", err)
	}
	rec.RawCapture = raw

	rows, err := r.db.QueryContext(ctx,
		`SELECT product_id, name, quantity, price FROM order_items WHERE order_id = $1`,
		rec.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("select order_items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Quantity, &it.Price); err != nil {
			return nil, fmt.Errorf("scan order_item: %w", err)
		}
		rec.Items = append(rec.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return &rec, nil
}

func (r *repo) ListByIdentity(ctx context.Context, identity string) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, identity, remote_order_id, total_egp, total_usd, exchange_rate, status, created_at
         FROM orders WHERE identity = $1 ORDER BY created_at DESC`,
		identity,
	)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Identity, &rec.RemoteOrderID, &rec.TotalEGP,
			&rec.TotalUSD, &rec.ExchangeRate, &rec.Status, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	for i := range records {
		itemRows, err := r.db.QueryContext(ctx,
			`SELECT product_id, name, quantity, price FROM order_items WHERE order_id = $1`,
			records[i].ID,
		)
		if err != nil {
			return nil, fmt.Errorf("select items: %w", err)
		}
		for itemRows.Next() {
			var it Item
			if err := itemRows.Scan(&it.ProductID, &it.Name, &it.Quantity, &it.Price); err != nil {
				itemRows.Close()
				return nil, fmt.Errorf("scan item: %w", err)
			}
			records[i].Items = append(records[i].Items, it)
		}
		itemRows.Close()
	}

	return records, nil
}
