package history

import (
	"context"
	"fmt"

	"github.com/panelkitchens/quotekit/pkg/db"
)

// Schema creates the tables PostgresStore uses.
const Schema = `
CREATE TABLE IF NOT EXISTS quotes (
	quote_id      TEXT PRIMARY KEY,
	customer_id   TEXT NOT NULL,
	customer_name TEXT NOT NULL,
	phone         TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL,
	file_name     TEXT NOT NULL,
	blob_url      TEXT NOT NULL DEFAULT '',
	page_count    INTEGER NOT NULL,
	subtotal      NUMERIC(14,2) NOT NULL,
	grand_total   NUMERIC(14,2) NOT NULL
);
CREATE INDEX IF NOT EXISTS quotes_customer_idx ON quotes (customer_id, created_at DESC);
CREATE TABLE IF NOT EXISTS quote_items (
	quote_id   TEXT NOT NULL REFERENCES quotes(quote_id) ON DELETE CASCADE,
	position   INTEGER NOT NULL,
	name       TEXT NOT NULL,
	quantity   INTEGER NOT NULL,
	unit_price NUMERIC(14,2),
	PRIMARY KEY (quote_id, position)
);`

const (
	insertQuote = `INSERT INTO quotes
	(quote_id, customer_id, customer_name, phone, created_at, file_name, blob_url, page_count, subtotal, grand_total)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	insertItem = `INSERT INTO quote_items (quote_id, position, name, quantity, unit_price)
	VALUES ($1, $2, $3, $4, $5)`
	selectByCustomer = `SELECT quote_id, customer_id, customer_name, phone, created_at, file_name, blob_url, page_count, subtotal, grand_total
	FROM quotes WHERE customer_id = $1 ORDER BY created_at DESC LIMIT $2`
)

// PostgresStore is a Store backed by PostgreSQL.
type PostgresStore struct {
	db db.DB
}

// NewPostgresStore returns a store on database.
func NewPostgresStore(database db.DB) *PostgresStore {
	return &PostgresStore{db: database}
}

// EnsureSchema creates the tables if they do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create quote history schema: %w", err)
	}
	return nil
}

// Save writes the quote and its items in one transaction.
func (s *PostgresStore) Save(ctx context.Context, r Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save quote %s: %w", r.QuoteID, err)
	}

	if _, err := tx.Exec(ctx, insertQuote,
		r.QuoteID, r.CustomerID, r.CustomerName, r.Phone, r.CreatedAt,
		r.FileName, r.BlobURL, r.PageCount, r.Subtotal, r.GrandTotal,
	); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("save quote %s: %w", r.QuoteID, err)
	}

	for i, li := range r.Items {
		var price interface{}
		if li.UnitPrice != nil {
			price = *li.UnitPrice
		}
		if _, err := tx.Exec(ctx, insertItem, r.QuoteID, i+1, li.Name, li.Quantity, price); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("save quote %s item %d: %w", r.QuoteID, i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save quote %s: %w", r.QuoteID, err)
	}
	return nil
}

// ListByCustomer returns quote headers without their items.
func (s *PostgresStore) ListByCustomer(ctx context.Context, customerID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, selectByCustomer, customerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list quotes of %s: %w", customerID, err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.QuoteID, &r.CustomerID, &r.CustomerName, &r.Phone, &r.CreatedAt,
			&r.FileName, &r.BlobURL, &r.PageCount, &r.Subtotal, &r.GrandTotal); err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list quotes of %s: %w", customerID, err)
	}
	return out, nil
}
