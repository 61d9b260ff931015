// Package history records generated quotes per customer.
package history

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/panelkitchens/quotekit/pkg/quote"
)

// Record is one generated quote.
type Record struct {
	QuoteID      string           `json:"quote_id"`
	CustomerID   string           `json:"customer_id"`
	CustomerName string           `json:"customer_name"`
	Phone        string           `json:"phone"`
	CreatedAt    time.Time        `json:"created_at"`
	FileName     string           `json:"file_name"`
	BlobURL      string           `json:"blob_url,omitempty"`
	PageCount    int              `json:"page_count"`
	Subtotal     decimal.Decimal  `json:"subtotal"`
	GrandTotal   decimal.Decimal  `json:"grand_total"`
	Items        []quote.LineItem `json:"items,omitempty"`
}

// Store persists quote records.
type Store interface {
	Save(ctx context.Context, r Record) error
	// ListByCustomer returns the newest records first, at most limit.
	ListByCustomer(ctx context.Context, customerID string, limit int) ([]Record, error)
}

// CustomerID derives the customer key from a phone number by dropping
// separators, so "050-123-4567" and "0501234567" are the same customer.
func CustomerID(phone string) string {
	return strings.NewReplacer("-", "", " ", "").Replace(strings.TrimSpace(phone))
}

// MemoryStore is a Store kept in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]Record
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string][]Record{}}
}

func (m *MemoryStore) Save(ctx context.Context, r Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[r.CustomerID] = append(m.records[r.CustomerID], r)
	return nil
}

func (m *MemoryStore) ListByCustomer(ctx context.Context, customerID string, limit int) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	out := append([]Record(nil), m.records[customerID]...)
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
