package history

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelkitchens/quotekit/pkg/db"
	"github.com/panelkitchens/quotekit/pkg/quote"
)

func TestCustomerID(t *testing.T) {
	assert.Equal(t, "0501234567", CustomerID(" 050-123-4567 "))
	assert.Equal(t, "0501234567", CustomerID("050 1234567"))
}

func TestMemoryStore_NewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"q1", "q2", "q3"} {
		require.NoError(t, s.Save(ctx, Record{QuoteID: id, CustomerID: "050", CreatedAt: base.Add(time.Duration(i) * time.Hour)}))
	}
	require.NoError(t, s.Save(ctx, Record{QuoteID: "other", CustomerID: "052", CreatedAt: base}))

	got, err := s.ListByCustomer(ctx, "050", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "q3", got[0].QuoteID)
	assert.Equal(t, "q2", got[1].QuoteID)

	all, err := s.ListByCustomer(ctx, "050", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := s.ListByCustomer(ctx, "missing", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, NewMemoryStore().Save(ctx, Record{}))
}

type execCall struct {
	query string
	args  []interface{}
}

// fakeDB records Exec calls made inside transactions.
type fakeDB struct {
	execs      []execCall
	failAt     int
	committed  bool
	rolledBack bool
}

func (f *fakeDB) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	f.execs = append(f.execs, execCall{query, args})
	if f.failAt > 0 && len(f.execs) == f.failAt {
		return nil, errors.New("constraint violation")
	}
	return driverResult(1), nil
}

func (f *fakeDB) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, errors.New("not supported")
}

func (f *fakeDB) BeginTx(ctx context.Context, opts *sql.TxOptions) (db.Tx, error) {
	return &fakeTx{db: f}, nil
}

func (f *fakeDB) Close() error                   { return nil }
func (f *fakeDB) Ping(ctx context.Context) error { return nil }

type fakeTx struct{ db *fakeDB }

func (t *fakeTx) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return t.db.Exec(ctx, query, args...)
}
func (t *fakeTx) Commit() error   { t.db.committed = true; return nil }
func (t *fakeTx) Rollback() error { t.db.rolledBack = true; return nil }

type driverResult int64

func (r driverResult) LastInsertId() (int64, error) { return 0, nil }
func (r driverResult) RowsAffected() (int64, error) { return int64(r), nil }

func sampleRecord() Record {
	price := decimal.RequireFromString("250")
	return Record{
		QuoteID:    "q-1",
		CustomerID: "0501234567",
		CreatedAt:  time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		PageCount:  2,
		GrandTotal: decimal.RequireFromString("585"),
		Items: []quote.LineItem{
			{Name: "ארון", Quantity: 2, UnitPrice: &price},
			{Name: "משטח", Quantity: 1},
		},
	}
}

func TestPostgresStore_SaveInTransaction(t *testing.T) {
	f := &fakeDB{}
	require.NoError(t, NewPostgresStore(f).Save(context.Background(), sampleRecord()))

	require.Len(t, f.execs, 3)
	assert.Equal(t, insertQuote, f.execs[0].query)
	assert.Equal(t, "q-1", f.execs[0].args[0])
	assert.Equal(t, insertItem, f.execs[1].query)
	assert.Equal(t, 1, f.execs[1].args[1])
	assert.Nil(t, f.execs[2].args[4], "measured item has no price")
	assert.True(t, f.committed)
	assert.False(t, f.rolledBack)
}

func TestPostgresStore_RollsBackOnItemFailure(t *testing.T) {
	f := &fakeDB{failAt: 2}
	err := NewPostgresStore(f).Save(context.Background(), sampleRecord())
	assert.ErrorContains(t, err, "item 1")
	assert.True(t, f.rolledBack)
	assert.False(t, f.committed)
}

func TestPostgresStore_EnsureSchema(t *testing.T) {
	f := &fakeDB{}
	require.NoError(t, NewPostgresStore(f).EnsureSchema(context.Background()))
	require.Len(t, f.execs, 1)
	assert.Contains(t, f.execs[0].query, "CREATE TABLE IF NOT EXISTS quotes")
}
