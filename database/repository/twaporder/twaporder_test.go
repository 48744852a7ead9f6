package twaporder

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/currency"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/database"
	dbsqlite3 "github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/database/drivers/sqlite3"
	exchange "github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges/order"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges/strategy/twap"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var migrationDir = filepath.Join("..", "..", "migrations")

func newTestStore(t *testing.T) *Store {
	t.Helper()
	inst, err := dbsqlite3.Connect(t.TempDir(), &database.Config{
		Enabled: true,
		Driver:  database.DBSQLite3,
		ConnectionDetails: database.ConnectionDetails{
			Database: "twap-test.db",
		},
	})
	require.NoError(t, err, "Connect must not error")
	t.Cleanup(func() { assert.NoError(t, inst.CloseConnection()) })
	require.NoError(t, inst.MigrateUp(migrationDir), "MigrateUp must not error")
	s, err := New(inst)
	require.NoError(t, err)
	return s
}

func testOrder(t *testing.T, created time.Time) *twap.Order {
	t.Helper()
	o, err := twap.NewOrder(&twap.Params{
		Pair:       currency.NewPair(currency.BTC, currency.USD),
		Side:       order.Buy,
		TotalSize:  decimal.RequireFromString("0.1"),
		NumSlices:  4,
		Duration:   time.Hour,
		PriceType:  twap.PriceBid,
		LimitPrice: decimal.NewNullDecimal(decimal.NewFromInt(50000)),
	}, created)
	require.NoError(t, err)
	return o
}

func TestNew(t *testing.T) {
	t.Parallel()
	_, err := New(nil)
	assert.ErrorIs(t, err, errInstanceIsNil)
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	o := testOrder(t, created)

	id, err := s.Create(ctx, o)
	require.NoError(t, err)
	assert.Equal(t, o.ID, id)

	_, err = s.Create(ctx, o)
	assert.Error(t, err, "duplicate Create should error")

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, twap.StatusPending, got.Status)
	assert.Equal(t, "BTC-USD", got.Pair.ProductID())
	assert.True(t, got.TotalSize.Equal(o.TotalSize))
	assert.True(t, got.LimitPrice.Valid)
	assert.True(t, got.LimitPrice.Decimal.Equal(decimal.NewFromInt(50000)))
	assert.Equal(t, time.Hour, got.Duration)
	assert.True(t, got.CreatedAt.Equal(created))
	assert.True(t, got.FinishedAt.IsZero())
	assert.Empty(t, got.Orders)
	assert.Empty(t, got.FailedSlices)

	placedAt := created.Add(time.Minute)
	o.Status = twap.StatusCompleted
	o.Orders = []twap.PlacedSlice{
		{SliceIndex: 1, OrderID: "ex-1", Size: decimal.RequireFromString("0.025"), Price: decimal.NewFromInt(49990), Time: placedAt},
		{SliceIndex: 2, OrderID: "ex-2", Size: decimal.RequireFromString("0.025"), Price: decimal.NewFromInt(49995), Time: placedAt},
	}
	o.FailedSlices = []twap.FailedSlice{
		{SliceIndex: 3, Reason: twap.ReasonInsufficientBalance, Size: decimal.RequireFromString("0.025"), Time: placedAt},
		{SliceIndex: 4, Reason: twap.ReasonSubmissionRejected, Detail: "post only", Size: decimal.RequireFromString("0.025"), Time: placedAt},
	}
	o.UpdatedAt = placedAt
	o.FinishedAt = placedAt
	require.NoError(t, s.Save(ctx, o))
	require.NoError(t, s.Save(ctx, o), "Save must be idempotent")

	got, err = s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, twap.StatusCompleted, got.Status)
	require.Len(t, got.Orders, 2)
	require.Len(t, got.FailedSlices, 2)
	assert.Equal(t, 4, got.Attempted())
	assert.Equal(t, "ex-2", got.Orders[1].OrderID)
	assert.True(t, got.Orders[1].Price.Equal(decimal.NewFromInt(49995)))
	assert.Empty(t, got.FailedSlices[0].Detail)
	assert.Equal(t, "post only", got.FailedSlices[1].Detail)
	assert.Equal(t, twap.ReasonSubmissionRejected, got.FailedSlices[1].Reason)
	assert.True(t, got.FinishedAt.Equal(placedAt))
}

func TestStoreGetUnknown(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, twap.ErrOrderNotFound)
	assert.ErrorIs(t, s.Delete(context.Background(), "missing"), twap.ErrOrderNotFound)
	_, err = s.GetFills(context.Background(), "missing")
	assert.ErrorIs(t, err, twap.ErrOrderNotFound)
}

func TestStoreListAndDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	older := testOrder(t, base)
	newer := testOrder(t, base.Add(500*time.Millisecond))
	_, err := s.Create(ctx, older)
	require.NoError(t, err)
	_, err = s.Create(ctx, newer)
	require.NoError(t, err)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID, "List should return newest first")

	require.NoError(t, s.Delete(ctx, newer.ID))
	list, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, older.ID, list[0].ID)
}

func TestStoreFills(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	o := testOrder(t, time.Now())
	_, err := s.Create(ctx, o)
	require.NoError(t, err)

	tt := time.Date(2024, 3, 1, 12, 5, 0, 0, time.UTC)
	fills := []exchange.Fill{
		{OrderID: "ex-1", TradeID: "t-2", ProductID: "BTC-USD", Size: decimal.RequireFromString("0.01"), Price: decimal.NewFromInt(50000), Fee: decimal.RequireFromString("3"), Liquidity: exchange.Taker, TradeTime: tt.Add(time.Second)},
		{OrderID: "ex-1", TradeID: "t-1", ProductID: "BTC-USD", Size: decimal.RequireFromString("0.015"), Price: decimal.NewFromInt(49990), Fee: decimal.RequireFromString("2.99"), TradeTime: tt},
	}
	require.NoError(t, s.SaveFills(ctx, o.ID, fills))
	require.NoError(t, s.SaveFills(ctx, o.ID, fills), "SaveFills must replace")

	got, err := s.GetFills(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "t-1", got[0].TradeID)
	assert.Empty(t, got[0].Liquidity)
	assert.Equal(t, exchange.Taker, got[1].Liquidity)
	assert.True(t, got[1].Fee.Equal(decimal.RequireFromString("3")))

	assert.ErrorIs(t, s.SaveFills(ctx, "missing", fills), twap.ErrOrderNotFound)

	require.NoError(t, s.Delete(ctx, o.ID))
	_, err = s.GetFills(ctx, o.ID)
	assert.ErrorIs(t, err, twap.ErrOrderNotFound)
}
