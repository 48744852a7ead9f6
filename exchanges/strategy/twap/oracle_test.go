package twap

import (
	"context"
	"testing"

	exchange "github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges/order"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePrice(t *testing.T) {
	t.Parallel()
	exch := &fakeExchange{top: &exchange.BookTop{Bid: d("100.004"), Ask: d("101.013")}}
	o := NewPriceOracle(exch, nd("99"), d("0.01"))
	ctx := context.Background()

	p, err := o.ResolvePrice(ctx, PriceLimit, btcusd)
	require.NoError(t, err)
	assert.True(t, p.Equal(d("99")))
	assert.Zero(t, exch.bookCalls, "limit price needs no book")

	p, err = o.ResolvePrice(ctx, PriceBid, btcusd)
	require.NoError(t, err)
	assert.Equal(t, "100", p.String())

	p, err = o.ResolvePrice(ctx, PriceAsk, btcusd)
	require.NoError(t, err)
	assert.Equal(t, "101.01", p.String())

	p, err = o.ResolvePrice(ctx, PriceMid, btcusd)
	require.NoError(t, err)
	assert.Equal(t, "100.51", p.String())
	assert.Equal(t, 3, exch.bookCalls, "one book fetch per resolve")

	noLimit := NewPriceOracle(exch, decimal.NullDecimal{}, decimal.Zero)
	_, err = noLimit.ResolvePrice(ctx, PriceLimit, btcusd)
	assert.ErrorIs(t, err, ErrPriceUnavailable)
}

func TestResolvePriceUnavailable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, err := NewPriceOracle(&fakeExchange{bookErr: errTest}, decimal.NullDecimal{}, decimal.Zero).ResolvePrice(ctx, PriceBid, btcusd)
	assert.ErrorIs(t, err, ErrPriceUnavailable)
	assert.ErrorIs(t, err, errTest)

	_, err = NewPriceOracle(&fakeExchange{}, decimal.NullDecimal{}, decimal.Zero).ResolvePrice(ctx, PriceBid, btcusd)
	assert.ErrorIs(t, err, ErrPriceUnavailable)

	oneSided := &fakeExchange{top: &exchange.BookTop{Bid: d("100")}}
	_, err = NewPriceOracle(oneSided, decimal.NullDecimal{}, decimal.Zero).ResolvePrice(ctx, PriceMid, btcusd)
	assert.ErrorIs(t, err, ErrPriceUnavailable)
	_, err = NewPriceOracle(oneSided, decimal.NullDecimal{}, decimal.Zero).ResolvePrice(ctx, PriceAsk, btcusd)
	assert.ErrorIs(t, err, ErrPriceUnavailable)

	_, err = NewPriceOracle(nil, decimal.NullDecimal{}, decimal.Zero).ResolvePrice(ctx, PriceAsk, btcusd)
	assert.ErrorIs(t, err, ErrPriceUnavailable)
}

func TestIsFavourable(t *testing.T) {
	t.Parallel()
	o := &Order{Params: Params{Side: order.Buy, PriceType: PriceAsk, LimitPrice: nd("50000")}}
	assert.True(t, isFavourable(o, d("49999")))
	assert.True(t, isFavourable(o, d("50000")))
	assert.False(t, isFavourable(o, d("50001")))

	o.Side = order.Sell
	assert.False(t, isFavourable(o, d("49999")))
	assert.True(t, isFavourable(o, d("50001")))

	o.PriceType = PriceLimit
	assert.True(t, isFavourable(o, d("1")))

	o.PriceType = PriceBid
	o.LimitPrice = decimal.NullDecimal{}
	assert.True(t, isFavourable(o, d("1")))
}

func TestBalanceGate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	acc := &fakeAccounts{balances: map[string]decimal.Decimal{"USD": d("5000"), "BTC": d("0.5")}}
	g := NewBalanceGate(acc)

	bal, err := g.AvailableBalance(ctx, "ETH")
	require.NoError(t, err)
	assert.True(t, bal.IsZero(), "no account is zero balance")

	assert.NoError(t, g.Check(ctx, order.Buy, btcusd, d("0.1"), d("50000")))
	assert.ErrorIs(t, g.Check(ctx, order.Buy, btcusd, d("0.1"), d("50000.01")), ErrInsufficientBalance)
	assert.NoError(t, g.Check(ctx, order.Sell, btcusd, d("0.5"), d("50000")))
	assert.ErrorIs(t, g.Check(ctx, order.Sell, btcusd, d("0.6"), d("1")), ErrInsufficientBalance)
	assert.Equal(t, 5, acc.calls, "every check refreshes accounts")

	acc.err = errTest
	err = g.Check(ctx, order.Sell, btcusd, d("0.1"), d("1"))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.ErrorIs(t, err, errTest)

	var nilGate *BalanceGate
	_, err = nilGate.AvailableBalance(ctx, "USD")
	assert.ErrorIs(t, err, errBalanceGateIsNil)
}
