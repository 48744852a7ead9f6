package currency

import (
	"testing"

	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPairFromString(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		in      string
		want    Pair
		wantErr bool
	}{
		{in: "btc-usd", want: Pair{Delimiter: "-", Base: BTC, Quote: USD}},
		{in: "ETH_USDC", want: Pair{Delimiter: "_", Base: ETH, Quote: USDC}},
		{in: "SOL/USD", want: Pair{Delimiter: "/", Base: SOL, Quote: USD}},
		{in: "", wantErr: true},
		{in: "BTCUSD", wantErr: true},
		{in: "BTC-", wantErr: true},
		{in: "A-B-C", wantErr: true},
	} {
		p, err := NewPairFromString(tc.in)
		if tc.wantErr {
			assert.ErrorIs(t, err, ErrCurrencyPairEmpty, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, p, tc.in)
	}
}

func TestPairProductID(t *testing.T) {
	t.Parallel()
	p, err := NewPairFromString("eth_usdc")
	require.NoError(t, err)
	assert.Equal(t, "ETH-USDC", p.ProductID())
	assert.Equal(t, "ETH_USDC", p.String())
	assert.True(t, p.Equal(NewPair(ETH, USDC)))
	assert.False(t, p.IsEmpty())
	assert.True(t, EMPTYPAIR.IsEmpty())
}

func TestPairJSON(t *testing.T) {
	t.Parallel()
	b, err := json.Marshal(NewPair(BTC, USD))
	require.NoError(t, err)
	assert.Equal(t, `"BTC-USD"`, string(b))

	var p Pair
	require.NoError(t, json.Unmarshal([]byte(`"sol-usd"`), &p))
	assert.Equal(t, NewPair(SOL, USD), p)

	assert.Error(t, json.Unmarshal([]byte(`"nodelim"`), &p))
}

func TestStablecoins(t *testing.T) {
	t.Parallel()
	s := DefaultStablecoins()
	for _, c := range []Code{USD, USDC, USDT, DAI} {
		assert.True(t, s.Contains(c), c)
	}
	assert.True(t, s.Contains(Code("usdc")))
	assert.False(t, s.Contains(BTC))
	assert.Len(t, NewStablecoins("", " usdc "), 1)
}
