package portfolio

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	exchange "github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccountsCache(t *testing.T) {
	t.Parallel()
	_, err := NewAccountsCache(nil, 0, nil)
	assert.ErrorIs(t, err, errFetcherIsNil)

	c, err := NewAccountsCache(&fakeExchange{}, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultAccountTTL, c.ttl)
}

func TestAccountsCacheTTL(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}

	f := &fakeExchange{accounts: map[string]exchange.Account{"BTC": {Currency: "BTC", Available: d("1")}}}
	c, err := NewAccountsCache(f, time.Minute, clock)
	require.NoError(t, err)
	ctx := context.Background()

	a, err := c.Get(ctx)
	require.NoError(t, err)
	assert.True(t, a["BTC"].Available.Equal(d("1")))
	assert.EqualValues(t, 1, f.accountCalls.Load())
	assert.Equal(t, now, c.FetchedAt())

	advance(59 * time.Second)
	_, err = c.Get(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, f.accountCalls.Load(), "reused within ttl")

	a["BTC"] = exchange.Account{}
	b, err := c.Get(ctx)
	require.NoError(t, err)
	assert.True(t, b["BTC"].Available.Equal(d("1")), "callers receive copies")

	advance(time.Second)
	_, err = c.Get(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, f.accountCalls.Load(), "exactly one refresh on expiry")

	_, err = c.Refresh(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, f.accountCalls.Load(), "refresh ignores ttl")

	c.Invalidate()
	assert.True(t, c.FetchedAt().IsZero())
	_, err = c.Get(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, f.accountCalls.Load())
}

func TestAccountsCacheError(t *testing.T) {
	t.Parallel()
	f := &fakeExchange{accountsErr: exchange.ErrTransport}
	c, err := NewAccountsCache(f, time.Minute, nil)
	require.NoError(t, err)

	_, err = c.Get(context.Background())
	assert.ErrorIs(t, err, exchange.ErrTransport)
	assert.True(t, c.FetchedAt().IsZero(), "failed fetch not cached")
}

func TestAccountsCacheSingleFlight(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	f := &fakeExchange{
		accounts: map[string]exchange.Account{"ETH": {Currency: "ETH", Available: d("2")}},
		block:    release,
	}
	c, err := NewAccountsCache(f, time.Minute, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var failures atomic.Int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Get(context.Background()); err != nil {
				failures.Add(1)
			}
		}()
	}
	// let the callers pile up behind the first fetch
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Zero(t, failures.Load())
	assert.EqualValues(t, 1, f.accountCalls.Load(), "concurrent callers share one fetch")
}
