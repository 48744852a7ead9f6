package portfolio

import (
	"context"
	"time"

	exchange "github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/log"
)

const refreshKey = "accounts"

// NewAccountsCache returns an AccountsCache. A non positive ttl uses
// DefaultAccountTTL and a nil clock uses time.Now.
func NewAccountsCache(fetcher exchange.AccountsFetcher, ttl time.Duration, now func() time.Time) (*AccountsCache, error) {
	if fetcher == nil {
		return nil, errFetcherIsNil
	}
	if ttl <= 0 {
		ttl = DefaultAccountTTL
	}
	if now == nil {
		now = time.Now
	}
	return &AccountsCache{fetcher: fetcher, ttl: ttl, now: now}, nil
}

// Get returns the cached accounts, refreshing them once the ttl has elapsed
func (c *AccountsCache) Get(ctx context.Context) (map[string]exchange.Account, error) {
	c.mu.Lock()
	if c.accounts != nil && c.now().Sub(c.fetched) < c.ttl {
		cpy := copyAccounts(c.accounts)
		c.mu.Unlock()
		return cpy, nil
	}
	c.mu.Unlock()
	return c.Refresh(ctx)
}

// Refresh fetches accounts regardless of age. Concurrent callers share one
// fetch. A failed fetch leaves the previous mapping in place.
func (c *AccountsCache) Refresh(ctx context.Context) (map[string]exchange.Account, error) {
	v, err, shared := c.group.Do(refreshKey, func() (interface{}, error) {
		accounts, err := c.fetcher.GetAccounts(ctx)
		if err != nil {
			return nil, err
		}
		if accounts == nil {
			accounts = map[string]exchange.Account{}
		}
		c.mu.Lock()
		c.accounts = accounts
		c.fetched = c.now()
		c.mu.Unlock()
		return accounts, nil
	})
	if err != nil {
		log.Errorf(log.Portfolio, "accounts refresh failed: %v", err)
		return nil, err
	}
	if shared {
		log.Debugln(log.Portfolio, "accounts refresh shared with concurrent caller")
	}
	accounts, _ := v.(map[string]exchange.Account)
	return copyAccounts(accounts), nil
}

// Invalidate drops the cached mapping so the next Get fetches
func (c *AccountsCache) Invalidate() {
	c.mu.Lock()
	c.accounts = nil
	c.fetched = time.Time{}
	c.mu.Unlock()
}

// FetchedAt returns when the cached mapping was fetched, zero when empty
func (c *AccountsCache) FetchedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetched
}

func copyAccounts(in map[string]exchange.Account) map[string]exchange.Account {
	out := make(map[string]exchange.Account, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
