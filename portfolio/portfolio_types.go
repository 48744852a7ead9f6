package portfolio

import (
	"errors"
	"sync"
	"time"

	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/currency"
	exchange "github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultAccountTTL is how long a fetched account mapping is reused
	DefaultAccountTTL = 60 * time.Second
)

var (
	errFetcherIsNil = errors.New("accounts fetcher is nil")
	errPricerIsNil  = errors.New("products fetcher is nil")
)

// Holding is one currency position with its valuation
type Holding struct {
	Currency currency.Code   `json:"currency"`
	Quantity decimal.Decimal `json:"quantity"`

	// UnitPrice is invalid when no price could be found
	UnitPrice decimal.NullDecimal `json:"unitPrice"`
	Value     decimal.Decimal     `json:"value"`
}

// IsPriced returns true when the holding has a unit price
func (h *Holding) IsPriced() bool {
	return h.UnitPrice.Valid
}

// Summary is a valued portfolio
type Summary struct {
	Holdings []Holding       `json:"holdings"`
	Total    decimal.Decimal `json:"total"`
	Quote    currency.Code   `json:"quote"`
	// Partial is set when prices could not be fetched and non stable
	// holdings are unpriced
	Partial bool      `json:"partial,omitempty"`
	Time    time.Time `json:"time"`
}

// Valuator values account balances in a single quote currency
type Valuator struct {
	prices      exchange.ProductsFetcher
	stablecoins currency.Stablecoins
	quote       currency.Code
	now         func() time.Time
}

// AccountsCache holds the last fetched account mapping for a bounded time.
// At most one fetch is in flight at any time.
type AccountsCache struct {
	fetcher exchange.AccountsFetcher
	ttl     time.Duration
	now     func() time.Time
	group   singleflight.Group

	mu       sync.Mutex
	accounts map[string]exchange.Account
	fetched  time.Time
}
