package twap

import (
	"context"
	"sync"
	"time"

	exchange "github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/log"
	"github.com/shopspring/decimal"
)

const (
	// DefaultFeeTierTTL is how long a fetched fee tier is reused
	DefaultFeeTierTTL = time.Hour
)

// DefaultFeeRate is applied to both sides when the fee tier cannot be fetched
var DefaultFeeRate = decimal.RequireFromString("0.006")

// FeeSchedule caches the account fee tier
type FeeSchedule struct {
	source exchange.FeeTierFetcher
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	tier    *exchange.FeeTier
	fetched time.Time
}

// NewFeeSchedule returns a FeeSchedule, a non positive ttl uses
// DefaultFeeTierTTL and a nil clock uses time.Now
func NewFeeSchedule(source exchange.FeeTierFetcher, ttl time.Duration, now func() time.Time) *FeeSchedule {
	if ttl <= 0 {
		ttl = DefaultFeeTierTTL
	}
	if now == nil {
		now = time.Now
	}
	return &FeeSchedule{source: source, ttl: ttl, now: now}
}

// Tier returns the cached fee tier, refreshing it once the ttl has elapsed.
// Fetch failures fall back to the last known tier or the default rates.
func (f *FeeSchedule) Tier(ctx context.Context) exchange.FeeTier {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tier != nil && f.now().Sub(f.fetched) < f.ttl {
		return *f.tier
	}
	if f.source != nil {
		tier, err := f.source.GetTransactionSummary(ctx)
		if err == nil && tier != nil {
			f.tier = tier
			f.fetched = f.now()
			return *tier
		}
		log.Warnf(log.TWAP, "fee tier fetch failed, using fallback rates: %v", err)
	}
	if f.tier != nil {
		return *f.tier
	}
	return exchange.FeeTier{Tier: "default", MakerRate: DefaultFeeRate, TakerRate: DefaultFeeRate}
}
