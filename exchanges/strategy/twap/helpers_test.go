package twap

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/currency"
	exchange "github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges/order"
	"github.com/shopspring/decimal"
)

var (
	btcusd    = currency.NewPair(currency.BTC, currency.USD)
	errTest   = errors.New("test error")
	testStart = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func nd(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d(s), Valid: true}
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

// fakeAccounts debits balances as orders are placed against fakeExchange
type fakeAccounts struct {
	mu       sync.Mutex
	balances map[string]decimal.Decimal
	err      error
	calls    int
}

func (f *fakeAccounts) Refresh(context.Context) (map[string]exchange.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	resp := make(map[string]exchange.Account, len(f.balances))
	for k, v := range f.balances {
		resp[k] = exchange.Account{Currency: k, Available: v}
	}
	return resp, nil
}

func (f *fakeAccounts) debit(c currency.Code, amount decimal.Decimal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[c.String()] = f.balances[c.String()].Sub(amount)
}

type fakeExchange struct {
	accounts   *fakeAccounts
	top        *exchange.BookTop
	bookErr    error
	bookCalls  int
	submitErr  error
	reject     func(idx int) bool
	onSubmit   func(idx int)
	submitted  []*order.Submit
	fills      []exchange.Fill
	fillsErr   error
	fillsCalls int
	tier       *exchange.FeeTier
	tierCalls  int
}

func (f *fakeExchange) BestBidAsk(_ context.Context, productID string) (*exchange.BookTop, error) {
	f.bookCalls++
	if f.bookErr != nil {
		return nil, f.bookErr
	}
	if f.top == nil {
		return nil, nil
	}
	cpy := *f.top
	cpy.ProductID = productID
	return &cpy, nil
}

func (f *fakeExchange) PlaceLimitOrderGTC(ctx context.Context, s *order.Submit) (*order.SubmitResponse, error) {
	idx := len(f.submitted)
	f.submitted = append(f.submitted, s)
	if f.onSubmit != nil {
		f.onSubmit(idx)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	if f.reject != nil && f.reject(idx) {
		return &order.SubmitResponse{Success: false, FailureReason: "INSUFFICIENT_FUND"}, nil
	}
	if f.accounts != nil {
		if s.Side == order.Buy {
			f.accounts.debit(s.Pair.Quote, s.Amount.Mul(s.Price))
		} else {
			f.accounts.debit(s.Pair.Base, s.Amount)
		}
	}
	return &order.SubmitResponse{
		Success:       true,
		OrderID:       fmt.Sprintf("order-%d", idx),
		ClientOrderID: s.ClientOrderID,
	}, nil
}

func (f *fakeExchange) GetFills(_ context.Context, _ ...string) ([]exchange.Fill, error) {
	f.fillsCalls++
	if f.fillsErr != nil {
		return nil, f.fillsErr
	}
	cpy := make([]exchange.Fill, len(f.fills))
	copy(cpy, f.fills)
	return cpy, nil
}

func (f *fakeExchange) GetTransactionSummary(context.Context) (*exchange.FeeTier, error) {
	f.tierCalls++
	if f.tier == nil {
		return nil, errTest
	}
	cpy := *f.tier
	return &cpy, nil
}

// recordingTracker captures the attempted count of every saved snapshot
type recordingTracker struct {
	*MemoryTracker
	attempted []int
	statuses  []Status
	failAt    int
}

func newRecordingTracker() *recordingTracker {
	return &recordingTracker{MemoryTracker: NewMemoryTracker(), failAt: -1}
}

func (r *recordingTracker) Save(ctx context.Context, o *Order) error {
	if len(r.attempted) == r.failAt {
		r.attempted = append(r.attempted, -1)
		return errTest
	}
	r.attempted = append(r.attempted, o.Attempted())
	r.statuses = append(r.statuses, o.Status)
	return r.MemoryTracker.Save(ctx, o)
}

// cancelWaiter cancels the context after a number of waits
type cancelWaiter struct {
	after  int
	waits  int
	cancel context.CancelFunc
}

func (c *cancelWaiter) Wait(ctx context.Context, _ time.Duration) error {
	c.waits++
	if c.waits >= c.after {
		c.cancel()
	}
	return ctx.Err()
}
