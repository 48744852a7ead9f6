package twap

import (
	"context"
	"errors"
	"testing"
	"time"

	exchange "github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges/order"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges/strategy/common"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	exch     *fakeExchange
	accounts *fakeAccounts
	tracker  *recordingTracker
	exec     *Executor
	order    *Order
	schedule *Schedule
}

func newHarness(t *testing.T, p *Params, balances map[string]decimal.Decimal, opts ...ExecutorOption) *harness {
	t.Helper()
	acc := &fakeAccounts{balances: balances}
	h := &harness{
		accounts: acc,
		exch:     &fakeExchange{accounts: acc, top: &exchange.BookTop{Bid: d("49900"), Ask: d("50100")}},
		tracker:  newRecordingTracker(),
	}
	c := &clock{now: testStart}
	opts = append([]ExecutorOption{WithWaiter(common.NoWait{}), WithClock(c.Now)}, opts...)
	var err error
	h.exec, err = NewExecutor(h.exch, NewBalanceGate(acc), h.tracker, opts...)
	require.NoError(t, err)

	h.order, err = NewOrder(p, testStart)
	require.NoError(t, err)
	_, err = h.tracker.Create(context.Background(), h.order)
	require.NoError(t, err)

	h.schedule, err = Plan(p, nil)
	require.NoError(t, err)
	return h
}

func (h *harness) stored(t *testing.T) *Order {
	t.Helper()
	o, err := h.tracker.Get(context.Background(), h.order.ID)
	require.NoError(t, err)
	return o
}

func requireAttemptedInvariant(t *testing.T, o *Order) {
	t.Helper()
	require.LessOrEqual(t, o.Attempted(), o.NumSlices)
	if o.Status == StatusCompleted || o.Status == StatusFailed {
		require.Equal(t, o.NumSlices, o.Attempted(), "terminal order attempted every slice")
	}
}

func TestNewExecutor(t *testing.T) {
	t.Parallel()
	_, err := NewExecutor(nil, nil, nil)
	if !errors.Is(err, errExchangeIsNil) {
		t.Fatalf("received: '%v' but expected: '%v'", err, errExchangeIsNil)
	}
	_, err = NewExecutor(&fakeExchange{}, nil, nil)
	if !errors.Is(err, errBalanceGateIsNil) {
		t.Fatalf("received: '%v' but expected: '%v'", err, errBalanceGateIsNil)
	}
	_, err = NewExecutor(&fakeExchange{}, NewBalanceGate(&fakeAccounts{}), nil)
	if !errors.Is(err, errTrackerIsNil) {
		t.Fatalf("received: '%v' but expected: '%v'", err, errTrackerIsNil)
	}
}

func TestExecuteAmpleBalance(t *testing.T) {
	t.Parallel()
	h := newHarness(t, validParams(), map[string]decimal.Decimal{"USD": d("1000000")})

	require.NoError(t, h.exec.Execute(context.Background(), h.order, h.schedule))

	o := h.stored(t)
	assert.Equal(t, StatusCompleted, o.Status)
	assert.Len(t, o.Orders, 10)
	assert.Empty(t, o.FailedSlices)
	assert.False(t, o.FinishedAt.IsZero())
	requireAttemptedInvariant(t, o)
	assert.True(t, o.PlacedSize().Equal(d("1")))
	for i := range o.Orders {
		assert.Equal(t, i, o.Orders[i].SliceIndex)
		assert.True(t, o.Orders[i].Price.Equal(d("50000")))
		assert.True(t, o.Orders[i].Size.Equal(d("0.1")))
		assert.NotEmpty(t, o.Orders[i].OrderID)
	}

	assert.Zero(t, h.exch.bookCalls, "limit priced order never reads the book")
	assert.Equal(t, 10, h.accounts.calls, "balance refreshed before every slice")
	require.Len(t, h.exch.submitted, 10)
	for i, s := range h.exch.submitted {
		assert.Equal(t, order.Limit, s.Type)
		assert.True(t, s.TimeInForce.Is(order.GoodTillCancel))
		assert.Equal(t, order.Buy, s.Side)
		assert.NotEmpty(t, s.ClientOrderID, i)
	}
}

func TestExecuteSaveAfterEverySlice(t *testing.T) {
	t.Parallel()
	h := newHarness(t, validParams(), map[string]decimal.Decimal{"USD": d("1000000")})
	require.NoError(t, h.exec.Execute(context.Background(), h.order, h.schedule))

	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 10}, h.tracker.attempted)
	require.Len(t, h.tracker.statuses, 11)
	for i := 0; i < 10; i++ {
		assert.Equal(t, StatusInProgress, h.tracker.statuses[i])
	}
	assert.Equal(t, StatusCompleted, h.tracker.statuses[10])
}

func TestExecuteShortfallPartway(t *testing.T) {
	t.Parallel()
	// funds three slices of 0.1 BTC at 50000
	h := newHarness(t, validParams(), map[string]decimal.Decimal{"USD": d("15000")})
	require.NoError(t, h.exec.Execute(context.Background(), h.order, h.schedule))

	o := h.stored(t)
	assert.Equal(t, StatusCompleted, o.Status, "completed when at least one slice placed")
	require.Len(t, o.Orders, 3)
	require.Len(t, o.FailedSlices, 7)
	requireAttemptedInvariant(t, o)
	for i := range o.Orders {
		assert.Equal(t, i, o.Orders[i].SliceIndex)
	}
	for i := range o.FailedSlices {
		assert.Equal(t, i+3, o.FailedSlices[i].SliceIndex)
		assert.Equal(t, ReasonInsufficientBalance, o.FailedSlices[i].Reason)
	}
	assert.Len(t, h.exch.submitted, 3, "no submission without balance")
}

func TestExecuteSellUsesBaseBalance(t *testing.T) {
	t.Parallel()
	p := validParams()
	p.Side = order.Sell
	p.PriceType = PriceBid
	p.LimitPrice = decimal.NullDecimal{}
	h := newHarness(t, p, map[string]decimal.Decimal{"BTC": d("0.5"), "USD": d("0")})
	require.NoError(t, h.exec.Execute(context.Background(), h.order, h.schedule))

	o := h.stored(t)
	assert.Equal(t, StatusCompleted, o.Status)
	assert.Len(t, o.Orders, 5)
	assert.Len(t, o.FailedSlices, 5)
	assert.Equal(t, 10, h.exch.bookCalls, "book read once per slice")
	assert.True(t, o.Orders[0].Price.Equal(d("49900")))
}

func TestExecuteAllRejected(t *testing.T) {
	t.Parallel()
	h := newHarness(t, validParams(), map[string]decimal.Decimal{"USD": d("1000000")})
	h.exch.reject = func(int) bool { return true }
	require.NoError(t, h.exec.Execute(context.Background(), h.order, h.schedule))

	o := h.stored(t)
	assert.Equal(t, StatusFailed, o.Status)
	assert.Empty(t, o.Orders)
	require.Len(t, o.FailedSlices, 10)
	requireAttemptedInvariant(t, o)
	for i := range o.FailedSlices {
		assert.Equal(t, ReasonSubmissionRejected, o.FailedSlices[i].Reason)
		assert.Contains(t, o.FailedSlices[i].Detail, "INSUFFICIENT_FUND")
	}
}

func TestExecuteSubmissionErrorIsRejection(t *testing.T) {
	t.Parallel()
	h := newHarness(t, validParams(), map[string]decimal.Decimal{"USD": d("1000000")})
	h.exch.reject = func(idx int) bool { return idx%2 == 1 }
	require.NoError(t, h.exec.Execute(context.Background(), h.order, h.schedule))
	o := h.stored(t)
	assert.Len(t, o.Orders, 5)
	assert.Len(t, o.FailedSlices, 5)

	h = newHarness(t, validParams(), map[string]decimal.Decimal{"USD": d("1000000")})
	h.exch.submitErr = exchange.ErrTransport
	require.NoError(t, h.exec.Execute(context.Background(), h.order, h.schedule))
	o = h.stored(t)
	assert.Equal(t, StatusFailed, o.Status)
	for i := range o.FailedSlices {
		assert.Equal(t, ReasonSubmissionRejected, o.FailedSlices[i].Reason)
	}
}

func TestExecuteBalanceErrorIsInsufficient(t *testing.T) {
	t.Parallel()
	h := newHarness(t, validParams(), map[string]decimal.Decimal{"USD": d("1000000")})
	h.accounts.err = exchange.ErrTransport
	require.NoError(t, h.exec.Execute(context.Background(), h.order, h.schedule))

	o := h.stored(t)
	assert.Equal(t, StatusFailed, o.Status)
	require.Len(t, o.FailedSlices, 10)
	assert.Equal(t, ReasonInsufficientBalance, o.FailedSlices[0].Reason)
	assert.Empty(t, h.exch.submitted)
}

func TestExecutePriceFailures(t *testing.T) {
	t.Parallel()
	p := validParams()
	p.PriceType = PriceMid
	p.LimitPrice = decimal.NullDecimal{}
	h := newHarness(t, p, map[string]decimal.Decimal{"USD": d("1000000")})
	h.exch.bookErr = exchange.ErrTransport
	require.NoError(t, h.exec.Execute(context.Background(), h.order, h.schedule))
	o := h.stored(t)
	assert.Equal(t, StatusFailed, o.Status)
	assert.Equal(t, ReasonPriceUnavailable, o.FailedSlices[0].Reason)
	assert.Zero(t, h.accounts.calls, "no balance query without a price")

	p = validParams()
	p.PriceType = PriceAsk // ask 50100 above limit 50000
	h = newHarness(t, p, map[string]decimal.Decimal{"USD": d("1000000")})
	require.NoError(t, h.exec.Execute(context.Background(), h.order, h.schedule))
	o = h.stored(t)
	assert.Equal(t, StatusFailed, o.Status)
	require.Len(t, o.FailedSlices, 10)
	assert.Equal(t, ReasonPriceUnfavourable, o.FailedSlices[0].Reason)
	assert.Empty(t, h.exch.submitted)

	p.PriceType = PriceBid // bid 49900 below limit 50000
	h = newHarness(t, p, map[string]decimal.Decimal{"USD": d("1000000")})
	require.NoError(t, h.exec.Execute(context.Background(), h.order, h.schedule))
	o = h.stored(t)
	assert.Equal(t, StatusCompleted, o.Status)
	assert.True(t, o.Orders[0].Price.Equal(d("49900")))
}

func TestExecuteCancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := &cancelWaiter{after: 2, cancel: cancel}
	h := newHarness(t, validParams(), map[string]decimal.Decimal{"USD": d("1000000")}, WithWaiter(w))

	require.NoError(t, h.exec.Execute(ctx, h.order, h.schedule))

	o := h.stored(t)
	assert.Equal(t, StatusCancelled, o.Status)
	assert.Len(t, o.Orders, 2, "attempted slices are kept")
	assert.Empty(t, o.FailedSlices)
	assert.False(t, o.FinishedAt.IsZero())
	requireAttemptedInvariant(t, o)
	assert.Equal(t, []int{1, 2, 2}, h.tracker.attempted)
	assert.True(t, o.Status.IsTerminal())

	err := h.exec.Execute(context.Background(), h.order, h.schedule)
	assert.ErrorIs(t, err, errOrderAlreadyFinal)
}

func TestExecuteCancelledDuringSubmission(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := newHarness(t, validParams(), map[string]decimal.Decimal{"USD": d("1000000")})
	h.exch.onSubmit = func(idx int) {
		if idx == 1 {
			cancel()
		}
	}

	require.NoError(t, h.exec.Execute(ctx, h.order, h.schedule))

	o := h.stored(t)
	assert.Equal(t, StatusCancelled, o.Status)
	require.Len(t, o.Orders, 2, "slice in flight is recorded as placed")
	assert.Equal(t, "order-1", o.Orders[1].OrderID)
	assert.Empty(t, o.FailedSlices)
	assert.Len(t, h.exch.submitted, 2, "no slice submitted after cancellation")
	requireAttemptedInvariant(t, o)
	assert.Equal(t, []int{1, 2, 2}, h.tracker.attempted)
}

func TestExecuteCancelledBeforeFirstSlice(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h := newHarness(t, validParams(), map[string]decimal.Decimal{"USD": d("1000000")})
	require.NoError(t, h.exec.Execute(ctx, h.order, h.schedule))

	o := h.stored(t)
	assert.Equal(t, StatusCancelled, o.Status)
	assert.Zero(t, o.Attempted())
	assert.Empty(t, h.exch.submitted)
}

func TestExecuteSaveFailureHalts(t *testing.T) {
	t.Parallel()
	h := newHarness(t, validParams(), map[string]decimal.Decimal{"USD": d("1000000")})
	h.tracker.failAt = 2

	err := h.exec.Execute(context.Background(), h.order, h.schedule)
	require.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, errTest)
	assert.Len(t, h.exch.submitted, 3, "no slices after the failed write")
	assert.Equal(t, 3, h.order.Attempted())
	assert.Equal(t, StatusInProgress, h.order.Status)
}

func TestExecuteScheduleMismatch(t *testing.T) {
	t.Parallel()
	h := newHarness(t, validParams(), map[string]decimal.Decimal{"USD": d("1000000")})
	err := h.exec.Execute(context.Background(), h.order, &Schedule{Slices: h.schedule.Slices[:2]})
	assert.ErrorIs(t, err, errScheduleMismatched)
	assert.ErrorIs(t, h.exec.Execute(context.Background(), nil, h.schedule), errOrderIsNil)
	assert.ErrorIs(t, h.exec.Execute(context.Background(), h.order, nil), errScheduleIsNil)
}

func TestExecuteRealTimer(t *testing.T) {
	t.Parallel()
	p := validParams()
	p.NumSlices = 3
	p.Duration = 30 * time.Millisecond
	acc := &fakeAccounts{balances: map[string]decimal.Decimal{"USD": d("1000000")}}
	exch := &fakeExchange{accounts: acc}
	tracker := NewMemoryTracker()
	e, err := NewExecutor(exch, NewBalanceGate(acc), tracker)
	require.NoError(t, err)
	o, err := NewOrder(p, time.Now())
	require.NoError(t, err)
	_, err = tracker.Create(context.Background(), o)
	require.NoError(t, err)
	s, err := Plan(p, nil)
	require.NoError(t, err)

	start := time.Now()
	require.NoError(t, e.Execute(context.Background(), o, s))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond, "two waits of 10ms")
	assert.Equal(t, StatusCompleted, o.Status)
}

func TestExecuteReportsActivities(t *testing.T) {
	t.Parallel()
	act, err := common.NewActivities("TWAP", uuid.Must(uuid.NewV4()), true)
	require.NoError(t, err)
	reporter, err := act.GetReporter(false)
	require.NoError(t, err)

	h := newHarness(t, validParams(), map[string]decimal.Decimal{"USD": d("15000")}, WithActivities(act))
	require.NoError(t, h.exec.Execute(context.Background(), h.order, h.schedule))

	counts := make(map[common.Reason]int)
	var last *common.Report
	for r := range reporter {
		counts[r.Reason]++
		last = r
	}
	assert.Equal(t, 1, counts[common.Start])
	assert.Equal(t, 3, counts[common.SlicePlaced])
	assert.Equal(t, 7, counts[common.SliceFailed])
	require.NotNil(t, last)
	assert.Equal(t, common.Complete, last.Reason)
	assert.Equal(t, common.CompleteAction{Status: string(StatusCompleted)}, last.Action)
}

func TestOrderClone(t *testing.T) {
	t.Parallel()
	o, err := NewOrder(validParams(), testStart)
	require.NoError(t, err)
	o.Orders = append(o.Orders, PlacedSlice{OrderID: "a"})
	cpy := o.Clone()
	cpy.Orders[0].OrderID = "b"
	cpy.FailedSlices = append(cpy.FailedSlices, FailedSlice{})
	assert.Equal(t, "a", o.Orders[0].OrderID)
	assert.Empty(t, o.FailedSlices)
	assert.Nil(t, (*Order)(nil).Clone())
	assert.Contains(t, o.String(), "BTC-USD")

	_, err = NewOrder(&Params{}, testStart)
	assert.ErrorIs(t, err, ErrInvalidParameters)

	pt, err := StringToPriceType(" MID ")
	require.NoError(t, err)
	assert.Equal(t, PriceMid, pt)
}
