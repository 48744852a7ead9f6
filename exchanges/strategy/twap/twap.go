package twap

import (
	"context"
	"fmt"
	"time"

	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges/order"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges/strategy/common"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/log"
	"github.com/shopspring/decimal"
)

// Executor places the slices of a TWAP order one after another
type Executor struct {
	exchange   Exchange
	gate       *BalanceGate
	tracker    Tracker
	waiter     common.Waiter
	activities *common.Activities
	now        func() time.Time
}

// ExecutorOption configures an Executor
type ExecutorOption func(*Executor)

// WithWaiter replaces the real timer used between slices
func WithWaiter(w common.Waiter) ExecutorOption {
	return func(e *Executor) { e.waiter = w }
}

// WithActivities attaches a progress reporter
func WithActivities(a *common.Activities) ExecutorOption {
	return func(e *Executor) { e.activities = a }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) ExecutorOption {
	return func(e *Executor) { e.now = now }
}

// NewExecutor returns an Executor
func NewExecutor(exch Exchange, gate *BalanceGate, tracker Tracker, opts ...ExecutorOption) (*Executor, error) {
	if exch == nil {
		return nil, errExchangeIsNil
	}
	if gate == nil {
		return nil, errBalanceGateIsNil
	}
	if tracker == nil {
		return nil, errTrackerIsNil
	}
	e := &Executor{
		exchange: exch,
		gate:     gate,
		tracker:  tracker,
		waiter:   common.TimerWaiter{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Execute runs the schedule to completion or until the context is cancelled.
// A snapshot of the order is saved after every slice attempt, a save failure
// halts the execution and is returned wrapped in ErrPersistence. Cancellation
// is not an error, the order is finalised as cancelled.
func (e *Executor) Execute(ctx context.Context, o *Order, s *Schedule) error {
	if o == nil {
		return errOrderIsNil
	}
	if s == nil {
		return errScheduleIsNil
	}
	if o.Status.IsTerminal() {
		return fmt.Errorf("%w: %s is %s", errOrderAlreadyFinal, o.ID, o.Status)
	}
	if len(s.Slices) != o.NumSlices {
		return fmt.Errorf("%w: %d planned slices for %d", errScheduleMismatched, len(s.Slices), o.NumSlices)
	}

	// A slice in flight and the writes that record it must land even when the
	// operator aborts. Cancellation is observed between slices only.
	saveCtx := context.WithoutCancel(ctx)

	var quoteIncrement decimal.Decimal
	if s.Product != nil {
		quoteIncrement = s.Product.QuoteIncrement
	}
	oracle := NewPriceOracle(e.exchange, o.LimitPrice, quoteIncrement)

	e.activities.ReportStart(o.String())
	log.Infof(log.TWAP, "TWAP %s starting: %s", o.ID, o)

	for i := o.Attempted(); i < len(s.Slices); i++ {
		if err := ctx.Err(); err != nil {
			return e.stop(saveCtx, o, err)
		}
		if o.Status == StatusPending {
			o.Status = StatusInProgress
		}

		e.attempt(saveCtx, oracle, o, &s.Slices[i])

		if err := e.tracker.Save(saveCtx, o.Clone()); err != nil {
			err = fmt.Errorf("%w: TWAP %s slice %d: %w", ErrPersistence, o.ID, i, err)
			log.Errorln(log.TWAP, err)
			e.activities.ReportFatalError(err)
			return err
		}

		if i == len(s.Slices)-1 {
			break
		}
		e.activities.ReportWait(e.now().Add(s.Slices[i].Interval))
		if err := e.waiter.Wait(ctx, s.Slices[i].Interval); err != nil {
			return e.stop(saveCtx, o, err)
		}
	}

	o.finalise(e.now())
	if err := e.tracker.Save(saveCtx, o.Clone()); err != nil {
		err = fmt.Errorf("%w: TWAP %s final status: %w", ErrPersistence, o.ID, err)
		log.Errorln(log.TWAP, err)
		e.activities.ReportFatalError(err)
		return err
	}
	log.Infof(log.TWAP, "TWAP %s %s: %d placed %d failed", o.ID, o.Status, len(o.Orders), len(o.FailedSlices))
	e.activities.ReportComplete(string(o.Status))
	return nil
}

// stop finalises a cancelled order keeping every attempted slice
func (e *Executor) stop(ctx context.Context, o *Order, cause error) error {
	o.cancel(e.now())
	log.Warnf(log.TWAP, "TWAP %s cancelled after %d of %d slices: %v", o.ID, o.Attempted(), o.NumSlices, cause)
	if err := e.tracker.Save(ctx, o.Clone()); err != nil {
		err = fmt.Errorf("%w: TWAP %s cancellation: %w", ErrPersistence, o.ID, err)
		log.Errorln(log.TWAP, err)
		e.activities.ReportFatalError(err)
		return err
	}
	e.activities.ReportContextDone(cause)
	return nil
}

// attempt records exactly one placed or failed entry for the slice
func (e *Executor) attempt(ctx context.Context, oracle *PriceOracle, o *Order, sl *Slice) {
	price, err := oracle.ResolvePrice(ctx, o.PriceType, o.Pair)
	if err != nil {
		e.failed(o, sl, ReasonPriceUnavailable, err)
		return
	}

	if !isFavourable(o, price) {
		e.failed(o, sl, ReasonPriceUnfavourable,
			fmt.Errorf("%w: %s price %s limit %s", ErrPriceUnfavourable, o.PriceType, price, o.LimitPrice.Decimal))
		return
	}

	if err = e.gate.Check(ctx, o.Side, o.Pair, sl.Size, price); err != nil {
		e.failed(o, sl, ReasonInsufficientBalance, err)
		return
	}

	submit := &order.Submit{
		Pair:          o.Pair,
		Side:          o.Side,
		Type:          order.Limit,
		TimeInForce:   order.GoodTillCancel,
		Amount:        sl.Size,
		Price:         price,
		ClientOrderID: fmt.Sprintf("%s-%d", o.ID, sl.Index),
	}
	if err = submit.Validate(); err != nil {
		e.failed(o, sl, ReasonSubmissionRejected, fmt.Errorf("%w: %w", ErrSubmissionRejected, err))
		return
	}

	resp, err := e.exchange.PlaceLimitOrderGTC(ctx, submit)
	switch {
	case err != nil:
		e.failed(o, sl, ReasonSubmissionRejected, fmt.Errorf("%w: %w", ErrSubmissionRejected, err))
		return
	case resp == nil || !resp.Success || resp.OrderID == "":
		reason := "no order id returned"
		if resp != nil && resp.FailureReason != "" {
			reason = resp.FailureReason
		}
		e.failed(o, sl, ReasonSubmissionRejected, fmt.Errorf("%w: %s", ErrSubmissionRejected, reason))
		return
	}

	o.place(sl, resp.OrderID, price, e.now())
	log.Infof(log.TWAP, "TWAP %s slice %d/%d placed order %s %s @ %s",
		o.ID, sl.Index+1, o.NumSlices, resp.OrderID, sl.Size, price)
	e.activities.ReportSlicePlaced(common.SliceAction{
		Index:   sl.Index,
		OrderID: resp.OrderID,
		Size:    sl.Size.String(),
		Price:   price.String(),
	})
}

func (e *Executor) failed(o *Order, sl *Slice, reason FailureReason, err error) {
	o.fail(sl, reason, err.Error(), e.now())
	log.Warnf(log.TWAP, "TWAP %s slice %d/%d %s: %v", o.ID, sl.Index+1, o.NumSlices, reason, err)
	e.activities.ReportSliceFailed(common.SliceAction{
		Index:  sl.Index,
		Size:   sl.Size.String(),
		Reason: string(reason),
	})
}
