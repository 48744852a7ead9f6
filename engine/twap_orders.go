package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/currency"
	exchange "github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges/order"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges/strategy/common"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges/strategy/twap"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/log"
	"github.com/gofrs/uuid"
)

// PlaceTWAPOrder validates the request, plans the slices and executes them
// before returning the order identifier. A cancelled context stops the
// execution and the order is recorded as cancelled with every attempted
// slice kept. A persistence failure halts the execution and is returned
// alongside the identifier.
func (e *Engine) PlaceTWAPOrder(ctx context.Context, req *TWAPRequest) (string, error) {
	if e == nil {
		return "", errEngineIsNil
	}
	params, err := e.buildParams(req)
	if err != nil {
		return "", err
	}
	if err = params.Check(); err != nil {
		return "", err
	}
	if err = params.CheckLimits(e.Config.TWAPLimits()); err != nil {
		return "", err
	}

	product, err := e.productDetail(ctx, params.Pair)
	if err != nil {
		if errors.Is(err, exchange.ErrProductNotFound) {
			return "", fmt.Errorf("%w: %w", twap.ErrInvalidParameters, err)
		}
		log.Warnf(log.TWAP, "Product details for %s unavailable, planning without exchange limits: %v", params.Pair, err)
	}

	schedule, err := twap.Plan(params, product)
	if err != nil {
		return "", err
	}
	o, err := twap.NewOrder(params, e.now())
	if err != nil {
		return "", err
	}
	id, err := e.store.Create(ctx, o)
	if err != nil {
		return "", fmt.Errorf("%w: creating TWAP order: %w", twap.ErrPersistence, err)
	}
	o.ID = id

	opts := []twap.ExecutorOption{twap.WithWaiter(e.waiter), twap.WithClock(e.now)}
	activities, err := common.NewActivities(strategyName, uuid.FromStringOrNil(id), e.Config.Exchange.Simulate)
	if err != nil {
		log.Warnf(log.TWAP, "TWAP %s progress reporting disabled: %v", id, err)
	} else {
		opts = append(opts, twap.WithActivities(activities))
	}
	executor, err := twap.NewExecutor(e.exchange, e.gate, e.store, opts...)
	if err != nil {
		return id, err
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	if activities != nil {
		reports, repErr := activities.GetReporter(e.Settings.Verbose)
		if repErr == nil {
			wg.Add(1)
			go func() {
				defer wg.Done()
				logReports(reports, stop)
			}()
		}
		activities.ReportInfo(fmt.Sprintf("%d slices every %s", len(schedule.Slices), schedule.Interval))
	}

	execErr := executor.Execute(ctx, o, schedule)
	close(stop)
	wg.Wait()
	e.accounts.Invalidate()
	if execErr != nil {
		return id, execErr
	}

	// Fills are informational and are reconciled even after cancellation.
	if _, err := e.reconciler.Reconcile(context.WithoutCancel(ctx), o); err != nil {
		log.Errorf(log.TWAP, "TWAP %s fill reconciliation failed: %v", id, err)
	}
	return id, nil
}

func (e *Engine) buildParams(req *TWAPRequest) (*twap.Params, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: %w", twap.ErrInvalidParameters, errRequestIsNil)
	}
	pair, err := currency.NewPairFromString(req.Market)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", twap.ErrInvalidParameters, err)
	}
	side, err := order.StringToOrderSide(req.Side)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", twap.ErrInvalidParameters, err)
	}
	priceType := req.PriceType
	if priceType == "" {
		priceType = e.Config.TWAP.DefaultPriceType
	}
	pt, err := twap.StringToPriceType(priceType)
	if err != nil {
		return nil, err
	}
	return &twap.Params{
		Pair:       pair,
		Side:       side,
		TotalSize:  req.TotalSize,
		NumSlices:  req.NumSlices,
		Duration:   req.Duration,
		PriceType:  pt,
		LimitPrice: req.LimitPrice,
	}, nil
}

// productDetail returns product limits, cached for the life of the engine
func (e *Engine) productDetail(ctx context.Context, pair currency.Pair) (*exchange.ProductDetail, error) {
	id := pair.ProductID()
	if d, ok := e.products.Get(id); ok {
		return d, nil
	}
	d, err := e.exchange.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	e.products.Add(id, d)
	return d, nil
}

func logReports(reports <-chan *common.Report, stop <-chan struct{}) {
	for {
		select {
		case r, ok := <-reports:
			if !ok {
				return
			}
			logReport(r)
		case <-stop:
			for {
				select {
				case r, ok := <-reports:
					if !ok {
						return
					}
					logReport(r)
				default:
					return
				}
			}
		}
	}
}

func logReport(r *common.Report) {
	if r == nil {
		return
	}
	log.Debugf(log.TWAP, "%s %s [%s]: %+v", r.Strategy, r.ID, r.Reason, r.Action)
}

// GetTWAPOrder returns the stored order
func (e *Engine) GetTWAPOrder(ctx context.Context, id string) (*twap.Order, error) {
	if e == nil {
		return nil, errEngineIsNil
	}
	if id == "" {
		return nil, errEmptyOrderID
	}
	return e.store.Get(ctx, id)
}

// ListTWAPOrders returns every stored order, newest first
func (e *Engine) ListTWAPOrders(ctx context.Context) ([]*twap.Order, error) {
	if e == nil {
		return nil, errEngineIsNil
	}
	return e.store.List(ctx)
}

// CheckTWAPFills fetches the current fills for the placed slices of an order
// and stores them
func (e *Engine) CheckTWAPFills(ctx context.Context, id string) ([]exchange.Fill, error) {
	o, err := e.GetTWAPOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.reconciler.Reconcile(ctx, o)
}

// TWAPStatistics summarises the stored fills of an order. Fills are fetched
// when none have been stored yet.
func (e *Engine) TWAPStatistics(ctx context.Context, id string) (*twap.Statistics, error) {
	o, err := e.GetTWAPOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	fills, err := e.store.GetFills(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(fills) == 0 && len(o.Orders) > 0 {
		fills, err = e.reconciler.Reconcile(ctx, o)
		if err != nil {
			return nil, err
		}
	}
	return twap.CalculateStatistics(o, fills), nil
}

// DeleteTWAPOrder removes a finished order and its fills
func (e *Engine) DeleteTWAPOrder(ctx context.Context, id string) error {
	o, err := e.GetTWAPOrder(ctx, id)
	if err != nil {
		return err
	}
	if !o.Status.IsTerminal() {
		return fmt.Errorf("%w: %s is %s", errOrderStillActive, id, o.Status)
	}
	if err := e.store.Delete(ctx, id); err != nil {
		return err
	}
	log.Infof(log.TWAP, "TWAP %s deleted", id)
	return nil
}
