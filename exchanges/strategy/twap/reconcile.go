package twap

import (
	"context"
	"fmt"
	"sort"

	exchange "github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/log"
	"github.com/shopspring/decimal"
)

// FillStore stores the fills of a TWAP order
type FillStore interface {
	SaveFills(ctx context.Context, id string, fills []exchange.Fill) error
}

// Reconciler fetches fills for placed slices. Fills are informational and
// never change the order status or failed slices.
type Reconciler struct {
	fills exchange.FillsFetcher
	fees  *FeeSchedule
	store FillStore
}

// NewReconciler returns a Reconciler, store may be nil
func NewReconciler(fills exchange.FillsFetcher, fees *FeeSchedule, store FillStore) *Reconciler {
	return &Reconciler{fills: fills, fees: fees, store: store}
}

// Reconcile fetches every fill for the placed slices in one batched call,
// estimates fees the exchange left out from the fee tier and stores the result
func (r *Reconciler) Reconcile(ctx context.Context, o *Order) ([]exchange.Fill, error) {
	if o == nil {
		return nil, errOrderIsNil
	}
	if r == nil || r.fills == nil {
		return nil, errExchangeIsNil
	}
	ids := o.OrderIDs()
	if len(ids) == 0 {
		return []exchange.Fill{}, nil
	}

	fills, err := r.fills.GetFills(ctx, ids...)
	if err != nil {
		return nil, fmt.Errorf("fetching fills for TWAP %s: %w", o.ID, err)
	}

	placed := make(map[string]struct{}, len(ids))
	for i := range ids {
		placed[ids[i]] = struct{}{}
	}
	var tier *exchange.FeeTier
	out := make([]exchange.Fill, 0, len(fills))
	for i := range fills {
		if _, ok := placed[fills[i].OrderID]; !ok {
			continue
		}
		if !fills[i].FeeReported && fills[i].Fee.IsZero() && r.fees != nil {
			if tier == nil {
				t := r.fees.Tier(ctx)
				tier = &t
			}
			fills[i].Fee = fills[i].Size.Mul(fills[i].Price).Mul(tier.Rate(fills[i].Liquidity))
		}
		out = append(out, fills[i])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TradeTime.Before(out[j].TradeTime) })

	if r.store != nil {
		if err := r.store.SaveFills(ctx, o.ID, out); err != nil {
			return out, fmt.Errorf("%w: fills for TWAP %s: %w", ErrPersistence, o.ID, err)
		}
	}
	log.Infof(log.TWAP, "TWAP %s reconciled %d fills across %d orders", o.ID, len(out), len(ids))
	return out, nil
}

// CalculateStatistics summarises fills against the order target
func CalculateStatistics(o *Order, fills []exchange.Fill) *Statistics {
	s := &Statistics{
		TWAPID:         o.ID,
		TargetSize:     o.TotalSize,
		TotalFilled:    decimal.Zero,
		TotalValue:     decimal.Zero,
		TotalFees:      decimal.Zero,
		VWAP:           decimal.Zero,
		CompletionRate: decimal.Zero,
		NumFills:       len(fills),
		PlacedSlices:   len(o.Orders),
		FailedSlices:   len(o.FailedSlices),
	}
	for i := range fills {
		s.TotalFilled = s.TotalFilled.Add(fills[i].Size)
		s.TotalValue = s.TotalValue.Add(fills[i].Size.Mul(fills[i].Price))
		s.TotalFees = s.TotalFees.Add(fills[i].Fee)
		switch fills[i].Liquidity {
		case exchange.Maker:
			s.MakerFills++
		case exchange.Taker:
			s.TakerFills++
		}
		if t := fills[i].TradeTime; !t.IsZero() {
			if s.FirstFill.IsZero() || t.Before(s.FirstFill) {
				s.FirstFill = t
			}
			if t.After(s.LastFill) {
				s.LastFill = t
			}
		}
	}
	if s.TotalFilled.IsPositive() {
		s.VWAP = s.TotalValue.Div(s.TotalFilled)
	}
	if o.TotalSize.IsPositive() {
		s.CompletionRate = s.TotalFilled.Div(o.TotalSize).Mul(decimal.NewFromInt(100))
	}
	return s
}
