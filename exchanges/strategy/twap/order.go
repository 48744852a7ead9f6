package twap

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

// NewOrder validates the parameters and returns a pending order with a fresh
// identifier
func NewOrder(p *Params, now time.Time) (*Order, error) {
	if err := p.Check(); err != nil {
		return nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	return &Order{
		ID:           id.String(),
		Params:       *p,
		Orders:       []PlacedSlice{},
		FailedSlices: []FailedSlice{},
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// StringToPriceType converts a case insensitive string to a PriceType
func StringToPriceType(s string) (PriceType, error) {
	switch pt := PriceType(strings.ToLower(strings.TrimSpace(s))); pt {
	case PriceLimit, PriceBid, PriceAsk, PriceMid:
		return pt, nil
	default:
		return "", fmt.Errorf("%w: unknown price type %q", ErrInvalidParameters, s)
	}
}

// IsTerminal returns true once no further slices will be attempted
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Clone returns a deep copy of the order
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	cpy := *o
	cpy.Orders = make([]PlacedSlice, len(o.Orders))
	copy(cpy.Orders, o.Orders)
	cpy.FailedSlices = make([]FailedSlice, len(o.FailedSlices))
	copy(cpy.FailedSlices, o.FailedSlices)
	return &cpy
}

// Attempted returns the number of slices attempted so far
func (o *Order) Attempted() int {
	return len(o.Orders) + len(o.FailedSlices)
}

// PlacedSize returns the summed size of all placed slices
func (o *Order) PlacedSize() decimal.Decimal {
	total := decimal.Zero
	for i := range o.Orders {
		total = total.Add(o.Orders[i].Size)
	}
	return total
}

// OrderIDs returns the exchange order identifiers of placed slices in
// placement order
func (o *Order) OrderIDs() []string {
	ids := make([]string, len(o.Orders))
	for i := range o.Orders {
		ids[i] = o.Orders[i].OrderID
	}
	return ids
}

// String returns a short description of the order
func (o *Order) String() string {
	desc := fmt.Sprintf("%s %s %s in %d slices over %s priced at %s",
		o.Side,
		o.TotalSize,
		o.Pair.ProductID(),
		o.NumSlices,
		o.Duration,
		o.PriceType)
	if o.LimitPrice.Valid {
		desc += " limit " + o.LimitPrice.Decimal.String()
	}
	return desc
}

func (o *Order) place(sl *Slice, orderID string, price decimal.Decimal, now time.Time) {
	o.Orders = append(o.Orders, PlacedSlice{
		SliceIndex: sl.Index,
		OrderID:    orderID,
		Size:       sl.Size,
		Price:      price,
		Time:       now,
	})
	o.UpdatedAt = now
}

func (o *Order) fail(sl *Slice, reason FailureReason, detail string, now time.Time) {
	o.FailedSlices = append(o.FailedSlices, FailedSlice{
		SliceIndex: sl.Index,
		Reason:     reason,
		Detail:     detail,
		Size:       sl.Size,
		Time:       now,
	})
	o.UpdatedAt = now
}

// finalise sets the terminal status once the schedule is exhausted
func (o *Order) finalise(now time.Time) {
	if len(o.Orders) > 0 {
		o.Status = StatusCompleted
	} else {
		o.Status = StatusFailed
	}
	o.UpdatedAt = now
	o.FinishedAt = now
}

func (o *Order) cancel(now time.Time) {
	o.Status = StatusCancelled
	o.UpdatedAt = now
	o.FinishedAt = now
}
