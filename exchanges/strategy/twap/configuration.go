package twap

import (
	"fmt"
	"time"

	exchange "github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges/order"
	"github.com/shopspring/decimal"
)

const (
	minimumSizeResponse = "reduce the number of slices or increase the total size"
	maximumSizeResponse = "increase the number of slices or decrease the total size"

	// defaultPrecision is used to truncate slice sizes when the product base
	// increment is unknown
	defaultPrecision = 16
)

// Check validates all parameter fields before any slice is planned
func (p *Params) Check() error {
	if p == nil {
		return fmt.Errorf("%w: params are nil", ErrInvalidParameters)
	}
	if p.Pair.IsEmpty() {
		return fmt.Errorf("%w: market is empty", ErrInvalidParameters)
	}
	if p.Side != order.Buy && p.Side != order.Sell {
		return fmt.Errorf("%w: side %q", ErrInvalidParameters, p.Side)
	}
	if !p.TotalSize.IsPositive() {
		return fmt.Errorf("%w: total size %s must be greater than zero", ErrInvalidParameters, p.TotalSize)
	}
	if p.NumSlices < 1 {
		return fmt.Errorf("%w: number of slices %d must be at least one", ErrInvalidParameters, p.NumSlices)
	}
	if p.Duration < 0 {
		return fmt.Errorf("%w: duration %s cannot be negative", ErrInvalidParameters, p.Duration)
	}
	if _, err := StringToPriceType(string(p.PriceType)); err != nil {
		return err
	}
	if p.LimitPrice.Valid && !p.LimitPrice.Decimal.IsPositive() {
		return fmt.Errorf("%w: limit price %s must be greater than zero", ErrInvalidParameters, p.LimitPrice.Decimal)
	}
	if p.PriceType == PriceLimit && !p.LimitPrice.Valid {
		return fmt.Errorf("%w: limit price required for price type %s", ErrInvalidParameters, PriceLimit)
	}
	return nil
}

// CheckLimits applies operator configured bounds
func (p *Params) CheckLimits(l Limits) error {
	if l.MaxSlices > 0 && p.NumSlices > l.MaxSlices {
		return fmt.Errorf("%w: number of slices %d exceeds maximum %d", ErrInvalidParameters, p.NumSlices, l.MaxSlices)
	}
	if l.MinDuration > 0 && p.Duration < l.MinDuration {
		return fmt.Errorf("%w: duration %s below minimum %s", ErrInvalidParameters, p.Duration, l.MinDuration)
	}
	if l.MaxDuration > 0 && p.Duration > l.MaxDuration {
		return fmt.Errorf("%w: duration %s exceeds maximum %s", ErrInvalidParameters, p.Duration, l.MaxDuration)
	}
	return nil
}

// Plan splits the total size into equal slices. Sizes are truncated to the
// product base increment when product details are supplied and the final
// slice absorbs the remainder so the slices sum exactly to the total size.
// With product details the total size must be a multiple of the base
// increment and a limit price a multiple of the quote increment, otherwise
// the final slice or every slice would be refused by the exchange.
func Plan(p *Params, product *exchange.ProductDetail) (*Schedule, error) {
	if err := p.Check(); err != nil {
		return nil, err
	}

	if product != nil {
		if product.BaseIncrement.IsPositive() && !p.TotalSize.Mod(product.BaseIncrement).IsZero() {
			return nil, fmt.Errorf("%w: total size %s is not a multiple of base increment %s",
				ErrInvalidParameters, p.TotalSize, product.BaseIncrement)
		}
		if p.LimitPrice.Valid && product.QuoteIncrement.IsPositive() &&
			!p.LimitPrice.Decimal.Mod(product.QuoteIncrement).IsZero() {
			return nil, fmt.Errorf("%w: limit price %s is not a multiple of quote increment %s",
				ErrInvalidParameters, p.LimitPrice.Decimal, product.QuoteIncrement)
		}
	}

	n := decimal.NewFromInt(int64(p.NumSlices))
	size := p.TotalSize.DivRound(n, 2*defaultPrecision)
	if product != nil && product.BaseIncrement.IsPositive() {
		size = size.DivRound(product.BaseIncrement, 2*defaultPrecision).Floor().Mul(product.BaseIncrement)
	} else {
		size = size.Truncate(defaultPrecision)
	}
	if !size.IsPositive() {
		return nil, fmt.Errorf("%w: slice size rounds to zero; %s", ErrInvalidParameters, minimumSizeResponse)
	}
	last := p.TotalSize.Sub(size.Mul(n.Sub(decimal.NewFromInt(1))))

	if product != nil {
		if product.BaseMinSize.IsPositive() && size.LessThan(product.BaseMinSize) {
			return nil, fmt.Errorf("%w: slice size %s under exchange minimum %s; %s",
				ErrInvalidParameters, size, product.BaseMinSize, minimumSizeResponse)
		}
		if product.BaseMaxSize.IsPositive() && last.GreaterThan(product.BaseMaxSize) {
			return nil, fmt.Errorf("%w: slice size %s over exchange maximum %s; %s",
				ErrInvalidParameters, last, product.BaseMaxSize, maximumSizeResponse)
		}
	}

	var interval time.Duration
	if p.NumSlices > 1 {
		interval = p.Duration / time.Duration(p.NumSlices)
	}

	slices := make([]Slice, p.NumSlices)
	for i := range slices {
		slices[i] = Slice{Index: i, Size: size, Interval: interval}
	}
	slices[len(slices)-1].Size = last
	slices[len(slices)-1].Interval = 0

	return &Schedule{
		Slices:   slices,
		Interval: interval,
		Product:  product,
	}, nil
}

// Total returns the summed size of every planned slice
func (s *Schedule) Total() decimal.Decimal {
	total := decimal.Zero
	for i := range s.Slices {
		total = total.Add(s.Slices[i].Size)
	}
	return total
}
