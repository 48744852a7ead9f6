package twap

import (
	"context"
	"fmt"

	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/currency"
	exchange "github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges"
	"github.com/shopspring/decimal"
)

// PriceOracle resolves the price of each slice. Book prices are fetched fresh
// for every call.
type PriceOracle struct {
	book           exchange.OrderBookFetcher
	limit          decimal.NullDecimal
	quoteIncrement decimal.Decimal
}

// NewPriceOracle returns a PriceOracle. The quote increment may be zero when
// the product is unknown, in which case prices are not rounded.
func NewPriceOracle(book exchange.OrderBookFetcher, limit decimal.NullDecimal, quoteIncrement decimal.Decimal) *PriceOracle {
	return &PriceOracle{book: book, limit: limit, quoteIncrement: quoteIncrement}
}

// ResolvePrice returns the price for the next slice
func (p *PriceOracle) ResolvePrice(ctx context.Context, pt PriceType, pair currency.Pair) (decimal.Decimal, error) {
	if pt == PriceLimit {
		if !p.limit.Valid {
			return decimal.Zero, fmt.Errorf("%w: no limit price set", ErrPriceUnavailable)
		}
		// used as given, Plan rejects a limit off the quote increment
		return p.limit.Decimal, nil
	}
	if p.book == nil {
		return decimal.Zero, fmt.Errorf("%w: %w", ErrPriceUnavailable, errExchangeIsNil)
	}

	top, err := p.book.BestBidAsk(ctx, pair.ProductID())
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %w", ErrPriceUnavailable, err)
	}
	if top == nil {
		return decimal.Zero, fmt.Errorf("%w: empty book for %s", ErrPriceUnavailable, pair.ProductID())
	}

	var price decimal.Decimal
	switch pt {
	case PriceBid:
		price = top.Bid
	case PriceAsk:
		price = top.Ask
	case PriceMid:
		if !top.Bid.IsPositive() || !top.Ask.IsPositive() {
			return decimal.Zero, fmt.Errorf("%w: one sided book for %s", ErrPriceUnavailable, pair.ProductID())
		}
		price = top.Mid()
	default:
		return decimal.Zero, fmt.Errorf("%w: unknown price type %q", ErrPriceUnavailable, pt)
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: no %s for %s", ErrPriceUnavailable, pt, pair.ProductID())
	}
	return p.round(price), nil
}

func (p *PriceOracle) round(price decimal.Decimal) decimal.Decimal {
	if !p.quoteIncrement.IsPositive() {
		return price
	}
	return price.Div(p.quoteIncrement).Round(0).Mul(p.quoteIncrement)
}

// isFavourable checks a market derived price against the optional limit. A
// buy must not pay more than the limit and a sell must not receive less.
func isFavourable(o *Order, price decimal.Decimal) bool {
	if !o.LimitPrice.Valid || o.PriceType == PriceLimit {
		return true
	}
	if o.Side.IsBuy() {
		return price.LessThanOrEqual(o.LimitPrice.Decimal)
	}
	return price.GreaterThanOrEqual(o.LimitPrice.Decimal)
}
