package exchange

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrTransport is returned when the exchange could not be reached or
	// answered with an unexpected payload
	ErrTransport = errors.New("exchange transport failure")
	// ErrProductNotFound is returned when a product identifier is unknown
	ErrProductNotFound = errors.New("product not found")
	// ErrNoLiquidity is returned when a book side is empty
	ErrNoLiquidity = errors.New("order book has no liquidity")
)

// Account is a normalised balance for one currency
type Account struct {
	Currency  string          `json:"currency"`
	Available decimal.Decimal `json:"available"`
	Hold      decimal.Decimal `json:"hold"`
}

// Total returns the available plus held balance
func (a Account) Total() decimal.Decimal {
	return a.Available.Add(a.Hold)
}

// ProductPrice is the last traded price for a product
type ProductPrice struct {
	ProductID string          `json:"product_id"`
	Price     decimal.Decimal `json:"price"`
}

// ProductDetail holds the size and price constraints of a product
type ProductDetail struct {
	ProductID      string          `json:"product_id"`
	BaseIncrement  decimal.Decimal `json:"base_increment"`
	QuoteIncrement decimal.Decimal `json:"quote_increment"`
	BaseMinSize    decimal.Decimal `json:"base_min_size"`
	BaseMaxSize    decimal.Decimal `json:"base_max_size"`
}

// BookTop is the best bid and ask of an order book snapshot
type BookTop struct {
	ProductID string
	Bid       decimal.Decimal
	Ask       decimal.Decimal
	Time      time.Time
}

// Mid returns the mid price, (bid+ask)/2
func (b *BookTop) Mid() decimal.Decimal {
	return b.Bid.Add(b.Ask).Div(decimal.NewFromInt(2))
}

// Liquidity is the maker or taker indicator of a fill
type Liquidity string

// Liquidity indicators
const (
	Maker Liquidity = "MAKER"
	Taker Liquidity = "TAKER"
)

// Fill is a single execution against an order
type Fill struct {
	OrderID   string          `json:"order_id"`
	TradeID   string          `json:"trade_id"`
	ProductID string          `json:"product_id"`
	Size      decimal.Decimal `json:"size"`
	Price     decimal.Decimal `json:"price"`
	Fee       decimal.Decimal `json:"fee"`
	Liquidity Liquidity       `json:"liquidity"`
	TradeTime time.Time       `json:"trade_time"`
	// FeeReported is set when the exchange supplied the fee, including zero
	FeeReported bool `json:"-"`
}

// FeeTier is the maker and taker fee rate of the account
type FeeTier struct {
	Tier      string          `json:"tier"`
	MakerRate decimal.Decimal `json:"maker_fee_rate"`
	TakerRate decimal.Decimal `json:"taker_fee_rate"`
}

// Rate returns the fee rate for the liquidity indicator, taker when unknown
func (f *FeeTier) Rate(l Liquidity) decimal.Decimal {
	if l == Maker {
		return f.MakerRate
	}
	return f.TakerRate
}
