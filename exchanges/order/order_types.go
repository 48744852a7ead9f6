package order

import (
	"errors"
	"time"

	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/currency"
	"github.com/shopspring/decimal"
)

// var error definitions
var (
	ErrSubmissionIsNil            = errors.New("order submission is nil")
	ErrPairIsEmpty                = errors.New("order pair is empty")
	ErrSideIsInvalid              = errors.New("order side is invalid")
	ErrTypeIsInvalid              = errors.New("order type is invalid")
	ErrAmountIsInvalid            = errors.New("order amount is equal or less than zero")
	ErrPriceMustBeSetIfLimitOrder = errors.New("order price must be set if limit order type is desired")
	ErrClientOrderIDMustBeSet     = errors.New("client order ID must be set")
)

// Side enforces a standard for order sides across the code base
type Side string

// Order side types
const (
	UnknownSide Side = "UNKNOWN"
	Buy         Side = "BUY"
	Sell        Side = "SELL"
)

// Type enforces a standard for order types across the code base
type Type string

// Defined package order types
const (
	UnknownType Type = "UNKNOWN"
	Limit       Type = "LIMIT"
	Market      Type = "MARKET"
)

// Submit contains all properties of an order that may be required for an
// order to be created on an exchange
type Submit struct {
	Pair          currency.Pair
	Side          Side
	Type          Type
	TimeInForce   TimeInForce
	Amount        decimal.Decimal
	Price         decimal.Decimal
	ClientOrderID string
}

// SubmitResponse is what is returned after submitting an order to an exchange
type SubmitResponse struct {
	Success       bool
	OrderID       string
	ClientOrderID string
	// FailureReason is set by the exchange when Success is false
	FailureReason string
	Date          time.Time
}
