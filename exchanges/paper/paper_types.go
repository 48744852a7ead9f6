package paper

import (
	"errors"
	"sync"
	"time"

	exchange "github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges/order"
	"github.com/shopspring/decimal"
)

const exchangeName = "Paper"

// rejection reasons mirror the brokerage error codes
const (
	rejectInsufficientFund = "INSUFFICIENT_FUND"
	rejectUnknownProduct   = "UNKNOWN_PRODUCT"
	rejectDuplicateClient  = "DUPLICATE_CLIENT_ORDER_ID"
	rejectBelowMinSize     = "ORDER_SIZE_BELOW_MINIMUM"
)

var errNoProductIDs = errors.New("no product ids supplied")

// Exchange is an in memory exchange that fills every accepted limit order
// immediately at its limit price
type Exchange struct {
	mu       sync.Mutex
	name     string
	now      func() time.Time
	spread   decimal.Decimal
	fees     exchange.FeeTier
	accounts map[string]exchange.Account
	products map[string]*product
	orders   map[string]*order.Submit
	clientID map[string]string
	fills    map[string][]exchange.Fill
	orderSeq int
	tradeSeq int
}

type product struct {
	detail exchange.ProductDetail
	price  decimal.Decimal
}

// Option configures the paper exchange
type Option func(*Exchange)
