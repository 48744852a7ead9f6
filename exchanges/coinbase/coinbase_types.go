package coinbase

import (
	"errors"
	"time"

	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges/request"
)

const (
	// DefaultAPIURL is the Advanced Trade brokerage endpoint
	DefaultAPIURL = "https://api.coinbase.com/api/v3/brokerage"

	exchangeName = "Coinbase"

	coinbaseAccounts           = "accounts"
	coinbaseProducts           = "products"
	coinbaseBestBidAsk         = "best_bid_ask"
	coinbaseOrders             = "orders"
	coinbaseFills              = "orders/historical/fills"
	coinbaseTransactionSummary = "transaction_summary"

	accountsPageLimit = 250

	// private endpoints allow 30 requests a second
	coinbaseRateInterval = time.Second
	coinbaseRateActions  = 30
)

var (
	errInvalidAPIURL  = errors.New("invalid api url")
	errNoProductIDs   = errors.New("no product ids supplied")
	errNoOrderIDs     = errors.New("no order ids supplied")
	errPricebookEmpty = errors.New("no pricebook returned")
)

// Config holds the settings used to build an Exchange
type Config struct {
	APIURL      string
	APIToken    string
	HTTPTimeout time.Duration
	Verbose     bool
}

// Exchange is the Coinbase Advanced Trade REST client
type Exchange struct {
	Name      string
	Verbose   bool
	apiURL    string
	apiToken  string
	requester *request.Requester
}

// limitGTC is the order_configuration body of a GTC limit order
type limitGTC struct {
	BaseSize   string `json:"base_size"`
	LimitPrice string `json:"limit_price"`
	PostOnly   bool   `json:"post_only"`
}

type orderConfiguration struct {
	LimitGTC limitGTC `json:"limit_limit_gtc"`
}

type createOrderRequest struct {
	ClientOrderID      string             `json:"client_order_id"`
	ProductID          string             `json:"product_id"`
	Side               string             `json:"side"`
	OrderConfiguration orderConfiguration `json:"order_configuration"`
}
