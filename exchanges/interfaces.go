package exchange

import (
	"context"

	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges/order"
)

// AccountsFetcher returns every account balance held on the exchange keyed by
// upper case currency code
type AccountsFetcher interface {
	GetAccounts(ctx context.Context) (map[string]Account, error)
}

// ProductsFetcher returns last prices for the requested product identifiers
// in a single round trip. Unknown identifiers are omitted from the result.
type ProductsFetcher interface {
	GetProducts(ctx context.Context, productIDs ...string) ([]ProductPrice, error)
}

// ProductDetailFetcher returns trading limits for a product
type ProductDetailFetcher interface {
	GetProduct(ctx context.Context, productID string) (*ProductDetail, error)
}

// OrderBookFetcher returns the top of the book for a product
type OrderBookFetcher interface {
	BestBidAsk(ctx context.Context, productID string) (*BookTop, error)
}

// OrderSubmitter places good till cancelled limit orders
type OrderSubmitter interface {
	PlaceLimitOrderGTC(ctx context.Context, s *order.Submit) (*order.SubmitResponse, error)
}

// FillsFetcher returns executions for a batch of exchange order identifiers
type FillsFetcher interface {
	GetFills(ctx context.Context, orderIDs ...string) ([]Fill, error)
}

// FeeTierFetcher returns the account fee tier
type FeeTierFetcher interface {
	GetTransactionSummary(ctx context.Context) (*FeeTier, error)
}

// IBotExchange enforces the functions the terminal needs from an exchange
type IBotExchange interface {
	GetName() string
	AccountsFetcher
	ProductsFetcher
	ProductDetailFetcher
	OrderBookFetcher
	OrderSubmitter
	FillsFetcher
	FeeTierFetcher
}
