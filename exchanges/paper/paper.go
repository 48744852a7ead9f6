package paper

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/currency"
	exchange "github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges/order"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/log"
	"github.com/shopspring/decimal"
)

// WithClock sets the clock used to stamp fills
func WithClock(now func() time.Time) Option {
	return func(e *Exchange) {
		e.now = now
	}
}

// WithSpread sets the absolute distance of the bid and ask from the last
// price
func WithSpread(spread decimal.Decimal) Option {
	return func(e *Exchange) {
		e.spread = spread
	}
}

// New returns an empty paper exchange
func New(opts ...Option) *Exchange {
	e := &Exchange{
		name:   exchangeName,
		now:    time.Now,
		spread: decimal.NewFromInt(5),
		fees: exchange.FeeTier{
			Tier:      "Paper",
			MakerRate: decimal.RequireFromString("0.004"),
			TakerRate: decimal.RequireFromString("0.006"),
		},
		accounts: make(map[string]exchange.Account),
		products: make(map[string]*product),
		orders:   make(map[string]*order.Submit),
		clientID: make(map[string]string),
		fills:    make(map[string][]exchange.Fill),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// NewDefault returns a paper exchange seeded with balances and the major
// USD products
func NewDefault(opts ...Option) *Exchange {
	e := New(opts...)
	e.SetBalance(currency.USD, decimal.NewFromInt(100000))
	e.SetBalance(currency.USDC, decimal.NewFromInt(50000))
	e.SetBalance(currency.BTC, decimal.NewFromInt(1))
	e.SetBalance(currency.ETH, decimal.NewFromInt(10))
	for _, p := range []struct {
		id, price, minSize, maxSize, baseIncrement string
	}{
		{"BTC-USD", "50000", "0.0001", "10000", "0.00000001"},
		{"BTC-USDC", "50000", "0.0001", "10000", "0.00000001"},
		{"ETH-USD", "3000", "0.001", "10000", "0.00000001"},
		{"SOL-USD", "100", "0.01", "100000", "0.0001"},
	} {
		e.AddProduct(exchange.ProductDetail{
			ProductID:      p.id,
			BaseIncrement:  decimal.RequireFromString(p.baseIncrement),
			QuoteIncrement: decimal.RequireFromString("0.01"),
			BaseMinSize:    decimal.RequireFromString(p.minSize),
			BaseMaxSize:    decimal.RequireFromString(p.maxSize),
		}, decimal.RequireFromString(p.price))
	}
	return e
}

// SetBalance sets the available balance of a currency
func (e *Exchange) SetBalance(c currency.Code, available decimal.Decimal) {
	e.mu.Lock()
	defer e.mu.Unlock()
	a := e.accounts[c.String()]
	a.Currency = c.String()
	a.Available = available
	e.accounts[c.String()] = a
}

// AddProduct adds or replaces a tradable product
func (e *Exchange) AddProduct(d exchange.ProductDetail, price decimal.Decimal) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.products[d.ProductID] = &product{detail: d, price: price}
}

// SetPrice moves the last price of an existing product
func (e *Exchange) SetPrice(productID string, price decimal.Decimal) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.products[productID]
	if !ok {
		return fmt.Errorf("%w: %s", exchange.ErrProductNotFound, productID)
	}
	p.price = price
	return nil
}

// OrderCount returns how many orders were accepted
func (e *Exchange) OrderCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.orders)
}

// GetName returns the exchange name
func (e *Exchange) GetName() string {
	return e.name
}

// GetAccounts returns a copy of every balance
func (e *Exchange) GetAccounts(_ context.Context) (map[string]exchange.Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	resp := make(map[string]exchange.Account, len(e.accounts))
	for k, v := range e.accounts {
		resp[k] = v
	}
	return resp, nil
}

// GetProducts returns last prices for the known products requested
func (e *Exchange) GetProducts(_ context.Context, productIDs ...string) ([]exchange.ProductPrice, error) {
	if len(productIDs) == 0 {
		return nil, errNoProductIDs
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	resp := make([]exchange.ProductPrice, 0, len(productIDs))
	for _, id := range productIDs {
		if p, ok := e.products[id]; ok {
			resp = append(resp, exchange.ProductPrice{ProductID: id, Price: p.price})
		}
	}
	return resp, nil
}

// GetProduct returns the product limits
func (e *Exchange) GetProduct(_ context.Context, productID string) (*exchange.ProductDetail, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.products[productID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", exchange.ErrProductNotFound, productID)
	}
	d := p.detail
	return &d, nil
}

// BestBidAsk returns a book around the last price
func (e *Exchange) BestBidAsk(_ context.Context, productID string) (*exchange.BookTop, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.products[productID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", exchange.ErrProductNotFound, productID)
	}
	bid := p.price.Sub(e.spread)
	if !bid.IsPositive() {
		return nil, fmt.Errorf("%w: %s bids", exchange.ErrNoLiquidity, productID)
	}
	return &exchange.BookTop{
		ProductID: productID,
		Bid:       bid,
		Ask:       p.price.Add(e.spread),
		Time:      e.now(),
	}, nil
}

// PlaceLimitOrderGTC fills the order in full at its limit price, a maker
// fill when resting on the passive side and a taker fill when crossing
func (e *Exchange) PlaceLimitOrderGTC(_ context.Context, s *order.Submit) (*order.SubmitResponse, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	resp := &order.SubmitResponse{ClientOrderID: s.ClientOrderID, Date: now}
	p, ok := e.products[s.Pair.ProductID()]
	switch {
	case !ok:
		resp.FailureReason = rejectUnknownProduct
		return resp, nil
	case e.clientID[s.ClientOrderID] != "":
		resp.FailureReason = rejectDuplicateClient
		return resp, nil
	case p.detail.BaseMinSize.IsPositive() && s.Amount.LessThan(p.detail.BaseMinSize):
		resp.FailureReason = rejectBelowMinSize
		return resp, nil
	}

	liquidity := exchange.Maker
	if (s.Side == order.Buy && s.Price.GreaterThanOrEqual(p.price.Add(e.spread))) ||
		(s.Side == order.Sell && s.Price.LessThanOrEqual(p.price.Sub(e.spread))) {
		liquidity = exchange.Taker
	}
	notional := s.Amount.Mul(s.Price)
	fee := notional.Mul(e.fees.Rate(liquidity))

	base := s.Pair.Base.String()
	quote := s.Pair.Quote.String()
	if s.Side == order.Buy {
		cost := notional.Add(fee)
		if e.accounts[quote].Available.LessThan(cost) {
			resp.FailureReason = rejectInsufficientFund
			return resp, nil
		}
		e.adjust(quote, cost.Neg())
		e.adjust(base, s.Amount)
	} else {
		if e.accounts[base].Available.LessThan(s.Amount) {
			resp.FailureReason = rejectInsufficientFund
			return resp, nil
		}
		e.adjust(base, s.Amount.Neg())
		e.adjust(quote, notional.Sub(fee))
	}

	e.orderSeq++
	e.tradeSeq++
	id := "paper-order-" + strconv.Itoa(e.orderSeq)
	cpy := *s
	e.orders[id] = &cpy
	e.clientID[s.ClientOrderID] = id
	e.fills[id] = append(e.fills[id], exchange.Fill{
		OrderID:     id,
		TradeID:     "paper-trade-" + strconv.Itoa(e.tradeSeq),
		ProductID:   s.Pair.ProductID(),
		Size:        s.Amount,
		Price:       s.Price,
		Fee:         fee,
		Liquidity:   liquidity,
		TradeTime:   now,
		FeeReported: true,
	})
	log.Debugf(log.ExchangeSys, "%s filled %s %s %s @ %s (%s)", e.name, id, s.Side, s.Amount, s.Price, liquidity)

	resp.Success = true
	resp.OrderID = id
	return resp, nil
}

func (e *Exchange) adjust(code string, delta decimal.Decimal) {
	a := e.accounts[code]
	a.Currency = code
	a.Available = a.Available.Add(delta)
	e.accounts[code] = a
}

// GetFills returns the fills of the supplied orders ordered by trade time
func (e *Exchange) GetFills(_ context.Context, orderIDs ...string) ([]exchange.Fill, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var resp []exchange.Fill
	for _, id := range orderIDs {
		resp = append(resp, e.fills[id]...)
	}
	sort.SliceStable(resp, func(i, j int) bool { return resp[i].TradeTime.Before(resp[j].TradeTime) })
	return resp, nil
}

// GetTransactionSummary returns the static paper fee tier
func (e *Exchange) GetTransactionSummary(_ context.Context) (*exchange.FeeTier, error) {
	tier := e.fees
	return &tier, nil
}
