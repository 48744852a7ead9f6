package coinbase

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/currency"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/encoding/json"
	exchange "github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges/order"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges/request"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/log"
	"github.com/buger/jsonparser"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// New returns a Coinbase client for the supplied config
func New(cfg *Config) (*Exchange, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	apiURL := strings.TrimRight(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if _, err := url.ParseRequestURI(apiURL); err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidAPIURL, err)
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = request.DefaultTimeout
	}
	if cfg.APIToken == "" {
		log.Warnf(log.ExchangeSys, "%s API token not set, authenticated endpoints will be rejected", exchangeName)
	}
	return &Exchange{
		Name:     exchangeName,
		Verbose:  cfg.Verbose,
		apiURL:   apiURL,
		apiToken: cfg.APIToken,
		requester: request.New(exchangeName,
			&http.Client{Timeout: timeout},
			request.WithLimiter(request.NewRateLimit(coinbaseRateInterval, coinbaseRateActions)),
			request.WithUserAgent("twap-terminal")),
	}, nil
}

// GetName returns the exchange name
func (c *Exchange) GetName() string {
	return c.Name
}

// GetAccounts returns every account balance keyed by currency, following the
// pagination cursor until exhausted
func (c *Exchange) GetAccounts(ctx context.Context) (map[string]exchange.Account, error) {
	accounts := make(map[string]exchange.Account)
	var cursor string
	for {
		params := url.Values{}
		params.Set("limit", fmt.Sprint(accountsPageLimit))
		if cursor != "" {
			params.Set("cursor", cursor)
		}
		resp, err := c.SendHTTPRequest(ctx, http.MethodGet, coinbaseAccounts, params, nil)
		if err != nil {
			return nil, err
		}
		var decodeErr error
		_, err = jsonparser.ArrayEach(resp, func(value []byte, _ jsonparser.ValueType, _ int, _ error) {
			if decodeErr != nil {
				return
			}
			var a exchange.Account
			a, decodeErr = parseAccount(value)
			if decodeErr != nil || a.Currency == "" {
				return
			}
			if existing, ok := accounts[a.Currency]; ok {
				a.Available = a.Available.Add(existing.Available)
				a.Hold = a.Hold.Add(existing.Hold)
			}
			accounts[a.Currency] = a
		}, "accounts")
		if err != nil {
			return nil, decodeError(coinbaseAccounts, err)
		}
		if decodeErr != nil {
			return nil, decodeError(coinbaseAccounts, decodeErr)
		}
		hasNext, _ := jsonparser.GetBoolean(resp, "has_next")
		cursor, _ = jsonparser.GetString(resp, "cursor")
		if !hasNext || cursor == "" {
			return accounts, nil
		}
	}
}

func parseAccount(value []byte) (exchange.Account, error) {
	code, err := jsonparser.GetString(value, "currency")
	if err != nil {
		return exchange.Account{}, err
	}
	available, err := getDecimal(value, "available_balance", "value")
	if err != nil {
		return exchange.Account{}, err
	}
	hold, err := getDecimal(value, "hold", "value")
	if err != nil && !errors.Is(err, jsonparser.KeyPathNotFoundError) {
		return exchange.Account{}, err
	}
	return exchange.Account{
		Currency:  currency.NewCode(code).String(),
		Available: available,
		Hold:      hold,
	}, nil
}

// GetProducts returns last prices for the requested products in one request
func (c *Exchange) GetProducts(ctx context.Context, productIDs ...string) ([]exchange.ProductPrice, error) {
	if len(productIDs) == 0 {
		return nil, errNoProductIDs
	}
	params := url.Values{}
	for i := range productIDs {
		params.Add("product_ids", productIDs[i])
	}
	resp, err := c.SendHTTPRequest(ctx, http.MethodGet, coinbaseProducts, params, nil)
	if err != nil {
		return nil, err
	}
	wanted := make(map[string]struct{}, len(productIDs))
	for i := range productIDs {
		wanted[productIDs[i]] = struct{}{}
	}
	prices := make([]exchange.ProductPrice, 0, len(productIDs))
	var decodeErr error
	_, err = jsonparser.ArrayEach(resp, func(value []byte, _ jsonparser.ValueType, _ int, _ error) {
		if decodeErr != nil {
			return
		}
		id, err := jsonparser.GetString(value, "product_id")
		if err != nil {
			decodeErr = err
			return
		}
		if _, ok := wanted[id]; !ok {
			return
		}
		price, err := getDecimal(value, "price")
		if err != nil {
			// products without a last trade carry an empty price
			return
		}
		prices = append(prices, exchange.ProductPrice{ProductID: id, Price: price})
	}, "products")
	if err != nil {
		return nil, decodeError(coinbaseProducts, err)
	}
	if decodeErr != nil {
		return nil, decodeError(coinbaseProducts, decodeErr)
	}
	return prices, nil
}

// GetProduct returns size and price increments for a product
func (c *Exchange) GetProduct(ctx context.Context, productID string) (*exchange.ProductDetail, error) {
	resp, err := c.SendHTTPRequest(ctx, http.MethodGet, coinbaseProducts+"/"+url.PathEscape(productID), nil, nil)
	if err != nil {
		var se *request.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", exchange.ErrProductNotFound, productID)
		}
		return nil, err
	}
	d := &exchange.ProductDetail{ProductID: productID}
	for _, f := range []struct {
		key string
		dst *decimal.Decimal
	}{
		{"base_increment", &d.BaseIncrement},
		{"quote_increment", &d.QuoteIncrement},
		{"base_min_size", &d.BaseMinSize},
		{"base_max_size", &d.BaseMaxSize},
	} {
		v, err := getDecimal(resp, f.key)
		if err != nil {
			if errors.Is(err, jsonparser.KeyPathNotFoundError) {
				continue
			}
			return nil, decodeError(coinbaseProducts, err)
		}
		*f.dst = v
	}
	return d, nil
}

// BestBidAsk returns the top of book for a product
func (c *Exchange) BestBidAsk(ctx context.Context, productID string) (*exchange.BookTop, error) {
	params := url.Values{}
	params.Set("product_ids", productID)
	resp, err := c.SendHTTPRequest(ctx, http.MethodGet, coinbaseBestBidAsk, params, nil)
	if err != nil {
		return nil, err
	}
	var (
		top   *exchange.BookTop
		inner error
	)
	_, err = jsonparser.ArrayEach(resp, func(value []byte, _ jsonparser.ValueType, _ int, _ error) {
		if top != nil || inner != nil {
			return
		}
		id, _ := jsonparser.GetString(value, "product_id")
		if id != "" && id != productID {
			return
		}
		top = &exchange.BookTop{ProductID: productID}
		if top.Bid, inner = firstLevelPrice(value, "bids"); inner != nil {
			return
		}
		if top.Ask, inner = firstLevelPrice(value, "asks"); inner != nil {
			return
		}
		if ts, err := jsonparser.GetString(value, "time"); err == nil {
			top.Time, _ = time.Parse(time.RFC3339Nano, ts)
		}
	}, "pricebooks")
	if err != nil {
		return nil, decodeError(coinbaseBestBidAsk, err)
	}
	if inner != nil {
		return nil, inner
	}
	if top == nil {
		return nil, fmt.Errorf("%w: %s", errPricebookEmpty, productID)
	}
	return top, nil
}

func firstLevelPrice(book []byte, side string) (decimal.Decimal, error) {
	price, err := jsonparser.GetString(book, side, "[0]", "price")
	if err != nil {
		if errors.Is(err, jsonparser.KeyPathNotFoundError) {
			return decimal.Zero, fmt.Errorf("%w: %s", exchange.ErrNoLiquidity, side)
		}
		return decimal.Zero, decodeError(coinbaseBestBidAsk, err)
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return decimal.Zero, decodeError(coinbaseBestBidAsk, err)
	}
	return d, nil
}

// PlaceLimitOrderGTC submits a good till cancelled limit order. A rejected
// order is returned as a response with Success false, transport failures
// as errors.
func (c *Exchange) PlaceLimitOrderGTC(ctx context.Context, s *order.Submit) (*order.SubmitResponse, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	body := createOrderRequest{
		ClientOrderID: s.ClientOrderID,
		ProductID:     s.Pair.ProductID(),
		Side:          s.Side.String(),
		OrderConfiguration: orderConfiguration{
			LimitGTC: limitGTC{
				BaseSize:   s.Amount.String(),
				LimitPrice: s.Price.String(),
				PostOnly:   s.TimeInForce.Is(order.PostOnly),
			},
		},
	}
	resp, err := c.SendHTTPRequest(ctx, http.MethodPost, coinbaseOrders, nil, body)
	if err != nil {
		return nil, err
	}
	result := &order.SubmitResponse{ClientOrderID: s.ClientOrderID, Date: time.Now()}
	result.Success, err = jsonparser.GetBoolean(resp, "success")
	if err != nil {
		return nil, decodeError(coinbaseOrders, err)
	}
	if result.Success {
		result.OrderID, err = jsonparser.GetString(resp, "success_response", "order_id")
		if err != nil {
			return nil, decodeError(coinbaseOrders, err)
		}
		return result, nil
	}
	var reasons []string
	for _, path := range [][]string{
		{"failure_reason"},
		{"error_response", "error"},
		{"error_response", "message"},
		{"error_response", "preview_failure_reason"},
	} {
		if v, err := jsonparser.GetString(resp, path...); err == nil && v != "" {
			reasons = append(reasons, v)
		}
	}
	result.FailureReason = strings.Join(reasons, ": ")
	if result.FailureReason == "" {
		result.FailureReason = "unknown failure"
	}
	return result, nil
}

// GetFills returns every fill for the supplied order ids, paging through the
// cursor
func (c *Exchange) GetFills(ctx context.Context, orderIDs ...string) ([]exchange.Fill, error) {
	if len(orderIDs) == 0 {
		return nil, errNoOrderIDs
	}
	var (
		fills  []exchange.Fill
		cursor string
	)
	for {
		params := url.Values{}
		for i := range orderIDs {
			params.Add("order_ids", orderIDs[i])
		}
		if cursor != "" {
			params.Set("cursor", cursor)
		}
		resp, err := c.SendHTTPRequest(ctx, http.MethodGet, coinbaseFills, params, nil)
		if err != nil {
			return nil, err
		}
		var decodeErr error
		_, err = jsonparser.ArrayEach(resp, func(value []byte, _ jsonparser.ValueType, _ int, _ error) {
			if decodeErr != nil {
				return
			}
			var f exchange.Fill
			f, decodeErr = parseFill(value)
			if decodeErr == nil {
				fills = append(fills, f)
			}
		}, "fills")
		if err != nil {
			return nil, decodeError(coinbaseFills, err)
		}
		if decodeErr != nil {
			return nil, decodeError(coinbaseFills, decodeErr)
		}
		cursor, _ = jsonparser.GetString(resp, "cursor")
		if cursor == "" {
			return fills, nil
		}
	}
}

func parseFill(value []byte) (exchange.Fill, error) {
	var (
		f   exchange.Fill
		err error
	)
	if f.OrderID, err = jsonparser.GetString(value, "order_id"); err != nil {
		return f, err
	}
	if f.TradeID, err = jsonparser.GetString(value, "trade_id"); err != nil {
		if f.TradeID, err = jsonparser.GetString(value, "entry_id"); err != nil {
			return f, err
		}
	}
	f.ProductID, _ = jsonparser.GetString(value, "product_id")
	if f.Size, err = getDecimal(value, "size"); err != nil {
		return f, err
	}
	if f.Price, err = getDecimal(value, "price"); err != nil {
		return f, err
	}
	for _, key := range []string{"commission", "fee"} {
		fee, getErr := jsonparser.GetString(value, key)
		if getErr != nil || fee == "" {
			continue
		}
		if f.Fee, err = decimal.NewFromString(fee); err != nil {
			return f, err
		}
		f.FeeReported = true
		break
	}
	liquidity, _ := jsonparser.GetString(value, "liquidity_indicator")
	switch strings.ToUpper(liquidity) {
	case "M", string(exchange.Maker):
		f.Liquidity = exchange.Maker
	case "T", string(exchange.Taker):
		f.Liquidity = exchange.Taker
	}
	if ts, err := jsonparser.GetString(value, "trade_time"); err == nil {
		if f.TradeTime, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return f, err
		}
	}
	return f, nil
}

// GetTransactionSummary returns the account fee tier
func (c *Exchange) GetTransactionSummary(ctx context.Context) (*exchange.FeeTier, error) {
	resp, err := c.SendHTTPRequest(ctx, http.MethodGet, coinbaseTransactionSummary, nil, nil)
	if err != nil {
		return nil, err
	}
	tier := &exchange.FeeTier{}
	tier.Tier, _ = jsonparser.GetString(resp, "fee_tier", "pricing_tier")
	if tier.MakerRate, err = getDecimal(resp, "fee_tier", "maker_fee_rate"); err != nil {
		return nil, decodeError(coinbaseTransactionSummary, err)
	}
	if tier.TakerRate, err = getDecimal(resp, "fee_tier", "taker_fee_rate"); err != nil {
		return nil, decodeError(coinbaseTransactionSummary, err)
	}
	return tier, nil
}

// SendHTTPRequest sends an authenticated request to the brokerage API and
// returns the raw body. Every failure is marked with exchange.ErrTransport.
func (c *Exchange) SendHTTPRequest(ctx context.Context, method, path string, params url.Values, data interface{}) ([]byte, error) {
	endpoint := c.apiURL + "/" + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	var payload []byte
	if data != nil {
		var err error
		payload, err = json.Marshal(data)
		if err != nil {
			return nil, errors.Wrap(err, "marshal request body")
		}
	}
	item := func() (*request.Item, error) {
		headers := map[string]string{"Accept": "application/json"}
		if c.apiToken != "" {
			headers["Authorization"] = "Bearer " + c.apiToken
		}
		var body *bytes.Reader
		if payload != nil {
			headers["Content-Type"] = "application/json"
			body = bytes.NewReader(payload)
		}
		it := &request.Item{
			Method:  method,
			Path:    endpoint,
			Headers: headers,
			Verbose: c.Verbose,
		}
		if body != nil {
			it.Body = body
		}
		return it, nil
	}
	resp, err := c.requester.SendPayload(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", exchange.ErrTransport, errors.Wrapf(err, "%s %s %s", c.Name, method, path))
	}
	return resp, nil
}

func getDecimal(data []byte, keys ...string) (decimal.Decimal, error) {
	v, err := jsonparser.GetString(data, keys...)
	if err != nil {
		return decimal.Zero, err
	}
	if v == "" {
		return decimal.Zero, fmt.Errorf("%s is empty", strings.Join(keys, "."))
	}
	return decimal.NewFromString(v)
}

func decodeError(path string, err error) error {
	return fmt.Errorf("%w: %w", exchange.ErrTransport, errors.Wrapf(err, "%s decode %s response", exchangeName, path))
}
