package portfolio

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/currency"
	exchange "github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/log"
	"github.com/shopspring/decimal"
)

// NewValuator returns a Valuator. An empty stablecoin set uses
// currency.DefaultStablecoins and an empty quote uses USD.
func NewValuator(prices exchange.ProductsFetcher, stablecoins currency.Stablecoins, quote currency.Code) (*Valuator, error) {
	if prices == nil {
		return nil, errPricerIsNil
	}
	if len(stablecoins) == 0 {
		stablecoins = currency.DefaultStablecoins()
	}
	if quote.IsEmpty() {
		quote = currency.USD
	}
	return &Valuator{prices: prices, stablecoins: stablecoins, quote: quote, now: time.Now}, nil
}

// ValuePortfolio values every account. Stablecoins and the quote currency
// are worth exactly one, every other non zero holding is priced through a
// single batched product request. Holdings without a price are listed with a
// null unit price and zero value. A price fetch failure returns a partial
// summary rather than an error.
func (v *Valuator) ValuePortfolio(ctx context.Context, accounts map[string]exchange.Account) *Summary {
	holdings := make([]Holding, 0, len(accounts))
	var toPrice []string
	wanted := make(map[string]int)
	for code, acc := range accounts {
		c := currency.NewCode(code)
		h := Holding{Currency: c, Quantity: acc.Available, Value: decimal.Zero}
		switch {
		case v.isUnitPriced(c):
			h.UnitPrice = decimal.NewNullDecimal(decimal.NewFromInt(1))
			h.Value = h.Quantity
		case h.Quantity.IsPositive():
			id := currency.NewPair(c, v.quote).ProductID()
			if _, ok := wanted[id]; !ok {
				toPrice = append(toPrice, id)
			}
			wanted[id] = len(holdings)
		}
		holdings = append(holdings, h)
	}

	summary := &Summary{Quote: v.quote, Time: v.now()}
	if len(toPrice) > 0 {
		sort.Strings(toPrice)
		prices, err := v.prices.GetProducts(ctx, toPrice...)
		if err != nil {
			log.Errorf(log.Portfolio, "bulk price fetch for %d products failed, portfolio partially valued: %v", len(toPrice), err)
			summary.Partial = true
		}
		for i := range prices {
			idx, ok := wanted[strings.ToUpper(prices[i].ProductID)]
			if !ok || !prices[i].Price.IsPositive() {
				continue
			}
			holdings[idx].UnitPrice = decimal.NewNullDecimal(prices[i].Price)
			holdings[idx].Value = holdings[idx].Quantity.Mul(prices[i].Price)
		}
	}

	total := decimal.Zero
	for i := range holdings {
		total = total.Add(holdings[i].Value)
		if !holdings[i].IsPriced() && holdings[i].Quantity.IsPositive() {
			log.Debugf(log.Portfolio, "no %s price for %s", v.quote, holdings[i].Currency)
		}
	}
	sort.SliceStable(holdings, func(i, j int) bool {
		if !holdings[i].Value.Equal(holdings[j].Value) {
			return holdings[i].Value.GreaterThan(holdings[j].Value)
		}
		return holdings[i].Currency < holdings[j].Currency
	})
	summary.Holdings = holdings
	summary.Total = total
	return summary
}

func (v *Valuator) isUnitPriced(c currency.Code) bool {
	return c.Equal(v.quote) || v.stablecoins.Contains(c)
}
