package engine

import (
	"context"

	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/currency"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/log"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/portfolio"
	"github.com/shopspring/decimal"
)

// ViewPortfolio values the cached account balances. When accounts cannot be
// fetched an empty summary is returned with the error.
func (e *Engine) ViewPortfolio(ctx context.Context) (*portfolio.Summary, error) {
	if e == nil {
		return nil, errEngineIsNil
	}
	accounts, err := e.accounts.Get(ctx)
	if err != nil {
		log.Errorf(log.Portfolio, "Unable to fetch accounts: %v", err)
		return &portfolio.Summary{
			Holdings: []portfolio.Holding{},
			Total:    decimal.Zero,
			Quote:    currency.NewCode(e.Config.Portfolio.ValuationQuote),
			Time:     e.now(),
		}, err
	}
	return e.valuator.ValuePortfolio(ctx, accounts), nil
}
