package twap

import (
	"context"
	"fmt"

	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/currency"
	exchange "github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges/order"
	"github.com/shopspring/decimal"
)

// AccountsRefresher fetches a fresh account mapping bypassing any cache TTL
type AccountsRefresher interface {
	Refresh(ctx context.Context) (map[string]exchange.Account, error)
}

// BalanceGate checks available balances immediately before each slice
type BalanceGate struct {
	accounts AccountsRefresher
}

// NewBalanceGate returns a BalanceGate
func NewBalanceGate(accounts AccountsRefresher) *BalanceGate {
	return &BalanceGate{accounts: accounts}
}

// AvailableBalance returns the available balance of a currency, zero when
// no account is held
func (g *BalanceGate) AvailableBalance(ctx context.Context, c currency.Code) (decimal.Decimal, error) {
	if g == nil || g.accounts == nil {
		return decimal.Zero, errBalanceGateIsNil
	}
	accounts, err := g.accounts.Refresh(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	acc, ok := accounts[c.String()]
	if !ok {
		return decimal.Zero, nil
	}
	return acc.Available, nil
}

// Check returns ErrInsufficientBalance when the slice cannot be funded. A
// balance query error is reported as insufficient balance.
func (g *BalanceGate) Check(ctx context.Context, side order.Side, pair currency.Pair, size, price decimal.Decimal) error {
	deployment := pair.Quote
	required := size.Mul(price)
	if !side.IsBuy() {
		deployment = pair.Base
		required = size
	}
	avail, err := g.AvailableBalance(ctx, deployment)
	if err != nil {
		return fmt.Errorf("%w: balance query for %s failed: %w", ErrInsufficientBalance, deployment, err)
	}
	if avail.LessThan(required) {
		return fmt.Errorf("%w: %s available %s required %s", ErrInsufficientBalance, deployment, avail, required)
	}
	return nil
}
