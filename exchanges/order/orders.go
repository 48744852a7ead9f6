package order

import (
	"fmt"
	"strings"
)

// Validate rejects a submission the exchange would refuse
func (s *Submit) Validate() error {
	if s == nil {
		return ErrSubmissionIsNil
	}
	switch {
	case s.Pair.IsEmpty():
		return ErrPairIsEmpty
	case s.Side != Buy && s.Side != Sell:
		return fmt.Errorf("%w: %q", ErrSideIsInvalid, s.Side)
	case s.Type != Market && s.Type != Limit:
		return fmt.Errorf("%w: %q", ErrTypeIsInvalid, s.Type)
	case !s.Amount.IsPositive():
		return fmt.Errorf("%w: %s", ErrAmountIsInvalid, s.Amount)
	case s.Type == Limit && !s.Price.IsPositive():
		return ErrPriceMustBeSetIfLimitOrder
	case s.ClientOrderID == "":
		return ErrClientOrderIDMustBeSet
	}
	return nil
}

func (t Type) String() string {
	return string(t)
}

func (s Side) String() string {
	return string(s)
}

// Lower returns the side as used in lower case payloads and file names
func (s Side) Lower() string {
	return strings.ToLower(string(s))
}

// IsBuy reports whether quote currency is spent
func (s Side) IsBuy() bool {
	return s == Buy
}

// StringToOrderSide parses a case insensitive BUY or SELL
func StringToOrderSide(side string) (Side, error) {
	if s := Side(strings.ToUpper(strings.TrimSpace(side))); s == Buy || s == Sell {
		return s, nil
	}
	return UnknownSide, fmt.Errorf("%w: %q", ErrSideIsInvalid, side)
}
