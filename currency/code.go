package currency

import (
	"errors"
	"strings"

	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/encoding/json"
)

var (
	ErrCurrencyCodeEmpty = errors.New("currency code is empty")
	ErrCurrencyPairEmpty = errors.New("currency pair is empty")

	EMPTYCODE = Code("")
	EMPTYPAIR = Pair{}
)

// Code is an upper case currency ticker such as BTC or USDC
type Code string

// Common currency codes
var (
	BTC  = NewCode("BTC")
	ETH  = NewCode("ETH")
	SOL  = NewCode("SOL")
	USD  = NewCode("USD")
	USDC = NewCode("USDC")
	USDT = NewCode("USDT")
	DAI  = NewCode("DAI")
)

// NewCode trims and upper cases a ticker
func NewCode(c string) Code {
	return Code(strings.ToUpper(strings.TrimSpace(c)))
}

func (c Code) String() string {
	return string(c)
}

func (c Code) IsEmpty() bool {
	return c == EMPTYCODE
}

// Equal ignores case so codes read from config compare equal to API codes
func (c Code) Equal(check Code) bool {
	return strings.EqualFold(string(c), string(check))
}

// UnmarshalJSON normalises the decoded ticker
func (c *Code) UnmarshalJSON(d []byte) error {
	var s string
	if err := json.Unmarshal(d, &s); err != nil {
		return err
	}
	*c = NewCode(s)
	return nil
}
