package currency

import (
	"fmt"
	"strings"

	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/encoding/json"
)

// DashDelimiter is the delimiter used by product identifiers such as BTC-USD
const DashDelimiter = "-"

// Pair is a base and quote currency traded against each other
type Pair struct {
	Delimiter string `json:"delimiter,omitempty"`
	Base      Code   `json:"base,omitempty"`
	Quote     Code   `json:"quote,omitempty"`
}

// NewPair returns a dash delimited pair
func NewPair(baseCurrency, quoteCurrency Code) Pair {
	return Pair{
		Delimiter: DashDelimiter,
		Base:      baseCurrency,
		Quote:     quoteCurrency,
	}
}

// NewPairFromString parses BTC-USD, BTC_USD or BTC/USD. Exactly one
// delimiter must split two non empty codes.
func NewPairFromString(currencyPair string) (Pair, error) {
	currencyPair = strings.TrimSpace(currencyPair)
	if currencyPair == "" {
		return EMPTYPAIR, ErrCurrencyPairEmpty
	}
	for _, d := range []string{DashDelimiter, "_", "/"} {
		if !strings.Contains(currencyPair, d) {
			continue
		}
		result := strings.Split(currencyPair, d)
		if len(result) != 2 || result[0] == "" || result[1] == "" {
			return EMPTYPAIR, fmt.Errorf("%w: cannot split %q", ErrCurrencyPairEmpty, currencyPair)
		}
		return Pair{
			Delimiter: d,
			Base:      NewCode(result[0]),
			Quote:     NewCode(result[1]),
		}, nil
	}
	return EMPTYPAIR, fmt.Errorf("%w: %q has no delimiter", ErrCurrencyPairEmpty, currencyPair)
}

func (p Pair) String() string {
	return p.Base.String() + p.Delimiter + p.Quote.String()
}

// ProductID returns BASE-QUOTE regardless of the parsed delimiter
func (p Pair) ProductID() string {
	return p.Base.String() + DashDelimiter + p.Quote.String()
}

// IsEmpty is true when either side is missing
func (p Pair) IsEmpty() bool {
	return p.Base.IsEmpty() || p.Quote.IsEmpty()
}

// Equal ignores the delimiter
func (p Pair) Equal(cPair Pair) bool {
	return p.Base.Equal(cPair.Base) && p.Quote.Equal(cPair.Quote)
}

// MarshalJSON encodes the pair as its product identifier
func (p Pair) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.ProductID())
}

// UnmarshalJSON accepts any delimiter NewPairFromString does. An empty string
// decodes to EMPTYPAIR.
func (p *Pair) UnmarshalJSON(d []byte) error {
	var pair string
	if err := json.Unmarshal(d, &pair); err != nil {
		return err
	}
	if pair == "" {
		*p = EMPTYPAIR
		return nil
	}
	newPair, err := NewPairFromString(pair)
	if err != nil {
		return err
	}
	*p = newPair
	return nil
}
