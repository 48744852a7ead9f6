package currency

// Stablecoins is a set of currency codes valued at exactly one unit of the
// valuation quote
type Stablecoins map[Code]struct{}

// DefaultStablecoins returns the USD pegged set used when none is configured
func DefaultStablecoins() Stablecoins {
	return NewStablecoins(USD.String(), USDC.String(), USDT.String(), DAI.String())
}

// NewStablecoins builds a set from ticker strings, empty entries are skipped
func NewStablecoins(codes ...string) Stablecoins {
	s := make(Stablecoins, len(codes))
	for i := range codes {
		c := NewCode(codes[i])
		if c.IsEmpty() {
			continue
		}
		s[c] = struct{}{}
	}
	return s
}

// Contains returns true if the code is a stablecoin
func (s Stablecoins) Contains(c Code) bool {
	_, ok := s[NewCode(c.String())]
	return ok
}
