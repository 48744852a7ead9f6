package order

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTimeInForce is returned when a time in force string is not recognised
var ErrInvalidTimeInForce = errors.New("invalid time in force")

// TimeInForce holds how long a limit order may rest on the book. Values are
// flags so PostOnly can be combined with a duration.
type TimeInForce uint8

// Supported time in force flags
const (
	UnknownTIF        TimeInForce = 0
	GoodTillCancel    TimeInForce = 1
	ImmediateOrCancel TimeInForce = 2
	PostOnly          TimeInForce = 4
)

var tifFlagOrder = []struct {
	flag TimeInForce
	name string
}{
	{GoodTillCancel, "GTC"},
	{ImmediateOrCancel, "IOC"},
	{PostOnly, "POST_ONLY"},
}

var tifAliases = map[string]TimeInForce{
	"GTC":                  GoodTillCancel,
	"GOOD_UNTIL_CANCELLED": GoodTillCancel,
	"IOC":                  ImmediateOrCancel,
	"IMMEDIATE_OR_CANCEL":  ImmediateOrCancel,
	"POST_ONLY":            PostOnly,
	"POSTONLY":             PostOnly,
}

// Is reports whether every bit of in is set
func (t TimeInForce) Is(in TimeInForce) bool {
	return in != UnknownTIF && t&in == in
}

// StringToTimeInForce parses a comma separated list such as "gtc,post_only"
func StringToTimeInForce(s string) (TimeInForce, error) {
	var tif TimeInForce
	for _, part := range strings.Split(s, ",") {
		part = strings.ToUpper(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		flag, ok := tifAliases[part]
		if !ok {
			return UnknownTIF, fmt.Errorf("%w: %q", ErrInvalidTimeInForce, part)
		}
		tif |= flag
	}
	return tif, nil
}

func (t TimeInForce) String() string {
	names := make([]string, 0, len(tifFlagOrder))
	for _, f := range tifFlagOrder {
		if t.Is(f.flag) {
			names = append(names, f.name)
		}
	}
	if len(names) == 0 {
		return "NONE"
	}
	return strings.Join(names, ",")
}
