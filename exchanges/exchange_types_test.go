package exchange

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBookTopMid(t *testing.T) {
	t.Parallel()
	b := &BookTop{Bid: decimal.NewFromInt(100), Ask: decimal.NewFromInt(101)}
	assert.True(t, b.Mid().Equal(decimal.RequireFromString("100.5")))
}

func TestAccountTotal(t *testing.T) {
	t.Parallel()
	a := Account{Available: decimal.NewFromInt(3), Hold: decimal.RequireFromString("0.5")}
	assert.True(t, a.Total().Equal(decimal.RequireFromString("3.5")))
}
