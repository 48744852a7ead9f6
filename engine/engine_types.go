package engine

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/common/cache"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/config"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/database"
	exchange "github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges/strategy/common"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges/strategy/twap"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/portfolio"
	"github.com/shopspring/decimal"
)

const (
	strategyName        = "TWAP"
	restShutdownTimeout = 5 * time.Second
	restHeaderTimeout   = 10 * time.Second
)

var (
	errEngineIsNil      = errors.New("engine instance is nil")
	errSettingsIsNil    = errors.New("engine settings is nil")
	errConfigIsNil      = errors.New("engine config is nil")
	errExchangeIsNil    = errors.New("exchange is nil")
	errStoreIsNil       = errors.New("TWAP store is nil")
	errRequestIsNil     = errors.New("TWAP request is nil")
	errAlreadyStarted   = errors.New("engine already started")
	errNotStarted       = errors.New("engine not started")
	errOrderStillActive = errors.New("TWAP order is still active")
	errEmptyOrderID     = errors.New("TWAP order id is empty")
)

// Settings stores engine params supplied by the command line
type Settings struct {
	ConfigFile   string
	EnvFile      string
	DataDir      string
	MigrationDir string
	Simulate     bool
	Verbose      bool
}

// Engine contains configuration, the exchange connection and the TWAP and
// portfolio services built on top of it
type Engine struct {
	Config   *config.Config
	Settings Settings
	Uptime   time.Time

	exchange   exchange.IBotExchange
	db         *database.Instance
	store      twap.Store
	accounts   *portfolio.AccountsCache
	valuator   *portfolio.Valuator
	gate       *twap.BalanceGate
	fees       *twap.FeeSchedule
	reconciler *twap.Reconciler
	products   *cache.LRU[string, *exchange.ProductDetail]
	waiter     common.Waiter
	now        func() time.Time

	m          sync.Mutex
	started    bool
	restServer *http.Server
}

// Option configures an Engine
type Option func(*Engine)

// TWAPRequest holds the operator input for a new TWAP order. Market is in
// BASE-QUOTE form, Side is BUY or SELL.
type TWAPRequest struct {
	Market     string              `json:"market"`
	Side       string              `json:"side"`
	TotalSize  decimal.Decimal     `json:"totalSize"`
	NumSlices  int                 `json:"numSlices"`
	Duration   time.Duration       `json:"duration"`
	PriceType  string              `json:"priceType"`
	LimitPrice decimal.NullDecimal `json:"limitPrice"`
}
