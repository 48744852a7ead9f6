package config

import (
	"errors"
	"time"

	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/database"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/log"
)

// Constants declared here are filename strings and defaults
const (
	File                       = "config.json"
	EnvFile                    = ".env"
	EnvPrefix                  = "TWAP"
	DefaultName                = "TWAP terminal"
	DefaultDataDirName         = ".twap-terminal"
	DefaultExchangeName        = "coinbase"
	DefaultSQLiteDatabase      = "twap.db"
	DefaultValuationQuote      = "USD"
	DefaultPriceType           = "limit"
	DefaultListenAddress       = "localhost:9052"
	defaultHTTPTimeout         = 15 * time.Second
	defaultMaxSlices           = 1000
	defaultMaxDuration         = 7 * 24 * time.Hour
	defaultAccountCacheTTL     = time.Minute
	defaultFeeTierCacheTTL     = time.Hour
	defaultProductCacheEntries = 64
)

// DefaultStablecoins are valued at exactly one unit of the valuation quote
var DefaultStablecoins = []string{"USD", "USDC", "USDT", "DAI"}

var (
	errConfigIsNil            = errors.New("config is nil")
	errUnsupportedExchange    = errors.New("unsupported exchange")
	errInvalidPriceType       = errors.New("invalid default price type")
	errInvalidDurationBounds  = errors.New("minimum duration exceeds maximum duration")
	errRemoteControlNoAddress = errors.New("remote control listen address is empty")
)

// Config is the overarching object that holds all the settings of the
// terminal
type Config struct {
	Name          string          `json:"name" mapstructure:"name"`
	DataDirectory string          `json:"dataDirectory" mapstructure:"datadirectory"`
	Logging       log.Config      `json:"logging" mapstructure:"logging"`
	Database      database.Config `json:"database" mapstructure:"database"`
	Exchange      ExchangeConfig  `json:"exchange" mapstructure:"exchange"`
	TWAP          TWAPConfig      `json:"twap" mapstructure:"twap"`
	Cache         CacheConfig     `json:"cache" mapstructure:"cache"`
	Portfolio     PortfolioConfig `json:"portfolio" mapstructure:"portfolio"`
	RemoteControl RESTConfig      `json:"remoteControl" mapstructure:"remotecontrol"`
}

// ExchangeConfig holds the exchange connection settings. The API token is
// normally supplied through TWAP_EXCHANGE_APITOKEN.
type ExchangeConfig struct {
	Name        string        `json:"name" mapstructure:"name"`
	APIURL      string        `json:"apiURL" mapstructure:"apiurl"`
	APIToken    string        `json:"apiToken,omitempty" mapstructure:"apitoken"`
	HTTPTimeout time.Duration `json:"httpTimeout" mapstructure:"httptimeout"`
	Simulate    bool          `json:"simulate" mapstructure:"simulate"`
	Verbose     bool          `json:"verbose" mapstructure:"verbose"`
}

// TWAPConfig bounds the accepted TWAP order parameters
type TWAPConfig struct {
	MaxSlices        int           `json:"maxSlices" mapstructure:"maxslices"`
	MinDuration      time.Duration `json:"minDuration" mapstructure:"minduration"`
	MaxDuration      time.Duration `json:"maxDuration" mapstructure:"maxduration"`
	DefaultPriceType string        `json:"defaultPriceType" mapstructure:"defaultpricetype"`
}

// CacheConfig holds cache lifetimes
type CacheConfig struct {
	AccountTTL      time.Duration `json:"accountTTL" mapstructure:"accountttl"`
	FeeTierTTL      time.Duration `json:"feeTierTTL" mapstructure:"feetierttl"`
	ProductCapacity uint64        `json:"productCapacity" mapstructure:"productcapacity"`
}

// PortfolioConfig holds valuation settings
type PortfolioConfig struct {
	ValuationQuote string   `json:"valuationQuote" mapstructure:"valuationquote"`
	Stablecoins    []string `json:"stablecoins" mapstructure:"stablecoins"`
}

// RESTConfig holds the read only REST API settings
type RESTConfig struct {
	Enabled       bool   `json:"enabled" mapstructure:"enabled"`
	ListenAddress string `json:"listenAddress" mapstructure:"listenaddress"`
}
