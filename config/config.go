package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/currency"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/database"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges/strategy/twap"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/log"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultDataDir returns the default data directory, ~/.twap-terminal
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultDataDirName
	}
	return filepath.Join(home, DefaultDataDirName)
}

// DefaultFilePath returns the default config file path
func DefaultFilePath() string {
	return filepath.Join(DefaultDataDir(), File)
}

// LoadEnvFile loads KEY=value pairs into the process environment. Values
// already present in the environment win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Load reads the config file, applies TWAP_ prefixed environment overrides
// and checks the result. An empty or missing config file yields defaults.
func Load(configPath, envPath string) (*Config, error) {
	if err := LoadEnvFile(envPath); err != nil {
		return nil, err
	}

	v := newViper()
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("fatal error opening %s file. Error: %w", configPath, err)
			}
			log.Warnf(log.ConfigMgr, "Config file %s not found, using defaults", configPath)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("fatal error decoding config: %w", err)
	}
	if err := c.CheckConfig(); err != nil {
		return nil, err
	}
	return &c, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// every key needs a default for AutomaticEnv to see it during Unmarshal
	v.SetDefault("name", DefaultName)
	v.SetDefault("datadirectory", "")

	logging := log.GenDefaultSettings()
	v.SetDefault("logging.enabled", *logging.Enabled)
	v.SetDefault("logging.level", logging.Level)
	v.SetDefault("logging.output", logging.Output)
	v.SetDefault("logging.encoding", logging.Encoding)
	v.SetDefault("logging.filename", logging.FileName)
	v.SetDefault("logging.subloggers", []log.SubLoggerConfig{})

	v.SetDefault("database.enabled", true)
	v.SetDefault("database.verbose", false)
	v.SetDefault("database.driver", database.DBSQLite3)
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 0)
	v.SetDefault("database.username", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", DefaultSQLiteDatabase)
	v.SetDefault("database.sslmode", "")

	v.SetDefault("exchange.name", DefaultExchangeName)
	v.SetDefault("exchange.apiurl", "")
	v.SetDefault("exchange.apitoken", "")
	v.SetDefault("exchange.httptimeout", defaultHTTPTimeout)
	v.SetDefault("exchange.simulate", false)
	v.SetDefault("exchange.verbose", false)

	v.SetDefault("twap.maxslices", defaultMaxSlices)
	v.SetDefault("twap.minduration", time.Duration(0))
	v.SetDefault("twap.maxduration", defaultMaxDuration)
	v.SetDefault("twap.defaultpricetype", DefaultPriceType)

	v.SetDefault("cache.accountttl", defaultAccountCacheTTL)
	v.SetDefault("cache.feetierttl", defaultFeeTierCacheTTL)
	v.SetDefault("cache.productcapacity", defaultProductCacheEntries)

	v.SetDefault("portfolio.valuationquote", DefaultValuationQuote)
	v.SetDefault("portfolio.stablecoins", DefaultStablecoins)

	v.SetDefault("remotecontrol.enabled", false)
	v.SetDefault("remotecontrol.listenaddress", DefaultListenAddress)
	return v
}

// CheckConfig fills in defaults for unset values and validates the rest
func (c *Config) CheckConfig() error {
	if c == nil {
		return errConfigIsNil
	}
	if c.Name == "" {
		c.Name = DefaultName
	}

	if err := c.CheckLoggerConfig(); err != nil {
		log.Errorf(log.ConfigMgr, "Failed to configure logger, some logging features unavailable: %s", err)
	}

	if err := c.CheckDatabaseConfig(); err != nil {
		log.Errorf(log.DatabaseMgr, "Failed to configure database: %v", err)
	}

	if err := c.CheckExchangeConfig(); err != nil {
		return fmt.Errorf("fatal error checking config values. Error: %w", err)
	}

	if err := c.CheckTWAPConfig(); err != nil {
		return fmt.Errorf("fatal error checking config values. Error: %w", err)
	}

	c.CheckCacheConfig()
	c.CheckPortfolioConfig()

	if err := c.CheckRemoteControlConfig(); err != nil {
		log.Errorf(log.ConfigMgr, "Remote control disabled: %v", err)
	}
	return nil
}

// CheckLoggerConfig checks the logging settings and applies them
func (c *Config) CheckLoggerConfig() error {
	if c.Logging.Enabled == nil || c.Logging.Output == "" {
		c.Logging = log.GenDefaultSettings()
	}
	if c.Logging.Level == "" {
		c.Logging.Level = log.DefaultLevels
	}
	if strings.Contains(strings.ToLower(c.Logging.Output), "file") {
		logPath := c.GetDataPath("logs")
		if err := os.MkdirAll(logPath, 0o770); err != nil {
			return err
		}
		log.LogPath = logPath
	}
	return log.SetupGlobalLogger(&c.Logging)
}

// CheckDatabaseConfig checks the database settings, disabling the database
// when the driver is unsupported
func (c *Config) CheckDatabaseConfig() error {
	if (c.Database == database.Config{}) {
		c.Database.Driver = database.DBSQLite3
		c.Database.Database = DefaultSQLiteDatabase
	}
	if !c.Database.Enabled {
		return nil
	}
	switch database.GetSQLDialect(c.Database.Driver) {
	case database.DBSQLite3:
		if c.Database.Database == "" {
			log.Warnf(log.ConfigMgr, "Database name not set, defaulting to %s", DefaultSQLiteDatabase)
			c.Database.Database = DefaultSQLiteDatabase
		}
		return os.MkdirAll(c.GetDataPath("database"), 0o770)
	case database.DBPostgreSQL:
		if c.Database.Host == "" {
			c.Database.Enabled = false
			return fmt.Errorf("%w: postgres host", database.ErrNoDatabaseProvided)
		}
		if c.Database.Port == 0 {
			log.Warnf(log.ConfigMgr, "Database port not set, defaulting to 5432")
			c.Database.Port = 5432
		}
		return nil
	default:
		c.Database.Enabled = false
		return fmt.Errorf("%w %v, database disabled", database.ErrUnsupportedDriver, c.Database.Driver)
	}
}

// CheckExchangeConfig checks the exchange connection settings
func (c *Config) CheckExchangeConfig() error {
	if c.Exchange.Name == "" {
		log.Warnf(log.ConfigMgr, "Exchange name not set, defaulting to %s", DefaultExchangeName)
		c.Exchange.Name = DefaultExchangeName
	}
	c.Exchange.Name = strings.ToLower(c.Exchange.Name)
	switch c.Exchange.Name {
	case DefaultExchangeName:
	case "paper":
		c.Exchange.Simulate = true
	default:
		return fmt.Errorf("%w: %s", errUnsupportedExchange, c.Exchange.Name)
	}
	if c.Exchange.HTTPTimeout <= 0 {
		log.Warnf(log.ConfigMgr, "Exchange HTTP Timeout value not set, defaulting to %v.", defaultHTTPTimeout)
		c.Exchange.HTTPTimeout = defaultHTTPTimeout
	}
	if !c.Exchange.Simulate && c.Exchange.APIToken == "" {
		log.Warnf(log.ConfigMgr, "Exchange %s API token not set, set %s_EXCHANGE_APITOKEN or use simulate mode", c.Exchange.Name, EnvPrefix)
	}
	return nil
}

// CheckTWAPConfig checks the TWAP parameter bounds
func (c *Config) CheckTWAPConfig() error {
	if c.TWAP.MaxSlices <= 0 {
		log.Warnf(log.ConfigMgr, "TWAP max slices not set, defaulting to %d", defaultMaxSlices)
		c.TWAP.MaxSlices = defaultMaxSlices
	}
	if c.TWAP.MinDuration < 0 {
		log.Warnf(log.ConfigMgr, "TWAP min duration negative, defaulting to 0")
		c.TWAP.MinDuration = 0
	}
	if c.TWAP.MaxDuration <= 0 {
		log.Warnf(log.ConfigMgr, "TWAP max duration not set, defaulting to %v", defaultMaxDuration)
		c.TWAP.MaxDuration = defaultMaxDuration
	}
	if c.TWAP.MinDuration > c.TWAP.MaxDuration {
		return fmt.Errorf("%w: %v > %v", errInvalidDurationBounds, c.TWAP.MinDuration, c.TWAP.MaxDuration)
	}
	if c.TWAP.DefaultPriceType == "" {
		c.TWAP.DefaultPriceType = DefaultPriceType
	}
	pt, err := twap.StringToPriceType(c.TWAP.DefaultPriceType)
	if err != nil {
		return fmt.Errorf("%w: %w", errInvalidPriceType, err)
	}
	c.TWAP.DefaultPriceType = string(pt)
	return nil
}

// CheckCacheConfig checks cache lifetimes
func (c *Config) CheckCacheConfig() {
	if c.Cache.AccountTTL <= 0 {
		log.Warnf(log.ConfigMgr, "Account cache TTL not set, defaulting to %v", defaultAccountCacheTTL)
		c.Cache.AccountTTL = defaultAccountCacheTTL
	}
	if c.Cache.FeeTierTTL <= 0 {
		log.Warnf(log.ConfigMgr, "Fee tier cache TTL not set, defaulting to %v", defaultFeeTierCacheTTL)
		c.Cache.FeeTierTTL = defaultFeeTierCacheTTL
	}
	if c.Cache.ProductCapacity == 0 {
		c.Cache.ProductCapacity = defaultProductCacheEntries
	}
}

// CheckPortfolioConfig checks valuation settings
func (c *Config) CheckPortfolioConfig() {
	if c.Portfolio.ValuationQuote == "" {
		log.Warnf(log.ConfigMgr, "Portfolio valuation quote not set, defaulting to %s", DefaultValuationQuote)
		c.Portfolio.ValuationQuote = DefaultValuationQuote
	}
	c.Portfolio.ValuationQuote = currency.NewCode(c.Portfolio.ValuationQuote).String()
	if len(c.Portfolio.Stablecoins) == 0 {
		c.Portfolio.Stablecoins = append([]string(nil), DefaultStablecoins...)
	}
}

// CheckRemoteControlConfig checks the REST API settings
func (c *Config) CheckRemoteControlConfig() error {
	if !c.RemoteControl.Enabled {
		return nil
	}
	if c.RemoteControl.ListenAddress == "" {
		c.RemoteControl.Enabled = false
		return errRemoteControlNoAddress
	}
	return nil
}

// TWAPLimits returns the configured parameter bounds
func (c *Config) TWAPLimits() twap.Limits {
	return twap.Limits{
		MaxSlices:   c.TWAP.MaxSlices,
		MinDuration: c.TWAP.MinDuration,
		MaxDuration: c.TWAP.MaxDuration,
	}
}

// Stablecoins returns the configured stablecoin set
func (c *Config) Stablecoins() currency.Stablecoins {
	return currency.NewStablecoins(c.Portfolio.Stablecoins...)
}

// GetDataPath gets the data path for the given subpath
func (c *Config) GetDataPath(elem ...string) string {
	baseDir := c.DataDirectory
	if baseDir == "" {
		baseDir = DefaultDataDir()
	}
	return filepath.Join(append([]string{baseDir}, elem...)...)
}
