package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/common/cache"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/config"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/currency"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/database"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/database/drivers/postgres"
	sqlite "github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/database/drivers/sqlite3"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/database/repository/twaporder"
	exchange "github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges/coinbase"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges/paper"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges/strategy/common"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges/strategy/twap"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/log"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/portfolio"
)

// WithWaiter sets the waiter used between slices
func WithWaiter(w common.Waiter) Option {
	return func(e *Engine) {
		e.waiter = w
	}
}

// WithClock sets the clock used for order timestamps and cache expiry
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithSettings sets the command line settings
func WithSettings(s Settings) Option {
	return func(e *Engine) {
		e.Settings = s
	}
}

// New returns an engine around an already checked config, an exchange and a
// TWAP store
func New(cfg *config.Config, exch exchange.IBotExchange, store twap.Store, opts ...Option) (*Engine, error) {
	if cfg == nil {
		return nil, errConfigIsNil
	}
	if exch == nil {
		return nil, errExchangeIsNil
	}
	if store == nil {
		return nil, errStoreIsNil
	}

	e := &Engine{
		Config:   cfg,
		exchange: exch,
		store:    store,
		waiter:   common.TimerWaiter{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	var err error
	e.accounts, err = portfolio.NewAccountsCache(exch, cfg.Cache.AccountTTL, e.now)
	if err != nil {
		return nil, err
	}
	e.valuator, err = portfolio.NewValuator(exch, cfg.Stablecoins(), currency.NewCode(cfg.Portfolio.ValuationQuote))
	if err != nil {
		return nil, err
	}
	e.gate = twap.NewBalanceGate(e.accounts)
	e.fees = twap.NewFeeSchedule(exch, cfg.Cache.FeeTierTTL, e.now)
	e.reconciler = twap.NewReconciler(exch, e.fees, store)
	e.products = cache.New[string, *exchange.ProductDetail](cfg.Cache.ProductCapacity)
	return e, nil
}

// NewFromSettings loads the config and builds the exchange and store it
// describes
func NewFromSettings(settings *Settings, opts ...Option) (*Engine, error) {
	if settings == nil {
		return nil, errSettingsIsNil
	}

	cfg, err := loadConfigWithSettings(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to load config. Err: %w", err)
	}

	exch, err := setupExchange(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup exchange. Err: %w", err)
	}

	migrationDir := settings.MigrationDir
	if migrationDir == "" {
		migrationDir = database.MigrationDir
	}
	db, store, err := setupStore(cfg, migrationDir)
	if err != nil {
		return nil, fmt.Errorf("failed to setup TWAP store. Err: %w", err)
	}

	s := *settings
	s.DataDir = cfg.GetDataPath()
	s.MigrationDir = migrationDir
	e, err := New(cfg, exch, store, append([]Option{WithSettings(s)}, opts...)...)
	if err != nil {
		if db != nil {
			if closeErr := db.CloseConnection(); closeErr != nil {
				log.Errorf(log.DatabaseMgr, "Failed to close database: %v", closeErr)
			}
		}
		return nil, err
	}
	e.db = db
	return e, nil
}

// loadConfigWithSettings loads the config and applies command line overrides
func loadConfigWithSettings(settings *Settings) (*config.Config, error) {
	configFile := settings.ConfigFile
	if configFile == "" {
		configFile = config.DefaultFilePath()
	}
	log.Infof(log.ConfigMgr, "Loading config file %s..", configFile)
	cfg, err := config.Load(configFile, settings.EnvFile)
	if err != nil {
		return nil, err
	}

	if settings.DataDir != "" {
		cfg.DataDirectory = settings.DataDir
		if err := cfg.CheckDatabaseConfig(); err != nil {
			log.Errorf(log.DatabaseMgr, "Failed to configure database: %v", err)
		}
	}
	if settings.Simulate {
		cfg.Exchange.Simulate = true
	}
	if settings.Verbose {
		cfg.Exchange.Verbose = true
		cfg.Database.Verbose = true
	}
	return cfg, nil
}

func setupExchange(cfg *config.Config) (exchange.IBotExchange, error) {
	if cfg.Exchange.Simulate {
		log.Warnln(log.ExchangeSys, "Simulate mode enabled, orders are filled by the paper exchange")
		return paper.NewDefault(), nil
	}
	return coinbase.New(&coinbase.Config{
		APIURL:      cfg.Exchange.APIURL,
		APIToken:    cfg.Exchange.APIToken,
		HTTPTimeout: cfg.Exchange.HTTPTimeout,
		Verbose:     cfg.Exchange.Verbose,
	})
}

// setupStore connects and migrates the configured database. The in memory
// tracker is used when database support is disabled.
func setupStore(cfg *config.Config, migrationDir string) (*database.Instance, twap.Store, error) {
	if !cfg.Database.Enabled {
		log.Warnln(log.DatabaseMgr, "Database support disabled, TWAP orders are only kept in memory")
		return nil, twap.NewMemoryTracker(), nil
	}

	var db *database.Instance
	var err error
	switch database.GetSQLDialect(cfg.Database.Driver) {
	case database.DBSQLite3:
		dataPath := cfg.GetDataPath("database")
		if err = os.MkdirAll(dataPath, 0o770); err != nil {
			return nil, nil, err
		}
		db, err = sqlite.Connect(dataPath, &cfg.Database)
	case database.DBPostgreSQL:
		db, err = postgres.Connect(&cfg.Database)
	default:
		err = fmt.Errorf("%w: %s", database.ErrUnsupportedDriver, cfg.Database.Driver)
	}
	if err != nil {
		return nil, nil, err
	}

	if err = db.MigrateUp(migrationDir); err != nil {
		if closeErr := db.CloseConnection(); closeErr != nil {
			log.Errorf(log.DatabaseMgr, "Failed to close database: %v", closeErr)
		}
		return nil, nil, fmt.Errorf("migrating %s: %w", migrationDir, err)
	}
	log.Infof(log.DatabaseMgr, "Database connection established using %s driver", cfg.Database.Driver)

	store, err := twaporder.New(db)
	if err != nil {
		return nil, nil, err
	}
	return db, store, nil
}

// Start starts the REST server when remote control is enabled
func (e *Engine) Start() error {
	if e == nil {
		return errEngineIsNil
	}
	e.m.Lock()
	defer e.m.Unlock()
	if e.started {
		return errAlreadyStarted
	}

	if e.Config.RemoteControl.Enabled {
		e.restServer = &http.Server{
			Addr:              e.Config.RemoteControl.ListenAddress,
			Handler:           e.newRouter(),
			ReadHeaderTimeout: restHeaderTimeout,
		}
		go e.serveREST(e.restServer)
	}

	e.started = true
	e.Uptime = e.now()
	log.Debugf(log.Global, "Engine '%s' started.", e.Config.Name)
	log.Debugf(log.Global, "Using data dir: %s", e.Config.GetDataPath())
	log.Debugf(log.Global, "Using exchange %s, simulate: %v", e.exchange.GetName(), e.Config.Exchange.Simulate)
	return nil
}

func (e *Engine) serveREST(srv *http.Server) {
	log.Infof(log.RESTSys, "HTTP REST server support enabled. Listen URL: http://%s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Errorf(log.RESTSys, "REST server stopped: %v", err)
	}
}

// Stop shuts down the REST server and closes the database
func (e *Engine) Stop() error {
	if e == nil {
		return errEngineIsNil
	}
	e.m.Lock()
	defer e.m.Unlock()
	if !e.started {
		return errNotStarted
	}

	log.Debugln(log.Global, "Engine shutting down..")
	var errs error
	if e.restServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), restShutdownTimeout)
		if err := e.restServer.Shutdown(ctx); err != nil {
			log.Errorf(log.RESTSys, "REST server unable to stop. Error: %v", err)
			errs = errors.Join(errs, err)
		}
		cancel()
		e.restServer = nil
	}
	if err := e.Close(); err != nil {
		errs = errors.Join(errs, err)
	}
	e.started = false
	log.Debugln(log.Global, "Exiting.")
	return errs
}

// Close releases the database connection, it is safe to call on an engine
// that was never started
func (e *Engine) Close() error {
	if e == nil || e.db == nil || !e.db.IsConnected() {
		return nil
	}
	if err := e.db.CloseConnection(); err != nil {
		log.Errorf(log.DatabaseMgr, "Database unable to close. Error: %v", err)
		return err
	}
	return nil
}

// GetExchangeName returns the name of the connected exchange
func (e *Engine) GetExchangeName() string {
	return e.exchange.GetName()
}
