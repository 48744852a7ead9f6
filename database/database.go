package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/log"
	"github.com/thrasher-corp/goose"
)

// NewInstance returns an instance that is not yet connected
func NewInstance(cfg *Config) (*Instance, error) {
	i := &Instance{}
	if err := i.SetConfig(cfg); err != nil {
		return nil, err
	}
	return i, nil
}

// SetConfig replaces the configuration used for dialect lookups and logging
func (i *Instance) SetConfig(cfg *Config) error {
	if i == nil {
		return errNilInstance
	}
	if cfg == nil {
		return errNilConfig
	}
	i.m.Lock()
	i.config = cfg
	i.m.Unlock()
	return nil
}

// SetConnection attaches an opened pool, sizes it for the configured dialect
// and checks it is reachable. The instance is marked connected on success.
func (i *Instance) SetConnection(con *sql.DB) error {
	if i == nil {
		return errNilInstance
	}
	if con == nil {
		return errNilSQL
	}
	switch i.Dialect() {
	case DBSQLite3:
		// sqlite allows a single writer
		con.SetMaxOpenConns(1)
	case DBPostgreSQL:
		con.SetMaxOpenConns(2)
		con.SetMaxIdleConns(1)
		con.SetConnMaxLifetime(time.Hour)
	}
	if err := con.Ping(); err != nil {
		return err
	}
	i.m.Lock()
	i.SQL = con
	i.connected = true
	i.m.Unlock()
	return nil
}

// CloseConnection closes the pool. Closing an instance without one is a no-op.
func (i *Instance) CloseConnection() error {
	if i == nil {
		return errNilInstance
	}
	i.m.Lock()
	defer i.m.Unlock()
	i.connected = false
	if i.SQL == nil {
		return nil
	}
	return i.SQL.Close()
}

func (i *Instance) IsConnected() bool {
	if i == nil {
		return false
	}
	i.m.RLock()
	defer i.m.RUnlock()
	return i.connected
}

// GetConfig returns a copy of the configuration
func (i *Instance) GetConfig() *Config {
	if i == nil {
		return nil
	}
	i.m.RLock()
	defer i.m.RUnlock()
	if i.config == nil {
		return nil
	}
	cpy := *i.config
	return &cpy
}

func (i *Instance) Ping() error {
	db, err := i.GetSQL()
	if err != nil {
		return err
	}
	return db.Ping()
}

// GetSQL returns the pool of a connected instance
func (i *Instance) GetSQL() (*sql.DB, error) {
	if i == nil {
		return nil, errNilInstance
	}
	i.m.RLock()
	defer i.m.RUnlock()
	if !i.connected || i.SQL == nil {
		return nil, ErrDatabaseNotConnected
	}
	return i.SQL, nil
}

// Dialect returns the goose dialect of the configured driver
func (i *Instance) Dialect() string {
	cfg := i.GetConfig()
	if cfg == nil {
		return DBInvalidDriver
	}
	return GetSQLDialect(cfg.Driver)
}

// GetSQLDialect maps a configured driver name to its SQL dialect
func GetSQLDialect(driver string) string {
	switch strings.ToLower(driver) {
	case DBSQLite, DBSQLite3:
		return DBSQLite3
	case DBPostgreSQL, "postgresql", "psql":
		return DBPostgreSQL
	default:
		return DBInvalidDriver
	}
}

// Migrate runs a goose command against the instance. Valid commands are those
// of goose such as status, up, up-by-one, down and version.
func (i *Instance) Migrate(command, dir string, args ...string) error {
	db, err := i.GetSQL()
	if err != nil {
		return err
	}
	cfg := i.GetConfig()
	if cfg == nil {
		return errNilConfig
	}
	dialect := GetSQLDialect(cfg.Driver)
	if dialect == DBInvalidDriver {
		return fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
	if dir == "" {
		dir = MigrationDir
	}
	var arg string
	if len(args) > 0 {
		arg = args[0]
	}
	if cfg.Verbose {
		log.Debugf(log.DatabaseMgr, "goose %s dialect %s dir %s", command, dialect, dir)
	}
	return goose.Run(command, db, dialect, dir, arg)
}

// MigrateUp applies every pending migration
func (i *Instance) MigrateUp(dir string) error {
	if err := i.Migrate("up", dir); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	log.Infof(log.DatabaseMgr, "database schema up to date (%s)", i.Dialect())
	return nil
}
