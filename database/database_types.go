package database

import (
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
)

// Supported database drivers
const (
	DBSQLite        = "sqlite"
	DBSQLite3       = "sqlite3"
	DBPostgreSQL    = "postgres"
	DBInvalidDriver = "invalid driver"
)

var (
	// MigrationDir default folder for migrations
	MigrationDir = filepath.Join("database", "migrations")

	// ErrNoDatabaseProvided error to display when no database is provided
	ErrNoDatabaseProvided = errors.New("no database provided")
	// ErrDatabaseSupportDisabled error to display when database support is disabled
	ErrDatabaseSupportDisabled = errors.New("database support is disabled")
	// ErrDatabaseNotConnected is returned when the instance has no live connection
	ErrDatabaseNotConnected = errors.New("database is not connected")
	// ErrUnsupportedDriver is returned for unknown driver names
	ErrUnsupportedDriver = errors.New("unsupported database driver")

	errNilInstance = errors.New("database instance is nil")
	errNilConfig   = errors.New("received nil config")
	errNilSQL      = errors.New("database SQL connection is nil")
)

// Instance holds the database connection and its configuration
type Instance struct {
	SQL       *sql.DB
	DataPath  string
	config    *Config
	connected bool
	m         sync.RWMutex
}

// Config holds all database configurable options including enable/disabled &
// DSN settings
type Config struct {
	Enabled           bool   `json:"enabled" mapstructure:"enabled"`
	Verbose           bool   `json:"verbose" mapstructure:"verbose"`
	Driver            string `json:"driver" mapstructure:"driver"`
	ConnectionDetails `mapstructure:",squash"`
}

// ConnectionDetails holds DSN information
type ConnectionDetails struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     uint16 `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
	SSLMode  string `json:"sslmode" mapstructure:"sslmode"`
}
