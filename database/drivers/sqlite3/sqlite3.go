package sqlite

import (
	"database/sql"
	"path/filepath"

	// import sqlite3 driver
	_ "github.com/mattn/go-sqlite3"

	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/database"
)

// Connect opens a connection to a sqlite database file located in the data
// path and returns a connected instance
func Connect(dataPath string, cfg *database.Config) (*database.Instance, error) {
	if cfg == nil || cfg.Database == "" {
		return nil, database.ErrNoDatabaseProvided
	}

	location := cfg.Database
	if !filepath.IsAbs(location) && location != ":memory:" {
		location = filepath.Join(dataPath, location)
	}

	dbConn, err := sql.Open("sqlite3", location+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	inst, err := database.NewInstance(cfg)
	if err != nil {
		return nil, err
	}
	inst.DataPath = dataPath
	if err := inst.SetConnection(dbConn); err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	return inst, nil
}
