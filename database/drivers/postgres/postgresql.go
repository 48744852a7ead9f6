package postgres

import (
	"database/sql"
	"fmt"

	// import lib/pq driver
	_ "github.com/lib/pq"

	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/database"
)

// Connect opens a connection to a postgres database and returns a connected
// instance
func Connect(cfg *database.Config) (*database.Instance, error) {
	if cfg == nil || cfg.Database == "" {
		return nil, database.ErrNoDatabaseProvided
	}
	dbConn, err := sql.Open("postgres", DSN(&cfg.ConnectionDetails))
	if err != nil {
		return nil, err
	}

	inst, err := database.NewInstance(cfg)
	if err != nil {
		return nil, err
	}
	if err := inst.SetConnection(dbConn); err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	return inst, nil
}

// DSN builds a lib/pq key value connection string
func DSN(c *database.ConnectionDetails) string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.Username,
		c.Password,
		c.Database,
		sslMode)
}
