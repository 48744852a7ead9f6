package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/config"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/database"
	dbPSQL "github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/database/drivers/postgres"
	dbsqlite3 "github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/database/drivers/sqlite3"
	"github.com/urfave/cli/v2"
)

var (
	configFile   string
	envFile      string
	dataDir      string
	migrationDir string
	command      string
	args         string
)

var errDatabaseDisabled = errors.New("database support is disabled")

func openDBConnection(cfg *config.Config) (*database.Instance, error) {
	var (
		dbConn *database.Instance
		err    error
	)
	switch database.GetSQLDialect(cfg.Database.Driver) {
	case database.DBPostgreSQL:
		dbConn, err = dbPSQL.Connect(&cfg.Database)
	case database.DBSQLite3:
		dataPath := cfg.GetDataPath("database")
		if err = os.MkdirAll(dataPath, 0o770); err != nil {
			return nil, err
		}
		dbConn, err = dbsqlite3.Connect(dataPath, &cfg.Database)
	default:
		return nil, fmt.Errorf("%w: %q", database.ErrUnsupportedDriver, cfg.Database.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("database failed to connect: %w", err)
	}
	return dbConn, nil
}

func run(c *cli.Context) error {
	conf, err := config.Load(configFile, envFile)
	if err != nil {
		return err
	}
	if dataDir != "" {
		conf.DataDirectory = dataDir
	}
	if !conf.Database.Enabled {
		return errDatabaseDisabled
	}

	dbConn, err := openDBConnection(conf)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbConn.CloseConnection(); err != nil {
			fmt.Println(err)
		}
	}()

	if dbConn.Dialect() == database.DBSQLite3 {
		fmt.Printf("Database file: %s\n", conf.Database.Database)
	} else {
		fmt.Printf("Connected to: %s\n", conf.Database.Host)
	}

	if command == "" {
		if err := dbConn.Migrate("status", migrationDir); err != nil {
			return err
		}
		fmt.Println()
		return cli.ShowAppHelp(c)
	}
	return dbConn.Migrate(command, migrationDir, strings.Fields(args)...)
}

func main() {
	app := cli.NewApp()
	app.Name = "dbmigrate"
	app.Usage = "TWAP terminal database migration tool"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:        "command",
			Usage:       "command to run status|up|up-by-one|up-to|down|down-to|redo|version|create",
			Destination: &command,
		},
		&cli.StringFlag{
			Name:        "args",
			Usage:       "arguments to pass to goose",
			Destination: &args,
		},
		&cli.StringFlag{
			Name:        "config",
			Value:       config.DefaultFilePath(),
			Usage:       "config file to load",
			Destination: &configFile,
		},
		&cli.StringFlag{
			Name:        "envfile",
			Value:       config.EnvFile,
			Usage:       "dotenv file holding database credentials",
			Destination: &envFile,
		},
		&cli.StringFlag{
			Name:        "datadir",
			Usage:       "overrides the config data directory",
			Destination: &dataDir,
		},
		&cli.StringFlag{
			Name:        "migrationdir",
			Value:       database.MigrationDir,
			Usage:       "override migration folder",
			Destination: &migrationDir,
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
