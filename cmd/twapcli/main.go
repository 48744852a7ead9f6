package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/config"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/database"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/engine"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/signaler"
	"github.com/urfave/cli/v2"
)

var (
	settings   engine.Settings
	jsonFormat bool
)

func setupEngine() (*engine.Engine, error) {
	s := settings
	return engine.NewFromSettings(&s)
}

func main() {
	app := cli.NewApp()
	app.Name = "twapcli"
	app.Version = "0.1.0"
	app.EnableBashCompletion = true
	app.Usage = "command line interface for TWAP execution and portfolio valuation"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Value:       config.DefaultFilePath(),
			Usage:       "config file to load",
			Destination: &settings.ConfigFile,
		},
		&cli.StringFlag{
			Name:        "envfile",
			Value:       config.EnvFile,
			Usage:       "dotenv file holding credentials such as TWAP_EXCHANGE_APITOKEN",
			Destination: &settings.EnvFile,
		},
		&cli.StringFlag{
			Name:        "datadir",
			Usage:       "overrides the config data directory",
			Destination: &settings.DataDir,
		},
		&cli.StringFlag{
			Name:        "migrationdir",
			Value:       database.MigrationDir,
			Usage:       "database migration folder",
			Destination: &settings.MigrationDir,
		},
		&cli.BoolFlag{
			Name:        "simulate",
			Aliases:     []string{"s"},
			Usage:       "routes orders to the paper exchange",
			Destination: &settings.Simulate,
		},
		&cli.BoolFlag{
			Name:        "verbose",
			Usage:       "logs exchange requests and strategy reports",
			Destination: &settings.Verbose,
		},
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "prints results as JSON",
			Destination: &jsonFormat,
		},
	}
	app.Commands = []*cli.Command{
		twapCommand,
		portfolioCommand,
		serveCommand,
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		interrupt := signaler.WaitForInterrupt()
		<-interrupt
		cancel()
		fmt.Println("interrupted, stopping after the current slice. Interrupt again to exit immediately")
		<-interrupt
		os.Exit(1)
	}()

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
