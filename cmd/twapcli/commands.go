package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/config"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/engine"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
)

var (
	errMissingMarket  = errors.New("market is required")
	errMissingSide    = errors.New("side is required")
	errMissingOrderID = errors.New("TWAP order id is required")
)

var twapCommand = &cli.Command{
	Name:      "twap",
	Usage:     "execute and inspect TWAP orders",
	ArgsUsage: "<command> <args>",
	Subcommands: []*cli.Command{
		twapPlaceCommand,
		twapGetCommand,
		twapListCommand,
		twapFillsCommand,
		twapStatsCommand,
		twapDeleteCommand,
	},
}

var (
	twapPlaceCommand = &cli.Command{
		Name:      "place",
		Usage:     "splits an order into equal GTC limit slices placed over a duration, blocking until the schedule is exhausted",
		ArgsUsage: "<market> <side> <size> <slices> <duration>",
		Action:    twapPlace,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "market",
				Usage: "the product to trade e.g. BTC-USD",
			},
			&cli.StringFlag{
				Name:  "side",
				Usage: "BUY or SELL",
			},
			&cli.StringFlag{
				Name:  "size",
				Usage: "total base currency size",
			},
			&cli.IntFlag{
				Name:  "slices",
				Usage: "number of slices",
				Value: 10,
			},
			&cli.DurationFlag{
				Name:  "duration",
				Usage: "time over which the slices are spread",
				Value: time.Hour,
			},
			&cli.StringFlag{
				Name:  "pricetype",
				Usage: "limit, bid, ask or mid, the config default is used when empty",
			},
			&cli.StringFlag{
				Name:  "limit",
				Usage: "limit price, required for the limit price type and a worst acceptable price otherwise",
			},
		},
	}
	twapGetCommand = &cli.Command{
		Name:      "get",
		Usage:     "returns a TWAP order",
		ArgsUsage: "<id>",
		Action:    twapGet,
		Flags:     []cli.Flag{idFlag()},
	}
	twapListCommand = &cli.Command{
		Name:   "list",
		Usage:  "lists every TWAP order, newest first",
		Action: twapList,
	}
	twapFillsCommand = &cli.Command{
		Name:      "fills",
		Usage:     "fetches and stores the fills of a TWAP order",
		ArgsUsage: "<id>",
		Action:    twapFills,
		Flags:     []cli.Flag{idFlag()},
	}
	twapStatsCommand = &cli.Command{
		Name:      "stats",
		Usage:     "summarises the fills of a TWAP order",
		ArgsUsage: "<id>",
		Action:    twapStats,
		Flags:     []cli.Flag{idFlag()},
	}
	twapDeleteCommand = &cli.Command{
		Name:      "delete",
		Usage:     "deletes a finished TWAP order and its fills",
		ArgsUsage: "<id>",
		Action:    twapDelete,
		Flags:     []cli.Flag{idFlag()},
	}
)

var portfolioCommand = &cli.Command{
	Name:   "portfolio",
	Usage:  "values every account balance in the valuation quote currency",
	Action: viewPortfolio,
}

var serveCommand = &cli.Command{
	Name:   "serve",
	Usage:  "runs the read only REST API until interrupted",
	Action: serve,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "listen",
			Usage: "listen address, overrides the config value",
		},
	},
}

func idFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "id",
		Usage: "the TWAP order id",
	}
}

// stringArg returns the named flag or the positional argument at index
func stringArg(c *cli.Context, name string, index int) string {
	if c.IsSet(name) {
		return c.String(name)
	}
	return c.Args().Get(index)
}

func parseTWAPRequest(c *cli.Context) (*engine.TWAPRequest, error) {
	req := &engine.TWAPRequest{
		Market:    stringArg(c, "market", 0),
		Side:      stringArg(c, "side", 1),
		NumSlices: c.Int("slices"),
		Duration:  c.Duration("duration"),
		PriceType: c.String("pricetype"),
	}
	if req.Market == "" {
		return nil, errMissingMarket
	}
	if req.Side == "" {
		return nil, errMissingSide
	}

	size, err := decimal.NewFromString(stringArg(c, "size", 2))
	if err != nil {
		return nil, fmt.Errorf("invalid size: %w", err)
	}
	req.TotalSize = size

	if !c.IsSet("slices") && c.Args().Get(3) != "" {
		if _, err = fmt.Sscan(c.Args().Get(3), &req.NumSlices); err != nil {
			return nil, fmt.Errorf("invalid slices: %w", err)
		}
	}
	if !c.IsSet("duration") && c.Args().Get(4) != "" {
		if req.Duration, err = time.ParseDuration(c.Args().Get(4)); err != nil {
			return nil, fmt.Errorf("invalid duration: %w", err)
		}
	}
	if limit := c.String("limit"); limit != "" {
		price, err := decimal.NewFromString(limit)
		if err != nil {
			return nil, fmt.Errorf("invalid limit price: %w", err)
		}
		req.LimitPrice = decimal.NewNullDecimal(price)
	}
	return req, nil
}

func orderID(c *cli.Context) (string, error) {
	id := stringArg(c, "id", 0)
	if id == "" {
		return "", errMissingOrderID
	}
	return id, nil
}

func twapPlace(c *cli.Context) error {
	if c.NArg() == 0 && c.NumFlags() == 0 {
		return cli.ShowSubcommandHelp(c)
	}
	req, err := parseTWAPRequest(c)
	if err != nil {
		return err
	}
	e, err := setupEngine()
	if err != nil {
		return err
	}
	defer closeEngine(e)

	id, err := e.PlaceTWAPOrder(c.Context, req)
	if id == "" {
		return err
	}
	if err != nil {
		fmt.Printf("TWAP %s halted: %v\n", id, err)
	}
	o, getErr := e.GetTWAPOrder(c.Context, id)
	if getErr != nil {
		return errors.Join(err, getErr)
	}
	if jsonFormat {
		jsonOutput(o)
	} else {
		printOrder(o)
	}
	return err
}

func twapGet(c *cli.Context) error {
	id, err := orderID(c)
	if err != nil {
		return err
	}
	e, err := setupEngine()
	if err != nil {
		return err
	}
	defer closeEngine(e)

	o, err := e.GetTWAPOrder(c.Context, id)
	if err != nil {
		return err
	}
	if jsonFormat {
		jsonOutput(o)
		return nil
	}
	printOrder(o)
	return nil
}

func twapList(c *cli.Context) error {
	e, err := setupEngine()
	if err != nil {
		return err
	}
	defer closeEngine(e)

	orders, err := e.ListTWAPOrders(c.Context)
	if err != nil {
		return err
	}
	if jsonFormat {
		jsonOutput(orders)
		return nil
	}
	printOrderList(orders)
	return nil
}

func twapFills(c *cli.Context) error {
	id, err := orderID(c)
	if err != nil {
		return err
	}
	e, err := setupEngine()
	if err != nil {
		return err
	}
	defer closeEngine(e)

	fills, err := e.CheckTWAPFills(c.Context, id)
	if err != nil {
		return err
	}
	if jsonFormat {
		jsonOutput(fills)
		return nil
	}
	printFills(fills)
	return nil
}

func twapStats(c *cli.Context) error {
	id, err := orderID(c)
	if err != nil {
		return err
	}
	e, err := setupEngine()
	if err != nil {
		return err
	}
	defer closeEngine(e)

	stats, err := e.TWAPStatistics(c.Context, id)
	if err != nil {
		return err
	}
	if jsonFormat {
		jsonOutput(stats)
		return nil
	}
	printStatistics(stats)
	return nil
}

func twapDelete(c *cli.Context) error {
	id, err := orderID(c)
	if err != nil {
		return err
	}
	e, err := setupEngine()
	if err != nil {
		return err
	}
	defer closeEngine(e)

	if err := e.DeleteTWAPOrder(c.Context, id); err != nil {
		return err
	}
	fmt.Printf("TWAP %s deleted\n", id)
	return nil
}

// viewPortfolio prints account errors rather than failing the command
func viewPortfolio(c *cli.Context) error {
	e, err := setupEngine()
	if err != nil {
		return err
	}
	defer closeEngine(e)

	summary, err := e.ViewPortfolio(c.Context)
	if err != nil {
		fmt.Printf("Unable to fetch accounts: %v\n", err)
		return nil
	}
	if jsonFormat {
		jsonOutput(summary)
		return nil
	}
	printPortfolio(summary)
	return nil
}

func serve(c *cli.Context) error {
	e, err := setupEngine()
	if err != nil {
		return err
	}
	e.Config.RemoteControl.Enabled = true
	if listen := c.String("listen"); listen != "" {
		e.Config.RemoteControl.ListenAddress = listen
	}
	if e.Config.RemoteControl.ListenAddress == "" {
		e.Config.RemoteControl.ListenAddress = config.DefaultListenAddress
	}
	if err := e.Start(); err != nil {
		closeEngine(e)
		return err
	}
	fmt.Printf("Serving TWAP REST API on http://%s, interrupt to stop\n", e.Config.RemoteControl.ListenAddress)
	<-c.Context.Done()
	return e.Stop()
}

func closeEngine(e *engine.Engine) {
	if err := e.Close(); err != nil {
		fmt.Printf("closing engine: %v\n", err)
	}
}
