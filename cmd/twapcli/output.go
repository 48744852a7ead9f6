package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/encoding/json"
	exchange "github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges/strategy/twap"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/portfolio"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const displayTimeFormat = "2006-01-02 15:04:05"

var printer = message.NewPrinter(language.English)

func jsonOutput(in interface{}) {
	j, err := json.MarshalIndent(in, "", " ")
	if err != nil {
		return
	}
	fmt.Println(string(j))
}

// formatAmount groups thousands and rounds to cents
func formatAmount(d decimal.Decimal) string {
	return printer.Sprintf("%.2f", d.Round(2).InexactFloat64())
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(displayTimeFormat)
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
}

func printOrder(o *twap.Order) {
	fmt.Printf("TWAP %s\n", o.ID)
	fmt.Printf("  %s %s %s over %d slices in %s, price type %s", o.Side, o.TotalSize, o.Pair, o.NumSlices, o.Duration, o.PriceType)
	if o.LimitPrice.Valid {
		fmt.Printf(", limit %s", o.LimitPrice.Decimal)
	}
	fmt.Println()
	fmt.Printf("  status %s, placed %d, failed %d, created %s, finished %s\n",
		o.Status, len(o.Orders), len(o.FailedSlices), formatTime(o.CreatedAt), formatTime(o.FinishedAt))

	if len(o.Orders) > 0 {
		w := newTable()
		fmt.Fprintln(w, "SLICE\tORDER ID\tSIZE\tPRICE\tTIME")
		for _, p := range o.Orders {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", p.SliceIndex+1, p.OrderID, p.Size, p.Price, formatTime(p.Time))
		}
		_ = w.Flush()
	}
	if len(o.FailedSlices) > 0 {
		w := newTable()
		fmt.Fprintln(w, "SLICE\tREASON\tSIZE\tDETAIL")
		for _, f := range o.FailedSlices {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", f.SliceIndex+1, f.Reason, f.Size, f.Detail)
		}
		_ = w.Flush()
	}
}

func printOrderList(orders []*twap.Order) {
	if len(orders) == 0 {
		fmt.Println("No TWAP orders")
		return
	}
	w := newTable()
	fmt.Fprintln(w, "ID\tMARKET\tSIDE\tSIZE\tSLICES\tSTATUS\tCREATED")
	for _, o := range orders {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\t%s\t%s\n",
			o.ID, o.Pair, o.Side, o.TotalSize, len(o.Orders), o.NumSlices, o.Status, formatTime(o.CreatedAt))
	}
	_ = w.Flush()
}

func printFills(fills []exchange.Fill) {
	if len(fills) == 0 {
		fmt.Println("No fills")
		return
	}
	w := newTable()
	fmt.Fprintln(w, "TRADE ID\tORDER ID\tSIZE\tPRICE\tFEE\tLIQUIDITY\tTIME")
	for _, f := range fills {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			f.TradeID, f.OrderID, f.Size, f.Price, f.Fee, f.Liquidity, formatTime(f.TradeTime))
	}
	_ = w.Flush()
}

func printStatistics(s *twap.Statistics) {
	w := newTable()
	fmt.Fprintf(w, "TWAP\t%s\n", s.TWAPID)
	fmt.Fprintf(w, "Filled\t%s of %s (%s%%)\n", s.TotalFilled, s.TargetSize, s.CompletionRate.StringFixed(2))
	fmt.Fprintf(w, "Value\t%s\n", formatAmount(s.TotalValue))
	fmt.Fprintf(w, "VWAP\t%s\n", formatAmount(s.VWAP))
	fmt.Fprintf(w, "Fees\t%s\n", formatAmount(s.TotalFees))
	fmt.Fprintf(w, "Fills\t%d (maker %d, taker %d)\n", s.NumFills, s.MakerFills, s.TakerFills)
	fmt.Fprintf(w, "Slices\t%d placed, %d failed\n", s.PlacedSlices, s.FailedSlices)
	fmt.Fprintf(w, "First fill\t%s\n", formatTime(s.FirstFill))
	fmt.Fprintf(w, "Last fill\t%s\n", formatTime(s.LastFill))
	_ = w.Flush()
}

func printPortfolio(s *portfolio.Summary) {
	w := newTable()
	fmt.Fprintf(w, "CURRENCY\tQUANTITY\tPRICE (%s)\tVALUE (%s)\n", s.Quote, s.Quote)
	for _, h := range s.Holdings {
		price := "n/a"
		if h.IsPriced() {
			price = formatAmount(h.UnitPrice.Decimal)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", h.Currency, h.Quantity, price, formatAmount(h.Value))
	}
	fmt.Fprintf(w, "TOTAL\t\t\t%s\n", formatAmount(s.Total))
	_ = w.Flush()
	if s.Partial {
		fmt.Println("Prices could not be fetched, the total only includes stablecoins")
	}
}
