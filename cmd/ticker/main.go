package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"stockticker/internal/chart"
	"stockticker/internal/config"
	"stockticker/internal/httpx"
	"stockticker/internal/provider/duishu"
	"stockticker/internal/provider/eastmoney"
	"stockticker/internal/provider/sina"
	"stockticker/internal/quote"
	"stockticker/internal/rotate"
	"stockticker/internal/schedule"
)

func main() {
	cfgPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to config.json (optional)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	hc := httpx.New(15 * time.Second)

	quotes := duishu.New(duishu.Config{
		Endpoint: cfg.Quote.Endpoint,
		Timeout:  seconds(cfg.Quote.TimeoutSec),
	}, hc)
	resolverA := sina.New(sina.Config{
		QuoteEndpoint:  cfg.Sina.QuoteEndpoint,
		SearchEndpoint: cfg.Sina.SearchEndpoint,
		Timeout:        seconds(cfg.Sina.TimeoutSec),
	}, hc)
	resolverB := eastmoney.New(eastmoney.Config{
		QuoteEndpoint:  cfg.Eastmoney.QuoteEndpoint,
		SearchEndpoint: cfg.Eastmoney.SearchEndpoint,
		SearchToken:    cfg.Eastmoney.SearchToken,
		Timeout:        seconds(cfg.Eastmoney.TimeoutSec),
	}, eastmoney.WithHTTPClient(hc.HTTP))

	records := make(map[string]*quote.Record, len(cfg.Symbols))
	symbols := make([]string, 0, len(cfg.Symbols))
	for _, w := range cfg.Symbols {
		if _, ok := records[w.Symbol]; ok {
			continue
		}
		records[w.Symbol] = quote.NewRecord(w.Symbol, w.Name)
		symbols = append(symbols, w.Symbol)
	}
	if len(symbols) == 0 {
		log.Fatal("no symbols configured")
	}

	sched := schedule.New(schedule.Config{
		QueueSize:      cfg.QueueSize,
		FetchTimeout:   seconds(cfg.Quote.TimeoutSec),
		ResolveTimeout: seconds(cfg.Sina.TimeoutSec),
	}, quotes, resolverA, resolverB)
	sched.Start()
	defer sched.Stop()

	policy := chart.FixedBand
	if !cfg.Chart.FixedPercentage {
		policy = chart.DynamicBand
	}
	opts := chart.Options{Policy: policy, DefaultLimitPct: cfg.Chart.MaxPercentage}

	// Deliveries land on the worker goroutine; printing is the only
	// consumption here, and stdout writes are already serialized by it.
	onUpdate := func(rec *quote.Record) { printQuote(rec, opts) }

	cursor := rotate.New(symbols)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("tracking %d symbols, refresh every %ds", cursor.Len(), cfg.RefreshIntervalSec)
	tick := time.NewTicker(seconds(cfg.RefreshIntervalSec))
	defer tick.Stop()
	for {
		if sym, ok := cursor.Next(); ok {
			if !sched.Enqueue(records[sym], onUpdate) {
				log.Printf("queue busy (depth %d), skipping %s this tick", sched.Len(), sym)
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}
	}
}

func printQuote(rec *quote.Record, opts chart.Options) {
	if rec.LastPrice == "" {
		fmt.Printf("%s %s unavailable (%s)\n", rec.Symbol, rec.DisplayName, rec.LastErr)
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s %s", rec.Symbol, rec.DisplayName, rec.LastPrice, rec.ChangePercent)
	if rec.LastErr != quote.ErrNone {
		fmt.Fprintf(&b, " (stale: %s)", rec.LastErr)
	}
	if rec.Book != nil {
		buy, sell := rec.Book.Padded()
		fmt.Fprintf(&b, "  b1 %.2f/%d a1 %.2f/%d", buy[0].Price, buy[0].Volume, sell[0].Price, sell[0].Volume)
	}
	if layout, err := chart.Normalize(rec.Series, rec.PreviousClose, rec.Symbol, opts); err == nil && len(layout.Points) > 0 {
		fmt.Fprintf(&b, "  %s ±%.1f%%", sparkline(layout.Points, 32), layout.Band.MaxPct)
	}
	fmt.Println(b.String())
}

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// sparkline compresses normalized points into a fixed-width text strip,
// mapping yFraction -1..1 onto the block run.
func sparkline(points []chart.Point, width int) string {
	if len(points) < width {
		width = len(points)
	}
	var b strings.Builder
	for col := 0; col < width; col++ {
		p := points[col*len(points)/width]
		y := (p.Y + 1) / 2
		if y < 0 {
			y = 0
		}
		if y > 1 {
			y = 1
		}
		b.WriteRune(sparkRunes[int(y*float64(len(sparkRunes)-1)+0.5)])
	}
	return b.String()
}

func seconds(n int) time.Duration {
	if n <= 0 {
		n = 1
	}
	return time.Duration(n) * time.Second
}
